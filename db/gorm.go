package db

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"moodmusic/config"
	"moodmusic/logger"
	"moodmusic/model"
)

// DSN builds the MySQL connection string for cfg.
func DSN(cfg config.DBConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	c.DBName = cfg.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Connect opens the MySQL database through GORM and configures the pool.
func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	gdb, err := Open(gormmysql.Open(DSN(cfg)), cfg.Debug)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database with GORM")
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Connected to database", logger.String("host", cfg.Host), logger.String("name", cfg.Name))
	return gdb, nil
}

const slowQueryThreshold = 200 * time.Millisecond

// gormWriter sends GORM's log lines to the application logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.L().Sugar().Warnf(format, args...)
}

// Open wraps gorm.Open with the settings every dialector shares.
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	})
}

// Migrate creates or updates the tables for every model.
func Migrate(gdb *gorm.DB) error {
	if gdb == nil {
		return errors.New("GORM database not initialized")
	}
	if err := gdb.AutoMigrate(model.AllModels()...); err != nil {
		return errors.Wrap(err, "failed to auto migrate models")
	}
	logger.Info("Models migrated successfully")
	return nil
}

// Close releases the connection pool.
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// Ping checks that the database answers.
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
