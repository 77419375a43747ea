package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config stores the application configuration.
type Config struct {
	Env     string        `yaml:"env" default:"development" validate:"oneof=development production test"`
	Server  ServerConfig  `yaml:"server"`
	DB      DBConfig      `yaml:"db"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	YouTube YouTubeConfig `yaml:"youtube"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" default:":5000" validate:"required"`
	AllowedOrigins  []string      `yaml:"allowed_origins" default:"[\"http://localhost:5173\"]"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"5s"`
}

// DBConfig is the MySQL connection.
type DBConfig struct {
	Host     string `yaml:"host" default:"127.0.0.1"`
	Port     string `yaml:"port" default:"3306"`
	User     string `yaml:"user" default:"root"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" default:"moodmusic" validate:"required"`
	Debug    bool   `yaml:"debug"`
}

// RedisConfig is the search-cache connection. The cache is on unless
// Disabled is set.
type RedisConfig struct {
	Disabled bool   `yaml:"disabled"`
	Host     string `yaml:"host" default:"127.0.0.1"`
	Port     string `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// AuthConfig covers session tokens and password resets.
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret" validate:"required"`
	TokenTTL     time.Duration `yaml:"token_ttl" default:"120h"`
	ResetTTL     time.Duration `yaml:"reset_ttl" default:"10m"`
	ResetURLBase string        `yaml:"reset_url_base" default:"http://localhost:5173/reset-password"`
}

// YouTubeConfig configures the catalog provider.
type YouTubeConfig struct {
	APIKey    string        `yaml:"api_key"`
	RateLimit float64       `yaml:"rate_limit" validate:"gte=0"`
	CacheTTL  time.Duration `yaml:"cache_ttl" default:"6h"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	OutputPath string `yaml:"output_path"`
	MaxSize    int    `yaml:"max_size" default:"100"`
	MaxBackups int    `yaml:"max_backups" default:"5"`
	MaxAge     int    `yaml:"max_age" default:"30"`
	Compress   bool   `yaml:"compress"`
}

// Load builds the configuration. Values come from the optional YAML file at
// path, then environment variables (a .env file is loaded first and never
// overrides variables already set), then struct defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) overrideFromEnv() {
	setString(&c.Env, "APP_ENV")

	setString(&c.Server.Addr, "SERVER_ADDR")
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	if origins, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok && origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	setString(&c.DB.Host, "DB_HOST")
	setString(&c.DB.Port, "DB_PORT")
	setString(&c.DB.User, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	setString(&c.DB.Name, "DB_NAME")
	setBool(&c.DB.Debug, "DB_DEBUG")

	setBool(&c.Redis.Disabled, "REDIS_DISABLED")
	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&c.Auth.TokenTTL, "TOKEN_TTL")
	setDuration(&c.Auth.ResetTTL, "RESET_TTL")
	setString(&c.Auth.ResetURLBase, "RESET_URL_BASE")

	setString(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setDuration(&c.YouTube.CacheTTL, "YOUTUBE_CACHE_TTL")
	if v, ok := os.LookupEnv("YOUTUBE_RATE_LIMIT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.YouTube.RateLimit = f
		}
	}

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.OutputPath, "LOG_FILE")
}

func setString(dst *string, key string) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			*dst = intVal
		}
	}
}

func setBool(dst *bool, key string) {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			*dst = d
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
