package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"moodmusic/cache"
	"moodmusic/config"
	"moodmusic/core/auth"
	"moodmusic/core/catalog"
	"moodmusic/core/identity"
	"moodmusic/core/playlist"
	"moodmusic/db"
	"moodmusic/logger"
	"moodmusic/repository"
)

// NewHandlerFromDB wires repositories and services over gdb.
func NewHandlerFromDB(gdb *gorm.DB, client catalog.Client, cfg *config.Config, provider identity.IdentityProvider) *APIHandler {
	userRepo := repository.NewGormUserRepository(gdb)
	playlistRepo := repository.NewGormPlaylistRepository(gdb)
	mixRepo := repository.NewGormMixRepository(gdb)

	playlists := playlist.NewService(playlistRepo)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	identitySvc := identity.NewService(userRepo, playlists, tokens,
		identity.WithProvider(provider),
		identity.WithNotifier(identity.NewLogNotifier(cfg.Auth.ResetURLBase)),
		identity.WithResetTTL(cfg.Auth.ResetTTL))

	return NewAPIHandler(identitySvc, playlists, mixRepo, client, func(ctx context.Context) error {
		return db.Ping(ctx, gdb)
	})
}

// Start connects the backing services and serves HTTP until SIGINT or
// SIGTERM.
func Start(cfg *config.Config) error {
	ctx := context.Background()

	gdb, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		return err
	}

	var searchCache *cache.SearchCache
	if cfg.Redis.Disabled {
		logger.Info("Search cache disabled")
	} else {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without search cache", logger.ErrorField(err))
		} else {
			defer rdb.Close()
			searchCache = cache.NewSearchCache(rdb, cfg.YouTube.CacheTTL)
			logger.Info("Successfully connected to Redis", logger.String("addr", cfg.Redis.Addr()))
		}
	}

	client, err := catalog.New(ctx, cfg.YouTube, searchCache)
	if err != nil {
		return err
	}

	handler := NewHandlerFromDB(gdb, client, cfg, identity.NewGoogleProvider())

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	case <-stop:
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	logger.Info("Server stopped")
	return nil
}
