package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postpanel/app/cache"
	"postpanel/app/config"
	"postpanel/app/repositories"
	"postpanel/app/routes"
	"postpanel/app/storage"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const optionsTTL = 10 * time.Minute

// openStore opens the configured storage backend.
func openStore(cfg *config.Config) (*repositories.Store, error) {
	store, err := repositories.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	return store, nil
}

// newOptionsCache uses redis when REDIS_ADDR is set and an in-process cache otherwise.
func newOptionsCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.OptionsCache, func(), error) {
	if cfg.RedisAddr == "" {
		c, err := cache.NewMemoryOptionsCache(optionsTTL)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := cache.Dial(dialCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("using redis options cache", zap.String("addr", cfg.RedisAddr))
	return cache.NewRedisOptionsCache(client, optionsTTL), func() { client.Close() }, nil
}

// RunAppServer starts the admin panel and blocks until SIGINT or SIGTERM.
func RunAppServer(cfg *config.Config) error {
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	disk, err := storage.NewDisk(cfg.PublicDiskRoot, cfg.PublicURL, cfg.MaxUploadBytes())
	if err != nil {
		return err
	}

	optionsCache, closeCache, err := newOptionsCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = !cfg.IsLocal()

	handler, err := routes.NewHandler(routes.Dependencies{
		Store:       store,
		Disk:        disk,
		Cache:       optionsCache,
		Sessions:    sessionStore,
		Logger:      logger,
		PerPage:     cfg.PerPage,
		StoragePath: cfg.PublicURL,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	logger.Info("starting admin panel",
		zap.String("driver", cfg.DBDriver),
		zap.String("addr", cfg.HTTPAddr),
	)
	return routes.StartServer(ctx, cfg.HTTPAddr, handler, logger)
}
