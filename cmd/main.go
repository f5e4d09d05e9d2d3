package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"directchat/backend/internal/api/handler"
	"directchat/backend/internal/auth"
	"directchat/backend/internal/chathub"
	"directchat/backend/internal/config"
	"directchat/backend/internal/logger"
	"directchat/backend/internal/media"
	"directchat/backend/internal/messaging"
	"directchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupDenylist connects Redis when REDIS_ADDR is set. Without it sign-out
// only clears the cookie.
func setupDenylist(ctx context.Context, cfg config.Config, log *slog.Logger) (auth.Denylist, func(), error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, token revocation disabled")
		return auth.NopDenylist{}, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect Redis: %w", err)
	}
	return auth.NewRedisDenylist(rdb), func() { _ = rdb.Close() }, nil
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn("failed to close storage", "error", err)
		}
	}()
	log.Info("storage ready", "driver", cfg.StoreDriver)

	denylist, closeRedis, err := setupDenylist(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	mediaStore, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL, cfg.MaxMediaBytes)
	if err != nil {
		return err
	}

	registry := chathub.NewRegistry(log)
	relay := chathub.NewRelay(registry, log)
	svc := messaging.NewService(store, mediaStore, relay, registry, log)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, denylist)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(tokens, store, svc, registry, handler.Options{
		SendBuffer:    cfg.SendBuffer,
		CookieSecure:  cfg.CookieSecure,
		TokenTTL:      cfg.TokenTTL,
		MaxMediaBytes: cfg.MaxMediaBytes,
		AllowedOrigin: cfg.AllowedOrigin,
		MediaDir:      cfg.MediaDir,
		MediaBaseURL:  cfg.MediaBaseURL,
	}, log)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler.NewRouter(h),
		ReadTimeout:    30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown.
	for _, userID := range registry.Online() {
		if conn, ok := registry.Lookup(userID); ok {
			conn.Close()
		}
	}
	return server.Shutdown(shutdownCtx)
}
