package commands

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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"timetracker/internal/auth"
	"timetracker/internal/server"
	"timetracker/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSecret(); err != nil {
			return err
		}
		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		store, err := openStore()
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()

		tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return err
		}

		rdb := redisClient(cmd.Context())
		if rdb != nil {
			defer rdb.Close()
		}

		svc := tracker.New(store, log, tracker.WithLocation(cfg.Location))
		srv, err := server.New(store, svc, tokens, log, server.Options{
			PageSize:      cfg.PageSize,
			SecureCookies: cfg.SecureCookies,
			RateLimit:     cfg.RateLimit,
			RateWindow:    cfg.RateWindow,
			Redis:         rdb,
		})
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Engine(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting server", slog.String("addr", httpServer.Addr), slog.String("version", version))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server stopped unexpectedly: %w", err)
			}
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown server", slog.String("error", err.Error()))
		}
		log.Info("server stopped")
		return nil
	},
}

// redisClient connects to the configured Redis. Without an address, or when
// the first ping fails, rate limiting runs degraded rather than blocking startup.
func redisClient(ctx context.Context) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("rate limiting disabled: no redis address configured")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable; rate limiter fails open until it recovers",
			slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
	}
	return rdb
}
