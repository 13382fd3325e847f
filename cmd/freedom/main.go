package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"freedom/internal/backend"
	"freedom/internal/cache"
	"freedom/internal/cli"
	apphttp "freedom/internal/http"
	"freedom/internal/log"
	"freedom/internal/middleware/ratelimit"
	"freedom/internal/recovery"
	"freedom/internal/session"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile(logger)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	defer func() {
		if res.Cleanup == nil {
			return
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	caches := cache.NewManager(logger)
	caches.StartCleanup(cfg.QueryCacheTTL)
	defer caches.Stop()

	factory := &session.Factory{
		Backend:   res.Backend,
		CacheSize: cfg.QueryCacheSize,
		CacheTTL:  cfg.QueryCacheTTL,
		Caches:    caches,
		Logger:    logger,
	}
	sessions := session.NewManager(factory.New, cfg.SessionMaxAge, cfg.SessionIdleTimeout, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Sessions:       sessions,
		Recovery:       recovery.NewRouter(logger),
		Logger:         logger,
		Ready:          res.Ready,
		CookieSecure:   cfg.CookieSecure,
		LoginRateLimit: ratelimit.DefaultConfig(),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting freedom server",
			"port", cfg.Port,
			"backend", backendCfg.Type,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, cfg.SessionCleanupInterval)
	})
	g.Go(func() error {
		return srv.RunMaintenance(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err, log.FieldOperation, log.OpShutdown)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cancel()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
