package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/mandipulse/internal/api"
	"github.com/rewired-gh/mandipulse/internal/config"
	"github.com/rewired-gh/mandipulse/internal/ledger"
	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/monitor"
	"github.com/rewired-gh/mandipulse/internal/session"
	"github.com/rewired-gh/mandipulse/internal/sources"
	"github.com/rewired-gh/mandipulse/internal/storage"
	"github.com/rewired-gh/mandipulse/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the market session and the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, err := storage.New(cfg.Storage.MaxHistoryPoints, cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	clientCfg := sources.ClientConfig{Timeout: cfg.Sources.Timeout, MaxRetries: cfg.Sources.MaxRetries}
	deps := session.Deps{
		Facade:  newFacade(cfg, clientCfg),
		News:    sources.NewNewsFeed(cfg.Sources.NewsURL, clientCfg),
		History: store,
		Monitor: monitor.New(store),
	}

	var tg *telegram.Client
	if cfg.Telegram.Enabled {
		tg, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		deps.Notifier = tg
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	sess := session.New(deps, session.Config{
		RefreshInterval: cfg.Market.RefreshInterval,
		NewsInterval:    cfg.Market.NewsInterval,
	})
	if err := sess.Start(ctx); err != nil {
		return err
	}
	defer sess.Stop()

	if tg != nil {
		tg.SetDataset(sess.Dataset)
		tg.ListenForCommands(ctx)
	}

	if !cfg.Server.Enabled {
		logger.Info("HTTP server disabled, running session only")
		<-ctx.Done()
		logger.Info("Shutdown signal received, cleaning up...")
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(sess, store, ledger.NewService(store), cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, cleaning up...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown: %v", err)
	}
	logger.Info("Service stopped")
	return nil
}

// newFacade selects the synthetic or the external path from market.mode.
func newFacade(cfg *config.Config, clientCfg sources.ClientConfig) *market.Facade {
	rnd := market.NewRand(cfg.Market.Seed)
	generator := market.NewGenerator(rnd, cfg.Market.RegionCount)
	evolver := market.NewEvolver(rnd)

	if cfg.Market.Mode != config.ModeExternal {
		return market.NewFacade(generator, evolver, nil)
	}

	var srcs []sources.RecordSource
	if cfg.Sources.AgmarknetURL != "" {
		srcs = append(srcs, sources.NewAgmarknetSource(cfg.Sources.AgmarknetURL, "", clientCfg))
	}
	if len(cfg.Sources.EnamURLs) > 0 {
		srcs = append(srcs, sources.NewEnamSource(cfg.Sources.EnamURLs, clientCfg))
	}
	logger.Info("External mode with %d sources", len(srcs))
	return market.NewFacade(generator, evolver, sources.NewAggregator(srcs...))
}
