package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finmind/internal/auth"
	"finmind/internal/backend"
	"finmind/internal/cache"
	"finmind/internal/cli"
	"finmind/internal/config"
	apphttp "finmind/internal/http"
	"finmind/internal/ledger"
	flog "finmind/internal/log"
	"finmind/internal/sentiment"
	"finmind/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
)

func newServeCommand() *cobra.Command {
	var seedDemo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(cmd, flog.ComponentApp)
			if err != nil {
				return err
			}
			ctx, cancel := cli.SignalContext(cmd.Context(), logger)
			defer cancel()
			return runServe(ctx, cfg, logger, seedDemo)
		},
	}

	cmd.Flags().BoolVar(&seedDemo, "seed-demo", true, "give new accounts the demo ledger (memory backend only)")

	return cmd
}

func loadCatalog(cfg *config.Config) (*sentiment.Catalog, error) {
	catalog, err := sentiment.LoadCatalog(cfg.SentimentCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load sentiment catalog: %w", err)
	}
	return catalog, nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *flog.Logger, seedDemo bool) error {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	factory := backend.NewFactory(logger.WithComponent(flog.ComponentBackend).Logger)
	res, err := factory.CreateBackend(ctx, bc)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", flog.FieldError, err)
		}
	}()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	store := res.Backend
	authSvc := auth.NewService(store, cfg.SessionTTL)
	txSvc := services.NewTransactionService(store, store, res.Publisher, nil,
		logger.WithComponent(flog.ComponentLedger).Logger)
	chatSvc := services.NewChatService(store, nil, logger.WithComponent(flog.ComponentChat).Logger,
		services.WithReplyDelay(cfg.ChatReplyDelay))
	sentSvc := services.NewSentimentService(catalog, store, logger.WithComponent(flog.ComponentSentiment).Logger)

	caches := cache.NewManager(logger.WithComponent(flog.ComponentCache).Logger)
	caches.Register("summaries", txSvc.SummaryCache())
	caches.Register("sentiment", sentSvc.DetailCache())
	caches.Register("sessions", cache.CleanerFunc(authSvc.PruneExpired))
	caches.Start(ctx, sweepInterval)
	defer caches.Stop()

	deps := apphttp.Deps{
		Auth:               authSvc,
		Transactions:       txSvc,
		Chat:               chatSvc,
		Sentiment:          sentSvc,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	if p, ok := store.(backend.Pinger); ok {
		deps.Ready = p.Ping
	}
	if seedDemo && cfg.DataBackend == config.BackendMemory {
		deps.OnSignUp = func(ctx context.Context, userID string) error {
			return ledger.Seed(ctx, store, userID)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finmind server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("Server stopped gracefully")
		return nil
	})
	return g.Wait()
}
