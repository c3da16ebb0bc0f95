package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finmind/internal/amqp"
	"finmind/internal/backend"
	"finmind/internal/cli"
	"finmind/internal/config"
	flog "finmind/internal/log"
	"finmind/internal/worker"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Export stored transactions to the spreadsheet",
		Long: "Consumes transaction events from the broker and exports each " +
			"transaction, sweeping the database for anything still pending.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(cmd, flog.ComponentWorker)
			if err != nil {
				return err
			}
			ctx, cancel := cli.SignalContext(cmd.Context(), logger)
			defer cancel()
			return runWorker(ctx, cfg, logger)
		},
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *flog.Logger) error {
	logger.Info("Starting finmind worker")

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	factory := backend.NewFactory(logger.WithComponent(flog.ComponentBackend).Logger)
	exporter, err := factory.CreateExporter(ctx, bc)
	if err != nil {
		return err
	}

	var client *amqp.Client
	if cfg.AMQPURL == "" {
		logger.Warn("No AMQP_URL configured, relying on the periodic sweep only")
	} else {
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	w := worker.NewSyncWorker(repo, exporter, cfg.SyncBatchSize, logger.Logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx, cfg.SyncInterval) })
	if client != nil {
		g.Go(func() error { return client.ConsumeTransactionEvents(gctx, w.HandleTransactionEvent) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("Worker shutdown complete")
		return nil
	}
	return err
}
