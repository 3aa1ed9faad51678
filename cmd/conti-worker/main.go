package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"conti/internal/amqp"
	"conti/internal/cli"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/services"
	gsheet "conti/internal/sheets/google"
	"conti/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var configFile string

	root := &cobra.Command{
		Use:           "conti-worker",
		Short:         "Mirror ledger events into Google Sheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(configFile)
		},
	}
	root.Flags().StringVar(&configFile, "config", "", "config file (YAML, optional)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(err))
		os.Exit(1)
	}
}

func run(configFile string) error {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig(configFile)
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentWorker)
	if err != nil {
		return err
	}

	logger.Info("Starting conti-worker")

	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is required by the worker")
	}
	if !cfg.SheetsEnabled() {
		return errors.New("GOOGLE_SPREADSHEET_ID is required by the worker")
	}

	backendResult, err := cli.OpenBackend(context.Background(), logger, cfg)
	if err != nil {
		return err
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		_ = backendResult.Close()
		return fmt.Errorf("initialize AMQP consumer: %w", err)
	}

	parent, cancel := context.WithCancel(context.Background())
	ctx, done := cli.GracefulShutdown(parent, logger, shutdownTimeout, func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("Failed to close AMQP consumer", log.FieldError, err)
		}
		if err := backendResult.Close(); err != nil {
			logger.Warn("Failed to close backend", log.FieldError, err)
		}
	})

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cancel()
		cli.WaitForShutdown(ctx, done)
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSyncWorker(backendResult.Store, sheetsClient)
	engine := services.NewRecurringEngine(backendResult.Store, backendResult.Publisher)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ProcessOnStart {
		g.Go(func() error {
			n, err := engine.ProcessDue(gctx, core.DateOf(time.Now()))
			if err != nil {
				// Not fatal: the consumer keeps running.
				logger.Error("Initial recurring processing failed", log.FieldError, err)
				return nil
			}
			logger.Info("Initial recurring processing complete", "processed", n)
			return nil
		})
	}

	g.Go(func() error {
		err := consumer.Consume(gctx, syncWorker.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err = g.Wait()
	if err != nil {
		logger.Error("Worker stopped", log.FieldError, err)
	}
	cancel()
	cli.WaitForShutdown(ctx, done)
	return err
}
