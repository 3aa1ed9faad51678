package cli

import (
	"context"
	"time"

	"conti/internal/config"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"
	"conti/internal/services"
)

// App bundles the services a command runs against.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Store  ledger.Store
	// DBPath is empty for the memory backend.
	DBPath string

	Ledger    *services.LedgerService
	Budgets   *services.BudgetEvaluator
	Recurring *services.RecurringEngine
	Reports   *services.ReportService
	Importer  *services.Importer

	// Now is the clock used for "today". Tests replace it.
	Now func() time.Time

	cleanup func() error
}

// NewApp builds the services on top of store. publisher may be nil.
func NewApp(cfg *config.Config, logger *log.Logger, store ledger.Store, publisher services.EventPublisher) *App {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Ledger:    services.NewLedgerService(store, publisher),
		Budgets:   services.NewBudgetEvaluator(store),
		Recurring: services.NewRecurringEngine(store, publisher),
		Reports:   services.NewReportService(store),
		Importer:  services.NewImporter(store),
		Now:       time.Now,
	}
}

// OpenApp loads the backend described by cfg and builds an App over it.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	result, err := OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	app := NewApp(cfg, logger, result.Store, result.Publisher)
	app.DBPath = result.DBPath
	app.cleanup = result.Close
	return app, nil
}

// Today is the current calendar date.
func (a *App) Today() core.Date {
	return core.DateOf(a.Now())
}

// ProcessOnStart fires due recurring templates once and logs the count.
func (a *App) ProcessOnStart(ctx context.Context) (int, error) {
	logger := a.Logger.WithComponent(log.ComponentRecurring)
	n, err := a.Recurring.ProcessDue(ctx, a.Today())
	if err != nil {
		logger.ErrorContext(ctx, "Startup recurring processing failed", log.FieldError, err)
		return 0, err
	}
	logger.InfoContext(ctx, "Startup recurring processing complete",
		log.NewFields().WithOperation(log.OpProcess).WithCount(n).ToSlice()...)
	return n, nil
}

func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}
