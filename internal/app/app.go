package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ReviewScanner/internal/analytics"
	"ReviewScanner/internal/checkpoint"
	"ReviewScanner/internal/collection"
	"ReviewScanner/internal/config"
	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/infrastructure/pagefile"
	"ReviewScanner/internal/infrastructure/reviewapi"
	schedinfra "ReviewScanner/internal/infrastructure/scheduler"
	"ReviewScanner/internal/infrastructure/storage"
	"ReviewScanner/internal/infrastructure/telegram"
	"ReviewScanner/internal/logging"
	"ReviewScanner/internal/ports"
	"ReviewScanner/internal/source"
	"ReviewScanner/internal/store"
	"ReviewScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	ingest *usecase.Ingest
	store  *store.CSVStore
	ledger *storage.Ledger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := source.NewRegistry()
	registry.Register(reviewapi.NewClient(cfg.Source.API, baseLogger.With("component", "source.api")))
	registry.Register(pagefile.New(cfg.Source.PageDir, baseLogger.With("component", "source.pagefile")))

	strategy, err := registry.Resolve(cfg.Source.Strategy)
	if err != nil {
		return nil, fmt.Errorf("resolve source strategy: %w", err)
	}

	reviewStore := store.New(cfg.Storage.TablePath(), baseLogger.With("component", "store"))
	checkpoints := checkpoint.NewManager(cfg.Storage.DataDir, baseLogger.With("component", "checkpoint"))

	ledger, err := storage.Open(cfg.Storage.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	ingest := usecase.NewIngest(usecase.IngestDeps{
		Source:              strategy,
		Store:               reviewStore,
		Checkpoints:         checkpoints,
		Ledger:              ledger,
		Notifier:            notifier,
		Logger:              baseLogger.With("component", "ingest"),
		MaxRecordsPerEntity: cfg.Ingest.MaxRecordsPerEntity,
	})

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		ingest: ingest,
		store:  reviewStore,
		ledger: ledger,
	}, nil
}

// Close releases long-lived resources.
func (a *Application) Close() error {
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}

// Run performs a single collection pass over the configured entity list.
func (a *Application) Run(ctx context.Context) (domain.RunResult, error) {
	entities, err := a.entities()
	if err != nil {
		return domain.RunResult{}, err
	}

	a.logger.Info("collection run starting", "entities", len(entities))
	result, err := a.ingest.Run(ctx, entities)
	if err != nil {
		return result, err
	}
	a.logger.Info("collection run finished",
		"entities", len(result.Outcomes), "pages", result.Pages, "rows_added", result.RowsAdded)
	return result, nil
}

// RunDaemon collects on the configured cadence until the context is cancelled.
func (a *Application) RunDaemon(ctx context.Context) error {
	driver := schedinfra.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, a.ingest, func() []domain.Entity {
		entities, err := a.entities()
		if err != nil {
			a.logger.Warn("collection file unreadable, skipping tick", "error", err)
			return nil
		}
		return entities
	})

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("daemon started", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Analyze runs the full analytics pass over the durable table and exports the
// report tables plus run_status.json.
func (a *Application) Analyze(ctx context.Context) (analytics.Report, error) {
	records, err := a.store.Load()
	if err != nil {
		return analytics.Report{}, fmt.Errorf("load review table: %w", err)
	}

	tunables := a.tunables()
	report := analytics.Report{}
	report.Weekly = analytics.AggregateWeekly(records, tunables)
	report.Distortion = analytics.ScoreDistortion(report.Weekly, tunables)

	var outcome []domain.OutcomePoint
	if a.cfg.Analytics.OutcomeFile != "" {
		outcome, err = analytics.LoadOutcome(a.cfg.Analytics.OutcomeFile)
		if err != nil {
			a.logger.Warn("outcome file unusable, skipping impact", "error", err)
			outcome = nil
		}
	}
	report.PerEntity, report.Pooled = analytics.ComputeImpact(report.Weekly, outcome, tunables.MinImpactWeeks)
	report.Volatility = analytics.Volatility(report.Weekly, outcome)

	if err := analytics.Export(a.cfg.Analytics.OutDir, report, time.Now()); err != nil {
		return report, fmt.Errorf("export analytics: %w", err)
	}
	a.logger.Info("analytics exported", "dir", a.cfg.Analytics.OutDir,
		"weekly_rows", len(report.Weekly), "entities_scored", len(report.Distortion))
	return report, nil
}

func (a *Application) entities() ([]domain.Entity, error) {
	entities, err := collection.Load(a.cfg.Storage.CollectionFile)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	return entities, nil
}

func (a *Application) tunables() analytics.Tunables {
	t := analytics.DefaultTunables()
	c := a.cfg.Analytics
	if c.PriorMean > 0 {
		t.PriorMean = c.PriorMean
	}
	if c.PriorStrength > 0 {
		t.PriorStrength = c.PriorStrength
	}
	if c.FiveStarBaseline > 0 {
		t.FiveStarBaseline = c.FiveStarBaseline
	}
	if c.VarianceCap > 0 {
		t.VarianceCap = c.VarianceCap
	}
	if c.MinImpactWeeks > 0 {
		t.MinImpactWeeks = c.MinImpactWeeks
	}
	if c.RecentShiftWindow > 0 {
		t.RecentShiftWindow = c.RecentShiftWindow
	}
	return t
}
