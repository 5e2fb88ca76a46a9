package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"regwatch/internal/classify"
	"regwatch/internal/config"
	"regwatch/internal/ingest"
	"regwatch/internal/logging"
	"regwatch/internal/notify"
	"regwatch/internal/project"
	"regwatch/internal/sources"
	"regwatch/internal/store"
)

// Runner executes one full cycle: ingest, notify, project.
type Runner struct {
	cfg       *config.Config
	store     *store.Store
	ingestor  *ingest.Controller
	scheduler *notify.Scheduler
	projector *project.Projector
	logger    *slog.Logger
}

// CycleResult reports what one cycle accomplished.
type CycleResult struct {
	CycleID  string
	AsOf     time.Time
	Ingest   ingest.Stats
	Notify   notify.Stats
	Duration time.Duration
	// IngestErr is non-nil when the fetch aborted early. Notification and
	// projection still ran against whatever is stored.
	IngestErr error
}

// NewRunner wires every cycle component from configuration.
func NewRunner(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	classifier, err := classify.NewClassifier()
	if err != nil {
		return nil, err
	}

	fetcher := sources.NewRegulationsGovClient(sources.RegulationsGovConfig{
		APIKey:         cfg.RegulationsGov.APIKey,
		BaseURL:        cfg.RegulationsGov.BaseURL,
		PageSize:       cfg.RegulationsGov.PageSize,
		TimeoutSeconds: cfg.RegulationsGov.RequestTimeout,
	})
	if fetcher.UsingDemoKey() {
		logger.Warn("running on the shared DEMO_KEY, expect aggressive rate limits")
	}

	var enricher ingest.Enricher
	if cfg.FederalRegister.Enabled {
		enricher = sources.NewFederalRegisterClient(sources.FederalRegisterConfig{
			BaseURL:        cfg.FederalRegister.BaseURL,
			TimeoutSeconds: cfg.FederalRegister.RequestTimeout,
		})
	}

	ingestor := ingest.NewController(cfg, fetcher, enricher, classify.NewAdapter(classifier), st, logger)
	scheduler := notify.NewScheduler(cfg, st, notify.NewSink(cfg), logger)
	projector := project.NewProjector(st, cfg.Paths.SiteDir, logger)

	return &Runner{
		cfg:       cfg,
		store:     st,
		ingestor:  ingestor,
		scheduler: scheduler,
		projector: projector,
		logger:    logger,
	}, nil
}

// SetDryRun propagates dry-run mode to every writing component.
func (r *Runner) SetDryRun(dryRun bool) {
	r.ingestor.DryRun = dryRun
	r.scheduler.DryRun = dryRun
}

// RunCycle executes one cycle against the current UTC day. An ingestion
// abort is recorded in the result but does not block notification:
// obligations derived from already-stored periods still settle.
func (r *Runner) RunCycle(ctx context.Context) (CycleResult, error) {
	started := time.Now()
	result := CycleResult{
		CycleID: uuid.NewString(),
		AsOf:    started.UTC(),
	}
	logger := r.logger.With(logging.String(logging.FieldCycleID, result.CycleID))
	logger.Info("cycle started")

	ingestStats, err := r.ingestor.Run(ctx, result.AsOf)
	result.Ingest = ingestStats
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.IngestErr = err
		logger.Error("ingestion aborted, continuing with stored state", logging.Error(err))
	}

	notifyStats, err := r.scheduler.Run(ctx, result.AsOf)
	result.Notify = notifyStats
	if err != nil {
		return result, err
	}

	if err := r.projector.Run(ctx, result.AsOf); err != nil {
		logger.Warn("site projection failed", logging.Error(err))
	}

	result.Duration = time.Since(started)
	logger.Info("cycle finished",
		logging.Duration("duration", result.Duration.Round(time.Millisecond)),
		logging.Int("ingested", result.Ingest.Created+result.Ingest.Updated),
		logging.Int("posted", result.Notify.Posted))
	return result, nil
}
