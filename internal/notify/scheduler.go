package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"regwatch/internal/config"
	"regwatch/internal/logging"
	"regwatch/internal/period"
	"regwatch/internal/store"
)

// Storage is the slice of the store the scheduler needs.
type Storage interface {
	FindDue(ctx context.Context, stage period.Stage, asOf time.Time) ([]*period.CommentPeriod, error)
	RecordDelivery(ctx context.Context, documentID string, stage period.Stage, externalPostID string) error
}

// Stats summarizes one notification run.
type Stats struct {
	Due       int
	Posted    int
	Duplicate int
	Failed    int
	Capped    int
}

// Scheduler walks the delivery stages and settles every pending
// notification obligation it can.
type Scheduler struct {
	storage  Storage
	sink     Sink
	maxPosts int
	logger   *slog.Logger

	// DryRun renders without posting or recording receipts.
	DryRun bool
}

// NewScheduler wires a notification scheduler.
func NewScheduler(cfg *config.Config, storage Storage, sink Sink, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		storage:  storage,
		sink:     sink,
		maxPosts: cfg.Bluesky.MaxPostsPerCycle,
		logger:   logging.NewComponentLogger(logger, "notify"),
	}
}

// Run evaluates every stage against asOf, most-urgent first. Failures are
// per-obligation: a sink error leaves that receipt unwritten and the
// obligation pending for the next cycle.
func (s *Scheduler) Run(ctx context.Context, asOf time.Time) (Stats, error) {
	var stats Stats
	for _, stage := range period.DeliveryOrder() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		due, err := s.storage.FindDue(ctx, stage, asOf)
		if err != nil {
			return stats, err
		}
		stats.Due += len(due)

		for _, p := range due {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if s.maxPosts > 0 && stats.Posted >= s.maxPosts {
				stats.Capped++
				continue
			}
			s.deliver(ctx, p, stage, &stats)
		}
	}

	s.logger.Info("notification run finished",
		logging.String("as_of", asOf.Format(time.DateOnly)),
		logging.Int("due", stats.Due),
		logging.Int("posted", stats.Posted),
		logging.Int("duplicate", stats.Duplicate),
		logging.Int("failed", stats.Failed),
		logging.Int("capped", stats.Capped))
	return stats, nil
}

// deliver settles one obligation: post first, then record the receipt.
// Ordering matters: a crash between the two may repeat the post next
// cycle, but a receipt without a post would silence the stage forever.
func (s *Scheduler) deliver(ctx context.Context, p *period.CommentPeriod, stage period.Stage, stats *Stats) {
	text := Render(p, stage)

	if s.DryRun {
		s.logger.Info("dry run: would post",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.String(logging.FieldStage, string(stage)),
			logging.Int("length", len([]rune(text))))
		return
	}

	postID, err := s.sink.Post(ctx, text)
	if err != nil {
		stats.Failed++
		s.logger.Error("post failed, obligation stays pending",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.String(logging.FieldStage, string(stage)),
			logging.Error(err))
		return
	}

	err = s.storage.RecordDelivery(ctx, p.DocumentID, stage, postID)
	switch {
	case errors.Is(err, store.ErrAlreadyDelivered):
		stats.Duplicate++
		s.logger.Warn("stage already delivered by a concurrent run",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.String(logging.FieldStage, string(stage)))
	case err != nil:
		stats.Failed++
		s.logger.Error("posted but receipt not recorded, duplicate possible next cycle",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.String(logging.FieldStage, string(stage)),
			logging.Error(err))
	default:
		stats.Posted++
		s.logger.Info("notification delivered",
			logging.String(logging.FieldDocumentID, p.DocumentID),
			logging.String(logging.FieldStage, string(stage)),
			logging.String("post_id", postID))
	}
}
