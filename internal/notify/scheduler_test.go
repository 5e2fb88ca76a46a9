package notify_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"regwatch/internal/logging"
	"regwatch/internal/notify"
	"regwatch/internal/period"
	"regwatch/internal/store"
	"regwatch/internal/testsupport"
)

type fakeSink struct {
	posts []string
	fail  bool
}

func (f *fakeSink) Post(_ context.Context, text string) (string, error) {
	if f.fail {
		return "", errors.New("sink unavailable")
	}
	f.posts = append(f.posts, text)
	return fmt.Sprintf("at://fake/%d", len(f.posts)), nil
}

func TestSchedulerDeliversOncePerStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	asOf := testsupport.Date(2026, 3, 8)

	p := testsupport.NewPeriod("EPA-2026-0700", testsupport.Date(2026, 3, 6), testsupport.Date(2026, 3, 15))
	testsupport.MustUpsert(t, st, p)

	sink := &fakeSink{}
	scheduler := notify.NewScheduler(cfg, st, sink, logging.NewNop())

	stats, err := scheduler.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Due on 2026-03-08: reminder_7d (deadline minus 7) and new (posted
	// 2 days ago, still open).
	if stats.Posted != 2 {
		t.Fatalf("posted = %d, want 2: %+v", stats.Posted, stats)
	}

	// Same-day rerun is a no-op: receipts settle the obligations.
	stats, err = scheduler.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if stats.Due != 0 || stats.Posted != 0 {
		t.Fatalf("rerun should find nothing due, got %+v", stats)
	}

	receipts, err := st.Receipts(ctx, p.DocumentID)
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("receipts = %d, want 2", len(receipts))
	}
}

func TestSchedulerSinkFailureLeavesObligationPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	asOf := testsupport.Date(2026, 3, 15)

	p := testsupport.NewPeriod("EPA-2026-0701", testsupport.Date(2026, 3, 1), testsupport.Date(2026, 3, 15))
	testsupport.MustUpsert(t, st, p)

	broken := &fakeSink{fail: true}
	scheduler := notify.NewScheduler(cfg, st, broken, logging.NewNop())

	stats, err := scheduler.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed == 0 || stats.Posted != 0 {
		t.Fatalf("expected failures only, got %+v", stats)
	}
	receipts, err := st.Receipts(ctx, p.DocumentID)
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if len(receipts) != 0 {
		t.Fatalf("failed post must not write a receipt, got %d", len(receipts))
	}

	// Next cycle with a healthy sink settles the same obligations.
	healthy := &fakeSink{}
	scheduler = notify.NewScheduler(cfg, st, healthy, logging.NewNop())
	stats, err = scheduler.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("retry Run: %v", err)
	}
	if stats.Posted == 0 || stats.Failed != 0 {
		t.Fatalf("retry should deliver, got %+v", stats)
	}
}

func TestSchedulerCapFavorsUrgentStages(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxPostsPerCycle(1))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	asOf := testsupport.Date(2026, 3, 15)

	closing := testsupport.NewPeriod("EPA-2026-0702", testsupport.Date(2026, 3, 1), testsupport.Date(2026, 3, 15))
	fresh := testsupport.NewPeriod("EPA-2026-0703", testsupport.Date(2026, 3, 14), testsupport.Date(2026, 4, 20))
	testsupport.MustUpsert(t, st, closing)
	testsupport.MustUpsert(t, st, fresh)

	sink := &fakeSink{}
	scheduler := notify.NewScheduler(cfg, st, sink, logging.NewNop())

	stats, err := scheduler.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Posted != 1 || stats.Capped == 0 {
		t.Fatalf("cap not enforced: %+v", stats)
	}

	// The last-day notice for the closing period must have won the slot.
	receipts, err := st.Receipts(ctx, closing.DocumentID)
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if len(receipts) != 1 || receipts[0].Stage != period.StageLastDay {
		t.Fatalf("urgent stage did not win the capped slot: %+v", receipts)
	}
}

func TestSchedulerDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	asOf := testsupport.Date(2026, 3, 15)

	p := testsupport.NewPeriod("EPA-2026-0704", testsupport.Date(2026, 3, 1), testsupport.Date(2026, 3, 15))
	testsupport.MustUpsert(t, st, p)

	sink := &fakeSink{}
	scheduler := notify.NewScheduler(cfg, st, sink, logging.NewNop())
	scheduler.DryRun = true

	stats, err := scheduler.Run(ctx, asOf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Due == 0 {
		t.Fatal("dry run should still report due obligations")
	}
	if len(sink.posts) != 0 {
		t.Fatalf("dry run posted %d times", len(sink.posts))
	}
	receipts, err := st.Receipts(ctx, p.DocumentID)
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if len(receipts) != 0 {
		t.Fatalf("dry run wrote %d receipts", len(receipts))
	}
}

// duplicateStorage simulates a concurrent run winning the receipt race.
type duplicateStorage struct {
	period *period.CommentPeriod
}

func (d *duplicateStorage) FindDue(_ context.Context, stage period.Stage, _ time.Time) ([]*period.CommentPeriod, error) {
	if stage == period.StageLastDay {
		return []*period.CommentPeriod{d.period}, nil
	}
	return nil, nil
}

func (d *duplicateStorage) RecordDelivery(context.Context, string, period.Stage, string) error {
	return fmt.Errorf("%w: race", store.ErrAlreadyDelivered)
}

func TestSchedulerTreatsDuplicateReceiptAsSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := testsupport.NewPeriod("EPA-2026-0705", testsupport.Date(2026, 3, 1), testsupport.Date(2026, 3, 15))

	sink := &fakeSink{}
	scheduler := notify.NewScheduler(cfg, &duplicateStorage{period: p}, sink, logging.NewNop())

	stats, err := scheduler.Run(context.Background(), testsupport.Date(2026, 3, 15))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Duplicate != 1 || stats.Failed != 0 {
		t.Fatalf("duplicate receipt should be benign, got %+v", stats)
	}
}

func TestSchedulerFullLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	p := testsupport.NewPeriod("EPA-2026-0001", testsupport.Date(2026, 3, 5), testsupport.Date(2026, 3, 15))
	testsupport.MustUpsert(t, st, p)

	sink := &fakeSink{}
	scheduler := notify.NewScheduler(cfg, st, sink, logging.NewNop())

	days := []struct {
		asOf   time.Time
		posted int
	}{
		{testsupport.Date(2026, 3, 6), 1},  // new announcement
		{testsupport.Date(2026, 3, 7), 0},  // nothing due
		{testsupport.Date(2026, 3, 8), 1},  // 7-day reminder
		{testsupport.Date(2026, 3, 12), 1}, // 3-day reminder
		{testsupport.Date(2026, 3, 14), 0},
		{testsupport.Date(2026, 3, 15), 1}, // last day
		{testsupport.Date(2026, 3, 16), 0}, // closed, nothing fires
	}
	for _, day := range days {
		stats, err := scheduler.Run(ctx, day.asOf)
		if err != nil {
			t.Fatalf("Run(%s): %v", day.asOf.Format(time.DateOnly), err)
		}
		if stats.Posted != day.posted {
			t.Errorf("%s: posted = %d, want %d", day.asOf.Format(time.DateOnly), stats.Posted, day.posted)
		}
	}

	receipts, err := st.Receipts(ctx, p.DocumentID)
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if len(receipts) != 4 {
		t.Fatalf("lifecycle should settle all four stages, got %d receipts", len(receipts))
	}
}
