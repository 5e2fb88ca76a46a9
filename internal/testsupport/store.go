package testsupport

import (
	"context"
	"testing"
	"time"

	"regwatch/internal/config"
	"regwatch/internal/period"
	"regwatch/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// Date builds a UTC calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewPeriod builds a minimal valid comment period for tests.
func NewPeriod(documentID string, posted, end time.Time) *period.CommentPeriod {
	return &period.CommentPeriod{
		DocumentID: documentID,
		DocketID:   documentID,
		Title:      "Test Rule " + documentID,
		AgencyID:   "EPA",
		AgencyName: "Environmental Protection Agency",
		PostedDate: posted,
		CommentEnd: end,
		CommentURL: period.CommentURLFor(documentID),
		DetailURL:  period.DetailURLFor(documentID),
	}
}

// MustUpsert stores a period or fails the test.
func MustUpsert(t testing.TB, st *store.Store, p *period.CommentPeriod) {
	t.Helper()

	if _, err := st.Upsert(context.Background(), p); err != nil {
		t.Fatalf("store.Upsert(%s): %v", p.DocumentID, err)
	}
}
