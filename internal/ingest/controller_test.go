package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"regwatch/internal/classify"
	"regwatch/internal/config"
	"regwatch/internal/ingest"
	"regwatch/internal/logging"
	"regwatch/internal/normalize"
	"regwatch/internal/period"
	"regwatch/internal/sources"
	"regwatch/internal/store"
	"regwatch/internal/testsupport"
)

type fakeFetcher struct {
	pages     [][]normalize.RawDocument
	fetchErr  error
	errOnPage int
}

func (f *fakeFetcher) FetchDocuments(_ context.Context, _ sources.DocumentFilter, page int) (sources.DocumentPage, error) {
	if f.fetchErr != nil && page == f.errOnPage {
		return sources.DocumentPage{}, f.fetchErr
	}
	if page > len(f.pages) {
		return sources.DocumentPage{}, nil
	}
	return sources.DocumentPage{
		Records: f.pages[page-1],
		HasMore: page < len(f.pages),
	}, nil
}

func (f *fakeFetcher) DocumentDetail(_ context.Context, documentID string) (normalize.RawDocument, error) {
	return normalize.RawDocument{}, fmt.Errorf("%w: %s", sources.ErrNotFound, documentID)
}

type fakeEnricher struct {
	enrichment *sources.Enrichment
	err        error
	calls      int
}

func (f *fakeEnricher) DocumentByNumber(_ context.Context, _ string) (*sources.Enrichment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.enrichment, nil
}

func rawDocument(id, endDate string) normalize.RawDocument {
	raw := normalize.RawDocument{ID: id}
	raw.Attributes.Title = "Rule " + id
	raw.Attributes.AgencyID = "EPA"
	raw.Attributes.PostedDate = "2026-03-01"
	raw.Attributes.CommentEndDate = endDate
	raw.Attributes.OpenForComment = true
	return raw
}

func newController(t *testing.T, cfg *config.Config, st *store.Store, fetcher ingest.Fetcher, enricher ingest.Enricher) *ingest.Controller {
	t.Helper()
	classifier, err := classify.NewClassifier()
	if err != nil {
		t.Fatalf("classify.NewClassifier: %v", err)
	}
	return ingest.NewController(cfg, fetcher, enricher, classify.NewAdapter(classifier), st, logging.NewNop())
}

func TestRunStoresFetchedRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	asOf := testsupport.Date(2026, 3, 2)

	fetcher := &fakeFetcher{pages: [][]normalize.RawDocument{
		{rawDocument("EPA-2026-1000", "2026-04-01"), rawDocument("EPA-2026-1001", "2026-04-15")},
		{rawDocument("EPA-2026-1002", "2026-05-01")},
	}}
	controller := newController(t, cfg, st, fetcher, nil)

	stats, err := controller.Run(context.Background(), asOf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Pages != 2 || stats.Created != 3 {
		t.Fatalf("stats = %+v, want 2 pages and 3 created", stats)
	}

	got, err := st.Get(context.Background(), "EPA-2026-1002")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AgencyName != "Environmental Protection Agency" {
		t.Errorf("agency name = %q, want the expanded name", got.AgencyName)
	}
}

func TestRunIsolatesMalformedRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	asOf := testsupport.Date(2026, 3, 2)

	// Ten records, one with an unparsable end date. Nine must land.
	var batch []normalize.RawDocument
	for i := 0; i < 9; i++ {
		batch = append(batch, rawDocument(fmt.Sprintf("EPA-2026-11%02d", i), "2026-04-01"))
	}
	bad := rawDocument("EPA-2026-1199", "not-a-date")
	batch = append(batch, bad)

	controller := newController(t, cfg, st, &fakeFetcher{pages: [][]normalize.RawDocument{batch}}, nil)

	stats, err := controller.Run(context.Background(), asOf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Created != 9 || stats.Malformed != 1 {
		t.Fatalf("stats = %+v, want 9 created and 1 malformed", stats)
	}
	if _, err := st.Get(context.Background(), "EPA-2026-1199"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("malformed record was stored: %v", err)
	}
}

func TestRunSkipsClosedRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	closed := rawDocument("EPA-2026-1200", "2026-04-01")
	closed.Attributes.OpenForComment = false
	controller := newController(t, cfg, st, &fakeFetcher{pages: [][]normalize.RawDocument{{closed}}}, nil)

	stats, err := controller.Run(context.Background(), testsupport.Date(2026, 3, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Closed != 1 || stats.Created != 0 {
		t.Fatalf("stats = %+v, want the closed record skipped", stats)
	}
}

func TestRunRejectsInvertedWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	inverted := rawDocument("EPA-2026-1201", "2026-02-01")
	inverted.Attributes.PostedDate = "2026-03-01"
	controller := newController(t, cfg, st, &fakeFetcher{pages: [][]normalize.RawDocument{{inverted}}}, nil)

	stats, err := controller.Run(context.Background(), testsupport.Date(2026, 3, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Rejected != 1 || stats.Created != 0 {
		t.Fatalf("stats = %+v, want the inverted window rejected", stats)
	}
}

func TestRunSurfacesFetchAbortKeepingProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	fetcher := &fakeFetcher{
		pages:     [][]normalize.RawDocument{{rawDocument("EPA-2026-1300", "2026-04-01")}, nil},
		fetchErr:  errors.New("upstream down"),
		errOnPage: 2,
	}
	controller := newController(t, cfg, st, fetcher, nil)

	stats, err := controller.Run(context.Background(), testsupport.Date(2026, 3, 2))
	if err == nil {
		t.Fatal("Run should report the fetch abort")
	}
	if stats.Created != 1 {
		t.Fatalf("page one progress lost: %+v", stats)
	}
	if _, err := st.Get(context.Background(), "EPA-2026-1300"); err != nil {
		t.Errorf("record from the successful page missing: %v", err)
	}
}

func TestRunEnrichesFromFederalRegister(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	raw := rawDocument("EPA-2026-1400", "2026-04-01")
	raw.Attributes.Summary = "listing summary"
	raw.Attributes.FRDocNum = "2026-04321"

	enricher := &fakeEnricher{enrichment: &sources.Enrichment{
		Topics:  []string{"Air pollution control"},
		HTMLURL: "https://www.federalregister.gov/documents/2026/03/01/2026-04321/rule",
	}}
	controller := newController(t, cfg, st, &fakeFetcher{pages: [][]normalize.RawDocument{{raw}}}, enricher)

	stats, err := controller.Run(context.Background(), testsupport.Date(2026, 3, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Enriched != 1 {
		t.Fatalf("stats = %+v, want 1 enriched", stats)
	}

	got, err := st.Get(context.Background(), "EPA-2026-1400")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Keywords == "" {
		t.Error("federal register topics not folded into keywords")
	}
	if got.FederalRegisterURL != enricher.enrichment.HTMLURL {
		t.Errorf("federal register url = %q", got.FederalRegisterURL)
	}
}

func TestRunEnrichmentFailureIsNonFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	raw := rawDocument("EPA-2026-1401", "2026-04-01")
	raw.Attributes.Summary = "listing summary"
	raw.Attributes.FRDocNum = "2026-99999"

	enricher := &fakeEnricher{err: errors.New("register down")}
	controller := newController(t, cfg, st, &fakeFetcher{pages: [][]normalize.RawDocument{{raw}}}, enricher)

	stats, err := controller.Run(context.Background(), testsupport.Date(2026, 3, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Created != 1 || stats.Enriched != 0 {
		t.Fatalf("stats = %+v, record should land without enrichment", stats)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	controller := newController(t, cfg, st,
		&fakeFetcher{pages: [][]normalize.RawDocument{{rawDocument("EPA-2026-1500", "2026-04-01")}}}, nil)
	controller.DryRun = true

	if _, err := controller.Run(context.Background(), testsupport.Date(2026, 3, 2)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := st.Get(context.Background(), "EPA-2026-1500"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("dry run wrote to the store: %v", err)
	}
}

func TestRunClassifiesRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	raw := rawDocument("EPA-2026-1600", "2026-04-01")
	raw.Attributes.Title = "Clean Air Act emissions standards"
	raw.Attributes.Summary = "Limits on greenhouse gas pollution."
	controller := newController(t, cfg, st, &fakeFetcher{pages: [][]normalize.RawDocument{{raw}}}, nil)

	if _, err := controller.Run(context.Background(), testsupport.Date(2026, 3, 2)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := st.Get(context.Background(), "EPA-2026-1600")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	found := false
	for _, topic := range got.Topics {
		if topic == period.TopicEnvironment {
			found = true
		}
	}
	if !found {
		t.Errorf("topics = %v, want environment from the EPA agency rule", got.Topics)
	}
}
