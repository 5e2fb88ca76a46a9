package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchDocumentsBuildsQueryAndPaginates(t *testing.T) {
	var gotQueries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("X-Api-Key = %q", got)
		}
		gotQueries = append(gotQueries, r.URL.RawQuery)
		page := r.URL.Query().Get("page[number]")
		fmt.Fprintf(w, `{
			"data": [{"id": "EPA-2026-%s", "attributes": {"title": "Rule %s"}}],
			"meta": {"totalPages": 2, "pageNumber": %s, "totalElements": 2}
		}`, page, page, page)
	}))
	defer server.Close()

	client := NewRegulationsGovClient(RegulationsGovConfig{
		APIKey:   "secret",
		BaseURL:  server.URL,
		PageSize: 50,
	})

	filter := DocumentFilter{
		PostedSince:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ClosesOnOrAfter: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		DocumentTypes:   []string{"Proposed Rule"},
	}

	first, err := client.FetchDocuments(context.Background(), filter, 1)
	if err != nil {
		t.Fatalf("FetchDocuments page 1: %v", err)
	}
	if !first.HasMore || len(first.Records) != 1 {
		t.Fatalf("page 1 = %+v", first)
	}
	if first.Records[0].ID != "EPA-2026-1" {
		t.Errorf("record id = %q", first.Records[0].ID)
	}

	second, err := client.FetchDocuments(context.Background(), filter, 2)
	if err != nil {
		t.Fatalf("FetchDocuments page 2: %v", err)
	}
	if second.HasMore {
		t.Error("last page should report no more pages")
	}

	query := gotQueries[0]
	for _, want := range []string{
		"filter%5BpostedDate%5D%5Bge%5D=2026-03-01",
		"filter%5BcommentEndDate%5D%5Bge%5D=2026-03-04",
		"filter%5BdocumentType%5D=Proposed+Rule",
		"page%5Bsize%5D=50",
		"sort=-postedDate",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}

func TestFetchDocumentsRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data": [], "meta": {"totalPages": 1, "pageNumber": 1}}`)
	}))
	defer server.Close()

	var slept time.Duration
	client := NewRegulationsGovClient(RegulationsGovConfig{APIKey: "k", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept += d }),
	)

	_, err := client.FetchDocuments(context.Background(), DocumentFilter{}, 1)
	if err != nil {
		t.Fatalf("FetchDocuments: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want retry after 429", calls.Load())
	}
	if slept != time.Second {
		t.Errorf("slept %s, want the Retry-After value", slept)
	}
}

func TestFetchDocumentsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"errors":[{"status":"400"}]}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewRegulationsGovClient(RegulationsGovConfig{APIKey: "k", BaseURL: server.URL},
		WithSleeper(func(time.Duration) {}),
	)

	_, err := client.FetchDocuments(context.Background(), DocumentFilter{}, 1)
	if err == nil {
		t.Fatal("expected an error for http 400")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, client errors must not retry", calls.Load())
	}
}

func TestFetchDocumentsGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRegulationsGovClient(RegulationsGovConfig{APIKey: "k", BaseURL: server.URL},
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(3),
	)

	_, err := client.FetchDocuments(context.Background(), DocumentFilter{}, 1)
	if err == nil {
		t.Fatal("expected the final error to surface")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3 bounded attempts", calls.Load())
	}
}

func TestDocumentDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/EPA-2026-0001" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"data": {"id": "EPA-2026-0001", "attributes": {"summary": "full summary"}}}`)
	}))
	defer server.Close()

	client := NewRegulationsGovClient(RegulationsGovConfig{APIKey: "k", BaseURL: server.URL})
	detail, err := client.DocumentDetail(context.Background(), "EPA-2026-0001")
	if err != nil {
		t.Fatalf("DocumentDetail: %v", err)
	}
	if detail.Attributes.Summary != "full summary" {
		t.Errorf("summary = %q", detail.Attributes.Summary)
	}
}

func TestUsingDemoKey(t *testing.T) {
	if !NewRegulationsGovClient(RegulationsGovConfig{APIKey: DemoKey}).UsingDemoKey() {
		t.Error("DEMO_KEY not detected")
	}
	if NewRegulationsGovClient(RegulationsGovConfig{APIKey: "real"}).UsingDemoKey() {
		t.Error("real key flagged as demo")
	}
}
