package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDocumentByNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/2026-04321.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"abstract": "Limits on emissions.",
			"action": "Proposed rule.",
			"topics": ["Air pollution control"],
			"html_url": "https://www.federalregister.gov/documents/2026/03/01/2026-04321/rule"
		}`)
	}))
	defer server.Close()

	client := NewFederalRegisterClient(FederalRegisterConfig{BaseURL: server.URL})
	enrichment, err := client.DocumentByNumber(context.Background(), "2026-04321")
	if err != nil {
		t.Fatalf("DocumentByNumber: %v", err)
	}
	if enrichment.Abstract != "Limits on emissions." {
		t.Errorf("abstract = %q", enrichment.Abstract)
	}
	if len(enrichment.Topics) != 1 || enrichment.Topics[0] != "Air pollution control" {
		t.Errorf("topics = %v", enrichment.Topics)
	}
}

func TestDocumentByNumberNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewFederalRegisterClient(FederalRegisterConfig{BaseURL: server.URL})
	_, err := client.DocumentByNumber(context.Background(), "2099-00000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDocumentByNumberRequiresNumber(t *testing.T) {
	client := NewFederalRegisterClient(FederalRegisterConfig{})
	if _, err := client.DocumentByNumber(context.Background(), "  "); err == nil {
		t.Fatal("empty document number should error")
	}
}
