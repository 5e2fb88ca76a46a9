package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultFederalRegisterBaseURL is the public v1 API endpoint.
const DefaultFederalRegisterBaseURL = "https://www.federalregister.gov/api/v1"

// FederalRegisterConfig captures the runtime settings for the enrichment API.
type FederalRegisterConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// FederalRegisterClient looks up Federal Register documents by document
// number to enrich sparse regulations.gov records.
type FederalRegisterClient struct {
	cfg FederalRegisterConfig
	fetcher
}

// Enrichment is the subset of a Federal Register document regwatch folds
// back into a comment period.
type Enrichment struct {
	Abstract string   `json:"abstract"`
	Action   string   `json:"action"`
	Topics   []string `json:"topics"`
	HTMLURL  string   `json:"html_url"`
}

// NewFederalRegisterClient constructs an enrichment client.
func NewFederalRegisterClient(cfg FederalRegisterConfig, opts ...Option) *FederalRegisterClient {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultFederalRegisterBaseURL
	}
	client := &FederalRegisterClient{
		cfg:     cfg,
		fetcher: newFetcher(time.Duration(cfg.TimeoutSeconds) * time.Second),
	}
	for _, opt := range opts {
		opt(&client.fetcher)
	}
	return client
}

// DocumentByNumber fetches the Federal Register document for a document
// number (the frDocNum cross-reference). Returns ErrNotFound when the
// register has no such document.
func (c *FederalRegisterClient) DocumentByNumber(ctx context.Context, docNum string) (*Enrichment, error) {
	docNum = strings.TrimSpace(docNum)
	if docNum == "" {
		return nil, fmt.Errorf("federal register document: empty document number")
	}
	endpoint := c.cfg.BaseURL + "/documents/" + url.PathEscape(docNum) + ".json"
	var enrichment Enrichment
	err := c.getJSON(ctx, "federal register document", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, &enrichment)
	if err != nil {
		return nil, err
	}
	return &enrichment, nil
}
