package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"regwatch/internal/normalize"
)

const (
	// DefaultRegulationsGovBaseURL is the public v4 API endpoint.
	DefaultRegulationsGovBaseURL = "https://api.regulations.gov/v4"

	// DemoKey is the shared rate-limited key regulations.gov hands out for
	// experimentation. Usable, but heavily throttled.
	DemoKey = "DEMO_KEY"

	defaultPageSize = 250
	maxPageSize     = 250
)

// RegulationsGovConfig captures the runtime settings for the documents API.
type RegulationsGovConfig struct {
	APIKey         string
	BaseURL        string
	PageSize       int
	TimeoutSeconds int
}

// RegulationsGovClient pulls open comment periods from regulations.gov.
type RegulationsGovClient struct {
	cfg RegulationsGovConfig
	fetcher
}

// Option customizes a client, mainly for tests.
type Option func(*fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(f *fetcher) {
		f.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(f *fetcher) {
		f.retryBaseDelay = baseDelay
		f.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(f *fetcher) {
		f.sleeper = sleeper
	}
}

// NewRegulationsGovClient constructs a documents API client.
func NewRegulationsGovClient(cfg RegulationsGovConfig, opts ...Option) *RegulationsGovClient {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRegulationsGovBaseURL
	}
	if cfg.PageSize <= 0 || cfg.PageSize > maxPageSize {
		cfg.PageSize = defaultPageSize
	}
	client := &RegulationsGovClient{
		cfg:     cfg,
		fetcher: newFetcher(time.Duration(cfg.TimeoutSeconds) * time.Second),
	}
	for _, opt := range opts {
		opt(&client.fetcher)
	}
	return client
}

// UsingDemoKey reports whether the client runs on the throttled shared key.
func (c *RegulationsGovClient) UsingDemoKey() bool {
	return c.cfg.APIKey == DemoKey
}

// DocumentFilter selects which documents a page fetch returns.
type DocumentFilter struct {
	// PostedSince bounds filter[postedDate][ge].
	PostedSince time.Time
	// ClosesOnOrAfter bounds filter[commentEndDate][ge]; periods already
	// closed by this date are not worth ingesting.
	ClosesOnOrAfter time.Time
	// DocumentTypes restricts filter[documentType] when non-empty.
	DocumentTypes []string
}

// DocumentPage is one page of the paginated documents listing.
type DocumentPage struct {
	Records       []normalize.RawDocument
	HasMore       bool
	TotalElements int
}

type documentsEnvelope struct {
	Data []normalize.RawDocument `json:"data"`
	Meta struct {
		TotalPages    int `json:"totalPages"`
		PageNumber    int `json:"pageNumber"`
		TotalElements int `json:"totalElements"`
	} `json:"meta"`
}

type documentEnvelope struct {
	Data normalize.RawDocument `json:"data"`
}

// FetchDocuments retrieves one page (1-based) of documents matching the filter.
func (c *RegulationsGovClient) FetchDocuments(ctx context.Context, filter DocumentFilter, page int) (DocumentPage, error) {
	if page < 1 {
		page = 1
	}

	query := url.Values{}
	query.Set("sort", "-postedDate")
	query.Set("page[size]", strconv.Itoa(c.cfg.PageSize))
	query.Set("page[number]", strconv.Itoa(page))
	if !filter.PostedSince.IsZero() {
		query.Set("filter[postedDate][ge]", filter.PostedSince.Format(time.DateOnly))
	}
	if !filter.ClosesOnOrAfter.IsZero() {
		query.Set("filter[commentEndDate][ge]", filter.ClosesOnOrAfter.Format(time.DateOnly))
	}
	if len(filter.DocumentTypes) > 0 {
		query.Set("filter[documentType]", strings.Join(filter.DocumentTypes, ","))
	}

	endpoint := c.cfg.BaseURL + "/documents?" + query.Encode()
	var envelope documentsEnvelope
	err := c.getJSON(ctx, "regulations.gov documents", func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, endpoint)
	}, &envelope)
	if err != nil {
		return DocumentPage{}, err
	}

	return DocumentPage{
		Records:       envelope.Data,
		HasMore:       page < envelope.Meta.TotalPages,
		TotalElements: envelope.Meta.TotalElements,
	}, nil
}

// DocumentDetail retrieves the full record for one document. The listing
// endpoint omits long fields like the summary; the detail endpoint carries
// them.
func (c *RegulationsGovClient) DocumentDetail(ctx context.Context, documentID string) (normalize.RawDocument, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return normalize.RawDocument{}, fmt.Errorf("regulations.gov document: empty document id")
	}
	endpoint := c.cfg.BaseURL + "/documents/" + url.PathEscape(documentID)
	var envelope documentEnvelope
	err := c.getJSON(ctx, "regulations.gov document", func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, endpoint)
	}, &envelope)
	if err != nil {
		return normalize.RawDocument{}, err
	}
	return envelope.Data, nil
}

func (c *RegulationsGovClient) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/vnd.api+json")
	return req, nil
}
