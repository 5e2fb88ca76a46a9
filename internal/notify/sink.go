package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"regwatch/internal/config"
)

const userAgent = "regwatch/0.1.0"

// Sink delivers a rendered post to the outside world and returns an
// external post identifier for the receipt.
type Sink interface {
	Post(ctx context.Context, text string) (string, error)
}

// NewSink builds a Bluesky-backed sink when posting is enabled, otherwise
// a noop that still produces receipt identifiers so the ratchet advances.
func NewSink(cfg *config.Config) Sink {
	if !cfg.Bluesky.Enabled {
		return noopSink{}
	}
	timeout := time.Duration(cfg.Bluesky.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &blueskySink{
		service:    strings.TrimRight(strings.TrimSpace(cfg.Bluesky.Service), "/"),
		identifier: strings.TrimSpace(cfg.Bluesky.Identifier),
		password:   strings.TrimSpace(cfg.Bluesky.AppPassword),
		client:     &http.Client{Timeout: timeout},
	}
}

// noopSink swallows posts. Receipts still get a synthetic identifier so
// dry deployments exercise the full delivery path.
type noopSink struct{}

func (noopSink) Post(_ context.Context, _ string) (string, error) {
	return "noop", nil
}

type blueskySink struct {
	service    string
	identifier string
	password   string
	client     *http.Client

	mu        sync.Mutex
	accessJwt string
	did       string
}

type sessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// Post publishes one post, authenticating on first use and once more if
// the session has expired.
func (s *blueskySink) Post(ctx context.Context, text string) (string, error) {
	jwt, did, err := s.session(ctx, false)
	if err != nil {
		return "", err
	}
	uri, status, err := s.createRecord(ctx, jwt, did, text)
	if status == http.StatusUnauthorized {
		jwt, did, err = s.session(ctx, true)
		if err != nil {
			return "", err
		}
		uri, _, err = s.createRecord(ctx, jwt, did, text)
	}
	if err != nil {
		return "", err
	}
	return uri, nil
}

func (s *blueskySink) session(ctx context.Context, refresh bool) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessJwt != "" && !refresh {
		return s.accessJwt, s.did, nil
	}

	payload, err := json.Marshal(map[string]string{
		"identifier": s.identifier,
		"password":   s.password,
	})
	if err != nil {
		return "", "", fmt.Errorf("bluesky session: encode: %w", err)
	}
	endpoint := s.service + "/xrpc/com.atproto.server.createSession"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("bluesky session: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("bluesky session: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", "", fmt.Errorf("bluesky session: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return "", "", fmt.Errorf("bluesky session: decode: %w", err)
	}
	if session.AccessJwt == "" || session.DID == "" {
		return "", "", fmt.Errorf("bluesky session: incomplete response")
	}
	s.accessJwt = session.AccessJwt
	s.did = session.DID
	return s.accessJwt, s.did, nil
}

func (s *blueskySink) createRecord(ctx context.Context, jwt, did, text string) (string, int, error) {
	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if facets := linkFacets(text); len(facets) > 0 {
		record["facets"] = facets
	}
	payload, err := json.Marshal(map[string]any{
		"repo":       did,
		"collection": "app.bsky.feed.post",
		"record":     record,
	})
	if err != nil {
		return "", 0, fmt.Errorf("bluesky post: encode: %w", err)
	}

	endpoint := s.service + "/xrpc/com.atproto.repo.createRecord"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("bluesky post: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+jwt)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("bluesky post: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", resp.StatusCode, fmt.Errorf("bluesky post: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created createRecordResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", resp.StatusCode, fmt.Errorf("bluesky post: decode: %w", err)
	}
	if created.URI == "" {
		return "", resp.StatusCode, fmt.Errorf("bluesky post: missing record uri")
	}
	return created.URI, resp.StatusCode, nil
}

// linkFacets marks https URLs in the post text so Bluesky renders them as
// links. Byte offsets, per the richtext facet contract.
func linkFacets(text string) []map[string]any {
	var facets []map[string]any
	offset := 0
	for {
		idx := strings.Index(text[offset:], "https://")
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start
		for end < len(text) && !isLinkBoundary(text[end]) {
			end++
		}
		facets = append(facets, map[string]any{
			"index": map[string]int{
				"byteStart": start,
				"byteEnd":   end,
			},
			"features": []map[string]string{{
				"$type": "app.bsky.richtext.facet#link",
				"uri":   text[start:end],
			}},
		})
		offset = end
	}
	return facets
}

func isLinkBoundary(b byte) bool {
	switch b {
	case ' ', '\n', '\t':
		return true
	}
	return false
}
