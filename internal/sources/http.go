package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryAttempts  = 4
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// httpStatusError carries a non-2xx upstream response.
type httpStatusError struct {
	Op         string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// fetcher is the shared request/retry loop under both clients.
type fetcher struct {
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

func newFetcher(timeout time.Duration) fetcher {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return fetcher{
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
}

// getJSON performs a GET with retries and decodes the response into out.
// build constructs a fresh request per attempt so the body reader is never
// reused.
func (f *fetcher) getJSON(ctx context.Context, op string, build func(context.Context) (*http.Request, error), out any) error {
	attempts := f.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = f.getJSONOnce(ctx, op, build, out)
		if lastErr == nil {
			return nil
		}
		delay, retry := f.retryDelay(ctx, lastErr, attempt, attempts)
		if !retry {
			return lastErr
		}
		if err := f.sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func (f *fetcher) getJSONOnce(ctx context.Context, op string, build func(context.Context) (*http.Request, error), out any) error {
	req, err := build(ctx)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http error: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &httpStatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (f *fetcher) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx != nil && ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if errors.Is(err, ErrNotFound) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return f.capDelay(statusErr.RetryAfter), true
			}
			return f.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return f.backoffDelay(attempt), true
	}

	// Connection resets and DNS blips surface as url.Error without a
	// status; retry those conservatively.
	if strings.Contains(err.Error(), "http error") {
		return f.backoffDelay(attempt), true
	}
	return 0, false
}

func (f *fetcher) backoffDelay(attempt int) time.Duration {
	delay := f.retryBaseDelay
	if delay <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		if delay > f.retryMaxDelay/2 {
			delay = f.retryMaxDelay
			break
		}
		delay *= 2
	}
	return f.capDelay(delay)
}

func (f *fetcher) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if f.retryMaxDelay > 0 && delay > f.retryMaxDelay {
		return f.retryMaxDelay
	}
	return delay
}

func (f *fetcher) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if f.sleeper != nil {
		f.sleeper(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			delay = 0
		}
		return delay, true
	}
	return 0, false
}
