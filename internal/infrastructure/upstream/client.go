// Package upstream contains the source adapters for the external market-data
// providers, plus the rate limiting and retry machinery every adapter call
// goes through.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent on every upstream request. Some providers reject
// requests without a browser-like agent.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) tokenAggApp/1.0"

// minuteWindow is the admission window the public endpoints document their
// per-minute quotas against.
const minuteWindow = time.Minute

// httpSource is the shared transport of all source adapters: one rate
// limiter instance per source, bounded retries around every request.
type httpSource struct {
	name     string
	baseURL  string
	client   *http.Client
	limiter  *RateLimiter
	attempts int
}

func newHTTPSource(name, baseURL string, limiter *RateLimiter, attempts int) httpSource {
	return httpSource{
		name:     name,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  limiter,
		attempts: attempts,
	}
}

// getJSON performs a rate-limited, retried GET against path and decodes the
// response body into out. Each attempt acquires its own admission unit and
// reports its outcome to the limiter.
func (s *httpSource) getJSON(ctx context.Context, path string, out any) error {
	op := fmt.Sprintf("%s %s", s.name, path)
	return Do(ctx, op, s.attempts, func(ctx context.Context) error {
		if err := s.limiter.WaitForUnit(ctx); err != nil {
			return err
		}
		if err := s.doGet(ctx, path, out); err != nil {
			s.limiter.ReportFailure()
			return err
		}
		s.limiter.ReportSuccess()
		return nil
	})
}

func (s *httpSource) doGet(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", s.name, err)
	}
	return nil
}
