// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/logging"
	"github.com/tomtom215/afritable/internal/metrics"
	"github.com/tomtom215/afritable/internal/models"
)

const (
	// maxErrorBodySize caps how much of an error response is kept for diagnostics.
	maxErrorBodySize = 64 * 1024

	// maxResponseSize caps successful response bodies.
	maxResponseSize = 10 << 20
)

// QuotaGate is the slice of quota.Tracker the clients depend on.
type QuotaGate interface {
	Allow(ctx context.Context, provider string) error
	Record(ctx context.Context, provider, endpoint string) error
}

// httpClient is the request path shared by all three adapters.
type httpClient struct {
	provider       models.Provider
	baseURL        string
	apiKey         string
	client         *http.Client
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker[[]byte]
	quota          QuotaGate
	maxRetries     int
	retryBaseDelay time.Duration

	// authorize attaches credentials to an outgoing request.
	authorize func(req *http.Request, apiKey string)

	warnOnce sync.Once
}

func newHTTPClient(p models.Provider, cfg config.ProviderConfig, gate QuotaGate, authorize func(*http.Request, string)) *httpClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	retryBase := cfg.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = time.Second
	}

	return &httpClient{
		provider:       p,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		client:         &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(limit, burst),
		breaker:        newBreaker(p.Key() + "-api"),
		quota:          gate,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: retryBase,
		authorize:      authorize,
	}
}

func (c *httpClient) configured() bool {
	return c.apiKey != ""
}

// notConfigured logs the missing key once per client and returns ErrNotConfigured.
func (c *httpClient) notConfigured(endpoint string) error {
	c.warnOnce.Do(func() {
		logging.Warn().Str("provider", c.provider.Key()).
			Msg("API key not configured; provider calls will be skipped")
	})
	metrics.RecordSourceRequest(c.provider.Key(), endpoint, "not_configured", 0)
	return fmt.Errorf("%s: %w", c.provider.Key(), ErrNotConfigured)
}

// getJSON performs a quota-gated, rate-limited, breaker-protected GET and
// decodes the response into out.
func (c *httpClient) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	key := c.provider.Key()
	if !c.configured() {
		return c.notConfigured(endpoint)
	}
	if c.quota != nil {
		if err := c.quota.Allow(ctx, key); err != nil {
			return err
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s %s: rate limiter: %w", key, endpoint, err)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doWithRetry(ctx, reqURL)
	})
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordSourceRequest(key, endpoint, "error", elapsed)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Str("provider", key).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		}
		return fmt.Errorf("%s %s: %w", key, endpoint, err)
	}

	if c.quota != nil {
		if err := c.quota.Record(ctx, key, endpoint); err != nil {
			logging.Warn().Err(err).Str("provider", key).Str("endpoint", endpoint).Msg("Failed to record API usage")
		}
	}
	metrics.RecordSourceRequest(key, endpoint, "success", elapsed)

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", key, endpoint, err)
	}
	return nil
}

// doWithRetry performs the request, retrying HTTP 429 and 5xx responses with
// exponential backoff. Retry-After, when present, replaces the computed delay.
func (c *httpClient) doWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.authorize != nil {
			c.authorize(req, c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", redactURLError(err))
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		if !retryable {
			return c.readResponse(resp)
		}
		if attempt >= c.maxRetries {
			if resp.StatusCode != http.StatusTooManyRequests {
				return c.readResponse(resp)
			}
			_ = resp.Body.Close()
			return nil, &APIError{
				Provider:   c.provider,
				StatusCode: http.StatusTooManyRequests,
				Message:    fmt.Sprintf("rate limit exceeded after %d retries", c.maxRetries),
			}
		}
		_ = resp.Body.Close()

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}
		logging.Debug().Str("provider", c.provider.Key()).Int("status", resp.StatusCode).
			Int("attempt", attempt+1).Dur("delay", delay).Msg("Retryable response, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *httpClient) readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return nil, &APIError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// readBodyForError reads at most maxErrorBodySize bytes of an error response.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// errorMessage pulls a human-readable message out of the error payload shapes
// used by the three providers, falling back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		ErrorMessage string `json:"error_message"`
		Message      string `json:"message"`
		Error        struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error.Description != "":
			return payload.Error.Description
		case payload.ErrorMessage != "":
			return payload.ErrorMessage
		case payload.Message != "":
			return payload.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response body"
	}
	return msg
}

// redactURLError strips credentials from the URL embedded in a *url.Error.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: logging.RedactURL(urlErr.URL), Err: urlErr.Err}
	}
	return err
}

func bearerAuth(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

func rawAuth(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", apiKey)
}

func queryKeyAuth(req *http.Request, apiKey string) {
	q := req.URL.Query()
	q.Set("key", apiKey)
	req.URL.RawQuery = q.Encode()
}
