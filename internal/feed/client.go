package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nao1215/ctisync/internal/config"
	"github.com/nao1215/ctisync/internal/model"
)

// ErrFetch wraps every failure mode of the feed fetch: network errors,
// non-2xx responses, and malformed JSON. A fetch failure is fatal for the
// run, so callers only need errors.Is(err, ErrFetch) classification.
var ErrFetch = errors.New("feed fetch failed")

// maxFeedBody limits the response body size to prevent memory exhaustion
// from an unexpectedly large or malicious response. The real feed is a few
// hundred kilobytes.
const maxFeedBody = 32 * 1024 * 1024 // 32MB

// Client fetches the DShield Intel Feed.
//
// Design decision: We use a struct with the http.Client rather than passing
// the client on each call because client configuration (timeouts, transport)
// should be consistent for the run, and a shared client enables connection
// reuse and mock transports in tests.
type Client struct {
	// client is the underlying HTTP client.
	client *http.Client

	// baseURL is the feed endpoint.
	baseURL string

	// userAgent identifies the connector in feed requests.
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Useful for tests and for
// injecting transports with custom TLS settings.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Client) {
		f.client = c
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(f *Client) {
		f.client.Timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header for feed requests.
func WithUserAgent(ua string) Option {
	return func(f *Client) {
		f.userAgent = ua
	}
}

// NewClient creates a feed client for the given endpoint.
func NewClient(baseURL string, opts ...Option) *Client {
	f := &Client{
		client:    &http.Client{Timeout: config.DefaultTimeout},
		baseURL:   baseURL,
		userAgent: "ctisync/1.0 (+https://github.com/nao1215/ctisync)",
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves the full feed and decodes it into raw records.
// All failures are wrapped in ErrFetch; partial results are never returned.
func (f *Client) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrFetch, resp.StatusCode, f.baseURL)
	}

	body := io.LimitReader(resp.Body, maxFeedBody)

	var records []model.RawRecord
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: malformed feed body: %v", ErrFetch, err)
	}

	return records, nil
}
