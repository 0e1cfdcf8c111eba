package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/ctisync/internal/config"
)

// HTTPClient implements Client against an OpenCTI-style JSON API.
// It covers only the six calls in the Client contract; anything beyond the
// connector's needs is deliberately out of scope.
type HTTPClient struct {
	// client is the underlying HTTP client.
	client *http.Client

	// baseURL is the store API base URL, without trailing slash.
	baseURL string

	// token is the bearer token sent with every request.
	token string
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithTransport sets a custom HTTP client, primarily for tests.
func WithTransport(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a store client for the given base URL and token.
func NewHTTPClient(baseURL, token string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		client:  &http.Client{Timeout: config.DefaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FindLabel implements Client. The store search may return partial matches,
// so the result is filtered down to an exact case-insensitive value match.
func (c *HTTPClient) FindLabel(ctx context.Context, value string) (LabelHandle, bool, error) {
	endpoint := c.baseURL + "/api/labels?search=" + url.QueryEscape(value)

	var labels []LabelHandle
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &labels); err != nil {
		return LabelHandle{}, false, err
	}

	for _, l := range labels {
		if strings.EqualFold(l.Value, value) {
			return l, true, nil
		}
	}
	return LabelHandle{}, false, nil
}

// CreateLabel implements Client.
func (c *HTTPClient) CreateLabel(ctx context.Context, value, color string) (LabelHandle, error) {
	body := map[string]string{
		"value": value,
		"color": color,
	}

	var label LabelHandle
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/labels", body, &label); err != nil {
		return LabelHandle{}, err
	}
	return label, nil
}

// CreateObservable implements Client. Labels are intentionally absent from
// the payload; they are attached separately via AddLabel.
func (c *HTTPClient) CreateObservable(ctx context.Context, in ObservableInput) (ObservableHandle, error) {
	body := map[string]any{
		"simple_observable_key":   in.Key,
		"simple_observable_value": in.Value,
		"description":             in.Description,
		"main_observable_type":    in.MainType,
		"external_references":     []string{in.ExternalRef.ID},
		"created_by":              in.CreatedBy.ID,
		"score":                   in.Score,
		"object_marking":          []string{in.Marking},
		"create_indicator":        true,
	}

	var obs ObservableHandle
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/observables", body, &obs); err != nil {
		return ObservableHandle{}, err
	}
	return obs, nil
}

// AddLabel implements Client.
func (c *HTTPClient) AddLabel(ctx context.Context, obs ObservableHandle, label LabelHandle) error {
	body := map[string]string{
		"label_id": label.ID,
	}
	endpoint := fmt.Sprintf("%s/api/observables/%s/labels", c.baseURL, url.PathEscape(obs.ID))
	return c.do(ctx, http.MethodPost, endpoint, body, nil)
}

// CreateExternalReference implements Client.
func (c *HTTPClient) CreateExternalReference(ctx context.Context, sourceName, refURL string) (ReferenceHandle, error) {
	body := map[string]string{
		"source_name": sourceName,
		"url":         refURL,
	}

	var ref ReferenceHandle
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/external-references", body, &ref); err != nil {
		return ReferenceHandle{}, err
	}
	return ref, nil
}

// CreateOrganization implements Client.
func (c *HTTPClient) CreateOrganization(ctx context.Context, name, description string, refs []ReferenceHandle) (OrgHandle, error) {
	refIDs := make([]string, 0, len(refs))
	for _, r := range refs {
		refIDs = append(refIDs, r.ID)
	}

	body := map[string]any{
		"type":                "Organization",
		"name":                name,
		"description":         description,
		"external_references": refIDs,
	}

	var org OrgHandle
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/identities", body, &org); err != nil {
		return OrgHandle{}, err
	}
	return org, nil
}

// do performs one JSON request/response round trip. Every failure mode is
// wrapped in ErrStore so callers treat the store as a single fallible unit.
func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrStore, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Include a snippet of the body for diagnostics; store errors
		// usually carry a short JSON message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // Diagnostic only
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrStore, method, endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrStore, err)
	}
	return nil
}
