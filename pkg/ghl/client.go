// Package ghl provides a REST client for the GoHighLevel (LeadConnectorHQ)
// API: OAuth token grants, installed-location listing, custom fields,
// pipelines, contact upsert and opportunity creation.
package ghl

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

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production LeadConnectorHQ endpoint.
	DefaultBaseURL = "https://services.leadconnectorhq.com"
	// APIVersion is sent as the Version header on every resource call.
	APIVersion = "2021-07-28"
)

// Client defines the GoHighLevel operations used by the service.
type Client interface {
	// RefreshToken exchanges a refresh token for a new agency access token.
	RefreshToken(ctx context.Context, req RefreshRequest) (*Token, error)
	// InstalledLocations lists the locations the app is installed on.
	// Records are returned as raw maps so no CRM-provided field is lost.
	InstalledLocations(ctx context.Context, agencyToken, companyID, appID string) ([]map[string]any, error)
	// LocationToken exchanges the agency token for a location-scoped token.
	LocationToken(ctx context.Context, agencyToken, companyID, locationID string) (*Token, error)
	// CustomFields lists a location's custom field definitions.
	CustomFields(ctx context.Context, locationToken, locationID string) ([]CustomField, error)
	// Pipelines lists a location's opportunity pipelines and stages.
	Pipelines(ctx context.Context, locationToken, locationID string) ([]Pipeline, error)
	// UpsertContact creates or updates a contact.
	UpsertContact(ctx context.Context, locationToken string, payload map[string]any) (*Contact, error)
	// CreateOpportunity creates an opportunity linked to a contact.
	CreateOpportunity(ctx context.Context, locationToken string, payload map[string]any) (*Opportunity, error)
}

var (
	errUnexpectedLocationShape    = eris.New("ghl: unexpected installedLocations response shape")
	errUnexpectedOpportunityShape = eris.New("ghl: unexpected opportunity response shape")
)

// APIError is a non-2xx response from the GoHighLevel API. The raw body is
// kept so callers can persist the failure detail per record.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ghl: status %d: %s", e.StatusCode, e.Body)
}

// Details returns the response body decoded as JSON when possible,
// otherwise the body string as-is.
func (e *APIError) Details() any {
	var v any
	if err := json.Unmarshal([]byte(e.Body), &v); err != nil {
		return e.Body
	}
	return v
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a GoHighLevel client. Calls use a 30s timeout and are
// never retried internally; operators re-run the token job on failure.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// do executes the request and returns the body, mapping non-2xx statuses to
// *APIError.
func (c *httpClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ghl: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ghl: read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// postForm sends an x-www-form-urlencoded POST, decoding the JSON response
// into out. bearer may be empty for unauthenticated grants.
func (c *httpClient) postForm(ctx context.Context, path, bearer string, form url.Values, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "ghl: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return eris.Wrap(err, "ghl: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
		req.Header.Set("Version", APIVersion)
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "ghl: unmarshal %s response", path)
	}
	return nil
}

// getJSON sends an authenticated GET, decoding the JSON response into out.
func (c *httpClient) getJSON(ctx context.Context, path, bearer string, query url.Values, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "ghl: rate limit")
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "ghl: create request")
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Version", APIVersion)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "ghl: unmarshal %s response", path)
	}
	return nil
}

// postJSON sends an authenticated JSON POST, decoding the response into out.
func (c *httpClient) postJSON(ctx context.Context, path, bearer string, payload, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "ghl: rate limit")
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "ghl: marshal payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "ghl: create request")
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "ghl: unmarshal %s response", path)
	}
	return nil
}
