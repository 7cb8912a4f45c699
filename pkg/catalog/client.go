package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var catalogTracer = otel.Tracer("tenantgate/catalog")

// TokenHeader carries the identity token on catalog requests
const TokenHeader = "x-access-token"

// maxResponseBytes bounds the catalog response body
const maxResponseBytes = 4 << 20

// LanguageHeader tells the backend which language to localize names in
const LanguageHeader = "Accept-Language"

// Fetcher retrieves the permission catalog from the backend, localized to lang
type Fetcher interface {
	Fetch(ctx context.Context, token, lang string) (Catalog, error)
}

// Client fetches the catalog from GET {baseURL}/permissions
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a catalog client. A zero timeout leaves the transport default.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
	Permissions Catalog `json:"permissions"`
}

// Fetch performs the remote call. An empty lang leaves the backend default.
// Every failure wraps ErrFetchFailed.
func (c *Client) Fetch(ctx context.Context, token, lang string) (Catalog, error) {
	ctx, span := catalogTracer.Start(ctx, "catalog.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.lang", lang))

	catalog, err := c.fetch(ctx, token, lang)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("catalog.size", len(catalog)))
	return catalog, nil
}

func (c *Client) fetch(ctx context.Context, token, lang string) (Catalog, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, ErrMissingToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/permissions", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetchFailed, err)
	}
	req.Header.Set(TokenHeader, token)
	req.Header.Set("Accept", "application/json")
	if lang != "" {
		req.Header.Set(LanguageHeader, lang)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	var body envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrFetchFailed, err)
	}
	if body.Status != "success" {
		msg := body.Message
		if msg == "" {
			msg = "status " + body.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, msg)
	}
	if body.Permissions == nil {
		body.Permissions = Catalog{}
	}
	if err := body.Permissions.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	return body.Permissions, nil
}
