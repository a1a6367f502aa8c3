// Package apiclient talks JSON to the school backend.
//
// Client resolves paths against the configured API base and decodes bodies into generic
// JSON values for the normalizers. Authorizer is the http.RoundTripper that attaches the
// per-client bearer token and forces logout when the backend answers 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aulaweb/aula-admin/internal/normalize"
	obserrors "github.com/aulaweb/aula-admin/internal/observability/errors"
	"github.com/aulaweb/aula-admin/internal/ports"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 4 << 20
)

var _ ports.RESTClient = (*Client)(nil)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:5000/api.
	BaseURL string
	// HTTPClient overrides the transport stack. When nil a client with Transport and Timeout is built.
	HTTPClient *http.Client
	// Transport is used when HTTPClient is nil.
	Transport http.RoundTripper
	Timeout   time.Duration
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Client is a JSON REST client bound to one API base.
type Client struct {
	base    *url.URL
	http    *http.Client
	maxBody int64
	logger  *slog.Logger
}

// New builds a Client. The base URL must be absolute.
func New(opts Options) (*Client, error) {
	base, err := ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout, Transport: opts.Transport}
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:    base,
		http:    hc,
		maxBody: maxBody,
		logger:  logger.With("component", "apiclient"),
	}, nil
}

// ParseBaseURL validates an absolute http(s) API base and strips any trailing slash.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("api base url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https: %q", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api base url must include a host: %q", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// BaseURL returns a copy of the API base.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Resolve returns the absolute URL for a path relative to the API base. A trailing
// slash on path is kept because the backend distinguishes usuarios/ from usuarios.
func (c *Client) Resolve(path string, query url.Values) *url.URL {
	u := c.base.JoinPath(strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// Get issues a GET and returns the decoded body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (any, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Send issues a request with a JSON body (nil for none) and returns the decoded body.
func (c *Client) Send(ctx context.Context, method, path string, body any) (any, error) {
	return c.do(ctx, method, path, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	target := c.Resolve(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			"method", method, "path", path, "error", err,
			"error_class", obserrors.Classify(err), "duration_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnreachable, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, readErr := c.readBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: normalize.ErrorMessage(payload),
			Body:    payload,
		}
		c.logger.DebugContext(ctx, "backend returned error status",
			"method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}
	if readErr != nil {
		return nil, fmt.Errorf("decode %s %s response: %w", method, path, readErr)
	}
	return payload, nil
}

// readBody decodes a JSON body. Empty bodies decode to nil; non-JSON bodies are returned
// as a trimmed string alongside the decode error.
func (c *Client) readBody(resp *http.Response) (any, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > c.maxBody {
		return nil, fmt.Errorf("response body exceeds %d bytes", c.maxBody)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw)), fmt.Errorf("invalid json: %w", err)
	}
	return payload, nil
}
