// Package client invokes the Applications API over HTTP using the route table.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ia-eknorr/gitops-apps/internal/route"
)

const (
	maxResponseBytes = 8 << 20 // 8 MiB

	requestOkText    = "request success"
	requestErrorText = "request error"
	serverErrorText  = "server error"
)

// Client wraps Applications API calls. It never retries and sets no client
// timeout; callers bound calls through ctx.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Metrics    *Metrics // may be nil
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the session token sent in the Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.Token = strings.TrimSpace(token)
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithMetrics records request metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.Metrics = m
	}
}

// New creates an Applications API client for the gateway at baseURL,
// e.g. "http://localhost:9001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do invokes method with req and decodes the response into a Res.
// Non-2xx responses are returned as *APIError.
func Do[Res, Req any](ctx context.Context, c *Client, method string, req *Req) (*Res, error) {
	rt, err := route.Lookup(method)
	if err != nil {
		return nil, err
	}
	call, err := route.Build(rt, req)
	if err != nil {
		return nil, err
	}

	body, err := c.send(ctx, method, call)
	if err != nil {
		return nil, err
	}

	var res Res
	if len(bytes.TrimSpace(body)) == 0 {
		return &res, nil
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w, body: %s", method, err, string(body))
	}
	return &res, nil
}

func (c *Client) send(ctx context.Context, method string, call route.Call) ([]byte, error) {
	requestID := uuid.NewString()
	log := logf.FromContext(ctx).WithName("applications-client").WithValues(
		"method", method,
		"uri", call.URL(),
		"requestID", requestID,
	)

	var reqBody io.Reader
	if call.Body != nil {
		reqBody = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Verb, c.BaseURL+call.URL(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", requestID)
	c.setAuth(req)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Metrics.observe(method, "error", time.Since(start))
		log.Error(err, requestErrorText)
		return nil, fmt.Errorf("sending %s request: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.Metrics.observe(method, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", method, err)
	}

	log = log.WithValues("status", resp.StatusCode)
	switch {
	case resp.StatusCode >= 500:
		log.Error(nil, serverErrorText)
	case resp.StatusCode >= 400:
		log.V(1).Info(requestErrorText)
	default:
		log.V(1).Info(requestOkText)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// setAuth adds the session token using the gateway's "token <jwt>" scheme.
func (c *Client) setAuth(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}
}
