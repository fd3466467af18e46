// Package upstream issues outbound HTTP calls to the two services the
// gateway fronts: the monitoring API and the users identity API. One
// invocation means exactly one network call; nothing is retried.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Service selects which upstream base URL a request targets.
type Service int

const (
	Monitoring Service = iota
	Identity
)

type Client struct {
	monitoringBase string
	identityBase   string
	httpClient     *http.Client
}

// NewClient fixes the two base URLs for the process lifetime. The timeout
// bounds every outbound call; expiry is reported as a transport failure.
func NewClient(monitoringBase, identityBase string, timeout time.Duration) *Client {
	return &Client{
		monitoringBase: monitoringBase,
		identityBase:   identityBase,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Request describes one outbound call. At most one body is sent; Token,
// when non-empty, becomes the Authorization header.
type Request struct {
	Service     Service
	Method      string
	Path        string
	Query       url.Values
	Token       string
	Body        []byte
	ContentType string
}

// Result is whatever the upstream answered, raw. Handlers decide per
// operation whether a non-2xx status is passed through or normalized.
type Result struct {
	Status      int
	Body        []byte
	ContentType string
}

func (c *Client) baseURL(s Service) string {
	if s == Identity {
		return c.identityBase
	}
	return c.monitoringBase
}

// Do performs the call and reads the full response body. A returned error
// means no response was obtained (connection, DNS, timeout); any HTTP
// status at all yields a Result.
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	u := c.baseURL(req.Service) + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &Result{
		Status:      resp.StatusCode,
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
