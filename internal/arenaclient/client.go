// Package arenaclient is the Go client for the arena HTTP API. It is
// what the smoke probe and other services use to drive games remotely.
package arenaclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/atomic-chess-arena/pkg/atomicdto"
)

// HeaderProvider injects per-request headers, auth tokens and the like.
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health pings the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, fasthttp.MethodGet, "/healthz", nil, false)
	return err
}

func (c *Client) Start(ctx context.Context, req atomicdto.StartRequest) (*atomicdto.StartResponse, error) {
	var resp atomicdto.StartResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/games", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context, room string) (*atomicdto.StatusResponse, error) {
	var resp atomicdto.StatusResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/games/"+room, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) StatusBySession(ctx context.Context, id string) (*atomicdto.StatusResponse, error) {
	var resp atomicdto.StatusResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/sessions/"+id, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Move(ctx context.Context, room, from, to string) (*atomicdto.MoveResponse, error) {
	req := atomicdto.MoveRequest{From: from, To: to}
	var resp atomicdto.MoveResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/games/"+room+"/moves", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Resign(ctx context.Context, room, color string) (*atomicdto.ResignResponse, error) {
	req := atomicdto.ResignRequest{Color: color}
	var resp atomicdto.ResignResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/games/"+room+"/resign", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Recent(ctx context.Context, room string) (*atomicdto.ArchiveResponse, error) {
	var resp atomicdto.ArchiveResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/games/"+room+"/archive", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BoardPNG fetches the rendered board. fromSq and toSq, when both set,
// ask the server to highlight that move.
func (c *Client) BoardPNG(ctx context.Context, room, fromSq, toSq string) ([]byte, error) {
	path := "/v1/games/" + room + "/board.png"
	if fromSq != "" && toSq != "" {
		path += "?from=" + fromSq + "&to=" + toSq
	}
	return c.do(ctx, fasthttp.MethodGet, path, nil, true)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	body, err := c.do(ctx, method, path, payload, retry)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, retry bool) ([]byte, error) {
	url := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if payload != nil {
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			err := apiError(status, resp.Body())
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return nil, err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		out := make([]byte, len(resp.Body()))
		copy(out, resp.Body())
		return out, nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

// apiError surfaces the server's error envelope when there is one, so
// callers can branch on the domain code with errors.As.
func apiError(status int, body []byte) error {
	var envelope atomicdto.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Code != "" {
		return fmt.Errorf("arena api status=%d: %w", status, envelope.Error)
	}
	return fmt.Errorf("arena api error: status=%d body=%s", status, truncate(string(body), 512))
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
