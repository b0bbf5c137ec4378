package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ghaggin/naviplus-admin/internal/config"
	"github.com/ghaggin/naviplus-admin/internal/middleware"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// TokenSource yields the backend token for the session bound to ctx.
type TokenSource interface {
	Get(ctx context.Context) (string, bool)
}

// Client talks to the Naviplus REST backend. It attaches the session token
// but never modifies the token store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Log    *zap.Logger
	Tokens *middleware.SessionManager
}

func New(p Params) *Client {
	return NewClient(p.Config.Backend.BaseURL, p.Tokens, p.Log, p.Config.Backend.Timeout)
}

func NewClient(baseURL string, tokens TokenSource, log *zap.Logger, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log.Named("api"),
	}
}

// Do sends body as json to base+path and decodes a 2xx response into out.
// out and body may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, true)
}

// doAnon is Do without the session token, for the endpoints that take
// credentials instead. A stale token there would be rejected with a 401.
func (c *Client) doAnon(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, withToken bool) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Message: GenericMessage, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RequestError{Message: GenericMessage, Err: fmt.Errorf("create request: %w", err)}
	}

	c.setHeaders(ctx, req, body != nil, withToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("backend unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &RequestError{Message: "Backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("backend call",
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Status: resp.StatusCode, Message: GenericMessage, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{Path: path}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &RequestError{Status: resp.StatusCode, Message: detail(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &RequestError{Status: resp.StatusCode, Message: GenericMessage, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, hasBody, withToken bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}

	if !withToken || c.tokens == nil {
		return
	}
	if token, ok := c.tokens.Get(ctx); ok {
		req.Header.Set("Authorization", "Token "+token)
	}
}

// detail pulls the human readable message out of an error body. The backend
// uses "detail" for framework errors and "error" for its own handlers.
func detail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	return GenericMessage
}

// IsAuthError reports whether err is, or wraps, an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Message returns the user facing text for err.
func Message(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
