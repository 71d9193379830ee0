package client

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amingeek/task-manager/internal/models"
)

// DefaultTimeout leaves room for large file transfers.
const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failed response is kept on the Error.
const maxErrorBody = 64 << 10

// TokenSource supplies the current bearer token, or "" when there is none.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client is the single outbound HTTP path for every resource service.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
	log            *zap.SugaredLogger
}

type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler registers the hook run on every 401, before Do returns.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client rooted at baseURL (e.g. http://localhost:8080/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ===== Request options =====

type requestConfig struct {
	token     *string
	query     url.Values
	multipart *MultipartBody
}

type RequestOption func(*requestConfig)

// WithToken sends tok instead of the token source's value. An empty tok sends no header.
func WithToken(tok string) RequestOption {
	return func(rc *requestConfig) { rc.token = &tok }
}

func WithQuery(q url.Values) RequestOption {
	return func(rc *requestConfig) { rc.query = q }
}

// WithMultipart sends mb as multipart/form-data instead of a JSON body.
func WithMultipart(mb *MultipartBody) RequestOption {
	return func(rc *requestConfig) { rc.multipart = mb }
}

// ===== Core =====

// Do issues method path with an optional JSON body and decodes the envelope's data into out.
// body and out may be nil. Non-2xx responses return *Error; a 401 first runs the
// unauthorized handler.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	resp, err := c.send(ctx, method, path, body, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	var env models.Response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", method, path, err)
	}
	return nil
}

// Download streams a raw response body into w.
func (c *Client) Download(ctx context.Context, path string, w io.Writer, opts ...RequestOption) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil, opts)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &Error{Kind: KindNetwork, Method: http.MethodGet, Path: path, Err: err}
	}
	return n, nil
}

// send performs the request and returns the response only when it is 2xx.
func (c *Client) send(ctx context.Context, method, path string, body any, opts []RequestOption) (*http.Response, error) {
	var rc requestConfig
	for _, opt := range opts {
		opt(&rc)
	}

	req, err := c.newRequest(ctx, method, path, body, &rc)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debugw("request failed",
			"request_id", requestID,
			"method", method,
			"path", path,
			"latency", time.Since(start).String(),
			"error", err,
		)
		return nil, &Error{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	c.log.Debugw("request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency", time.Since(start).String(),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &Error{
		Kind:   kindForStatus(resp.StatusCode),
		Status: resp.StatusCode,
		Method: method,
		Path:   path,
	}
	apiErr.Body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr.Message = errorMessage(apiErr.Body)

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.log.Infow("unauthorized response, clearing session", "request_id", requestID, "path", path)
		c.onUnauthorized()
	}
	return nil, apiErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, rc *requestConfig) (*http.Request, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(rc.query) > 0 {
		u += "?" + rc.query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch {
	case rc.multipart != nil:
		r, ct, err := rc.multipart.encode()
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode multipart: %w", method, path, err)
		}
		reader, contentType = r, ct
	case body != nil:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		reader, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	token := ""
	if rc.token != nil {
		token = *rc.token
	} else if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// errorMessage extracts {"error": ...} or {"message": ...} from a failed response body.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Message
}
