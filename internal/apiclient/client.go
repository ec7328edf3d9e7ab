package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kce-spotlight/console/internal/auth"
)

const maxBodySize = 10 << 20

// UnauthorizedHook runs when the backend rejects the caller's credentials.
type UnauthorizedHook func(ctx context.Context)

// Client is the single configured sender for every backend call. The
// staff bearer token and cookie jar are selected from the request context.
type Client struct {
	baseURL           string
	clientID          string
	skipTunnelWarning bool
	httpClient        *http.Client
	logger            *slog.Logger
	observe           func(method string, status int, elapsed time.Duration)

	jars *xsync.MapOf[string, http.CookieJar]

	mu    sync.RWMutex
	hooks []UnauthorizedHook
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

func WithClientID(id string) Option {
	return func(cl *Client) {
		cl.clientID = id
	}
}

// WithTunnelWarning controls the ngrok-skip-browser-warning header.
func WithTunnelWarning(skip bool) Option {
	return func(cl *Client) {
		cl.skipTunnelWarning = skip
	}
}

// WithObserver reports every completed call; status is 0 on transport errors.
func WithObserver(fn func(method string, status int, elapsed time.Duration)) Option {
	return func(cl *Client) {
		cl.observe = fn
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		clientID:          "kce-admin",
		skipTunnelWarning: true,
		httpClient:        &http.Client{Timeout: 15 * time.Second},
		logger:            slog.Default(),
		jars:              xsync.NewMapOf[string, http.CookieJar](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnUnauthorized registers a hook for 401 responses.
func (c *Client) OnUnauthorized(fn UnauthorizedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

func (c *Client) unauthorized(ctx context.Context) {
	c.mu.RLock()
	hooks := append([]UnauthorizedHook{}, c.hooks...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// ForgetSession drops the cookie jar held for a console session.
func (c *Client) ForgetSession(sessionToken string) {
	c.jars.Delete(sessionToken)
}

func (c *Client) jar(ctx context.Context) http.CookieJar {
	sid := auth.SessionToken(ctx)
	if sid == "" {
		return nil
	}
	jar, _ := c.jars.LoadOrCompute(sid, func() http.CookieJar {
		j, _ := cookiejar.New(nil)
		return j
	})
	return jar
}

// URL resolves a backend path against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do sends one request. A non-nil out receives the decoded JSON body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.clientID != "" {
		req.Header.Set("X-App-Client", c.clientID)
	}
	if c.skipTunnelWarning {
		req.Header.Set("ngrok-skip-browser-warning", "true")
	}
	if token := auth.BackendToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	jar := c.jar(ctx)
	if jar != nil {
		for _, ck := range jar.Cookies(req.URL) {
			req.AddCookie(ck)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(method, 0, start)
		c.logger.Error("backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.record(method, resp.StatusCode, start)

	if jar != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			jar.SetCookies(req.URL, cookies)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if apiErr := checkResponse(resp.StatusCode, data); apiErr != nil {
		if apiErr.Unauthorized() {
			c.logger.Warn("backend rejected credentials", "method", method, "path", path)
			c.unauthorized(ctx)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) record(method string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(method, status, time.Since(start))
	}
}

func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, "", out)
}

// GetRaw returns the undecoded body of a GET, for list envelopes.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, query, nil, "", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) SendJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	return c.Do(ctx, method, path, nil, body, "application/json", out)
}

// File is an upload attached to a multipart request.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// SendMultipart sends fields plus an optional file as multipart/form-data.
func (c *Client) SendMultipart(ctx context.Context, method, path string, fields map[string]string, file *File, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return fmt.Errorf("write form file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}
	return c.Do(ctx, method, path, nil, &buf, w.FormDataContentType(), out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, "", nil)
}
