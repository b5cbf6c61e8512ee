package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"libris/internal/cache"
	"libris/internal/config"
	"libris/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TokenSource supplies the current bearer token; empty means unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the library backend. One network call per method, bearer
// auth from the token source, refresh cookie kept in the client's jar.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	cache      cache.Cache
	pageSize   int
	logger     zerolog.Logger
}

func New(cfg config.BackendConfig, pagination config.PaginationConfig, logger *zerolog.Logger) (*Client, error) {
	// The refresh credential is an httponly cookie set by /auth/login; the
	// jar carries it back on /auth/refresh.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "api").Logger()
	}

	pageSize := pagination.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			Jar:     jar,
		},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		pageSize: pageSize,
		logger:   base,
	}, nil
}

// UseTokenSource wires the session manager in after construction; the
// manager itself needs the client for the refresh exchange.
func (c *Client) UseTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// UseCache enables the staleness-window cache for list reads.
func (c *Client) UseCache(qc cache.Cache) {
	c.cache = qc
}

func (c *Client) PageSize() int {
	return c.pageSize
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.addHeaders(req)

	return c.send(req, path, out)
}

// postMultipart sends form fields plus an optional file part; used for book
// creation with a cover image.
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return fmt.Errorf("copy form file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.addHeaders(req)

	return c.send(req, path, out)
}

// download streams a report body to w without buffering it in memory.
func (c *Client) download(ctx context.Context, path string, w io.Writer) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)

	resource := resourceFromPath(path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncRequest(resource, "transport_error")
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.IncRequest(resource, "error")
		return c.decodeError(resp, req)
	}

	metrics.IncRequest(resource, "ok")
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("stream %s: %w", path, err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func (c *Client) send(req *http.Request, path string, out any) error {
	resource := resourceFromPath(path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncRequest(resource, "transport_error")
		return fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode >= 400 {
		metrics.IncRequest(resource, "error")
		return c.decodeError(resp, req)
	}

	metrics.IncRequest(resource, "ok")
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response, req *http.Request) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(raw, &body)

	return &Error{
		Status:    resp.StatusCode,
		Message:   body.text(),
		RequestID: req.Header.Get("X-Request-ID"),
	}
}

// getCached serves a GET through the staleness-window cache when one is
// configured. Mutations call invalidate with the resource prefix.
func (c *Client) getCached(ctx context.Context, key, path string, query url.Values, out any) error {
	if c.cache != nil {
		ok, err := c.cache.Get(ctx, key, out)
		if err != nil {
			metrics.IncCache("error")
		} else if ok {
			metrics.IncCache("hit")
			return nil
		} else {
			metrics.IncCache("miss")
		}
	}

	if err := c.get(ctx, path, query, out); err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, out); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return nil
}

func (c *Client) invalidate(ctx context.Context, prefix string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidatePrefix(ctx, prefix); err != nil {
		c.logger.Warn().Err(err).Str("prefix", prefix).Msg("cache invalidation failed")
	}
}

func resourceFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i > 0 {
		return trimmed[:i]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
