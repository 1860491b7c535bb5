package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/academyhub/paycore/internal/config"
	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Request represents an HTTP request
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// Timeout bounds this request only, zero uses the client default
	Timeout time.Duration
	// Retryable allows transport level retries, only set it for idempotent calls
	Retryable bool
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client interface for making HTTP requests
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	Timeout            time.Duration
	RetryMax           int
	RateLimitPerSecond float64
}

// DefaultClient implements the Client interface on top of go-retryablehttp
type DefaultClient struct {
	retrying *retryablehttp.Client
	single   *retryablehttp.Client
	cfg      ClientConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewDefaultClient creates a new DefaultClient
func NewDefaultClient(cfg *config.Configuration, log *logger.Logger) Client {
	clientCfg := ClientConfig{
		Timeout:  30 * time.Second,
		RetryMax: 3,
	}
	if cfg != nil {
		clientCfg.RateLimitPerSecond = cfg.Payments.RateLimitPerSecond
	}
	return NewClient(clientCfg, log)
}

// NewClient creates a client from an explicit configuration
func NewClient(cfg ClientConfig, log *logger.Logger) *DefaultClient {
	build := func(retryMax int) *retryablehttp.Client {
		c := retryablehttp.NewClient()
		c.RetryMax = retryMax
		c.RetryWaitMin = 200 * time.Millisecond
		c.RetryWaitMax = 2 * time.Second
		c.HTTPClient.Timeout = cfg.Timeout
		c.Logger = leveledLogger{log: log}
		// keep the final response instead of a generic "giving up" error
		c.ErrorHandler = retryablehttp.PassthroughErrorHandler
		return c
	}

	return &DefaultClient{
		retrying: build(cfg.RetryMax),
		single:   build(0),
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Send makes an HTTP request and returns the response.
// Responses with a status of 400 or above are returned as *Error.
func (c *DefaultClient) Send(ctx context.Context, req *Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if err := c.wait(ctx, req.URL); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Outbound request was rate limited").
			Mark(ierr.ErrHTTPClient)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrHTTPClient)
	}

	if req.Body != nil {
		httpReq.ContentLength = int64(len(req.Body))
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := c.single
	if req.Retryable {
		client = c.retrying
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Gateway could not be reached").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read gateway response").
			Mark(ierr.ErrHTTPClient)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, NewError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}

func (c *DefaultClient) wait(ctx context.Context, rawURL string) error {
	if c.cfg.RateLimitPerSecond <= 0 {
		return nil
	}
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	c.mu.Lock()
	limiter, ok := c.limiters[host]
	if !ok {
		burst := int(c.cfg.RateLimitPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(c.cfg.RateLimitPerSecond), burst)
		c.limiters[host] = limiter
	}
	c.mu.Unlock()

	return limiter.Wait(ctx)
}

// leveledLogger adapts the zap logger to retryablehttp
type leveledLogger struct {
	log *logger.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	if l.log != nil {
		l.log.Errorw(msg, keysAndValues...)
	}
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.log != nil {
		l.log.Debugw(msg, keysAndValues...)
	}
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.log != nil {
		l.log.Debugw(msg, keysAndValues...)
	}
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	if l.log != nil {
		l.log.Warnw(msg, keysAndValues...)
	}
}
