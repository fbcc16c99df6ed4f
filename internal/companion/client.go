package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/resilience"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Request is an opaque call forwarded to the companion server
type Request struct {
	Method string            `json:"method"`
	Path   string            `json:"path"`
	Query  map[string]string `json:"query,omitempty"`
	Body   json.RawMessage   `json:"body,omitempty"`
}

// Response carries the companion's reply untouched
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// StatusError is returned for non-2xx replies
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("companion %s %s: status %d", e.Method, e.Path, e.Code)
}

// Options tunes the client
type Options struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RPS          float64 // Zero means unlimited
	Burst        int
	Breaker      resilience.Settings
}

// DefaultOptions returns production settings
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		RPS:          50,
		Burst:        100,
		Breaker: resilience.Settings{
			Threshold: 5,
			Cooldown:  30 * time.Second,
		},
	}
}

// Client calls the companion REST server with retries, rate limiting and a
// circuit breaker
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewClient creates a client for baseURL
func NewClient(baseURL string, opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("companion")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	httpClient := resty.NewWithClient(retryClient.StandardClient())
	httpClient.
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "WidgetArcade-Shell/1.0").
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = int(opts.RPS)
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	settings := opts.Breaker
	settings.IsFailure = isFailure
	settings.OnStateChange = func(name string, from, to resilience.State) {
		logger.Warn("companion circuit changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}

	return &Client{
		http:    httpClient,
		limiter: limiter,
		breaker: resilience.New("companion", settings),
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the client
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// Do forwards req. Non-2xx replies return the response together with a
// *StatusError; only 5xx replies and transport errors count against the
// circuit.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(req.Path, "/") {
		req.Path = "/" + req.Path
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	var out *Response
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		r := c.http.R().SetContext(ctx).SetQueryParams(req.Query)
		if len(req.Body) > 0 {
			r.SetHeader("Content-Type", "application/json").SetBody([]byte(req.Body))
		}

		resp, err := r.Execute(method, req.Path)
		if err != nil {
			return err
		}

		out = &Response{Status: resp.StatusCode()}
		if body := resp.Body(); len(body) > 0 {
			if sonic.Valid(body) {
				out.Body = json.RawMessage(body)
			} else {
				quoted, _ := sonic.Marshal(string(body))
				out.Body = quoted
			}
		}
		if resp.IsError() {
			return &StatusError{Method: method, Path: req.Path, Code: resp.StatusCode(), Body: resp.String()}
		}
		return nil
	})

	status := "ok"
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		status = "rejected"
	case err != nil && out != nil:
		status = strconv.Itoa(out.Status)
	case err != nil:
		status = "error"
	}
	c.metrics.RecordCompanionRequest(method, status)

	if err != nil {
		c.logger.Debug("companion request failed",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.Error(err))
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, fmt.Errorf("companion unavailable: %w", err)
		}
	}
	return out, err
}

// Ping checks the companion's health endpoint
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/health"})
	return err
}

// Breaker returns the circuit's status
func (c *Client) Breaker() resilience.Status {
	return c.breaker.Status()
}

// isFailure counts transport errors and 5xx replies
func isFailure(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return resilience.DefaultIsFailure(err)
}
