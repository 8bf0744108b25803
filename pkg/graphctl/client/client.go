package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/telekom/graphctl/pkg/metrics"
)

const (
	tracerName = "github.com/telekom/graphctl/pkg/graphctl/client"

	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	headerRequestID       = "client-request-id"
	headerServerRequestID = "request-id"
)

// RequestDecorator adjusts a request right before it is sent. Decorators run on every
// attempt, in the order they were added; an error aborts the request and is returned
// unchanged to the caller.
type RequestDecorator func(req *resty.Request) error

type Client struct {
	rc         *resty.Client
	decorators []RequestDecorator
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
	metrics    *metrics.Recorder
}

type Option func(*Client) error

func New(opts ...Option) (*Client, error) {
	c := &Client{
		rc: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", "graphctl"),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.rc.SetLogger(c.logger)
	c.rc.OnRequestLog(redactRequestLog)
	return c, nil
}

func WithBaseURL(base string) Option {
	return func(c *Client) error {
		if base == "" {
			return errors.New("base URL is required")
		}
		parsed, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid base URL: %q is not absolute", base)
		}
		c.rc.SetBaseURL(strings.TrimRight(base, "/"))
		return nil
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout > 0 {
			c.rc.SetTimeout(timeout)
		}
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		if userAgent != "" {
			c.rc.SetHeader("User-Agent", userAgent)
		}
		return nil
	}
}

// WithHTTPClient replaces the transport of the underlying resty client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc != nil && hc.Transport != nil {
			c.rc.SetTransport(hc.Transport)
		}
		return nil
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithDebug dumps requests and responses through the logger. Authorization headers are
// redacted.
func WithDebug(debug bool) Option {
	return func(c *Client) error {
		c.rc.SetDebug(debug)
		return nil
	}
}

// WithRateLimit makes every request wait for a token bucket of rps requests per second.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 {
			c.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

func WithRequestDecorator(decorator RequestDecorator) Option {
	return func(c *Client) error {
		if decorator == nil {
			return errors.New("request decorator is nil")
		}
		c.decorators = append(c.decorators, decorator)
		return nil
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(c *Client) error {
		c.metrics = recorder
		return nil
	}
}

// Request describes one call relative to the base URL.
type Request struct {
	// Operation names the call in logs and metrics.
	Operation   string
	Method      string
	Path        string
	Query       url.Values
	Body        any
	RawBody     []byte
	ContentType string
	Accept      string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals a JSON body into out.
func (r *Response) Decode(out any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do sends req. Decorator errors are returned unchanged, transport failures wrap
// ErrRemoteAPI and non-2xx responses are returned as *HTTPError. Nothing is retried.
func (c *Client) Do(ctx context.Context, req Request) (resp *Response, err error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	op := req.Operation
	if op == "" {
		op = req.Method + " " + req.Path
	}
	requestID := uuid.NewString()
	log := c.logger.With("operation", op, "clientRequestID", requestID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "graph."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
			attribute.String("graph.client_request_id", requestID),
		))
	defer func() {
		if resp != nil {
			span.SetAttributes(
				attribute.Int("http.response.status_code", resp.StatusCode),
				attribute.String("graph.request_id", resp.RequestID),
			)
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			span.SetAttributes(attribute.Int("http.response.status_code", httpErr.StatusCode))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	r := c.rc.R().
		SetContext(ctx).
		SetHeader(headerRequestID, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(r.Header))
	if req.Accept != "" {
		r.SetHeader("Accept", req.Accept)
	} else {
		r.SetHeader("Accept", "application/json")
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	switch {
	case req.RawBody != nil:
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		r.SetHeader("Content-Type", contentType).SetBody(req.RawBody)
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		r.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	for _, decorate := range c.decorators {
		if err := decorate(r); err != nil {
			c.metrics.ObserveRequest(op, 0, 0)
			return nil, err
		}
	}

	start := time.Now()
	raw, err := r.Execute(req.Method, req.Path)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(op, 0, elapsed)
		log.Debugw("Request failed", "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrRemoteAPI, req.Method, req.Path, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRemoteAPI, req.Method, req.Path, err)
	}

	out := &Response{
		StatusCode: raw.StatusCode(),
		Header:     raw.Header(),
		Body:       raw.Body(),
		RequestID:  raw.Header().Get(headerServerRequestID),
	}
	if out.RequestID == "" {
		out.RequestID = requestID
	}
	c.metrics.ObserveRequest(op, out.StatusCode, elapsed)
	log.Debugw("Request completed", "status", out.StatusCode, "requestID", out.RequestID, "duration", elapsed)

	if out.StatusCode < 200 || out.StatusCode > 299 {
		return nil, decodeError(out.StatusCode, raw.Status(), out.Body, out.RequestID)
	}
	return out, nil
}

func redactRequestLog(rl *resty.RequestLog) error {
	if rl.Header.Get("Authorization") != "" {
		rl.Header.Set("Authorization", "[redacted]")
	}
	return nil
}
