// Package backend talks to the managed backend: the auth service, the REST gateway over the
// application tables and the remote procedures. Every response is converted into a Result at
// this boundary.
package backend

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/claudemarjean/Ivony/internal/infra/backend"

const (
	maxErrorBody = 64 << 10
	// DefaultMaxResponseBody caps successful response bodies.
	DefaultMaxResponseBody = 8 << 20
)

// Options configures a Client.
type Options struct {
	URL            string
	AnonKey        string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	MaxBodyBytes   int64
	HTTPClient     *http.Client
	Logger         *zap.Logger
	// TracerProvider and Propagator default to the otel globals.
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

// Client is shared by every console. It holds the public key and the outbound throttle;
// per-console credentials travel on the context.
type Client struct {
	baseURL *url.URL
	anonKey string
	http    *http.Client
	limiter *rate.Limiter
	maxBody int64
	logger  *zap.Logger

	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// New validates the options and builds a client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: invalid url %q", opts.URL)
	}
	if opts.AnonKey == "" {
		return nil, fmt.Errorf("backend: anon key is required")
	}
	if IsServiceKey(opts.AnonKey) {
		return nil, fmt.Errorf("backend: refusing service_role key")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxResponseBody
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	propagator := opts.Propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}

	return &Client{
		baseURL: base,
		anonKey: opts.AnonKey,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		maxBody: maxBody,
		logger:  logger,

		tracer:     tp.Tracer(tracerName),
		propagator: propagator,
	}, nil
}

type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// bearer overrides the access token found on the context.
	bearer string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// send performs one HTTP exchange inside a client span and classifies the outcome.
func (c *Client) send(ctx context.Context, req request) Result[response] {
	ctx, span := c.tracer.Start(ctx, "backend "+req.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
		),
	)
	defer span.End()

	res := c.exchange(ctx, req)
	if remote := res.Error(); remote != nil {
		if remote.Status > 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", remote.Status))
		}
		// Transport errors carry request URLs; only the redacted text reaches the span.
		span.SetAttributes(attribute.String("backend.error_kind", remote.Kind.String()))
		span.SetStatus(codes.Error, Redact(remote))
		return res
	}
	resp, _ := res.Unwrap()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.status))
	return res
}

func (c *Client) exchange(ctx context.Context, req request) Result[response] {
	if err := c.limiter.Wait(ctx); err != nil {
		return Err[response](&Error{Op: req.op, Kind: KindNetwork, Err: err})
	}

	target := *c.baseURL
	target.Path = c.baseURL.Path + req.path
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return Err[response](&Error{Op: req.op, Kind: KindInvalid, Err: fmt.Errorf("encode body: %w", err)})
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), payload)
	if err != nil {
		return Err[response](&Error{Op: req.op, Kind: KindInvalid, Err: err})
	}

	bearer := req.bearer
	if bearer == "" {
		bearer = AccessTokenFromContext(ctx)
	}
	if bearer == "" {
		bearer = c.anonKey
	}

	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	c.propagator.Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("op", req.op),
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return Err[response](&Error{Op: req.op, Kind: KindNetwork, Err: err})
	}
	defer httpResp.Body.Close()

	limit := c.maxBody
	if httpResp.StatusCode >= 300 {
		limit = maxErrorBody
	}
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, limit+1))
	if err != nil {
		return Err[response](&Error{Op: req.op, Kind: KindNetwork, Status: httpResp.StatusCode, Err: err})
	}
	if int64(len(body)) > limit {
		if httpResp.StatusCode < 300 {
			return Err[response](&Error{
				Op:     req.op,
				Kind:   KindServer,
				Status: httpResp.StatusCode,
				Err:    fmt.Errorf("response body exceeds %d bytes", limit),
			})
		}
		body = body[:limit]
	}

	c.logger.Debug("backend request",
		zap.String("op", req.op),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if httpResp.StatusCode >= 300 {
		return Err[response](decodeError(req.op, httpResp.StatusCode, body))
	}

	return Ok(response{status: httpResp.StatusCode, header: httpResp.Header, body: body})
}

func decodeError(op string, status int, body []byte) *Error {
	remote := &Error{Op: op, Status: status, Kind: kindForStatus(status)}

	var parsed remoteBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		remote.Message = parsed.message()
		remote.Code = parsed.code()
		remote.Hint = parsed.Hint
	} else {
		remote.Message = strings.TrimSpace(string(body))
	}

	// Row-level "no rows" from a single-object request.
	if remote.Code == "PGRST116" {
		remote.Kind = KindNotFound
	}
	if remote.Code == "23505" {
		remote.Kind = KindConflict
	}
	if remote.Message == "" {
		remote.Message = http.StatusText(status)
	}
	return remote
}

func decodeJSON[T any](op string, res Result[response]) Result[T] {
	resp, err := res.Unwrap()
	if err != nil {
		return Err[T](res.Error())
	}

	var out T
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return Ok(out)
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return Err[T](&Error{Op: op, Kind: KindServer, Status: resp.status, Err: fmt.Errorf("decode response: %w", err)})
	}
	return Ok(out)
}

// Ping checks that the REST gateway answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, request{op: "ping", method: http.MethodGet, path: "/rest/v1/", bearer: c.anonKey}).Unwrap()
	return err
}

type accessTokenKey struct{}

// WithAccessToken returns a context carrying the signed-in user's access token. Requests made
// with it run under the user's row-level permissions instead of the anonymous role.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext returns the token set by WithAccessToken or "".
func AccessTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}
