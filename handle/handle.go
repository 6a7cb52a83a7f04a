package handle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/fetcher/engine"
	"github.com/adamwoolhether/fetcher/engine/throttle"
	"github.com/adamwoolhether/fetcher/sink"
)

// Handle owns one engine request context, its configuration and the sinks
// the response is written into. Close must be called to release it.
type Handle struct {
	id       uuid.UUID
	url      string
	body     sink.Sink
	header   *sink.Text
	easy     *engine.Easy
	logger   *slog.Logger
	tracer   trace.Tracer
	progress *progress

	mu    sync.Mutex
	state State
}

// New builds a Handle for rawURL that writes the response body into body.
// Connect and transfer timeouts default to DefaultConnectTimeout and
// DefaultTransferTimeout.
func New(rawURL string, body sink.Sink, optFns ...Option) (*Handle, error) {
	if isNil(body) {
		return nil, errors.New("body sink must not be nil")
	}

	opts := options{
		maxConnects: engine.DefaultMaxConnects,
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer("no-op tracer"),
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	cfg := config{
		URL:             rawURL,
		Proxy:           opts.proxy,
		ConnectTimeout:  DefaultConnectTimeout,
		TransferTimeout: DefaultTransferTimeout,
		MaxConnects:     opts.maxConnects,
		Throttle:        opts.throttle,
	}
	if opts.connectTimeout != nil {
		cfg.ConnectTimeout = *opts.connectTimeout
	}
	if opts.transferTimeout != nil {
		cfg.TransferTimeout = *opts.transferTimeout
	}
	if err := check(cfg); err != nil {
		return nil, fmt.Errorf("validating options: %w", err)
	}

	h := &Handle{
		id:     uuid.New(),
		url:    rawURL,
		body:   body,
		header: sink.NewText(),
		logger: opts.logger,
		tracer: opts.tracer,
		state:  StateConfigured,
	}

	easy := engine.NewEasy()
	easy.SetURL(rawURL)
	easy.SetFailOnError(true)
	easy.SetMaxConnects(cfg.MaxConnects)
	easy.SetConnectTimeout(cfg.ConnectTimeout)
	easy.SetTimeout(cfg.TransferTimeout)
	easy.SetUserAgent(opts.userAgent)
	easy.SetProxy(opts.proxy)
	easy.SetHeaderFunc(headerCallback, h.id)
	easy.SetWriteFunc(writeCallback, h.id)

	if opts.shared != nil {
		if err := easy.SetShare(opts.shared.share); err != nil {
			easy.Cleanup()
			return nil, fmt.Errorf("attaching shared connections: %w", err)
		}
		easy.SetThrottle(opts.shared.throttle)
	}

	if opts.throttle != nil {
		l, err := throttle.New(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return h.logger })
		if err != nil {
			easy.Cleanup()
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		easy.SetThrottle(l)
	}

	if opts.progress {
		h.progress = &progress{
			logger:  h.logger,
			url:     rawURL,
			totalFn: easy.ContentLength,
		}
	}

	h.easy = easy
	register(h)

	return h, nil
}

// ID returns the identifier the engine uses to route callbacks to h.
func (h *Handle) ID() uuid.UUID { return h.id }

// URL returns the URL h fetches.
func (h *Handle) URL() string { return h.url }

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Fetch performs the request and returns the body on success. It blocks
// until the engine completes or times out; ctx carries the trace parent
// but cancelling it does not interrupt the transfer.
//
// Both sinks are cleared at the start of every fetch. On failure the body
// is discarded and a *TransferError is returned.
func (h *Handle) Fetch(ctx context.Context, optFns ...FetchOption) ([]byte, error) {
	var opts fetchOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, err
		}
	}

	if err := h.begin(); err != nil {
		return nil, err
	}

	ctx, span := h.tracer.Start(ctx, "fetcher.fetch", trace.WithAttributes(
		attribute.String("url", h.url),
		attribute.String("handle_id", h.id.String()),
		attribute.Bool("without_body", opts.withoutBody),
	))
	defer span.End()

	h.body.Reset()
	h.header.Reset()
	if h.progress != nil {
		h.progress.reset()
	}

	headers := opts.headerList()
	h.easy.SetNoBody(opts.withoutBody)
	h.easy.SetHTTPHeader(headers)

	start := time.Now()
	code := h.easy.Perform(ctx)

	h.easy.SetHTTPHeader(nil)
	headers.Free()

	httpCode := h.easy.ResponseCode()
	span.SetAttributes(
		attribute.Int("http.status_code", httpCode),
		attribute.Int("engine.code", int(code)),
	)

	if err := Classify(h.url, httpCode, code, code.Message()); err != nil {
		h.body.Reset()
		h.finish(StateFailed)

		span.RecordError(err)
		span.SetStatus(codes.Error, code.Message())
		h.logger.Debug("fetch failed", "handle_id", h.id, "url", h.url, "status", httpCode, "code", int(code), "elapsed", time.Since(start).Round(time.Millisecond))

		return nil, err
	}

	body := h.body.Bytes()
	h.finish(StateSucceeded)

	h.logger.Debug("fetch completed", "handle_id", h.id, "url", h.url, "status", httpCode, "size", units.HumanSize(float64(len(body))), "elapsed", time.Since(start).Round(time.Millisecond))

	return body, nil
}

// Headers returns the trimmed header lines of the last fetch, concatenated.
func (h *Handle) Headers() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateInFlight {
		return ""
	}

	return h.header.String()
}

// Close releases the engine context and stops routing callbacks to h.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateClosed:
		return ErrClosed
	case StateInFlight:
		return ErrInFlight
	}

	unregister(h.id)
	h.easy.Cleanup()
	h.state = StateClosed

	return nil
}

// isNil reports whether s is nil or an interface holding a nil pointer.
func isNil(s sink.Sink) bool {
	if s == nil {
		return true
	}

	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}

	return false
}

func (h *Handle) begin() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateClosed:
		return ErrClosed
	case StateInFlight:
		return ErrInFlight
	}
	h.state = StateInFlight

	return nil
}

func (h *Handle) finish(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = s
}
