package handle

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/fetcher/engine"
	"github.com/adamwoolhether/fetcher/engine/throttle"
)

const (
	// DefaultConnectTimeout bounds connection setup unless overridden.
	DefaultConnectTimeout = 3 * time.Second
	// DefaultTransferTimeout bounds a whole fetch unless overridden.
	DefaultTransferTimeout = 12 * time.Second
)

// Option is a functional option for configuring a [Handle] via [New].
type Option func(*options) error
type options struct {
	userAgent       string
	connectTimeout  *time.Duration
	transferTimeout *time.Duration
	shared          *SharedConnections
	proxy           string
	maxConnects     int
	throttle        *throttle.Config
	logger          *slog.Logger
	tracer          trace.Tracer
	progress        bool
}

// WithUserAgent sets the User-Agent header sent with every fetch.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.userAgent = ua
		return nil
	}
}

// WithConnectTimeout bounds the time spent connecting. Zero disables the limit.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.connectTimeout = &d
		return nil
	}
}

// WithTransferTimeout bounds the whole fetch. Zero disables the limit.
func WithTransferTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.transferTimeout = &d
		return nil
	}
}

// WithConnectionSharing makes the [Handle] use the connection cache of sc.
func WithConnectionSharing(sc *SharedConnections) Option {
	return func(o *options) error {
		if sc == nil {
			return errors.New("shared connections must not be nil")
		}
		o.shared = sc
		return nil
	}
}

// WithProxy routes fetches through proxy, given as host:port or URL.
func WithProxy(proxy string) Option {
	return func(o *options) error {
		o.proxy = proxy
		return nil
	}
}

// WithMaxConnects caps the idle connections kept by the private
// connection cache. It has no effect with [WithConnectionSharing].
func WithMaxConnects(n int) Option {
	return func(o *options) error {
		o.maxConnects = n
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests
// per second and burst capacity. It takes precedence over a limiter set on
// the shared connections. Both values must be greater than zero.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Handle].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used to record a span per fetch.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithProgress enables periodic body transfer progress logging.
func WithProgress() Option {
	return func(o *options) error {
		o.progress = true
		return nil
	}
}

// FetchOption is a functional option for [Handle.Fetch].
type FetchOption func(*fetchOpts) error

type fetchOpts struct {
	withoutBody bool
	headers     []string
}

// WithoutBody sends a HEAD request and leaves the body sink empty.
func WithoutBody() FetchOption {
	return func(o *fetchOpts) error {
		o.withoutBody = true
		return nil
	}
}

// WithHeaders adds raw request header lines such as "Accept: text/plain"
// to a single fetch. "Name:" removes a header and "Name;" sends it empty.
func WithHeaders(lines ...string) FetchOption {
	return func(o *fetchOpts) error {
		for _, line := range lines {
			if !strings.ContainsAny(line, ":;") {
				return fmt.Errorf("malformed header line %q", line)
			}
		}
		o.headers = append(o.headers, lines...)
		return nil
	}
}

// headerList builds the engine list for one fetch, or nil when empty.
func (o fetchOpts) headerList() *engine.List {
	var l *engine.List
	for _, line := range o.headers {
		l = l.Append(line)
	}

	return l
}
