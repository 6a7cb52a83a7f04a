package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/adamwoolhether/fetcher/engine/throttle"
)

const (
	// MaxWriteSize is the largest chunk handed to a body WriteFunc.
	MaxWriteSize = 16384

	// DefaultMaxConnects is the default number of idle connections a
	// connection cache keeps.
	DefaultMaxConnects = 5

	// drainLimit bounds how much of an unread body is discarded so the
	// connection can go back to the cache.
	drainLimit = 64 << 10
)

// WriteFunc receives size*nitems bytes from buf together with the userdata
// registered next to it, and returns the number of bytes it accepted.
// buf is only valid for the duration of the call.
type WriteFunc func(buf []byte, size, nitems int, userdata any) int

// Easy is the engine context of a single request. Configure it with the
// Set methods, run it with Perform and release it with Cleanup.
//
// An Easy is not safe for concurrent use.
type Easy struct {
	url            string
	noBody         bool
	headers        *List
	userAgent      string
	proxy          string
	connectTimeout time.Duration
	timeout        time.Duration
	maxConnects    int
	failOnError    bool
	share          *Share
	throttle       *throttle.Limiter

	writeFn    WriteFunc
	writeData  any
	headerFn   WriteFunc
	headerData any

	transport     *http.Transport
	responseCode  int
	contentLength int64
	cleaned       bool
}

// NewEasy returns an Easy with default settings.
func NewEasy() *Easy {
	return &Easy{
		maxConnects:   DefaultMaxConnects,
		contentLength: -1,
	}
}

// SetURL sets the URL to fetch.
func (e *Easy) SetURL(u string) { e.url = u }

// SetNoBody makes Perform send a HEAD request and skip the body.
func (e *Easy) SetNoBody(noBody bool) { e.noBody = noBody }

// SetHTTPHeader attaches extra request header lines. The list is read
// during Perform and must outlive it. Passing nil detaches the list.
func (e *Easy) SetHTTPHeader(l *List) { e.headers = l }

// SetUserAgent sets the User-Agent request header.
func (e *Easy) SetUserAgent(ua string) { e.userAgent = ua }

// SetProxy routes the request through proxy.
func (e *Easy) SetProxy(proxy string) { e.proxy = proxy }

// SetConnectTimeout bounds the time spent establishing the connection.
// Zero means no limit.
func (e *Easy) SetConnectTimeout(d time.Duration) { e.connectTimeout = d }

// SetTimeout bounds the whole transfer. Zero means no limit.
func (e *Easy) SetTimeout(d time.Duration) { e.timeout = d }

// SetMaxConnects caps the idle connections of the private connection cache.
func (e *Easy) SetMaxConnects(n int) {
	if n > 0 {
		e.maxConnects = n
	}
}

// SetFailOnError makes an HTTP status of 400 or above fail the transfer
// with CodeHTTPReturnedError before any header or body is delivered.
func (e *Easy) SetFailOnError(fail bool) { e.failOnError = fail }

// SetThrottle makes Perform wait on l before sending the request.
func (e *Easy) SetThrottle(l *throttle.Limiter) { e.throttle = l }

// SetWriteFunc registers the body callback and its userdata.
func (e *Easy) SetWriteFunc(fn WriteFunc, userdata any) {
	e.writeFn = fn
	e.writeData = userdata
}

// SetHeaderFunc registers the header callback and its userdata.
func (e *Easy) SetHeaderFunc(fn WriteFunc, userdata any) {
	e.headerFn = fn
	e.headerData = userdata
}

// SetShare attaches e to s, or detaches it when s is nil. While attached,
// transfers use the connection cache of s if it shares LockDataConnect.
func (e *Easy) SetShare(s *Share) error {
	if e.share == s {
		return nil
	}

	if s != nil {
		if err := s.attach(); err != nil {
			return err
		}
	}
	if e.share != nil {
		e.share.detach()
	}
	e.share = s

	return nil
}

// ResponseCode returns the HTTP status of the last transfer, or 0 if no
// response was received.
func (e *Easy) ResponseCode() int { return e.responseCode }

// ContentLength returns the Content-Length of the last response, or -1 if
// it is unknown.
func (e *Easy) ContentLength() int64 { return e.contentLength }

// Cleanup detaches e from its share and drops its private connection
// cache. The Easy must not be used afterwards.
func (e *Easy) Cleanup() {
	if e.cleaned {
		return
	}

	if e.share != nil {
		e.share.detach()
		e.share = nil
	}
	if e.transport != nil {
		e.transport.CloseIdleConnections()
		e.transport = nil
	}
	e.headers = nil
	e.writeData = nil
	e.headerData = nil
	e.cleaned = true
}

// Perform runs the transfer and blocks until it completes or fails.
// Cancelling ctx has no effect: only the configured timeouts end a running
// transfer. Values carried by ctx, such as the trace span, are used.
func (e *Easy) Perform(ctx context.Context) Code {
	if e.cleaned {
		return CodeBadFunctionArgument
	}

	e.responseCode = 0
	e.contentLength = -1

	u, err := url.Parse(e.url)
	if err != nil || u.Host == "" {
		return CodeURLMalformat
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return CodeUnsupportedProtocol
	}

	ctx = context.WithoutCancel(ctx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if e.throttle != nil {
		if err := e.throttle.Wait(ctx, u.Host+u.Path); err != nil {
			return CodeOperationTimedOut
		}
	}

	ctx = withDialConfig(ctx, dialConfig{connectTimeout: e.connectTimeout, proxy: e.proxy})
	if e.sharesConnections() {
		share := e.share
		ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
			GotConn: func(info httptrace.GotConnInfo) { share.recordConn(info.Reused) },
		})
	}

	method := http.MethodGet
	if e.noBody {
		method = http.MethodHead
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return CodeURLMalformat
	}

	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	e.headers.apply(req.Header)
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
		req.Header.Del("Host")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := e.roundTripper().RoundTrip(req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return CodeGotNothing
		}
		return codeFor(err, CodeRecvError)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
		_ = resp.Body.Close()
	}()

	e.responseCode = resp.StatusCode
	e.contentLength = resp.ContentLength

	if e.failOnError && resp.StatusCode >= http.StatusBadRequest {
		return CodeHTTPReturnedError
	}

	if code := e.deliverHeaders(resp); code != CodeOK {
		return code
	}

	if e.noBody {
		return CodeOK
	}

	return e.deliverBody(resp.Body)
}

func (e *Easy) sharesConnections() bool {
	return e.share != nil && e.share.Shares(LockDataConnect)
}

func (e *Easy) roundTripper() http.RoundTripper {
	if e.sharesConnections() {
		return e.share.connectionCache()
	}

	if e.transport == nil {
		e.transport = newTransport(e.maxConnects)
	}

	return e.transport
}

func (e *Easy) deliverHeaders(resp *http.Response) Code {
	lines := make([]string, 0, len(resp.Header)+2)
	lines = append(lines, fmt.Sprintf("%s %s\r\n", resp.Proto, resp.Status))
	for _, k := range slices.Sorted(maps.Keys(resp.Header)) {
		for _, v := range resp.Header[k] {
			lines = append(lines, k+": "+v+"\r\n")
		}
	}
	lines = append(lines, "\r\n")

	for _, line := range lines {
		if !deliver(e.headerFn, e.headerData, []byte(line)) {
			return CodeWriteError
		}
	}

	return CodeOK
}

func (e *Easy) deliverBody(body io.Reader) Code {
	buf := make([]byte, MaxWriteSize)
	for {
		n, err := body.Read(buf)
		if n > 0 && !deliver(e.writeFn, e.writeData, buf[:n]) {
			return CodeWriteError
		}

		switch {
		case errors.Is(err, io.EOF):
			return CodeOK
		case err != nil:
			return codeFor(err, CodeRecvError)
		}
	}
}

// deliver hands p to fn and reports whether fn accepted all of it. Without
// a callback the data is discarded.
func deliver(fn WriteFunc, userdata any, p []byte) bool {
	if fn == nil {
		return true
	}

	return fn(p, 1, len(p), userdata) == len(p)
}
