package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type dialConfigKey struct{}

// dialConfig carries per-transfer connection settings through the request
// context, so one shared transport can serve transfers configured differently.
type dialConfig struct {
	connectTimeout time.Duration
	proxy          string
}

func withDialConfig(ctx context.Context, cfg dialConfig) context.Context {
	return context.WithValue(ctx, dialConfigKey{}, cfg)
}

func dialConfigFrom(ctx context.Context) dialConfig {
	cfg, _ := ctx.Value(dialConfigKey{}).(dialConfig)
	return cfg
}

// newTransport builds a connection cache keeping at most maxConnects idle
// connections.
func newTransport(maxConnects int) *http.Transport {
	return &http.Transport{
		Proxy:                 proxyFor,
		DialContext:           dialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxConnects,
		MaxIdleConnsPerHost:   maxConnects,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d := net.Dialer{
		Timeout:   dialConfigFrom(ctx).connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	return d.DialContext(ctx, network, addr)
}

// proxyFor uses the transfer's proxy if one is set and the environment
// otherwise. A proxy without a scheme is taken to be an http proxy.
func proxyFor(req *http.Request) (*url.URL, error) {
	proxy := dialConfigFrom(req.Context()).proxy
	if proxy == "" {
		return http.ProxyFromEnvironment(req)
	}

	if !strings.Contains(proxy, "://") {
		proxy = "http://" + proxy
	}

	return url.Parse(proxy)
}

// codeFor maps a transport error onto a result code, using fallback when
// nothing more specific applies.
func codeFor(err error, fallback Code) Code {
	var (
		netErr  net.Error
		dnsErr  *net.DNSError
		opErr   *net.OpError
		certErr *tls.CertificateVerificationError
		recErr  tls.RecordHeaderError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return CodeOperationTimedOut
	case errors.As(err, &netErr) && netErr.Timeout():
		return CodeOperationTimedOut
	case errors.As(err, &dnsErr):
		if errors.As(err, &opErr) && opErr.Op == "proxyconnect" {
			return CodeCouldntResolveProxy
		}
		return CodeCouldntResolveHost
	case errors.As(err, &certErr):
		return CodePeerFailedVerification
	case errors.As(err, &recErr):
		return CodeSSLConnectError
	case errors.As(err, &opErr) && (opErr.Op == "dial" || opErr.Op == "proxyconnect"):
		return CodeCouldntConnect
	default:
		return fallback
	}
}
