package handle

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/adamwoolhether/fetcher/engine"
	"github.com/adamwoolhether/fetcher/engine/throttle"
	"github.com/adamwoolhether/fetcher/locktable"
)

// SharedConnections is a connection cache shared by every [Handle] built
// with [WithConnectionSharing]. The engine only touches the cache from
// inside its lock callbacks, which hold the matching slot of a lock table
// sized for every kind of data the engine can share.
//
// It is created explicitly and outlives the handles using it; call Close
// once they are all closed. Programs that want it closed on a termination
// signal can register it with the exithook package.
type SharedConnections struct {
	locks    *locktable.Table
	share    *engine.Share
	throttle *throttle.Limiter
	logger   *slog.Logger
}

// SharedOption is a functional option for [NewSharedConnections].
type SharedOption func(*sharedOptions) error
type sharedOptions struct {
	maxConnects int
	throttle    *throttle.Config
	logger      *slog.Logger
}

// WithSharedMaxConnects caps the idle connections the shared cache keeps.
// n must be greater than zero.
func WithSharedMaxConnects(n int) SharedOption {
	return func(o *sharedOptions) error {
		o.maxConnects = n
		return nil
	}
}

// WithSharedThrottle rate-limits all handles using the shared connections
// together, unless a handle sets its own limit with [WithThrottle].
func WithSharedThrottle(rps, burst int) SharedOption {
	return func(o *sharedOptions) error {
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithSharedLogger injects a custom [slog.Logger].
func WithSharedLogger(logger *slog.Logger) SharedOption {
	return func(o *sharedOptions) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// NewSharedConnections builds an empty shared connection cache. The cache
// itself is created on the first fetch that uses it.
func NewSharedConnections(optFns ...SharedOption) (*SharedConnections, error) {
	opts := sharedOptions{
		maxConnects: engine.DefaultMaxConnects,
		logger:      slog.Default(),
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying shared option: %w", err)
		}
	}

	cfg := sharedConfig{
		MaxConnects: opts.maxConnects,
		Throttle:    opts.throttle,
	}
	if err := check(cfg); err != nil {
		return nil, fmt.Errorf("validating shared options: %w", err)
	}

	sc := &SharedConnections{
		locks:  locktable.New(int(engine.LockDataLast)),
		share:  engine.NewShare(),
		logger: opts.logger,
	}

	if err := sc.share.SetShare(engine.LockDataConnect); err != nil {
		return nil, fmt.Errorf("sharing connections: %w", err)
	}
	sc.share.SetLockFunc(shareLock)
	sc.share.SetUnlockFunc(shareUnlock)
	sc.share.SetUserData(sc.locks)
	sc.share.SetMaxConnects(cfg.MaxConnects)

	if cfg.Throttle != nil {
		l, err := throttle.New(cfg.Throttle.RPS, cfg.Throttle.Burst, func() *slog.Logger { return sc.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		sc.throttle = l
		sc.logger.Debug("shared throttle enabled", "config", l.Config())
	}

	return sc, nil
}

// Stats returns how many connections the cache created and reused.
func (sc *SharedConnections) Stats() engine.ConnStats {
	return sc.share.Stats()
}

// Close releases the cached connections. It fails with
// [engine.ErrShareInUse] while a Handle still uses them.
func (sc *SharedConnections) Close() error {
	stats := sc.share.Stats()
	if err := sc.share.Cleanup(); err != nil {
		return fmt.Errorf("closing shared connections: %w", err)
	}

	sc.logger.Debug("shared connections closed", "created", stats.Created, "reused", stats.Reused)

	return nil
}

// shareLock and shareUnlock are the engine lock callbacks. userdata is the
// lock table registered with the share.
func shareLock(data engine.LockData, _ engine.LockAccess, userdata any) {
	locksFrom(userdata).Lock(int(data))
}

func shareUnlock(data engine.LockData, userdata any) {
	locksFrom(userdata).Unlock(int(data))
}

func locksFrom(userdata any) *locktable.Table {
	t, ok := userdata.(*locktable.Table)
	if !ok || t == nil {
		panic(fmt.Sprintf("handle: share lock callback got %T, want *locktable.Table", userdata))
	}

	return t
}
