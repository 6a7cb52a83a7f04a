package group

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is the error of work that had not started when the Group
// stopped after a failure.
var ErrStopped = errors.New("group stopped before work started")

// WorkFunc is one unit of work run by a Group.
type WorkFunc func(ctx context.Context) error

// Option configures a [Group].
type Option func(*Group)

// WithLimit runs at most n functions at a time. n <= 0 means no limit.
func WithLimit(n int) Option {
	return func(g *Group) {
		if n > 0 {
			g.sem = make(chan struct{}, n)
		}
	}
}

// WithStopOnError stops the group at the first failed function.
func WithStopOnError() Option {
	return func(g *Group) {
		g.stopOnError = true
	}
}

// Group runs functions in their own goroutines.
type Group struct {
	wg          sync.WaitGroup
	sem         chan struct{}
	stopOnError bool
	stopOnce    sync.Once
	stopped     chan struct{}
}

// New returns an empty Group.
func New(opts ...Option) *Group {
	g := &Group{stopped: make(chan struct{})}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Result is the outcome of one function started with [Group.Go].
type Result struct {
	done chan struct{}
	err  error
}

// Err blocks until the function has finished and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Go runs fn once a slot is free. Work still waiting for a slot ends with
// ctx.Err() when ctx is done, or with ErrStopped when the group stops.
func (g *Group) Go(ctx context.Context, fn WorkFunc) *Result {
	r := &Result{done: make(chan struct{})}

	g.wg.Add(1)
	go func() {
		defer func() {
			close(r.done)
			g.wg.Done()
		}()

		if g.sem != nil {
			select {
			case g.sem <- struct{}{}:
				defer func() { <-g.sem }()
			case <-ctx.Done():
				r.err = ctx.Err()
				return
			case <-g.stopped:
				r.err = ErrStopped
				return
			}
		}

		select {
		case <-g.stopped:
			r.err = ErrStopped
			return
		default:
		}

		r.err = fn(ctx)
		if r.err != nil && g.stopOnError {
			g.stopOnce.Do(func() { close(g.stopped) })
		}
	}()

	return r
}

// Wait blocks until every function started with Go has finished.
func (g *Group) Wait() {
	g.wg.Wait()
}
