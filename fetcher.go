// Package fetcher exposes handle builders and batch fetching.
//
// A fetch returns the body on success and a [*handle.TransferError] on
// failure, wrapping [handle.ErrTimeout], [handle.ErrNotFound] or
// [handle.ErrTransfer]:
//
//	h, err := fetcher.ForString("https://example.com/")
//	if err != nil { ... }
//	defer h.Close()
//
//	body, err := h.Fetch(ctx)
package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamwoolhether/fetcher/group"
	"github.com/adamwoolhether/fetcher/handle"
	"github.com/adamwoolhether/fetcher/sink"
)

// New builds a handle writing the response body into body.
func New(url string, body sink.Sink, opts ...handle.Option) (*handle.Handle, error) {
	return handle.New(url, body, opts...)
}

// ForBytes builds a handle that collects the raw response body.
func ForBytes(url string, opts ...handle.Option) (*handle.Handle, error) {
	return handle.New(url, sink.NewBytes(0), opts...)
}

// ForString builds a handle that collects the response body as UTF-8 text,
// each line trimmed of surrounding whitespace.
func ForString(url string, opts ...handle.Option) (*handle.Handle, error) {
	return handle.New(url, sink.NewText(), opts...)
}

// NewSharedConnections builds a connection cache that handles can opt into
// with [handle.WithConnectionSharing].
func NewSharedConnections(opts ...handle.SharedOption) (*handle.SharedConnections, error) {
	return handle.NewSharedConnections(opts...)
}

// FetchAllOption is a functional option for [FetchAll].
type FetchAllOption func(*fetchAllOpts) error
type fetchAllOpts struct {
	maxConcurrent int
	stopOnError   bool
	fetch         []handle.FetchOption
}

// WithMaxConcurrent runs at most n fetches at a time. Without it every
// handle is fetched at once.
func WithMaxConcurrent(n int) FetchAllOption {
	return func(o *fetchAllOpts) error {
		if n <= 0 {
			return fmt.Errorf("max concurrent[%d] must be greater than zero", n)
		}
		o.maxConcurrent = n
		return nil
	}
}

// WithStopOnError skips fetches that have not started once one fails.
// Skipped handles report [group.ErrStopped].
func WithStopOnError() FetchAllOption {
	return func(o *fetchAllOpts) error {
		o.stopOnError = true
		return nil
	}
}

// WithFetchOptions applies opts to every fetch in the batch.
func WithFetchOptions(opts ...handle.FetchOption) FetchAllOption {
	return func(o *fetchAllOpts) error {
		o.fetch = append(o.fetch, opts...)
		return nil
	}
}

// FetchAll fetches every handle concurrently. bodies[i] holds the body of
// handles[i], or nil if that fetch failed or was skipped. The returned
// error joins the failure of every handle, each prefixed with its index
// and URL.
//
// A handle must appear only once; a repeated handle fails with
// [handle.ErrInFlight] or runs twice.
func FetchAll(ctx context.Context, handles []*handle.Handle, optFns ...FetchAllOption) ([][]byte, error) {
	var opts fetchAllOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	for i, h := range handles {
		if h == nil {
			return nil, fmt.Errorf("handle %d is nil", i)
		}
	}

	groupOpts := []group.Option{group.WithLimit(opts.maxConcurrent)}
	if opts.stopOnError {
		groupOpts = append(groupOpts, group.WithStopOnError())
	}
	g := group.New(groupOpts...)

	bodies := make([][]byte, len(handles))
	results := make([]*group.Result, len(handles))
	for i, h := range handles {
		results[i] = g.Go(ctx, func(ctx context.Context) error {
			body, err := h.Fetch(ctx, opts.fetch...)
			if err != nil {
				return err
			}
			bodies[i] = body
			return nil
		})
	}
	g.Wait()

	var errs []error
	for i, r := range results {
		if err := r.Err(); err != nil {
			errs = append(errs, fmt.Errorf("handle %d (%s): %w", i, handles[i].URL(), err))
		}
	}

	return bodies, errors.Join(errs...)
}
