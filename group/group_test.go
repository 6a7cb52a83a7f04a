package group_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/fetcher/group"
)

func TestResult_Err(t *testing.T) {
	boom := errors.New("boom")

	testCases := []struct {
		name   string
		fn     group.WorkFunc
		expErr error
	}{
		{name: "success", fn: func(context.Context) error { return nil }},
		{name: "failure", fn: func(context.Context) error { return boom }, expErr: boom},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := group.New()
			r := g.Go(t.Context(), tc.fn)
			g.Wait()

			if err := r.Err(); !errors.Is(err, tc.expErr) {
				t.Errorf("expected %v, got %v", tc.expErr, err)
			}
		})
	}
}

func TestGroup_Wait(t *testing.T) {
	var finished atomic.Int32

	g := group.New(group.WithLimit(2))
	for range 6 {
		g.Go(t.Context(), func(context.Context) error {
			time.Sleep(5 * time.Millisecond)
			finished.Add(1)
			return nil
		})
	}
	g.Wait()

	if got := finished.Load(); got != 6 {
		t.Errorf("expected 6 finished functions after Wait, got %d", got)
	}
}

// peak starts total blocking functions and reports how many ran at once.
func peak(t *testing.T, g *group.Group, total int) int32 {
	t.Helper()

	var running, maxRunning atomic.Int32
	barrier := make(chan struct{})

	for range total {
		g.Go(t.Context(), func(context.Context) error {
			cur := running.Add(1)
			for {
				old := maxRunning.Load()
				if cur <= old || maxRunning.CompareAndSwap(old, cur) {
					break
				}
			}
			<-barrier
			running.Add(-1)
			return nil
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(barrier)
	g.Wait()

	return maxRunning.Load()
}

func TestGroup_Limit(t *testing.T) {
	testCases := []struct {
		name    string
		limit   int
		total   int
		expPeak int32
		exact   bool
	}{
		{name: "bounded", limit: 2, total: 5, expPeak: 2},
		{name: "unlimited", limit: 0, total: 10, expPeak: 10, exact: true},
		{name: "negative is unlimited", limit: -1, total: 4, expPeak: 4, exact: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := peak(t, group.New(group.WithLimit(tc.limit)), tc.total)

			if got > tc.expPeak || (tc.exact && got != tc.expPeak) {
				t.Errorf("peak concurrency %d, want %d (exact=%t)", got, tc.expPeak, tc.exact)
			}
		})
	}
}

func TestGroup_StopOnError(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32

	g := group.New(group.WithLimit(1), group.WithStopOnError())

	first := g.Go(t.Context(), func(context.Context) error {
		ran.Add(1)
		return boom
	})
	_ = first.Err()

	rest := make([]*group.Result, 3)
	for i := range rest {
		rest[i] = g.Go(t.Context(), func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	g.Wait()

	if err := first.Err(); !errors.Is(err, boom) {
		t.Errorf("expected first result %v, got %v", boom, err)
	}
	for i, r := range rest {
		if err := r.Err(); !errors.Is(err, group.ErrStopped) {
			t.Errorf("result %d: expected ErrStopped, got %v", i, err)
		}
	}
	if got := ran.Load(); got != 1 {
		t.Errorf("expected only the failing function to run, %d ran", got)
	}
}

func TestGroup_StopOnErrorReleasesWaiting(t *testing.T) {
	boom := errors.New("boom")

	g := group.New(group.WithLimit(1), group.WithStopOnError())

	release := make(chan struct{})
	holding := make(chan struct{})
	first := g.Go(t.Context(), func(context.Context) error {
		close(holding)
		<-release
		return boom
	})
	<-holding

	queued := g.Go(t.Context(), func(context.Context) error {
		t.Error("queued function should not have run")
		return nil
	})

	close(release)
	g.Wait()

	if err := first.Err(); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
	if err := queued.Err(); !errors.Is(err, group.ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestGroup_FailureWithoutStop(t *testing.T) {
	boom := errors.New("boom")

	g := group.New(group.WithLimit(1))
	first := g.Go(t.Context(), func(context.Context) error { return boom })
	second := g.Go(t.Context(), func(context.Context) error { return nil })
	g.Wait()

	if err := first.Err(); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
	if err := second.Err(); err != nil {
		t.Errorf("expected second to run, got %v", err)
	}
}

func TestGroup_CancelledWhileWaitingForSlot(t *testing.T) {
	g := group.New(group.WithLimit(1))

	release := make(chan struct{})
	holding := make(chan struct{})
	g.Go(t.Context(), func(context.Context) error {
		close(holding)
		<-release
		return nil
	})
	<-holding

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	r := g.Go(ctx, func(context.Context) error {
		t.Error("work function should not have run")
		return nil
	})

	if err := r.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	close(release)
	g.Wait()
}
