package locktable

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTable_MutualExclusion(t *testing.T) {
	const (
		workers    = 8
		iterations = 500
	)

	tbl := New(4)

	var (
		holders atomic.Int32
		counter int
		wg      sync.WaitGroup
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				tbl.Lock(2)
				if n := holders.Add(1); n != 1 {
					t.Errorf("expected a single holder, got %d", n)
				}
				counter++
				holders.Add(-1)
				tbl.Unlock(2)
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Errorf("expected counter %d, got %d", workers*iterations, counter)
	}
}

func TestTable_IndependentKinds(t *testing.T) {
	tbl := New(3)

	tbl.Lock(1)
	defer tbl.Unlock(1)

	done := make(chan struct{})
	go func() {
		tbl.Lock(2)
		tbl.Unlock(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking a different kind blocked")
	}
}

func TestTable_BlocksSameKind(t *testing.T) {
	tbl := New(2)

	tbl.Lock(0)

	acquired := make(chan struct{})
	go func() {
		tbl.Lock(0)
		close(acquired)
		tbl.Unlock(0)
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held slot")
	case <-time.After(50 * time.Millisecond):
	}

	tbl.Unlock(0)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not released after unlock")
	}
}

func TestTable_TryLock(t *testing.T) {
	tbl := New(1)

	if !tbl.TryLock(0) {
		t.Fatal("expected TryLock on a free slot to succeed")
	}
	if tbl.TryLock(0) {
		t.Fatal("expected TryLock on a held slot to fail")
	}
	tbl.Unlock(0)
}

func TestTable_OutOfRange(t *testing.T) {
	testCases := []struct {
		name string
		kind int
	}{
		{name: "negative", kind: -1},
		{name: "equal to len", kind: 3},
		{name: "past len", kind: 10},
	}

	tbl := New(3)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for kind %d", tc.kind)
				}
			}()
			tbl.Lock(tc.kind)
		})
	}
}

func TestNew_NonPositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero slots")
		}
	}()
	New(0)
}
