// Package locktable provides a fixed-size array of mutexes, one per
// shareable resource kind, used to serialize access to state that several
// transfer handles share through the engine.
package locktable

import (
	"fmt"
	"sync"
)

// Table is a fixed array of independently lockable slots. Slots are
// allocated once by New and are never resized or moved, so a slot index
// stays valid for the lifetime of the table.
//
// A Table must not be copied after first use.
type Table struct {
	slots []sync.Mutex
}

// New returns a Table with n slots, all unlocked.
func New(n int) *Table {
	if n <= 0 {
		panic(fmt.Sprintf("locktable: slot count must be positive, got %d", n))
	}

	return &Table{slots: make([]sync.Mutex, n)}
}

// Len reports the number of slots.
func (t *Table) Len() int {
	return len(t.slots)
}

// Lock blocks until the slot for kind is held by the caller. There is no
// timeout. Locking the same kind twice without an Unlock deadlocks.
func (t *Table) Lock(kind int) {
	t.slot(kind).Lock()
}

// TryLock acquires the slot for kind if it is free and reports whether it did.
func (t *Table) TryLock(kind int) bool {
	return t.slot(kind).TryLock()
}

// Unlock releases the slot for kind.
func (t *Table) Unlock(kind int) {
	t.slot(kind).Unlock()
}

func (t *Table) slot(kind int) *sync.Mutex {
	if kind < 0 || kind >= len(t.slots) {
		panic(fmt.Sprintf("locktable: resource kind %d out of range [0, %d)", kind, len(t.slots)))
	}

	return &t.slots[kind]
}
