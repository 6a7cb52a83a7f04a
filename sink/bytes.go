package sink

import "math"

// DefaultInitialSize is the capacity a [Bytes] sink allocates on first insert.
const DefaultInitialSize = 4096000

// Bytes is a growable byte accumulator. The backing store doubles whenever
// an insert would overflow it, so appends are amortized O(1).
type Bytes struct {
	data    []byte
	n       int
	initial int
}

// NewBytes returns a Bytes sink whose first allocation holds initialSize
// bytes. A non-positive size selects DefaultInitialSize. Allocation is
// deferred until the first non-empty insert.
func NewBytes(initialSize int) *Bytes {
	if initialSize <= 0 {
		initialSize = DefaultInitialSize
	}

	return &Bytes{initial: initialSize}
}

// Insert appends chunk, growing the store as many times as needed.
func (b *Bytes) Insert(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	if len(chunk) > math.MaxInt-b.n {
		return ErrTooLarge
	}

	b.grow(b.n + len(chunk))
	b.n += copy(b.data[b.n:], chunk)

	return nil
}

// Write implements io.Writer.
func (b *Bytes) Write(p []byte) (int, error) {
	if err := b.Insert(p); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Bytes returns a copy of the written prefix. Unused capacity is never exposed.
func (b *Bytes) Bytes() []byte {
	out := make([]byte, b.n)
	copy(out, b.data[:b.n])

	return out
}

func (b *Bytes) String() string {
	return string(b.data[:b.n])
}

// Len reports the number of bytes written.
func (b *Bytes) Len() int { return b.n }

// Cap reports the size of the backing store.
func (b *Bytes) Cap() int { return len(b.data) }

// Reset empties the sink, keeping the backing store for reuse.
func (b *Bytes) Reset() {
	b.n = 0
}

func (b *Bytes) grow(need int) {
	if need <= len(b.data) {
		return
	}

	size := len(b.data)
	if size == 0 {
		size = b.initial
	}
	for size < need {
		if size > math.MaxInt/2 {
			size = need
			break
		}
		size *= 2
	}

	data := make([]byte, size)
	copy(data, b.data[:b.n])
	b.data = data
}
