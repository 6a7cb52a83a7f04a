package sink

import (
	"errors"
	"io"
)

var (
	// ErrInvalidUTF8 is returned by a strict [Text] sink for malformed input.
	ErrInvalidUTF8 = errors.New("invalid utf-8 sequence")
	// ErrTooLarge is returned when a [Bytes] sink cannot grow any further.
	ErrTooLarge = errors.New("sink too large")
)

// Sink accepts sequential chunks and exposes the accumulated content.
// A Sink is owned by a single transfer and is not safe for concurrent use.
type Sink interface {
	io.Writer

	// Insert appends chunk. An empty chunk is a no-op.
	Insert(chunk []byte) error
	// Bytes returns a copy of everything accepted since the last Reset.
	Bytes() []byte
	// String returns the accumulated content as text.
	String() string
	// Len reports the number of accumulated bytes.
	Len() int
	// Reset discards the accumulated content so the sink can be reused.
	Reset()
}

var (
	_ Sink = (*Bytes)(nil)
	_ Sink = (*Text)(nil)
)
