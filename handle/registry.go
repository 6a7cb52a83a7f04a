package handle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/adamwoolhether/fetcher/sink"
)

// registry maps the opaque identifier the engine passes back to callbacks
// onto the Handle that owns the sinks. Handles are registered by New and
// removed by Close.
var registry = struct {
	sync.RWMutex
	handles map[uuid.UUID]*Handle
}{handles: make(map[uuid.UUID]*Handle)}

func register(h *Handle) {
	registry.Lock()
	defer registry.Unlock()

	registry.handles[h.id] = h
}

func unregister(id uuid.UUID) {
	registry.Lock()
	defer registry.Unlock()

	delete(registry.handles, id)
}

// lookup validates userdata and resolves it to a live Handle.
func lookup(userdata any) (*Handle, bool) {
	id, ok := userdata.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil, false
	}

	registry.RLock()
	defer registry.RUnlock()

	h, ok := registry.handles[id]
	return h, ok
}

// writeCallback is the engine body callback.
func writeCallback(buf []byte, size, nitems int, userdata any) int {
	h, ok := lookup(userdata)
	if !ok {
		return 0
	}

	n := h.accept(buf, size, nitems, h.body)
	if h.progress != nil {
		h.progress.add(n)
	}

	return n
}

// headerCallback is the engine header callback.
func headerCallback(buf []byte, size, nitems int, userdata any) int {
	h, ok := lookup(userdata)
	if !ok {
		return 0
	}

	return h.accept(buf, size, nitems, h.header)
}

// accept appends size*nitems bytes of buf to s and returns the count taken.
// A nil buffer is accepted as nothing; a rejected chunk returns 0, which
// makes the engine abort the transfer.
func (h *Handle) accept(buf []byte, size, nitems int, s sink.Sink) int {
	if buf == nil {
		return 0
	}

	n := size * nitems
	if n < 0 || n > len(buf) {
		return 0
	}

	if err := s.Insert(buf[:n]); err != nil {
		h.logger.Error("sink rejected chunk", "handle_id", h.id, "size", n, "error", err)
		return 0
	}

	return n
}
