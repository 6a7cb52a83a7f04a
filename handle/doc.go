// Package handle implements the transfer handle: one configured request
// against the [engine], the two sinks the engine writes the response into,
// and the mapping of engine results onto typed errors.
//
// # Building a Handle
//
// Use [New] with a body sink and functional options:
//
//	h, err := handle.New("https://example.com/data", sink.NewBytes(0),
//		handle.WithUserAgent("myapp/1.0"),
//		handle.WithTransferTimeout(5*time.Second),
//	)
//	defer h.Close()
//
// # Fetching
//
// [Handle.Fetch] runs the request synchronously and returns the body:
//
//	body, err := h.Fetch(ctx, handle.WithHeaders("Accept: application/json"))
//	if errors.Is(err, handle.ErrNotFound) { ... }
//	fmt.Println(h.Headers())
//
// Failures are reported as [*TransferError], which wraps [ErrTimeout],
// [ErrNotFound] or [ErrTransfer]. A timeout is always reported as
// ErrTimeout, even when a status code was received.
//
// # Sharing Connections
//
// Handles used from different goroutines can reuse each other's
// connections through [SharedConnections]:
//
//	sc, err := handle.NewSharedConnections()
//	h1, _ := handle.New(u1, sink.NewBytes(0), handle.WithConnectionSharing(sc))
//	h2, _ := handle.New(u2, sink.NewBytes(0), handle.WithConnectionSharing(sc))
//
// A Handle itself must not be fetched from several goroutines at once.
package handle
