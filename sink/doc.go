// Package sink provides in-memory accumulators for data the transfer engine
// delivers in sequential, variably sized chunks.
//
// Two variants are available:
//
//   - [Bytes] stores raw bytes in a doubling buffer and returns exactly the
//     bytes written, in order.
//   - [Text] decodes UTF-8 and appends every line trimmed of surrounding
//     whitespace. Lines and multibyte sequences may span chunks.
//
// Both implement [Sink] and [io.Writer].
package sink
