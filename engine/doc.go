// Package engine is the transfer engine behind a fetch handle. It performs
// one HTTP request per [Easy] context on top of [net/http] and hands the
// response to the caller through callbacks, the way a native transfer
// library does:
//
//   - A header [WriteFunc] receives the status line, each header line and
//     the empty terminator line, one line per call, each ending in CRLF.
//   - A body [WriteFunc] receives the payload in chunks of at most
//     [MaxWriteSize] bytes.
//
// Each callback gets an opaque userdata value registered with the callback
// and must return the number of bytes it accepted. Returning anything else
// aborts the transfer with [CodeWriteError].
//
// Several Easy contexts can share one connection cache through a [Share].
// The share never locks on its own behalf when lock callbacks are set: it
// calls the registered [LockFunc] and [UnlockFunc] with the [LockData] kind
// it is about to touch, and the caller maps those onto real mutexes.
//
// Perform reports the outcome as a [Code]. Timeouts are enforced by the
// engine: the connect timeout bounds dialing, the transfer timeout bounds
// the whole request. A running Perform cannot be cancelled by the caller.
package engine
