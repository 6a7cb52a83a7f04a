// Package throttle rate-limits transfers using a token-bucket algorithm
// from [golang.org/x/time/rate].
//
// # Usage
//
// Create a [Limiter] and hand it to the engine, which calls [Limiter.Wait]
// before every request it sends:
//
//	l, err := throttle.New(
//		10, // requests per second
//		5,  // burst capacity
//		func() *slog.Logger { return slog.Default() },
//	)
//	easy.SetThrottle(l)
//
// When the rate limit is exceeded, transfers block until a token becomes
// available or the transfer deadline passes. A single Limiter may be
// shared by many transfers.
package throttle
