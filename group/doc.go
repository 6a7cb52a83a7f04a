// Package group runs fetches concurrently with an optional limit and keeps
// the outcome of each one.
//
//	g := group.New(group.WithLimit(4), group.WithStopOnError())
//	results := make([]*group.Result, len(handles))
//	for i, h := range handles {
//		results[i] = g.Go(ctx, func(ctx context.Context) error {
//			_, err := h.Fetch(ctx)
//			return err
//		})
//	}
//	g.Wait()
//
// With WithStopOnError the first failure makes every function that has not
// started yet end with [ErrStopped]; functions already running finish.
package group
