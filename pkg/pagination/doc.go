// Package pagination walks a fixed number of catalog pages in order.
//
// The catalog API does not report its page count, so the walker is told how
// many pages to request and fetches them strictly one at a time: page k+1 is
// requested only after page k has either succeeded or failed. A failed page
// is reported to the callback and the walk moves on.
//
// Example usage:
//
//	walker := pagination.NewWalker(catalogClient, pagination.DefaultConfig())
//	summary, err := walker.Walk(ctx, func(r pagination.PageResult) {
//		if r.Error != nil {
//			return
//		}
//		all = append(all, r.Courses...)
//	})
//
// The walker:
//   - Requests pages 1..TotalPages in ascending order
//   - Never has more than one request in flight
//   - Hands every outcome to the callback before the next request
//   - Logs progress every ProgressEvery pages
//   - Stops between pages when the context is cancelled
package pagination
