package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options configure the batch runner's pacing.
type Options struct {
	GroupSize  int           // items in flight at once
	GroupDelay time.Duration // pause between groups, respects host rate limits
}

// DefaultOptions returns the pacing used against third-party APIs.
func DefaultOptions() Options {
	return Options{GroupSize: 3, GroupDelay: time.Second}
}

// Result holds the outcome of one item. Err is nil on success.
type Result[R any] struct {
	Value R
	Err   error
}

// Run processes items in fixed-size groups, running each group's items
// concurrently and pausing between groups.
//
// Semantics are all-settled: one item's failure is recorded in its Result
// and never aborts siblings. Results are returned in input order. Run stops
// early only when ctx is cancelled, returning the results settled so far
// and ctx.Err().
func Run[T, R any](ctx context.Context, items []T, opts Options, fn func(ctx context.Context, item T) (R, error)) ([]Result[R], error) {
	if opts.GroupSize <= 0 {
		opts.GroupSize = 3
	}

	results := make([]Result[R], len(items))

	for start := 0; start < len(items); start += opts.GroupSize {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		end := start + opts.GroupSize
		if end > len(items) {
			end = len(items)
		}

		g, gCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				value, err := fn(gCtx, items[i])
				results[i] = Result[R]{Value: value, Err: err}
				return nil // per-item failures never cancel the group
			})
		}
		_ = g.Wait()

		if end < len(items) && opts.GroupDelay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(opts.GroupDelay):
			}
		}
	}

	return results, nil
}
