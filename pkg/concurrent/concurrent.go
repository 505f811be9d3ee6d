package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Concurrent runs action for each element of in, at most limit at a time.
// A limit of zero or less means no limit. It waits for all goroutines to
// finish and returns the first error encountered; the context passed to
// the remaining actions is cancelled once any action fails.
func Concurrent[T any](ctx context.Context, in []T, limit int, action func(context.Context, T) error) error {
	errGroup, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		errGroup.SetLimit(limit)
	}

	for _, value := range in {
		errGroup.Go(func() error {
			return action(ctx, value)
		})
	}

	return errGroup.Wait()
}

// ParallelMap applies mapFn to each element of in in parallel, preserving order.
// The workers parameter controls the number of goroutines.
func ParallelMap[T any, R any](ctx context.Context, in []T, workers int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	errGroup, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		errGroup.SetLimit(workers)
	}

	for idx, val := range in {
		errGroup.Go(func() error {
			r, err := mapFn(ctx, val)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}

	if err := errGroup.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
