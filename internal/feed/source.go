package feed

import (
	"context"
	"time"
)

// Request asks a Source for rows [Offset, Offset+Limit)
type Request struct {
	Offset   int
	Limit    int
	Prefetch bool
}

// Page is one slice of a dataset. Total is the dataset length, or negative
// when the source does not know it.
type Page[T any] struct {
	Items []T
	Total int
}

// Source fetches pages of a dataset. Implementations must return promptly
// with ctx.Err() once ctx is cancelled.
type Source[T any] interface {
	Fetch(ctx context.Context, req Request) (Page[T], error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc[T any] func(ctx context.Context, req Request) (Page[T], error)

func (f SourceFunc[T]) Fetch(ctx context.Context, req Request) (Page[T], error) {
	return f(ctx, req)
}

// SliceSource serves an in-memory dataset behind a simulated latency
type SliceSource[T any] struct {
	Rows            []T
	Latency         time.Duration
	PrefetchLatency time.Duration
}

// Fetch waits for the configured latency, then returns the requested slice
func (s SliceSource[T]) Fetch(ctx context.Context, req Request) (Page[T], error) {
	delay := s.Latency
	if req.Prefetch {
		delay = s.PrefetchLatency
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Page[T]{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Page[T]{}, err
	}

	start := min(max(req.Offset, 0), len(s.Rows))
	end := min(start+max(req.Limit, 0), len(s.Rows))
	items := make([]T, end-start)
	copy(items, s.Rows[start:end])
	return Page[T]{Items: items, Total: len(s.Rows)}, nil
}
