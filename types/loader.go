package types

import "context"

/*
Loader produces the value for a key when the cache cannot serve it.

The coordinator calls Load on a miss, on a faulted entry, and when a stale
entry must be recomputed. The returned value is wrapped in a future and
registered in the cache before anyone awaits it, so concurrent readers of
the same key share one computation.

Load must be a pure function of the key: recomputing the same key twice
is wasteful but never wrong.
*/
type Loader[T any] interface {
	Load(ctx context.Context, key string) (T, error)
}

// LoaderFunc adapts a plain function to Loader.
type LoaderFunc[T any] func(ctx context.Context, key string) (T, error)

func (f LoaderFunc[T]) Load(ctx context.Context, key string) (T, error) {
	return f(ctx, key)
}
