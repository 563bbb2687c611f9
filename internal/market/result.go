package market

// Result carries either a value or the error that prevented producing it.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

// Fail wraps an error.
func Fail[T any](err error) Result[T] { return Result[T]{err: err} }

// Err returns the failure, if any.
func (r Result[T]) Err() error { return r.err }

// Value returns the value and the error.
func (r Result[T]) Value() (T, error) { return r.value, r.err }

// OrElse returns the value, or the fallback's result when r failed.
// The fallback receives the failure so it can log or record it.
func (r Result[T]) OrElse(fallback func(err error) T) T {
	if r.err != nil {
		return fallback(r.err)
	}
	return r.value
}
