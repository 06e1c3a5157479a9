package backend

// Result is the tagged outcome of one remote call: exactly one of value or error is meaningful.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure. A nil error is reported as an unknown failure.
func Err[T any](err *Error) Result[T] {
	if err == nil {
		err = &Error{Kind: KindUnknown}
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool { return r.err == nil }

// Unwrap converts the result into the conventional value/error pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Error returns the failure or nil.
func (r Result[T]) Error() *Error { return r.err }

// Map transforms a successful result and propagates a failure unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}
