package closure

// Result is the outcome of TryInvoke: a value on success, the original
// error on failure.
type Result[R any] struct {
	value R
	err   error
}

// Success wraps a successful return value.
func Success[R any](v R) Result[R] {
	return Result[R]{value: v}
}

// Failure wraps an error. A nil err yields a successful zero result.
func Failure[R any](err error) Result[R] {
	return Result[R]{err: err}
}

// OK reports whether the invocation succeeded.
func (r Result[R]) OK() bool { return r.err == nil }

// Value returns the return value, the zero value on failure.
func (r Result[R]) Value() R { return r.value }

// Err returns the failure, exactly as raised by the callback.
func (r Result[R]) Err() error { return r.err }

// Unwrap returns the value and error as a Go pair.
func (r Result[R]) Unwrap() (R, error) { return r.value, r.err }
