package closure

import "github.com/wippyai/closure-runtime/invoker"

type options struct {
	registry *invoker.Registry
	noLocal  bool
}

// Option configures a Closure.
type Option func(*options)

// WithRegistry resolves thunks from r instead of invoker.Default().
func WithRegistry(r *invoker.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithoutLocalCache makes every invocation look the thunk up in the
// registry instead of reusing the last resolved entry.
func WithoutLocalCache() Option {
	return func(o *options) {
		o.noLocal = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.registry == nil {
		o.registry = invoker.Default()
	}
	return o
}
