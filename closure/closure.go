package closure

import (
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"

	closureruntime "github.com/wippyai/closure-runtime"
	"github.com/wippyai/closure-runtime/errors"
	"github.com/wippyai/closure-runtime/invoker"
	"github.com/wippyai/closure-runtime/shape"
	"github.com/wippyai/closure-runtime/variant"
)

// Wrapper is the type information a closure exposes to adapters.
type Wrapper interface {
	// ContextType is the Go type of the stored context, nil when empty.
	ContextType() reflect.Type
	// CallbackType is the concrete callback type, nil without a callback.
	CallbackType() reflect.Type
}

// Closure couples a callback with a Variant context and a mutation policy.
// A is the callback's argument type and R its return type; shape.Void
// stands in for either when absent.
//
// A Closure must not be copied after first use. Invocations are not
// synchronized: under WriteBack a callback taking its context by pointer
// writes the context back on every call, so concurrent calls race on it and
// updates can be lost. Callers sharing such a Closure across goroutines must
// serialize Invoke and SetContext themselves. Callbacks taking the context
// by value, or running under Discard, only read it.
type Closure[A, R any] struct {
	ctx      variant.Variant
	fn       any
	policy   closureruntime.MutationPolicy
	registry *invoker.Registry
	noLocal  bool

	// last resolved entry; a hint only, validated before use
	local atomic.Pointer[invoker.Entry]
}

// New creates a closure over ctx. fn may be nil, a func of a valid
// callback shape or a *Multicast.
func New[A, R any](ctx variant.Variant, fn any, policy closureruntime.MutationPolicy, opts ...Option) *Closure[A, R] {
	o := buildOptions(opts)
	return &Closure[A, R]{
		ctx:      ctx,
		fn:       fn,
		policy:   policy,
		registry: o.registry,
		noLocal:  o.noLocal,
	}
}

// Of creates a closure whose context is built from a typed value.
func Of[A, R, C any](ctx C, fn any, policy closureruntime.MutationPolicy, opts ...Option) (*Closure[A, R], error) {
	v, err := variant.From(ctx)
	if err != nil {
		return nil, err
	}
	return New[A, R](v, fn, policy, opts...), nil
}

// resolve returns the thunk for the current callback, from the local
// entry when it is still current, else from the registry.
func (c *Closure[A, R]) resolve() (invoker.Invoker[A, R], error) {
	if !c.noLocal {
		if e := c.local.Load(); e != nil &&
			e.Shape.Func == reflect.TypeOf(c.fn) &&
			e.Generation == c.registry.Generation() {
			if inv, err := invoker.Typed[A, R](e); err == nil && inv != nil {
				return inv, nil
			}
		}
	}
	inv, e, err := invoker.Get[A, R](c.registry, c.fn)
	if err != nil {
		return nil, err
	}
	if !c.noLocal {
		c.local.Store(e)
	}
	return inv, nil
}

// Invoke calls the callback with arg. Without a callback it does nothing
// and returns the zero value.
func (c *Closure[A, R]) Invoke(arg A) (R, error) {
	if isEmpty(c.fn) {
		var zero R
		return zero, nil
	}
	return c.invoke(&arg)
}

// Call invokes a callback that takes no argument. Without a callback it
// does nothing and returns the zero value.
func (c *Closure[A, R]) Call() (R, error) {
	if isEmpty(c.fn) {
		var zero R
		return zero, nil
	}
	return c.invoke(nil)
}

// InvokeRef calls the callback with a caller-owned argument; changes the
// callback makes through a by-reference argument are visible in *arg.
// Unlike Invoke it fails without a callback.
func (c *Closure[A, R]) InvokeRef(arg *A) (R, error) {
	if isEmpty(c.fn) {
		var zero R
		return zero, errors.EmptyCallback("InvokeRef")
	}
	return c.invoke(arg)
}

func (c *Closure[A, R]) invoke(arg *A) (R, error) {
	inv, err := c.resolve()
	if err != nil {
		var zero R
		return zero, err
	}
	return inv(c.fn, &c.ctx, c.policy, arg)
}

// TryInvoke invokes the callback and turns failures selected by policy into
// a failed Result instead of an error or panic. Errors and panics that are
// not suppressed are returned, or re-raised under HandleNone.
func (c *Closure[A, R]) TryInvoke(arg A, policy closureruntime.ErrorPolicy) (res Result[R], err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if policy == closureruntime.HandleNone {
			panic(rec)
		}
		perr := panicError(rec)
		if !suppress(policy, perr) {
			res, err = Failure[R](perr), perr
			return
		}
		Logger().Warn("callback panic suppressed",
			zap.Stringer("policy", policy),
			zap.Stringer("callback", reflect.TypeOf(c.fn)),
			zap.Error(perr))
		res, err = Failure[R](perr), nil
	}()

	v, ierr := c.Invoke(arg)
	if ierr == nil {
		return Success(v), nil
	}
	if !suppress(policy, ierr) {
		return Failure[R](ierr), ierr
	}
	return Failure[R](ierr), nil
}

func suppress(policy closureruntime.ErrorPolicy, err error) bool {
	switch policy {
	case closureruntime.HandleAll:
		return true
	case closureruntime.HandleExpected:
		return !errors.IsConstruction(err)
	default:
		return false
	}
}

// panicError keeps a panicked error as is and wraps any other value.
func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return errors.Panic(rec)
}

// Validate resolves the thunk now, surfacing a shape or type mismatch
// before the first invocation. A closure without a callback is valid.
func (c *Closure[A, R]) Validate() error {
	if isEmpty(c.fn) {
		return nil
	}
	_, err := c.resolve()
	return err
}

// Context returns the current context.
func (c *Closure[A, R]) Context() variant.Variant {
	return c.ctx
}

// SetContext replaces the context.
func (c *Closure[A, R]) SetContext(ctx variant.Variant) {
	c.ctx = ctx
}

// Callback returns the callback as passed to New.
func (c *Closure[A, R]) Callback() any {
	return c.fn
}

// Policy returns the mutation policy.
func (c *Closure[A, R]) Policy() closureruntime.MutationPolicy {
	return c.policy
}

// ContextType implements Wrapper.
func (c *Closure[A, R]) ContextType() reflect.Type {
	return c.ctx.Type()
}

// CallbackType implements Wrapper.
func (c *Closure[A, R]) CallbackType() reflect.Type {
	if isEmpty(c.fn) {
		return nil
	}
	return reflect.TypeOf(c.fn)
}

// Shape returns the callback's shape.
func (c *Closure[A, R]) Shape() (*shape.Shape, error) {
	if isEmpty(c.fn) {
		return nil, errors.EmptyCallback("Shape")
	}
	if e := c.local.Load(); e != nil && e.Shape.Func == reflect.TypeOf(c.fn) {
		return e.Shape, nil
	}
	if e, ok := c.registry.Lookup(reflect.TypeOf(c.fn)); ok {
		return e.Shape, nil
	}
	return shape.Classify(c.fn)
}

// Equal reports whether o has an equal context, the same callback and the
// same mutation policy. Funcs compare by identity, multicast lists by
// their handlers.
func (c *Closure[A, R]) Equal(o *Closure[A, R]) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.policy == o.policy &&
		c.ctx.Equal(o.ctx) &&
		sameCallback(c.fn, o.fn)
}

// Is reports whether w holds a callback of exactly type F over a context of
// type C. C = variant.Variant matches any context. No invocation or
// conversion takes place.
func Is[C, F any](w Wrapper) bool {
	if w == nil || w.CallbackType() != reflect.TypeFor[F]() {
		return false
	}
	want := reflect.TypeFor[C]()
	return want == reflect.TypeFor[variant.Variant]() || w.ContextType() == want
}

var _ Wrapper = (*Closure[shape.Void, shape.Void])(nil)
