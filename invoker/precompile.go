package invoker

import (
	"reflect"

	"go.uber.org/zap"

	closureruntime "github.com/wippyai/closure-runtime"
	"github.com/wippyai/closure-runtime/errors"
	"github.com/wippyai/closure-runtime/variant"
)

// PrecompileAction registers typed thunks for func(C) and func(*C).
func PrecompileAction[C any](r *Registry) error {
	if err := checkPrecompileContext[C](); err != nil {
		return err
	}
	register(r, Invoker[closureruntime.Void, closureruntime.Void](
		func(fn any, ctx *variant.Variant, _ closureruntime.MutationPolicy, _ *closureruntime.Void) (closureruntime.Void, error) {
			f, err := precompiledFunc[func(C)](fn, ctx)
			if err != nil {
				return closureruntime.Void{}, err
			}
			c, err := valueContext[C](ctx)
			if err != nil {
				return closureruntime.Void{}, err
			}
			f(c)
			return closureruntime.Void{}, nil
		}), reflect.TypeFor[func(C)]())

	register(r, Invoker[closureruntime.Void, closureruntime.Void](
		func(fn any, ctx *variant.Variant, policy closureruntime.MutationPolicy, _ *closureruntime.Void) (closureruntime.Void, error) {
			f, err := precompiledFunc[func(*C)](fn, ctx)
			if err != nil {
				return closureruntime.Void{}, err
			}
			c, shared, err := refContext[C](ctx)
			if err != nil {
				return closureruntime.Void{}, err
			}
			f(c)
			return closureruntime.Void{}, writeBack(ctx, policy, c, shared)
		}), reflect.TypeFor[func(*C)]())
	return nil
}

// PrecompileActionArg registers typed thunks for func(C, A) and func(*C, A).
func PrecompileActionArg[C, A any](r *Registry) error {
	if err := checkPrecompileContext[C](); err != nil {
		return err
	}
	register(r, Invoker[A, closureruntime.Void](
		func(fn any, ctx *variant.Variant, _ closureruntime.MutationPolicy, arg *A) (closureruntime.Void, error) {
			f, err := precompiledFunc[func(C, A)](fn, ctx)
			if err != nil {
				return closureruntime.Void{}, err
			}
			c, err := valueContext[C](ctx)
			if err != nil {
				return closureruntime.Void{}, err
			}
			f(c, deref(arg))
			return closureruntime.Void{}, nil
		}), reflect.TypeFor[func(C, A)]())

	register(r, Invoker[A, closureruntime.Void](
		func(fn any, ctx *variant.Variant, policy closureruntime.MutationPolicy, arg *A) (closureruntime.Void, error) {
			f, err := precompiledFunc[func(*C, A)](fn, ctx)
			if err != nil {
				return closureruntime.Void{}, err
			}
			c, shared, err := refContext[C](ctx)
			if err != nil {
				return closureruntime.Void{}, err
			}
			f(c, deref(arg))
			return closureruntime.Void{}, writeBack(ctx, policy, c, shared)
		}), reflect.TypeFor[func(*C, A)]())
	return nil
}

// PrecompileFunc registers typed thunks for func(C) R and func(*C) R.
func PrecompileFunc[C, R any](r *Registry) error {
	if err := checkPrecompileContext[C](); err != nil {
		return err
	}
	register(r, Invoker[closureruntime.Void, R](
		func(fn any, ctx *variant.Variant, _ closureruntime.MutationPolicy, _ *closureruntime.Void) (R, error) {
			var zero R
			f, err := precompiledFunc[func(C) R](fn, ctx)
			if err != nil {
				return zero, err
			}
			c, err := valueContext[C](ctx)
			if err != nil {
				return zero, err
			}
			return f(c), nil
		}), reflect.TypeFor[func(C) R]())

	register(r, Invoker[closureruntime.Void, R](
		func(fn any, ctx *variant.Variant, policy closureruntime.MutationPolicy, _ *closureruntime.Void) (R, error) {
			var zero R
			f, err := precompiledFunc[func(*C) R](fn, ctx)
			if err != nil {
				return zero, err
			}
			c, shared, err := refContext[C](ctx)
			if err != nil {
				return zero, err
			}
			res := f(c)
			return res, writeBack(ctx, policy, c, shared)
		}), reflect.TypeFor[func(*C) R]())
	return nil
}

// PrecompileFuncArg registers typed thunks for func(C, A) R and
// func(*C, A) R.
func PrecompileFuncArg[C, A, R any](r *Registry) error {
	if err := checkPrecompileContext[C](); err != nil {
		return err
	}
	register(r, Invoker[A, R](
		func(fn any, ctx *variant.Variant, _ closureruntime.MutationPolicy, arg *A) (R, error) {
			var zero R
			f, err := precompiledFunc[func(C, A) R](fn, ctx)
			if err != nil {
				return zero, err
			}
			c, err := valueContext[C](ctx)
			if err != nil {
				return zero, err
			}
			return f(c, deref(arg)), nil
		}), reflect.TypeFor[func(C, A) R]())

	register(r, Invoker[A, R](
		func(fn any, ctx *variant.Variant, policy closureruntime.MutationPolicy, arg *A) (R, error) {
			var zero R
			f, err := precompiledFunc[func(*C, A) R](fn, ctx)
			if err != nil {
				return zero, err
			}
			c, shared, err := refContext[C](ctx)
			if err != nil {
				return zero, err
			}
			res := f(c, deref(arg))
			return res, writeBack(ctx, policy, c, shared)
		}), reflect.TypeFor[func(*C, A) R]())
	return nil
}

// register stores a precompiled thunk and evicts any reflective entry
// already memoized for the type.
func register(r *Registry, inv any, ft reflect.Type) {
	r.precompiled.Store(ft, inv)
	r.entries.Delete(ft)
	r.logger().Debug("invoker precompiled", zap.Stringer("callback", ft))
}

// Pointer contexts would be ambiguous with by-reference parameters.
func checkPrecompileContext[C any]() error {
	if t := reflect.TypeFor[C](); t.Kind() == reflect.Ptr {
		return errors.Unsupported(errors.PhaseBuild, t.String(),
			"precompiled context type must not be a pointer")
	}
	return nil
}

func precompiledFunc[F any](fn any, ctx *variant.Variant) (F, error) {
	if ctx == nil {
		var zero F
		return zero, errors.NullArgument(errors.PhaseInvoke, "*variant.Variant")
	}
	f, ok := fn.(F)
	if !ok {
		have := "<nil>"
		if fn != nil {
			have = reflect.TypeOf(fn).String()
		}
		return f, errors.Cast(errors.PhaseInvoke, have, reflect.TypeFor[F]().String())
	}
	return f, nil
}

func valueContext[C any](ctx *variant.Variant) (C, error) {
	c, err := variant.As[C](*ctx)
	if err != nil {
		return c, errors.Wrap(errors.PhaseInvoke, errors.KindCast, err, "context does not hold the callback's context type")
	}
	return c, nil
}

// refContext returns a pointer to the context. A Variant storing *C is
// shared with the callback; otherwise the pointer is to a local copy.
func refContext[C any](ctx *variant.Variant) (*C, bool, error) {
	if _, isVariant := any((*C)(nil)).(*variant.Variant); !isVariant {
		if p, ok := ctx.Interface().(*C); ok {
			return p, true, nil
		}
	}
	c, err := valueContext[C](ctx)
	if err != nil {
		return nil, false, err
	}
	return &c, false, nil
}

func writeBack[C any](ctx *variant.Variant, policy closureruntime.MutationPolicy, c *C, shared bool) error {
	if shared || policy != closureruntime.WriteBack {
		return nil
	}
	return variant.Set(ctx, *c)
}

func deref[A any](arg *A) A {
	if arg == nil {
		var zero A
		return zero
	}
	return *arg
}
