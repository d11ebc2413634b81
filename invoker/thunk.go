package invoker

import (
	"reflect"

	"go.uber.org/multierr"

	closureruntime "github.com/wippyai/closure-runtime"
	"github.com/wippyai/closure-runtime/errors"
	"github.com/wippyai/closure-runtime/shape"
	"github.com/wippyai/closure-runtime/variant"
)

var variantType = reflect.TypeFor[variant.Variant]()

// boundContext is the context as handed to the callback.
type boundContext struct {
	in    reflect.Value // first call argument
	local reflect.Value // pointer to the local copy; invalid when passed through
}

// bindContext extracts the callback's context from ctx. A Variant context
// is copied whole. A Variant storing exactly the pointer type the callback
// declares is passed through, so mutations land in the shared value.
// Anything else is copied into a typed local.
func bindContext(s *shape.Shape, ctx *variant.Variant) (boundContext, error) {
	if s.Context == variantType {
		local := reflect.New(variantType)
		*local.Interface().(*variant.Variant) = *ctx
		if s.ByRefContext {
			return boundContext{in: local, local: local}, nil
		}
		return boundContext{in: local.Elem()}, nil
	}

	payload := ctx.Interface()
	if payload == nil {
		return boundContext{}, contextCastError(s, "<empty>")
	}
	rv := reflect.ValueOf(payload)
	pt := rv.Type()

	if s.ByRefContext && pt.Kind() == reflect.Ptr && pt.Elem() == s.Context {
		return boundContext{in: rv}, nil
	}
	if pt != s.Context && (s.Context.Kind() != reflect.Interface || !pt.Implements(s.Context)) {
		return boundContext{}, contextCastError(s, pt.String())
	}

	local := reflect.New(s.Context)
	local.Elem().Set(rv)
	if s.ByRefContext {
		return boundContext{in: local, local: local}, nil
	}
	return boundContext{in: local.Elem()}, nil
}

// commit writes a by-reference context back into ctx under WriteBack.
func (b boundContext) commit(s *shape.Shape, ctx *variant.Variant, policy closureruntime.MutationPolicy) error {
	if !s.ByRefContext || policy != closureruntime.WriteBack || !b.local.IsValid() {
		return nil
	}
	if s.Context == variantType {
		*ctx = *b.local.Interface().(*variant.Variant)
		return nil
	}
	return ctx.SetValue(b.local.Elem().Interface())
}

func contextCastError(s *shape.Shape, have string) *errors.Error {
	return errors.New(errors.PhaseInvoke, errors.KindCast).
		Path(s.Func.String(), "context").
		GoType(have).
		Want(s.Context.String()).
		Detail("context does not hold the callback's context type").
		Build()
}

// checkCall validates the per-call inputs every thunk shares.
func checkCall(s *shape.Shape, fn any, ctx *variant.Variant) error {
	if ctx == nil {
		return errors.NullArgument(errors.PhaseInvoke, "*variant.Variant")
	}
	if ft := reflect.TypeOf(fn); ft != s.Func {
		have := "<nil>"
		if ft != nil {
			have = ft.String()
		}
		return errors.Cast(errors.PhaseInvoke, have, s.Func.String())
	}
	return nil
}

// buildReflect builds a thunk that calls through reflect.Value.Call.
func buildReflect[A, R any](s *shape.Shape) Invoker[A, R] {
	if s.Multicast {
		return buildMulticast[A, R](s)
	}
	return func(fn any, ctx *variant.Variant, policy closureruntime.MutationPolicy, arg *A) (R, error) {
		var zero R
		if err := checkCall(s, fn, ctx); err != nil {
			return zero, err
		}
		if arg == nil {
			arg = new(A)
		}
		b, err := bindContext(s, ctx)
		if err != nil {
			return zero, err
		}
		r, err := callReflect[A, R](s, reflect.ValueOf(fn), b.in, arg)
		if err != nil {
			return r, err
		}
		return r, b.commit(s, ctx, policy)
	}
}

// buildMulticast builds a thunk that extracts the context once, calls every
// handler in order against it and writes back once.
func buildMulticast[A, R any](s *shape.Shape) Invoker[A, R] {
	return func(fn any, ctx *variant.Variant, policy closureruntime.MutationPolicy, arg *A) (R, error) {
		var result R
		if err := checkCall(s, fn, ctx); err != nil {
			return result, err
		}
		m := fn.(shape.Multicaster)
		handlers := m.HandlerList()
		if len(handlers) == 0 {
			return result, nil
		}
		if arg == nil {
			arg = new(A)
		}
		b, err := bindContext(s, ctx)
		if err != nil {
			return result, err
		}

		var errs error
		for _, h := range handlers {
			r, err := callReflect[A, R](s, reflect.ValueOf(h), b.in, arg)
			if err != nil {
				if !m.ContinuesOnError() {
					return r, err
				}
				errs = multierr.Append(errs, err)
				continue
			}
			result = r
		}
		if errs != nil {
			return result, errs
		}
		return result, b.commit(s, ctx, policy)
	}
}

func callReflect[A, R any](s *shape.Shape, fv reflect.Value, ctxIn reflect.Value, arg *A) (R, error) {
	var r R

	n := 1
	if s.HasArg {
		n = 2
	}
	buf := getArgs(n)
	defer putArgs(buf)

	args := *buf
	args[0] = ctxIn
	if s.HasArg {
		av := reflect.ValueOf(arg)
		if !s.ByRefArg {
			av = av.Elem()
		}
		args[1] = av
	}

	out := fv.Call(args)

	if s.HasReturn {
		reflect.ValueOf(&r).Elem().Set(out[0])
	}
	if s.ReturnsError {
		if e := out[len(out)-1]; !e.IsNil() {
			return r, e.Interface().(error)
		}
	}
	return r, nil
}
