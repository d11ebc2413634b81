package invoker

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	closureruntime "github.com/wippyai/closure-runtime"
	"github.com/wippyai/closure-runtime/errors"
	"github.com/wippyai/closure-runtime/shape"
	"github.com/wippyai/closure-runtime/variant"
)

// Invoker calls one concrete callback shape against a Variant context.
// The argument is always passed by pointer, whether the callback declares
// it by value or by reference. A nil arg is treated as the zero argument.
type Invoker[A, R any] func(fn any, ctx *variant.Variant, policy closureruntime.MutationPolicy, arg *A) (R, error)

// Entry is a memoized thunk together with the shape it was built for.
type Entry struct {
	Shape *shape.Shape
	// Generation is the registry generation the entry was built in.
	Generation uint64
	// Precompiled is set when the thunk came from a Precompile registration
	// instead of reflection.
	Precompiled bool

	invoker any // Invoker[A, R] for the shape's argument and return types
}

// Config holds configuration for registry creation
type Config struct {
	// Logger receives build and clear events. Nil uses the package logger.
	Logger *zap.Logger

	// DisableDedupe lets concurrent misses for one callback type build
	// independently instead of sharing a single build.
	DisableDedupe bool
}

// Stats are instrumentation counters of a registry.
type Stats struct {
	Classifications uint64
	Builds          uint64
	Hits            uint64
	Misses          uint64
	Clears          uint64
	Entries         int
}

// Registry memoizes one thunk per concrete callback type. It is safe for
// concurrent lookups, builds and clears.
type Registry struct {
	entries     sync.Map // reflect.Type -> *Entry
	precompiled sync.Map // reflect.Type -> Invoker[A, R]
	group       singleflight.Group
	log         *zap.Logger
	dedupe      bool

	generation      atomic.Uint64
	classifications atomic.Uint64
	builds          atomic.Uint64
	hits            atomic.Uint64
	misses          atomic.Uint64
	clears          atomic.Uint64
}

// NewRegistry creates an empty registry. A nil cfg uses defaults.
func NewRegistry(cfg *Config) *Registry {
	r := &Registry{dedupe: true}
	if cfg != nil {
		r.log = cfg.Logger
		r.dedupe = !cfg.DisableDedupe
	}
	return r
}

var defaultRegistry = NewRegistry(nil)

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// ClearAll drops every memoized thunk of the process-wide registry.
// Registries created with NewRegistry are cleared with their own Clear.
func ClearAll() {
	defaultRegistry.Clear()
}

func (r *Registry) logger() *zap.Logger {
	if r.log != nil {
		return r.log
	}
	return Logger()
}

// Generation increases with every Clear. Entries from older generations
// are no longer in the registry.
func (r *Registry) Generation() uint64 {
	return r.generation.Load()
}

// Clear drops all memoized thunks. Precompile registrations are kept.
// Lookups racing a Clear rebuild their entry.
func (r *Registry) Clear() {
	r.generation.Add(1)
	r.entries.Clear()
	r.clears.Add(1)
	r.logger().Debug("invoker cache cleared", zap.Uint64("generation", r.Generation()))
}

// Stats returns a snapshot of the registry counters.
func (r *Registry) Stats() Stats {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return Stats{
		Classifications: r.classifications.Load(),
		Builds:          r.builds.Load(),
		Hits:            r.hits.Load(),
		Misses:          r.misses.Load(),
		Clears:          r.clears.Load(),
		Entries:         n,
	}
}

// Lookup returns the memoized entry for a callback type without building.
func (r *Registry) Lookup(ft reflect.Type) (*Entry, bool) {
	if cached, ok := r.entries.Load(ft); ok {
		return cached.(*Entry), true
	}
	return nil, false
}

// Get returns the thunk for fn's concrete type, building and memoizing it
// on first use. A and R must be the callback's argument and return types
// (shape.Void when absent); a mismatch fails with a build-phase cast error
// before anything is invoked.
func Get[A, R any](r *Registry, fn any) (Invoker[A, R], *Entry, error) {
	if fn == nil {
		return nil, nil, errors.NullArgument(errors.PhaseBuild, "<nil>")
	}
	ft := reflect.TypeOf(fn)

	if e, ok := r.Lookup(ft); ok {
		r.hits.Add(1)
		inv, err := Typed[A, R](e)
		if err != nil {
			return nil, nil, err
		}
		if inv != nil {
			return inv, e, nil
		}
	}
	r.misses.Add(1)

	var e *Entry
	if r.dedupe {
		v, err, _ := r.group.Do(typeKey(ft), func() (any, error) {
			return build[A, R](r, fn, ft)
		})
		if err != nil {
			return nil, nil, err
		}
		e = v.(*Entry)
	} else {
		var err error
		if e, err = build[A, R](r, fn, ft); err != nil {
			return nil, nil, err
		}
	}

	inv, err := Typed[A, R](e)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		// A concurrent caller with other type arguments classified this
		// type without building; build for ours.
		if e, err = build[A, R](r, fn, ft); err != nil {
			return nil, nil, err
		}
		if inv, err = Typed[A, R](e); err != nil {
			return nil, nil, err
		}
	}
	return inv, e, nil
}

// Typed returns the entry's thunk as an Invoker[A, R]. It fails with a
// build-phase cast error when A or R do not match the entry's shape, and
// returns nil without error when the entry carries no thunk for them.
func Typed[A, R any](e *Entry) (Invoker[A, R], error) {
	if err := checkTypes(e.Shape, reflect.TypeFor[A](), reflect.TypeFor[R]()); err != nil {
		return nil, err
	}
	inv, _ := e.invoker.(Invoker[A, R])
	return inv, nil
}

func checkTypes(s *shape.Shape, arg, ret reflect.Type) error {
	if have := s.ArgType(); have != arg {
		return errors.New(errors.PhaseBuild, errors.KindCast).
			Path(s.Func.String(), "argument").
			GoType(have.String()).
			Want(arg.String()).
			Detail("requested argument type does not match callback").
			Build()
	}
	if have := s.ReturnType(); have != ret {
		return errors.New(errors.PhaseBuild, errors.KindCast).
			Path(s.Func.String(), "return").
			GoType(have.String()).
			Want(ret.String()).
			Detail("requested return type does not match callback").
			Build()
	}
	return nil
}

// build classifies fn's type and, when A and R fit the shape, builds and
// stores the thunk. Otherwise it returns an unstored entry with only the
// shape, so the caller reports the mismatch.
func build[A, R any](r *Registry, fn any, ft reflect.Type) (*Entry, error) {
	if e, ok := r.Lookup(ft); ok {
		if inv, _ := Typed[A, R](e); inv != nil {
			return e, nil
		}
	}

	gen := r.Generation()
	r.classifications.Add(1)
	s, err := shape.Classify(fn)
	if err != nil {
		return nil, err
	}

	e := &Entry{Shape: s, Generation: gen}
	if checkTypes(s, reflect.TypeFor[A](), reflect.TypeFor[R]()) != nil {
		return e, nil
	}

	if inv, ok := r.precompiled.Load(ft); ok {
		e.invoker = inv
		e.Precompiled = true
	} else {
		e.invoker = buildReflect[A, R](s)
	}
	r.builds.Add(1)

	actual, loaded := r.entries.LoadOrStore(ft, e)
	if loaded {
		// Lost a race with another build; both thunks are equivalent.
		prev := actual.(*Entry)
		if inv, _ := Typed[A, R](prev); inv != nil {
			return prev, nil
		}
		r.entries.Store(ft, e)
	}

	r.logger().Debug("invoker built",
		zap.Stringer("callback", ft),
		zap.Stringer("shape", s),
		zap.Bool("precompiled", e.Precompiled),
		zap.Uint64("generation", gen))
	return e, nil
}

// typeKey identifies a type for singleflight; distinct types never share
// a key even when their names print alike.
func typeKey(t reflect.Type) string {
	return fmt.Sprintf("%p", t)
}
