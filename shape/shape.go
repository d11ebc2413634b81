package shape

import (
	"reflect"
	"strings"

	closureruntime "github.com/wippyai/closure-runtime"
	"github.com/wippyai/closure-runtime/errors"
)

// Void stands in for an absent argument or return value.
type Void = closureruntime.Void

var (
	voidType      = reflect.TypeFor[Void]()
	errorType     = reflect.TypeFor[error]()
	multicastType = reflect.TypeFor[Multicaster]()
)

// VoidType is the reflect.Type of Void.
func VoidType() reflect.Type { return voidType }

// Multicaster is implemented by callback lists that invoke several handlers
// of one func type in order.
type Multicaster interface {
	// HandlerType returns the func type every handler has.
	HandlerType() reflect.Type
	// HandlerList returns the handlers in invocation order.
	HandlerList() []any
	// ContinuesOnError reports whether a failing handler stops the rest.
	ContinuesOnError() bool
}

// Shape is the invocation-relevant classification of a callback type.
type Shape struct {
	// Func is the concrete callback type. For multicast callbacks it is the
	// list type, and Handler holds the element func type.
	Func    reflect.Type
	Handler reflect.Type

	Context      reflect.Type
	ByRefContext bool

	HasArg   bool
	Arg      reflect.Type
	ByRefArg bool

	HasReturn    bool
	Return       reflect.Type
	ReturnsError bool

	Multicast bool
}

// ArgType returns the argument type, or Void when the shape takes none.
func (s *Shape) ArgType() reflect.Type {
	if s.HasArg {
		return s.Arg
	}
	return voidType
}

// ReturnType returns the return type, or Void when the shape returns none.
func (s *Shape) ReturnType() reflect.Type {
	if s.HasReturn {
		return s.Return
	}
	return voidType
}

// Matches reports whether the shape has exactly the given context, argument
// and return types. Void stands for absent argument or return.
func (s *Shape) Matches(ctx, arg, ret reflect.Type) bool {
	return s.Context == ctx && s.ArgType() == arg && s.ReturnType() == ret
}

func (s *Shape) String() string {
	var b strings.Builder
	if s.Multicast {
		b.WriteString("multicast ")
	}
	b.WriteString("shape(ctx ")
	if s.ByRefContext {
		b.WriteString("&")
	}
	b.WriteString(s.Context.String())
	if s.HasArg {
		b.WriteString(", arg ")
		if s.ByRefArg {
			b.WriteString("&")
		}
		b.WriteString(s.Arg.String())
	}
	b.WriteString(")")
	if s.HasReturn {
		b.WriteString(" -> ")
		b.WriteString(s.Return.String())
	}
	if s.ReturnsError {
		b.WriteString(" !error")
	}
	return b.String()
}

// Classify derives the shape of fn's concrete type.
func Classify(fn any) (*Shape, error) {
	if fn == nil {
		return nil, errors.NullArgument(errors.PhaseShape, "<nil>")
	}
	if m, ok := fn.(Multicaster); ok {
		return classifyMulticast(reflect.TypeOf(fn), m.HandlerType())
	}
	return ClassifyType(reflect.TypeOf(fn))
}

// ClassifyType derives the shape of a func type, or of a Multicaster type
// whose zero value reports its handler type.
func ClassifyType(ft reflect.Type) (*Shape, error) {
	if ft == nil {
		return nil, errors.NullArgument(errors.PhaseShape, "<nil>")
	}
	if ft.Kind() != reflect.Func && ft.Implements(multicastType) {
		zero := reflect.New(ft).Elem().Interface().(Multicaster)
		return classifyMulticast(ft, zero.HandlerType())
	}
	return classifyFunc(ft)
}

func classifyMulticast(listType, handlerType reflect.Type) (*Shape, error) {
	s, err := classifyFunc(handlerType)
	if err != nil {
		return nil, err
	}
	s.Func = listType
	s.Handler = handlerType
	s.Multicast = true
	return s, nil
}

func classifyFunc(ft reflect.Type) (*Shape, error) {
	name := ft.String()

	if ft.Kind() != reflect.Func {
		return nil, errors.InvalidShape(name, "callback must be a function")
	}
	if ft.IsVariadic() {
		return nil, errors.InvalidShape(name, "variadic callbacks are not supported")
	}

	s := &Shape{Func: ft, Handler: ft}

	switch ft.NumIn() {
	case 0:
		return nil, errors.InvalidShape(name, "no context parameter")
	case 1, 2:
	default:
		return nil, errors.InvalidShape(name, "at most one argument after the context is supported")
	}

	s.Context, s.ByRefContext = paramType(ft.In(0))
	if ft.NumIn() == 2 {
		s.HasArg = true
		s.Arg, s.ByRefArg = paramType(ft.In(1))
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			s.ReturnsError = true
		} else {
			s.HasReturn = true
			s.Return = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.InvalidShape(name, "second result must be error")
		}
		s.HasReturn = true
		s.Return = ft.Out(0)
		s.ReturnsError = true
	default:
		return nil, errors.InvalidShape(name, "too many results")
	}

	return s, nil
}

// paramType strips one pointer level: a pointer parameter is by reference.
func paramType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Ptr {
		return t.Elem(), true
	}
	return t, false
}
