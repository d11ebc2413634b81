package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseShape   Phase = "shape"   // callback shape classification
	PhaseBuild   Phase = "build"   // invoker lookup and thunk construction
	PhaseInvoke  Phase = "invoke"  // callback invocation
	PhaseVariant Phase = "variant" // typed variant access
	PhaseCodec   Phase = "codec"   // variant wire encoding
)

// Kind categorizes the error
type Kind string

const (
	KindCast          Kind = "cast"
	KindNullArgument  Kind = "null_argument"
	KindInvalidShape  Kind = "invalid_shape"
	KindEmptyCallback Kind = "empty_callback"
	KindPanic         Kind = "panic"
	KindUnsupported   Kind = "unsupported"
	KindInvalidData   Kind = "invalid_data"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Want   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Want != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Want != "" {
			b.WriteString("have ")
			b.WriteString(e.GoType)
			b.WriteString(", want ")
			b.WriteString(e.Want)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("want ")
			b.WriteString(e.Want)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Want != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks on Kind alone.
var (
	ErrCast          = &Error{Kind: KindCast}
	ErrNullArgument  = &Error{Kind: KindNullArgument}
	ErrInvalidShape  = &Error{Kind: KindInvalidShape}
	ErrEmptyCallback = &Error{Kind: KindEmptyCallback}
	ErrPanic         = &Error{Kind: KindPanic}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the offending Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Want sets the expected type name
func (b *Builder) Want(t string) *Builder {
	b.err.Want = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Cast creates a cast error: a value of type have was requested as want
func Cast(phase Phase, have, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCast,
		GoType: have,
		Want:   want,
	}
}

// NullArgument creates a null-argument error for a nil reference of goType
func NullArgument(phase Phase, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullArgument,
		GoType: goType,
		Detail: "nil reference",
	}
}

// InvalidShape creates an invalid callback shape error
func InvalidShape(goType, detail string) *Error {
	return &Error{
		Phase:  PhaseShape,
		Kind:   KindInvalidShape,
		GoType: goType,
		Detail: detail,
	}
}

// EmptyCallback creates an error for invoking a wrapper without a callback
func EmptyCallback(entry string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindEmptyCallback,
		Detail: fmt.Sprintf("%s: no callback attached", entry),
	}
}

// Unsupported creates an unsupported operation error for goType
func Unsupported(phase Phase, goType, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		GoType: goType,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Panic wraps a recovered panic value. Panics carrying an error keep it as Cause.
func Panic(v any) *Error {
	e := &Error{
		Phase: PhaseInvoke,
		Kind:  KindPanic,
		Value: v,
	}
	if err, ok := v.(error); ok {
		e.Cause = err
		e.Detail = "callback panicked"
	} else {
		e.Detail = fmt.Sprintf("callback panicked: %v", v)
	}
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// IsConstruction reports whether err (or anything it wraps) is a shape or
// build-phase error. These are caller programming errors, not data conditions.
func IsConstruction(err error) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Phase == PhaseShape || e.Phase == PhaseBuild {
			return true
		}
		err = e.Cause
	}
	return false
}
