// Package errors provides structured error types for the closure runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: offending and expected Go types, the
// offending value, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBuild, errors.KindCast).
//		GoType("func(*int, string)").
//		Want("argument int").
//		Detail("requested argument type does not match callback").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Cast(errors.PhaseVariant, "int32", "string")
//	err := errors.NullArgument(errors.PhaseVariant, "*bytes.Buffer")
//
// Shape and build-phase errors are construction errors: they describe a
// mismatch between a callback and the types it is used with, and
// [IsConstruction] reports them so resilient invocation paths can refuse to
// swallow them.
//
// All errors implement the standard error interface and support errors.Is/As.
// A target with an empty Phase, such as [ErrCast], matches on Kind alone.
package errors
