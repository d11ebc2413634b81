// Package closureruntime provides type-erased closures: a callback bundled
// with captured state that can be invoked repeatedly without knowing the
// callback's concrete type at the call site.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	closureruntime/      Root package with MutationPolicy, ErrorPolicy and Void
//	├── variant/         Tagged union holding scalars inline and references boxed
//	├── shape/           Classification of Go func types into callback shapes
//	├── invoker/         Per-type thunk cache, reflective and precompiled thunks
//	├── closure/         Closure wrapper, multicast lists and TryInvoke results
//	└── errors/          Structured error types for debugging
//
// Data flows from the closure through the invoker cache, which classifies a
// callback type on its first miss and builds a thunk that reads and writes
// the Variant context:
//
//	Closure ──► invoker.Registry ──► shape.Classify (miss only)
//	   │               │
//	   └── Variant ◄── thunk
//
// # Quick Start
//
//	c := closure.New[int, int](variant.MustFrom(10), func(ctx int, a int) int {
//		return ctx * a
//	}, closureruntime.WriteBack)
//
//	v, err := c.Invoke(3) // 30
//
// A callback taking its context by pointer may mutate it. Under WriteBack
// the change is stored back into the closure's context after the call:
//
//	inc := closure.New[struct{}, struct{}](variant.MustFrom(5), func(ctx *int) {
//		*ctx += 10
//	}, closureruntime.WriteBack)
//	inc.Call() // context is now 15
//
// # Error Handling
//
// All packages return *errors.Error values carrying a phase and a kind:
//
//	var rtErr *errors.Error
//	if errors.As(err, &rtErr) {
//		fmt.Println(rtErr.Phase, rtErr.Kind)
//	}
//
// Shape and build-phase errors are caller programming errors; TryInvoke
// never suppresses them under HandleExpected.
//
// # Logging
//
// The invoker and closure packages log through zap and are silent by
// default. Use invoker.SetLogger, closure.SetLogger or
// invoker.Config.Logger to enable output.
package closureruntime
