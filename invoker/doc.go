// Package invoker builds and memoizes the thunks that call type-erased
// callbacks against a Variant context.
//
// A thunk is built once per concrete callback type and shared by every
// closure holding a callback of that type:
//
//	Closure ──► Registry.Get ──► cache hit ──► Invoker[A, R]
//	                  │
//	                  └─ miss ──► shape.Classify ──► build ──► store
//
// # Thunks
//
// Every thunk has the signature
//
//	func(fn any, ctx *variant.Variant, policy MutationPolicy, arg *A) (R, error)
//
// The argument travels by pointer whatever the callback declares, so
// by-value and by-reference shapes share one calling convention. A context
// passed by reference is written back into the Variant after a successful
// call when the policy is WriteBack.
//
// # Precompiled Thunks
//
// Reflective thunks go through reflect.Value.Call. Hot callback types can
// be registered with PrecompileAction, PrecompileActionArg, PrecompileFunc
// and PrecompileFuncArg, which install statically typed thunks instead:
//
//	invoker.PrecompileFuncArg[int, int, int](invoker.Default())
//
// Registrations outlive Clear; only memoized entries are dropped.
package invoker
