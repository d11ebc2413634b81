// Package closure couples a callback with captured state held in a Variant.
//
// A Closure holds a context, a callback whose first parameter receives
// that context and a mutation policy. Callbacks take the context by value
// or by pointer, optionally one argument (again by value or by pointer),
// and return nothing, a value, an error or a value and an error:
//
//	c := closure.New[int, int](variant.MustFrom(10), func(ctx int, a int) int {
//		return ctx * a
//	}, closureruntime.WriteBack)
//	v, err := c.Invoke(3) // 30
//
// A pointer context is written back into the Variant after each call under
// WriteBack and discarded under Discard.
//
// # Resolution
//
// The thunk for a callback type is built once by the invoker registry and
// shared. Each closure keeps the last resolved entry and reuses it until
// the registry is cleared.
//
// # Empty Callbacks
//
// Invoke and Call do nothing on a closure without a callback. InvokeRef
// fails with an empty-callback error.
//
// # Multicast
//
// A *Multicast groups handlers of one func type. The closure calls them in
// registration order against one context and returns the last result.
package closure
