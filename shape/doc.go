// Package shape classifies callback func types.
//
// A shape records the context type, the optional argument type, the
// optional return type and which parameters are passed by reference. A
// pointer parameter is by reference; its element type is the context or
// argument type:
//
//	func(ctx *int)                   ctx &int
//	func(ctx int, arg string) bool   ctx int, arg string -> bool
//	func(ctx *Acc, arg *Item) error  ctx &Acc, arg &Item !error
//
// The first parameter is always the context. Callbacks without parameters
// have no discoverable context type and are rejected with an
// errors.KindInvalidShape error, as are variadic callbacks and callbacks
// with more than one argument.
//
// Classification is pure; the invoker package memoizes it per type.
package shape
