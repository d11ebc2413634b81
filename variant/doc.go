// Package variant provides Variant, a tagged-union value container.
//
// A Variant stores one of the enumerated scalar kinds inline, without
// boxing, or a boxed reference:
//
//	Tag          Go type        Storage
//	────────────────────────────────────────
//	bool         bool           inline
//	char         variant.Char   inline
//	int8..int64  int8..int64    inline
//	int          int            inline
//	uint8..      uint8..uint64  inline
//	uint         uint           inline
//	float32/64   float32/64     inline (bits)
//	decimal      apd.Decimal    boxed copy
//	reference    anything else  boxed, never nil
//
// Typed access goes through package functions, since methods cannot take
// type parameters:
//
//	v, err := variant.From(42)      // TagInt
//	n, err := variant.As[int](v)    // 42
//	variant.Is[int64](v)            // false
//	err = variant.Set(&v, "hello")  // TagReference
//
// Named types such as `type Celsius float64` are references: the tag
// follows the exact Go type, not the underlying kind.
//
// Setting a nil pointer, map, slice, func, chan or interface fails with an
// errors.KindNullArgument error and leaves the Variant unchanged.
//
// Variants compare by tag and payload (see [Variant.Equal]) and hash
// consistently with that equality. A reference payload whose type has a
// method Equal(T) bool, such as time.Time, compares through that method.
// Variants encode to CBOR as [tag, payload].
package variant
