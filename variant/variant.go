package variant

import (
	"fmt"
	"math"
	"reflect"

	"github.com/cockroachdb/apd/v3"

	"github.com/wippyai/closure-runtime/errors"
)

// Variant holds one scalar inline or a boxed reference.
//
// Scalars live in a 64-bit buffer, decimals and references in a separate
// slot. The tag always names the populated representation. The zero
// Variant is empty.
type Variant struct {
	ref  any
	bits uint64
	tag  Tag
}

// From builds a Variant holding value. Nil references are rejected.
func From[T any](value T) (Variant, error) {
	var v Variant
	if err := v.SetValue(any(value)); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// MustFrom is like From but panics on a nil reference.
func MustFrom[T any](value T) Variant {
	v, err := From(value)
	if err != nil {
		panic(err)
	}
	return v
}

// FromValue builds a Variant from a dynamically typed value.
func FromValue(value any) (Variant, error) {
	var v Variant
	if err := v.SetValue(value); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// Set overwrites v with value. On error v is left unchanged.
func Set[T any](v *Variant, value T) error {
	return v.SetValue(any(value))
}

// SetValue overwrites v with the dynamically typed value. Scalar Go types
// are stored inline; a Variant value is copied as is; anything else is stored
// as a reference and must not be nil.
func (v *Variant) SetValue(value any) error {
	switch x := value.(type) {
	case bool:
		var b uint64
		if x {
			b = 1
		}
		v.setScalar(TagBool, b)
	case Char:
		v.setScalar(TagChar, uint64(int64(x)))
	case int8:
		v.setScalar(TagInt8, uint64(int64(x)))
	case int16:
		v.setScalar(TagInt16, uint64(int64(x)))
	case int32:
		v.setScalar(TagInt32, uint64(int64(x)))
	case int64:
		v.setScalar(TagInt64, uint64(x))
	case int:
		v.setScalar(TagInt, uint64(int64(x)))
	case uint8:
		v.setScalar(TagUint8, uint64(x))
	case uint16:
		v.setScalar(TagUint16, uint64(x))
	case uint32:
		v.setScalar(TagUint32, uint64(x))
	case uint64:
		v.setScalar(TagUint64, x)
	case uint:
		v.setScalar(TagUint, uint64(x))
	case float32:
		v.setScalar(TagFloat32, uint64(math.Float32bits(x)))
	case float64:
		v.setScalar(TagFloat64, math.Float64bits(x))
	case apd.Decimal:
		d := new(apd.Decimal).Set(&x)
		v.ref, v.bits, v.tag = d, 0, TagDecimal
	case Variant:
		*v = x
	default:
		if isNilRef(value) {
			return errors.NullArgument(errors.PhaseVariant, typeName(value))
		}
		v.ref, v.bits, v.tag = value, 0, TagReference
	}
	return nil
}

func (v *Variant) setScalar(tag Tag, bits uint64) {
	v.ref, v.bits, v.tag = nil, bits, tag
}

// Is reports whether the active payload is a T. References match when the
// stored value's dynamic type is T or, for interface T, implements it.
func Is[T any](v Variant) bool {
	switch any((*T)(nil)).(type) {
	case *bool:
		return v.tag == TagBool
	case *Char:
		return v.tag == TagChar
	case *int8:
		return v.tag == TagInt8
	case *int16:
		return v.tag == TagInt16
	case *int32:
		return v.tag == TagInt32
	case *int64:
		return v.tag == TagInt64
	case *int:
		return v.tag == TagInt
	case *uint8:
		return v.tag == TagUint8
	case *uint16:
		return v.tag == TagUint16
	case *uint32:
		return v.tag == TagUint32
	case *uint64:
		return v.tag == TagUint64
	case *uint:
		return v.tag == TagUint
	case *float32:
		return v.tag == TagFloat32
	case *float64:
		return v.tag == TagFloat64
	case *apd.Decimal:
		return v.tag == TagDecimal
	case *Variant:
		return true
	}
	if v.tag == TagEmpty {
		return false
	}
	_, ok := v.Interface().(T)
	return ok
}

// As returns the payload as a T, or a cast error when the active payload is
// not a T.
func As[T any](v Variant) (T, error) {
	var out T
	ok := true
	switch p := any(&out).(type) {
	case *bool:
		ok = v.tag == TagBool
		*p = v.bits != 0
	case *Char:
		ok = v.tag == TagChar
		*p = Char(int32(v.bits))
	case *int8:
		ok = v.tag == TagInt8
		*p = int8(v.bits)
	case *int16:
		ok = v.tag == TagInt16
		*p = int16(v.bits)
	case *int32:
		ok = v.tag == TagInt32
		*p = int32(v.bits)
	case *int64:
		ok = v.tag == TagInt64
		*p = int64(v.bits)
	case *int:
		ok = v.tag == TagInt
		*p = int(int64(v.bits))
	case *uint8:
		ok = v.tag == TagUint8
		*p = uint8(v.bits)
	case *uint16:
		ok = v.tag == TagUint16
		*p = uint16(v.bits)
	case *uint32:
		ok = v.tag == TagUint32
		*p = uint32(v.bits)
	case *uint64:
		ok = v.tag == TagUint64
		*p = v.bits
	case *uint:
		ok = v.tag == TagUint
		*p = uint(v.bits)
	case *float32:
		ok = v.tag == TagFloat32
		*p = math.Float32frombits(uint32(v.bits))
	case *float64:
		ok = v.tag == TagFloat64
		*p = math.Float64frombits(v.bits)
	case *apd.Decimal:
		ok = v.tag == TagDecimal
		if ok {
			p.Set(v.ref.(*apd.Decimal))
		}
	case *Variant:
		*p = v
	default:
		var x any
		if v.tag != TagEmpty {
			x = v.Interface()
		}
		out, ok = x.(T)
	}
	if !ok {
		var zero T
		return zero, castError(v, reflect.TypeFor[T]())
	}
	return out, nil
}

// MustAs is like As but panics with the cast error.
func MustAs[T any](v Variant) T {
	out, err := As[T](v)
	if err != nil {
		panic(err)
	}
	return out
}

func castError(v Variant, want reflect.Type) *errors.Error {
	have := "<empty>"
	if t := v.Type(); t != nil {
		have = t.String()
	}
	return errors.Cast(errors.PhaseVariant, have, want.String())
}

// Tag returns the active tag.
func (v Variant) Tag() Tag {
	return v.tag
}

// IsEmpty reports whether v holds nothing.
func (v Variant) IsEmpty() bool {
	return v.tag == TagEmpty
}

// Type returns the Go type of the active payload: the scalar type for
// scalar tags, apd.Decimal for decimals, the dynamic type for references
// and nil when empty.
func (v Variant) Type() reflect.Type {
	if v.tag == TagReference {
		return reflect.TypeOf(v.ref)
	}
	return TypeOf(v.tag)
}

// Interface returns the payload boxed in an interface. Decimals are
// returned as apd.Decimal copies.
func (v Variant) Interface() any {
	switch v.tag {
	case TagBool:
		return v.bits != 0
	case TagChar:
		return Char(int32(v.bits))
	case TagInt8:
		return int8(v.bits)
	case TagInt16:
		return int16(v.bits)
	case TagInt32:
		return int32(v.bits)
	case TagInt64:
		return int64(v.bits)
	case TagInt:
		return int(int64(v.bits))
	case TagUint8:
		return uint8(v.bits)
	case TagUint16:
		return uint16(v.bits)
	case TagUint32:
		return uint32(v.bits)
	case TagUint64:
		return v.bits
	case TagUint:
		return uint(v.bits)
	case TagFloat32:
		return math.Float32frombits(uint32(v.bits))
	case TagFloat64:
		return math.Float64frombits(v.bits)
	case TagDecimal:
		var d apd.Decimal
		d.Set(v.ref.(*apd.Decimal))
		return d
	case TagReference:
		return v.ref
	default:
		return nil
	}
}

func (v Variant) String() string {
	switch v.tag {
	case TagEmpty:
		return "<empty>"
	case TagChar:
		return fmt.Sprintf("%q", rune(int32(v.bits)))
	case TagDecimal:
		return v.ref.(*apd.Decimal).String()
	default:
		return fmt.Sprint(v.Interface())
	}
}

// GoString makes %#v show the tag next to the payload.
func (v Variant) GoString() string {
	return fmt.Sprintf("variant.Variant{%s: %s}", v.tag, v.String())
}

func isNilRef(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

func typeName(value any) string {
	if value == nil {
		return "<nil>"
	}
	return reflect.TypeOf(value).String()
}
