package variant

import (
	"reflect"

	"github.com/cockroachdb/apd/v3"
)

// Tag identifies which representation of a Variant is populated.
type Tag uint8

const (
	TagEmpty Tag = iota
	TagBool
	TagChar
	TagInt8
	TagInt16
	TagInt32
	TagInt64
	TagInt
	TagUint8
	TagUint16
	TagUint32
	TagUint64
	TagUint
	TagFloat32
	TagFloat64
	TagDecimal
	TagReference

	tagCount
)

// Char is a character payload. It is distinct from int32 so that a Variant
// can tell characters from 32-bit integers.
type Char rune

var tagNames = [tagCount]string{
	TagEmpty:     "empty",
	TagBool:      "bool",
	TagChar:      "char",
	TagInt8:      "int8",
	TagInt16:     "int16",
	TagInt32:     "int32",
	TagInt64:     "int64",
	TagInt:       "int",
	TagUint8:     "uint8",
	TagUint16:    "uint16",
	TagUint32:    "uint32",
	TagUint64:    "uint64",
	TagUint:      "uint",
	TagFloat32:   "float32",
	TagFloat64:   "float64",
	TagDecimal:   "decimal",
	TagReference: "reference",
}

// tagTypes maps scalar tags to their Go types. Empty and Reference have none.
var tagTypes = [tagCount]reflect.Type{
	TagBool:    reflect.TypeFor[bool](),
	TagChar:    reflect.TypeFor[Char](),
	TagInt8:    reflect.TypeFor[int8](),
	TagInt16:   reflect.TypeFor[int16](),
	TagInt32:   reflect.TypeFor[int32](),
	TagInt64:   reflect.TypeFor[int64](),
	TagInt:     reflect.TypeFor[int](),
	TagUint8:   reflect.TypeFor[uint8](),
	TagUint16:  reflect.TypeFor[uint16](),
	TagUint32:  reflect.TypeFor[uint32](),
	TagUint64:  reflect.TypeFor[uint64](),
	TagUint:    reflect.TypeFor[uint](),
	TagFloat32: reflect.TypeFor[float32](),
	TagFloat64: reflect.TypeFor[float64](),
	TagDecimal: reflect.TypeFor[apd.Decimal](),
}

func (t Tag) String() string {
	if t < tagCount {
		return tagNames[t]
	}
	return "invalid"
}

// IsScalar reports whether t stores its payload inline.
func (t Tag) IsScalar() bool {
	return t > TagEmpty && t < TagDecimal
}

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	return t < tagCount
}

// TagOf returns the tag a value of type rt is stored under.
func TagOf(rt reflect.Type) Tag {
	if rt == nil {
		return TagEmpty
	}
	for tag := TagBool; tag <= TagDecimal; tag++ {
		if tagTypes[tag] == rt {
			return tag
		}
	}
	return TagReference
}

// TypeOf returns the Go type of a scalar or decimal tag, nil otherwise.
func TypeOf(t Tag) reflect.Type {
	if t < tagCount {
		return tagTypes[t]
	}
	return nil
}
