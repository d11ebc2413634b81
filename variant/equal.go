package variant

import (
	"encoding/binary"
	"hash/maphash"
	"math"
	"reflect"
	"sync"
	"unsafe"

	"github.com/cockroachdb/apd/v3"
	"github.com/zeebo/xxh3"
)

var hashSeed = maphash.MakeSeed()

// equalMethods caches, per payload type, the payload's own Equal method or
// an invalid Value when it has none.
var equalMethods sync.Map // reflect.Type -> reflect.Value

// equalMethod returns rt's method Equal(rt) bool, or Equal(I) bool for an
// interface I that rt implements, as a func taking the receiver first.
func equalMethod(rt reflect.Type) (reflect.Value, bool) {
	if cached, ok := equalMethods.Load(rt); ok {
		fn := cached.(reflect.Value)
		return fn, fn.IsValid()
	}

	var fn reflect.Value
	if m, ok := rt.MethodByName("Equal"); ok {
		mt := m.Type // receiver is In(0)
		if mt.NumIn() == 2 && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Bool {
			in := mt.In(1)
			if in == rt || (in.Kind() == reflect.Interface && rt.Implements(in)) {
				fn = m.Func
			}
		}
	}
	equalMethods.Store(rt, fn)
	return fn, fn.IsValid()
}

// eface mirrors the runtime layout of an empty interface.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// sameBox reports whether a and b are the same interface value: same
// dynamic type and same data word.
func sameBox(a, b any) bool {
	ea := (*eface)(unsafe.Pointer(&a))
	eb := (*eface)(unsafe.Pointer(&b))
	return ea.typ == eb.typ && ea.data == eb.data
}

// Equal reports whether v and o have the same tag and equal payloads.
// Floats compare numerically with NaN equal to NaN. References compare by
// value, not identity.
func (v Variant) Equal(o Variant) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case TagEmpty:
		return true
	case TagFloat32:
		a, b := math.Float32frombits(uint32(v.bits)), math.Float32frombits(uint32(o.bits))
		return a == b || (a != a && b != b)
	case TagFloat64:
		a, b := math.Float64frombits(v.bits), math.Float64frombits(o.bits)
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	case TagDecimal:
		return decimalEqual(v.ref.(*apd.Decimal), o.ref.(*apd.Decimal))
	case TagReference:
		return refEqual(v.ref, o.ref)
	default:
		return v.bits == o.bits
	}
}

func decimalEqual(a, b *apd.Decimal) bool {
	if a.Form == apd.Finite && b.Form == apd.Finite {
		return a.Cmp(b) == 0
	}
	return a.Form == b.Form && a.Negative == b.Negative
}

func refEqual(a, b any) bool {
	rt := reflect.TypeOf(a)
	if rt != reflect.TypeOf(b) {
		return false
	}
	if sameBox(a, b) {
		return true
	}
	if eq, ok := equalMethod(rt); ok {
		out := eq.Call([]reflect.Value{reflect.ValueOf(a), reflect.ValueOf(b)})
		return out[0].Bool()
	}
	if rt.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	// Comparable types can still hold non-comparable values in interface fields.
	if reflect.ValueOf(a).Comparable() && reflect.ValueOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Hash returns a hash consistent with Equal.
func (v Variant) Hash() uint64 {
	var buf [9]byte
	buf[0] = byte(v.tag)

	switch v.tag {
	case TagEmpty:
		return xxh3.Hash(buf[:1])
	case TagFloat32:
		f := math.Float32frombits(uint32(v.bits))
		binary.LittleEndian.PutUint64(buf[1:], uint64(math.Float32bits(normalizeFloat32(f))))
	case TagFloat64:
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(normalizeFloat64(math.Float64frombits(v.bits))))
	case TagDecimal:
		return xxh3.HashStringSeed(decimalKey(v.ref.(*apd.Decimal)), uint64(TagDecimal))
	case TagReference:
		return refHash(v.ref)
	default:
		binary.LittleEndian.PutUint64(buf[1:], v.bits)
	}
	return xxh3.Hash(buf[:])
}

func normalizeFloat32(f float32) float32 {
	if f != f {
		return float32(math.NaN())
	}
	if f == 0 {
		return 0
	}
	return f
}

func normalizeFloat64(f float64) float64 {
	if math.IsNaN(f) {
		return math.NaN()
	}
	if f == 0 {
		return 0
	}
	return f
}

// decimalKey renders d so that numerically equal decimals share a key.
func decimalKey(d *apd.Decimal) string {
	if d.Form != apd.Finite {
		return d.String()
	}
	if d.IsZero() {
		return "0"
	}
	var r apd.Decimal
	r.Reduce(d)
	return r.String()
}

func refHash(ref any) uint64 {
	rt := reflect.TypeOf(ref)
	h := xxh3.HashStringSeed(rt.String(), uint64(TagReference))
	if _, ok := equalMethod(rt); ok {
		// Custom equality may equate values that differ structurally.
		return h
	}
	switch x := ref.(type) {
	case string:
		return xxh3.HashStringSeed(x, h)
	case []byte:
		return xxh3.HashSeed(x, h)
	}
	if reflect.ValueOf(ref).Comparable() {
		return h ^ maphash.Comparable(hashSeed, ref)
	}
	return h
}
