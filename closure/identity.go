package closure

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/closure-runtime/shape"
)

// eface mirrors the runtime layout of an empty interface.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// dataWord returns the interface data word. For func values it is the
// closure object, so two funcs share it only when they are the same value.
func dataWord(v any) unsafe.Pointer {
	return (*eface)(unsafe.Pointer(&v)).data
}

// sameFunc reports whether a and b are the same callback value: same
// dynamic type and same closure object.
func sameFunc(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return dataWord(a) == dataWord(b)
}

// sameCallback compares callbacks as delegates: funcs by identity,
// multicast lists by their handler sequences.
func sameCallback(a, b any) bool {
	if isEmpty(a) || isEmpty(b) {
		return isEmpty(a) && isEmpty(b)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	ma, okA := a.(shape.Multicaster)
	mb, okB := b.(shape.Multicaster)
	if okA && okB {
		ha, hb := ma.HandlerList(), mb.HandlerList()
		if len(ha) != len(hb) {
			return false
		}
		for i := range ha {
			if !sameFunc(ha[i], hb[i]) {
				return false
			}
		}
		return true
	}
	return sameFunc(a, b)
}

// isEmpty reports whether fn carries no callback: nil, a typed nil func or
// a nil multicast list.
func isEmpty(fn any) bool {
	if fn == nil {
		return true
	}
	switch rv := reflect.ValueOf(fn); rv.Kind() {
	case reflect.Func, reflect.Ptr:
		return rv.IsNil()
	}
	return false
}
