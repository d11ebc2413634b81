package invoker

import (
	"reflect"
	"sync"
)

// Callbacks take at most a context and one argument.
const maxCallArgs = 2

var argsPool = sync.Pool{
	New: func() any {
		buf := make([]reflect.Value, maxCallArgs)
		return &buf
	},
}

func getArgs(n int) *[]reflect.Value {
	buf := argsPool.Get().(*[]reflect.Value)
	*buf = (*buf)[:n]
	return buf
}

func putArgs(buf *[]reflect.Value) {
	// Clear elements so pooled slices do not retain callback values.
	var zero reflect.Value
	s := (*buf)[:cap(*buf)]
	for i := range s {
		s[i] = zero
	}
	argsPool.Put(buf)
}
