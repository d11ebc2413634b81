package closure

import (
	"reflect"
	"slices"
	"sync"

	"github.com/wippyai/closure-runtime/shape"
)

// Multicast is an ordered list of handlers of one func type, invoked in
// registration order against a shared context. Use it as a Closure
// callback. The closure's return value is the last handler's.
//
// By default the first failing handler stops the rest; with
// SetContinueOnError every handler runs and the errors are combined.
type Multicast[F any] struct {
	mu              sync.RWMutex
	handlers        []F
	continueOnError bool
}

// NewMulticast creates a list holding handlers. F must be a valid
// callback shape.
func NewMulticast[F any](handlers ...F) (*Multicast[F], error) {
	if _, err := shape.ClassifyType(reflect.TypeFor[F]()); err != nil {
		return nil, err
	}
	m := &Multicast[F]{}
	for _, h := range handlers {
		m.Add(h)
	}
	return m, nil
}

// Add appends h. Nil handlers are ignored.
func (m *Multicast[F]) Add(h F) {
	if isEmpty(any(h)) {
		return
	}
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

// Remove removes the last registered instance of h and reports whether one
// was found. Other instances of the same handler stay registered.
func (m *Multicast[F]) Remove(h F) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.handlers) - 1; i >= 0; i-- {
		if sameFunc(any(m.handlers[i]), any(h)) {
			m.handlers = slices.Delete(m.handlers, i, i+1)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (m *Multicast[F]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers)
}

// Handlers returns a snapshot of the handlers in invocation order.
func (m *Multicast[F]) Handlers() []F {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.handlers)
}

// SetContinueOnError selects whether a failing handler stops the rest.
func (m *Multicast[F]) SetContinueOnError(on bool) {
	m.mu.Lock()
	m.continueOnError = on
	m.mu.Unlock()
}

// HandlerType implements shape.Multicaster. It is valid on a nil receiver.
func (*Multicast[F]) HandlerType() reflect.Type {
	return reflect.TypeFor[F]()
}

// HandlerList implements shape.Multicaster.
func (m *Multicast[F]) HandlerList() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]any, len(m.handlers))
	for i, h := range m.handlers {
		out[i] = h
	}
	return out
}

// ContinuesOnError implements shape.Multicaster.
func (m *Multicast[F]) ContinuesOnError() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.continueOnError
}

// Combine returns a new list holding a's handlers followed by b's.
// Either may be nil.
func Combine[F any](a, b *Multicast[F]) *Multicast[F] {
	out := &Multicast[F]{}
	for _, m := range []*Multicast[F]{a, b} {
		if m == nil {
			continue
		}
		out.handlers = append(out.handlers, m.Handlers()...)
		if m.ContinuesOnError() {
			out.continueOnError = true
		}
	}
	return out
}

var _ shape.Multicaster = (*Multicast[func(*int)])(nil)
