// Package state holds the list managers behind the browser: committed lists
// with an optimistic projection, the upload queue and the folder breadcrumb.
package state

import (
	"sync"

	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/reducer"
)

// ChangeFunc is called after a manager's visible state changed
type ChangeFunc func()

// List owns one committed list and an optimistic projection of it.
// The projection is rebuilt from the committed list on every committed
// dispatch and advanced on its own by optimistic dispatches.
type List[T model.Record] struct {
	mu         sync.RWMutex
	committed  []T
	optimistic []T
	onChange   ChangeFunc
}

// NewList creates a list manager seeded with initial records
func NewList[T model.Record](initial ...T) *List[T] {
	l := &List[T]{}
	l.committed = reducer.Reduce(nil, reducer.Replace(initial...))
	l.optimistic = l.committed
	return l
}

// OnChange registers fn to be called after every dispatch
func (l *List[T]) OnChange(fn ChangeFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Items returns the current optimistic projection
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return clone(l.optimistic)
}

// Committed returns the confirmed list
func (l *List[T]) Committed() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return clone(l.committed)
}

// Dispatch applies action to the committed list and resets the projection to it
func (l *List[T]) Dispatch(action reducer.Action[T]) {
	l.mu.Lock()
	l.committed = reducer.Reduce(l.committed, action)
	l.optimistic = l.committed
	fn := l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// DispatchOptimistic applies action to the projection only
func (l *List[T]) DispatchOptimistic(action reducer.Action[T]) {
	l.mu.Lock()
	l.optimistic = reducer.Reduce(l.optimistic, action)
	fn := l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Reset discards optimistic changes and shows the committed list again
func (l *List[T]) Reset() {
	l.mu.Lock()
	l.optimistic = l.committed
	fn := l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Diverged reports whether the projection differs from the committed list
func (l *List[T]) Diverged() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.optimistic) != len(l.committed) {
		return true
	}
	for i := range l.optimistic {
		if l.optimistic[i].GetID() != l.committed[i].GetID() {
			return true
		}
	}
	return false
}

// Find returns the projected record with id
func (l *List[T]) Find(id string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.optimistic {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the projected length
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.optimistic)
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
