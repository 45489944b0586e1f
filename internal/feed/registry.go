package feed

import (
	"fmt"
	"sync"
)

// Deliver pushes one reading to a subscriber. It must not block; an error
// means this reading could not be handed over.
type Deliver[T any] func(T) error

type subscriber[T any] struct {
	id      string
	deliver Deliver[T]
}

// Registry maps subscriber ids to delivery callbacks. Subscribe, unsubscribe
// and broadcast are safe to interleave from different goroutines.
type Registry[T any] struct {
	mu        sync.RWMutex
	subs      map[string]*subscriber[T]
	onFailure func(id string, err error)
}

// NewRegistry builds an empty registry. onFailure, if set, is called for every
// delivery that returns an error or panics.
func NewRegistry[T any](onFailure func(id string, err error)) *Registry[T] {
	return &Registry[T]{
		subs:      make(map[string]*subscriber[T]),
		onFailure: onFailure,
	}
}

// Subscribe registers fn under id, replacing any previous registration with
// the same id. The returned function removes this registration only; calling
// it more than once is harmless.
func (r *Registry[T]) Subscribe(id string, fn Deliver[T]) (unsubscribe func()) {
	s := &subscriber[T]{id: id, deliver: fn}

	r.mu.Lock()
	r.subs[id] = s
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			if cur, ok := r.subs[id]; ok && cur == s {
				delete(r.subs, id)
			}
			r.mu.Unlock()
		})
	}
}

// Send delivers v to a single subscriber. It reports whether the delivery
// succeeded.
func (r *Registry[T]) Send(id string, v T) bool {
	r.mu.RLock()
	s, ok := r.subs[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.deliver(s, v)
}

// Broadcast delivers v to every registered subscriber and returns how many
// accepted it. A failing subscriber stays registered.
func (r *Registry[T]) Broadcast(v T) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, s := range r.subs {
		if r.deliver(s, v) {
			delivered++
		}
	}
	return delivered
}

// Len returns the number of registered subscribers.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *Registry[T]) deliver(s *subscriber[T], v T) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ok = false
			r.fail(s.id, fmt.Errorf("subscriber panicked: %v", p))
		}
	}()
	if err := s.deliver(v); err != nil {
		r.fail(s.id, err)
		return false
	}
	return true
}

func (r *Registry[T]) fail(id string, err error) {
	if r.onFailure != nil {
		r.onFailure(id, err)
	}
}
