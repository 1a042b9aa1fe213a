package mediasoup

import "sync"

// registry maps the ids of the children of an entity to their handles.
// Each parent owns its registries; there is no process wide lookup table.
type registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func (r *registry[T]) Store(id string, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.items == nil {
		r.items = make(map[string]T)
	}
	if _, ok := r.items[id]; ok {
		return false
	}
	r.items[id] = v
	r.order = append(r.order, id)

	return true
}

func (r *registry[T]) Load(id string) (v T, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok = r.items[id]
	return
}

func (r *registry[T]) Delete(id string) (v T, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok = r.items[id]; ok {
		delete(r.items, id)
		for i, key := range r.order {
			if key == id {
				r.order = append(r.order[:i:i], r.order[i+1:]...)
				break
			}
		}
	}
	return
}

func (r *registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// Values returns the handles in insertion order.
func (r *registry[T]) Values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	values := make([]T, 0, len(r.order))
	for _, id := range r.order {
		values = append(values, r.items[id])
	}
	return values
}

// Drain removes every handle and returns them in insertion order.
func (r *registry[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]T, 0, len(r.order))
	for _, id := range r.order {
		values = append(values, r.items[id])
	}
	r.items = nil
	r.order = nil

	return values
}
