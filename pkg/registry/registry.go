package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ErrNoBucket reports a lookup against a slot with no registered bucket,
// either because recovery has not finished or the bucket died.
var ErrNoBucket = errors.New("registry: no bucket registered for key")

// Registry routes keys to buckets by stable hash. A bucket is invisible
// until it registers, which it does only after its recovery completes;
// that is how the store guarantees no request reaches a partially
// initialized backend.
type Registry[T any] struct {
	mu         sync.RWMutex
	slots      []T
	registered []bool
}

// New creates a registry with n bucket slots.
func New[T any](n int) *Registry[T] {
	return &Registry[T]{
		slots:      make([]T, n),
		registered: make([]bool, n),
	}
}

// Register installs the bucket owning instanceID. Called once per bucket
// at the end of its recovery.
func (r *Registry[T]) Register(instanceID int, bucket T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if instanceID < 0 || instanceID >= len(r.slots) {
		return fmt.Errorf("registry: instance id %d out of range [0,%d)", instanceID, len(r.slots))
	}
	r.slots[instanceID] = bucket
	r.registered[instanceID] = true
	return nil
}

// Deregister removes the bucket owning instanceID, making its slot
// invisible to Lookup and All again.
func (r *Registry[T]) Deregister(instanceID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if instanceID >= 0 && instanceID < len(r.slots) {
		var zero T
		r.slots[instanceID] = zero
		r.registered[instanceID] = false
	}
}

// SlotFor returns the slot owning key: hash(key) mod n.
func (r *Registry[T]) SlotFor(key []byte) int {
	return int(xxhash.Sum64(key) % uint64(len(r.slots)))
}

// Lookup returns the bucket owning key, or ErrNoBucket when the slot is
// not (yet) registered.
func (r *Registry[T]) Lookup(key []byte) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot := r.SlotFor(key)
	if !r.registered[slot] {
		var zero T
		return zero, fmt.Errorf("%w: slot %d", ErrNoBucket, slot)
	}
	return r.slots[slot], nil
}

// At returns the bucket registered in slot instanceID.
func (r *Registry[T]) At(instanceID int) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero T
	if instanceID < 0 || instanceID >= len(r.slots) {
		return zero, fmt.Errorf("registry: instance id %d out of range [0,%d)", instanceID, len(r.slots))
	}
	if !r.registered[instanceID] {
		return zero, fmt.Errorf("%w: slot %d", ErrNoBucket, instanceID)
	}
	return r.slots[instanceID], nil
}

// All returns the registered buckets in slot order. Unregistered slots
// are skipped, which is what lets a cross-bucket fan-out silently ignore
// buckets that are gone.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.slots))
	for i, ok := range r.registered {
		if ok {
			out = append(out, r.slots[i])
		}
	}
	return out
}

// Size returns the number of slots.
func (r *Registry[T]) Size() int {
	return len(r.slots)
}
