package ledger

import "sync"

// SyncMap is a type-safe concurrent map guarded by a RWMutex.
type SyncMap[K comparable, V any] struct {
	m  map[K]V
	mu sync.RWMutex
}

// NewSyncMap creates a new type-safe concurrent map.
func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{
		m: make(map[K]V),
	}
}

// Load returns the value stored for key. The ok result indicates whether value was found.
func (sm *SyncMap[K, V]) Load(key K) (value V, ok bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	value, ok = sm.m[key]
	return
}

// Store sets the value for a key.
func (sm *SyncMap[K, V]) Store(key K, value V) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.m[key] = value
}

// LoadAndDeleteIf removes key and returns its value only when match accepts
// the stored value. Check and removal happen under one lock.
func (sm *SyncMap[K, V]) LoadAndDeleteIf(key K, match func(V) bool) (value V, deleted bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	value, ok := sm.m[key]
	if !ok || !match(value) {
		var zero V
		return zero, false
	}
	delete(sm.m, key)
	return value, true
}

// Len returns the number of items in the map.
func (sm *SyncMap[K, V]) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.m)
}
