package tubelib

import (
	"sync"
)

// VMap is a generic map guarded by its own read-write mutex.
type VMap[kT comparable, vT any] struct {
	kv map[kT]vT
	mu sync.RWMutex
}

// NewVMap returns an empty VMap.
func NewVMap[kT comparable, vT any]() *VMap[kT, vT] {
	return &VMap[kT, vT]{
		kv: make(map[kT]vT),
	}
}

// Set stores val under key.
func (vm *VMap[kT, vT]) Set(key kT, val vT) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.kv[key] = val
}

// Get returns the value for key, or the zero value.
func (vm *VMap[kT, vT]) Get(key kT) (val vT) {
	val, _ = vm.Load(key)
	return
}

// Load returns the value for key and whether it was present.
func (vm *VMap[kT, vT]) Load(key kT) (vT, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	val, ok := vm.kv[key]
	return val, ok
}

// Has reports whether key is present.
func (vm *VMap[kT, vT]) Has(key kT) bool {
	_, ok := vm.Load(key)
	return ok
}

// Len returns the number of entries.
func (vm *VMap[kT, vT]) Len() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.kv)
}

// Dump returns all keys and values as separate slices.
func (vm *VMap[kT, vT]) Dump() (keys []kT, vals []vT) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	n := len(vm.kv)
	keys = make([]kT, 0, n)
	vals = make([]vT, 0, n)
	for key, val := range vm.kv {
		keys = append(keys, key)
		vals = append(vals, val)
	}
	return
}

// Range calls f for every entry until f returns false. f must not modify
// the map.
func (vm *VMap[kT, vT]) Range(f func(key kT, val vT) bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for k, v := range vm.kv {
		if !f(k, v) {
			return
		}
	}
}

// Delete removes key. Missing keys are a no-op.
func (vm *VMap[kT, vT]) Delete(key kT) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	delete(vm.kv, key)
}

// DeleteIf removes key only if match accepts the stored value, and
// reports whether it did.
func (vm *VMap[kT, vT]) DeleteIf(key kT, match func(vT) bool) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	val, ok := vm.kv[key]
	if !ok || !match(val) {
		return false
	}
	delete(vm.kv, key)
	return true
}
