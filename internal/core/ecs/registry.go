package ecs

import "reflect"

// ComponentID is the per-World identifier of a component type. It is
// assigned once, the first time the type is used, and never changes.
type ComponentID uint32

// Registry tracks all component pools of a World and supports bulk cleanup
// on entity destroy.
type Registry struct {
	ids   map[reflect.Type]ComponentID
	pools []AnyPool
}

func NewRegistry() *Registry {
	return &Registry{
		ids:   make(map[reflect.Type]ComponentID, 16),
		pools: make([]AnyPool, 0, 16),
	}
}

// ID returns the ComponentID of typ, if a pool for it was registered.
func (r *Registry) ID(typ reflect.Type) (ComponentID, bool) {
	id, ok := r.ids[typ]
	return id, ok
}

// Register adds a pool and returns its ComponentID.
func (r *Registry) Register(pool AnyPool) ComponentID {
	if id, ok := r.ids[pool.Type()]; ok {
		return id
	}
	id := ComponentID(len(r.pools))
	r.ids[pool.Type()] = id
	r.pools = append(r.pools, pool)
	return id
}

func (r *Registry) Pool(id ComponentID) AnyPool {
	return r.pools[id]
}

// Lookup returns the pool registered for typ.
func (r *Registry) Lookup(typ reflect.Type) (AnyPool, bool) {
	id, ok := r.ids[typ]
	if !ok {
		return nil, false
	}
	return r.pools[id], true
}

// RemoveAll clears the given entity from every registered pool and returns
// how many pools held it.
func (r *Registry) RemoveAll(id EntityID) int {
	n := 0
	for _, p := range r.pools {
		if p.Remove(id) {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int { return len(r.pools) }

// Each visits pools in registration order.
func (r *Registry) Each(fn func(ComponentID, AnyPool)) {
	for i, p := range r.pools {
		fn(ComponentID(i), p)
	}
}
