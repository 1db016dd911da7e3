package ecs

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// World is the top-level ECS container. It owns the entity pool, the component
// registry, and a deferred destruction queue for use while views iterate.
type World struct {
	pool         *EntityPool
	registry     *Registry
	policies     *PolicyTable
	pageSize     int
	destroyQueue []EntityID
	log          *zap.Logger
}

type Option func(*World)

func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithPolicies shares a policy table with the World. The table is consulted
// once per type, when its pool is created.
func WithPolicies(t *PolicyTable) Option {
	return func(w *World) { w.policies = t }
}

func WithPageSize(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.pageSize = n
		}
	}
}

// WithCapacity preallocates room for n entities.
func WithCapacity(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.pool = NewEntityPool(n)
		}
	}
}

func NewWorld(opts ...Option) *World {
	w := &World{
		pool:         NewEntityPool(1024),
		registry:     NewRegistry(),
		pageSize:     DefaultPageSize,
		destroyQueue: make([]EntityID, 0, 64),
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.policies == nil {
		w.policies = NewPolicyTable()
	}
	return w
}

func (w *World) Pool() *EntityPool      { return w.pool }
func (w *World) Registry() *Registry    { return w.registry }
func (w *World) Policies() *PolicyTable { return w.policies }

// Create allocates a new entity, recycling a destroyed index when one is free.
func (w *World) Create() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Size returns the number of live entities.
func (w *World) Size() int {
	return w.pool.Len()
}

// Destroy removes id from every pool and recycles its index. A stale or null
// handle is rejected before any pool is touched.
func (w *World) Destroy(id EntityID) error {
	if !w.pool.Alive(id) {
		return fmt.Errorf("destroy %s: %w", id, ErrStaleEntity)
	}
	n := w.registry.RemoveAll(id)
	w.pool.Destroy(id)
	w.log.Debug("entity destroyed", zap.Stringer("entity", id), zap.Int("components", n))
	return nil
}

// MarkForDestruction queues an entity for destruction at the next
// FlushDestroyQueue. Safe to call while a view iterates.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// Queued returns the entities awaiting FlushDestroyQueue. The slice is only
// valid until the next flush.
func (w *World) Queued() []EntityID {
	return w.destroyQueue
}

// FlushDestroyQueue destroys all queued entities and clears their components.
// Handles that died in the meantime (or were queued twice) are skipped.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if w.Destroy(id) == nil {
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// PoolOf returns the pool for T, creating it with the policy registered for
// T on first use.
func PoolOf[T any](w *World) (*Pool[T], error) {
	typ := reflect.TypeFor[T]()
	if id, ok := w.registry.ID(typ); ok {
		p, ok := w.registry.Pool(id).(*Pool[T])
		if !ok {
			return nil, fmt.Errorf("pool %s: %w", typ, ErrPoolTypeMismatch)
		}
		return p, nil
	}
	policy := w.policies.Resolve(typ)
	if !policy.Fits(typ) {
		w.log.Warn("flag policy ignored for a type with data",
			zap.Stringer("type", typ),
			zap.Uintptr("size", typ.Size()))
		policy = PolicyDefault
	}
	p := NewPool[T](policy, w.pageSize)
	id := w.registry.Register(p)
	w.log.Debug("component pool created",
		zap.Stringer("type", typ),
		zap.Uint32("id", uint32(id)),
		zap.Stringer("policy", policy))
	return p, nil
}

// MustPoolOf is PoolOf for callers that own the World and never register
// conflicting pools.
func MustPoolOf[T any](w *World) *Pool[T] {
	p, err := PoolOf[T](w)
	if err != nil {
		panic(err)
	}
	return p
}

// existingPool returns the pool for T without creating it.
func existingPool[T any](w *World) *Pool[T] {
	id, ok := w.registry.ID(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	p, _ := w.registry.Pool(id).(*Pool[T])
	return p
}

// Emplace attaches v to a live entity. Attaching a second T is rejected with
// ErrAlreadyPresent.
func Emplace[T any](w *World, e EntityID, v T) error {
	if !w.Alive(e) {
		return fmt.Errorf("emplace %s on %s: %w", reflect.TypeFor[T](), e, ErrStaleEntity)
	}
	p, err := PoolOf[T](w)
	if err != nil {
		return err
	}
	return p.Emplace(e, v)
}

// Replace overwrites the T of a live entity.
func Replace[T any](w *World, e EntityID, v T) error {
	if !w.Alive(e) {
		return fmt.Errorf("replace %s on %s: %w", reflect.TypeFor[T](), e, ErrStaleEntity)
	}
	p := existingPool[T](w)
	if p == nil {
		return &ComponentNotFoundError{Entity: e, Type: reflect.TypeFor[T]()}
	}
	return p.Replace(e, v)
}

// Remove detaches T from a live entity. It reports whether a component was
// removed.
func Remove[T any](w *World, e EntityID) (bool, error) {
	if !w.Alive(e) {
		return false, fmt.Errorf("remove %s on %s: %w", reflect.TypeFor[T](), e, ErrStaleEntity)
	}
	p := existingPool[T](w)
	if p == nil {
		return false, nil
	}
	removed := p.Remove(e)
	if removed {
		w.log.Debug("component removed", zap.Stringer("type", p.typ), zap.Stringer("entity", e))
	}
	return removed, nil
}

// Contains reports whether e is alive and has a T.
func Contains[T any](w *World, e EntityID) bool {
	if !w.Alive(e) {
		return false
	}
	p := existingPool[T](w)
	return p != nil && p.Contains(e)
}

// Get returns a pointer to the T of e. See Pool.Get for pointer validity.
func Get[T any](w *World, e EntityID) (*T, error) {
	if !w.Alive(e) {
		return nil, fmt.Errorf("get %s on %s: %w", reflect.TypeFor[T](), e, ErrStaleEntity)
	}
	p := existingPool[T](w)
	if p == nil {
		return nil, &ComponentNotFoundError{Entity: e, Type: reflect.TypeFor[T]()}
	}
	return p.Get(e)
}
