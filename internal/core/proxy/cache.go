// Package proxy deduplicates constructed values by the content hash of the
// Specification that describes them. Instances live as ordinary components
// on hidden entities of a World, and Requestors reference-count them.
package proxy

import (
	"fmt"

	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"go.uber.org/zap"
)

// Specification describes how to build one instance of I. Two
// Specifications with the same Hash are treated as the same request, even
// when they were built independently.
type Specification[I any] interface {
	Hash() uint64
	Generate() (I, error)
}

// Cloner is implemented by instances that need a deep copy for Prototype.
// Instances without it are copied by value.
type Cloner[I any] interface {
	Clone() I
}

// key identifies one cached instance. Version 0 is the shared instance of a
// specification; prototypes get fresh versions.
type key struct {
	hash    uint64
	version uint32
}

type row[I any] struct {
	spec Specification[I]
	uses int
}

type slot struct {
	entity ecs.EntityID
	uses   int
}

// Cache maps specifications of I to instances stored in one World.
type Cache[I any] struct {
	world       *ecs.World
	specs       map[uint64]*row[I]
	slots       map[key]*slot
	nextVersion uint32
	orphans     []ecs.EntityID
	log         *zap.Logger
}

type CacheOption func(*cacheOptions)

type cacheOptions struct {
	log *zap.Logger
}

func WithCacheLogger(log *zap.Logger) CacheOption {
	return func(o *cacheOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// NewCache creates a cache whose instances live in w.
func NewCache[I any](w *ecs.World, opts ...CacheOption) *Cache[I] {
	o := cacheOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[I]{
		world: w,
		specs: make(map[uint64]*row[I]),
		slots: make(map[key]*slot),
		log:   o.log,
	}
}

func (c *Cache[I]) World() *ecs.World { return c.world }

// Len returns the number of registered specifications.
func (c *Cache[I]) Len() int { return len(c.specs) }

// Registered reports whether a specification with hash h is registered.
func (c *Cache[I]) Registered(h uint64) bool {
	_, ok := c.specs[h]
	return ok
}

// Uses returns the number of live Requestors sharing hash h, prototypes
// included.
func (c *Cache[I]) Uses(h uint64) int {
	if r, ok := c.specs[h]; ok {
		return r.uses
	}
	return 0
}

// Orphans returns the number of instances waiting for Sweep.
func (c *Cache[I]) Orphans() int { return len(c.orphans) }

// Get registers spec on first sight and returns a new Requestor for it.
func (c *Cache[I]) Get(spec Specification[I]) *Requestor[I] {
	h := spec.Hash()
	r, ok := c.specs[h]
	if !ok {
		r = &row[I]{spec: spec}
		c.specs[h] = r
		c.log.Debug("specification registered", zap.Uint64("hash", h))
	}
	k := key{hash: h}
	s, ok := c.slots[k]
	if !ok {
		s = &slot{entity: ecs.Null}
		c.slots[k] = s
	}
	return c.hire(r, s, k)
}

func (c *Cache[I]) hire(r *row[I], s *slot, k key) *Requestor[I] {
	r.uses++
	s.uses++
	c.log.Debug("requestor hired",
		zap.Uint64("hash", k.hash),
		zap.Uint32("version", k.version),
		zap.Int("uses", r.uses))
	return &Requestor[I]{cache: c, key: k}
}

func (c *Cache[I]) fire(k key) {
	if s, ok := c.slots[k]; ok {
		s.uses--
		if s.uses <= 0 {
			c.evictSlot(k, s)
		}
	}
	r, ok := c.specs[k.hash]
	if !ok {
		return
	}
	r.uses--
	c.log.Debug("requestor fired",
		zap.Uint64("hash", k.hash),
		zap.Uint32("version", k.version),
		zap.Int("uses", r.uses))
	if r.uses > 0 {
		return
	}
	delete(c.specs, k.hash)
	for sk, s := range c.slots {
		if sk.hash == k.hash {
			c.evictSlot(sk, s)
		}
	}
	c.log.Debug("specification evicted", zap.Uint64("hash", k.hash))
}

// evictSlot drops the mapping. A materialized instance stays in the World
// as an orphan until Sweep.
func (c *Cache[I]) evictSlot(k key, s *slot) {
	delete(c.slots, k)
	if c.world.Alive(s.entity) {
		c.orphans = append(c.orphans, s.entity)
	}
}

func (c *Cache[I]) resolve(req *Requestor[I]) (*slot, *row[I], error) {
	if req == nil || req.released {
		return nil, nil, ErrReleased
	}
	if req.cache != c {
		return nil, nil, ErrForeignRequestor
	}
	s, ok := c.slots[req.key]
	if !ok {
		return nil, nil, fmt.Errorf("slot %x/%d: %w", req.key.hash, req.key.version, ErrUnknownSpec)
	}
	r, ok := c.specs[req.key.hash]
	if !ok {
		return nil, nil, fmt.Errorf("hash %x: %w", req.key.hash, ErrUnknownSpec)
	}
	return s, r, nil
}

func (c *Cache[I]) instance(s *slot) (*I, bool) {
	if !ecs.Contains[I](c.world, s.entity) {
		return nil, false
	}
	v, err := ecs.Get[I](c.world, s.entity)
	if err != nil {
		return nil, false
	}
	return v, true
}

// store attaches v to the slot's entity, creating the entity when the slot
// has none. A freshly created entity is destroyed again on failure.
func (c *Cache[I]) store(s *slot, v I) (*I, error) {
	if ecs.Contains[I](c.world, s.entity) {
		if err := ecs.Replace(c.world, s.entity, v); err != nil {
			return nil, err
		}
		return ecs.Get[I](c.world, s.entity)
	}
	fresh := false
	if !c.world.Alive(s.entity) {
		s.entity = c.world.Create()
		fresh = true
	}
	if err := ecs.Emplace(c.world, s.entity, v); err != nil {
		if fresh {
			_ = c.world.Destroy(s.entity)
			s.entity = ecs.Null
		}
		return nil, err
	}
	return ecs.Get[I](c.world, s.entity)
}

// Assure returns the instance behind req, generating it on first use. The
// pointer stays valid until the next structural change of the instance pool.
func (c *Cache[I]) Assure(req *Requestor[I]) (*I, error) {
	s, r, err := c.resolve(req)
	if err != nil {
		return nil, err
	}
	if v, ok := c.instance(s); ok {
		return v, nil
	}
	v, err := r.spec.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate %x: %w", req.key.hash, err)
	}
	return c.store(s, v)
}

// TryGet returns the instance behind req without generating it.
func (c *Cache[I]) TryGet(req *Requestor[I]) (*I, bool) {
	s, _, err := c.resolve(req)
	if err != nil {
		return nil, false
	}
	return c.instance(s)
}

// Update regenerates the instance in place. The backing entity is kept. On
// generation failure the previous instance is left untouched.
func (c *Cache[I]) Update(req *Requestor[I]) (*I, error) {
	s, r, err := c.resolve(req)
	if err != nil {
		return nil, err
	}
	v, err := r.spec.Generate()
	if err != nil {
		return nil, fmt.Errorf("regenerate %x: %w", req.key.hash, err)
	}
	return c.store(s, v)
}

// Remove destroys the instance behind req and clears the slot. The
// specification stays registered, so a later Assure regenerates.
func (c *Cache[I]) Remove(req *Requestor[I]) (bool, error) {
	s, _, err := c.resolve(req)
	if err != nil {
		return false, err
	}
	if !c.world.Alive(s.entity) {
		s.entity = ecs.Null
		return false, nil
	}
	err = c.world.Destroy(s.entity)
	s.entity = ecs.Null
	return err == nil, err
}

// Prototype copies the instance behind req into a new version with its own
// lifetime. Instances implementing Cloner are deep copied.
func (c *Cache[I]) Prototype(req *Requestor[I]) (*Requestor[I], error) {
	src, err := c.Assure(req)
	if err != nil {
		return nil, err
	}
	cp := *src
	// *I carries the method set of I, so one assertion covers both receivers.
	if cl, ok := any(src).(Cloner[I]); ok {
		cp = cl.Clone()
	}
	c.nextVersion++
	k := key{hash: req.key.hash, version: c.nextVersion}
	s := &slot{entity: ecs.Null}
	if _, err := c.store(s, cp); err != nil {
		return nil, err
	}
	c.slots[k] = s
	return c.hire(c.specs[k.hash], s, k), nil
}

// Sweep destroys orphaned instances and returns how many were still alive.
func (c *Cache[I]) Sweep() int {
	n := 0
	for _, e := range c.orphans {
		if c.world.Destroy(e) == nil {
			n++
		}
	}
	clear(c.orphans)
	c.orphans = c.orphans[:0]
	if n > 0 {
		c.log.Debug("orphans swept", zap.Int("count", n))
	}
	return n
}
