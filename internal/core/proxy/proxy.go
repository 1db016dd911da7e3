package proxy

import (
	"fmt"
	"reflect"

	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"github.com/Longseabear/LEapsGLEngine/internal/core/universe"
	"go.uber.org/zap"
)

// WorldSource resolves the World of an entity group. *universe.Universe
// implements it.
type WorldSource interface {
	WorldFor(group reflect.Type) *ecs.World
}

type sweeper interface {
	Sweep() int
	Len() int
}

// Proxy owns one Cache per instance type. Each instance type is stored in
// the World of its declared group, or the base world when undeclared.
type Proxy struct {
	worlds WorldSource
	groups map[reflect.Type]reflect.Type
	caches map[reflect.Type]sweeper
	order  []reflect.Type
	log    *zap.Logger
}

func New(worlds WorldSource, log *zap.Logger) *Proxy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Proxy{
		worlds: worlds,
		groups: make(map[reflect.Type]reflect.Type),
		caches: make(map[reflect.Type]sweeper),
		log:    log,
	}
}

// DeclareGroup stores instances of I in the World of group G. It must run
// before the first cache access for I.
func DeclareGroup[I, G any](p *Proxy) error {
	inst, group := reflect.TypeFor[I](), reflect.TypeFor[G]()
	if prev, ok := p.groups[inst]; ok && prev != group {
		return fmt.Errorf("declare %s in %s (was %s): %w", inst, group, prev, ErrGroupRedeclared)
	}
	if _, ok := p.caches[inst]; ok && p.GroupOf(inst) != group {
		return fmt.Errorf("declare %s in %s after first use: %w", inst, group, ErrGroupRedeclared)
	}
	p.groups[inst] = group
	return nil
}

// GroupOf returns the group instance type inst is stored in.
func (p *Proxy) GroupOf(inst reflect.Type) reflect.Type {
	if g, ok := p.groups[inst]; ok {
		return g
	}
	return reflect.TypeFor[universe.DefaultGroup]()
}

// CacheFor returns the cache of I, creating it on first use.
func CacheFor[I any](p *Proxy) *Cache[I] {
	inst := reflect.TypeFor[I]()
	if c, ok := p.caches[inst]; ok {
		return c.(*Cache[I])
	}
	group := p.GroupOf(inst)
	c := NewCache[I](p.worlds.WorldFor(group),
		WithCacheLogger(p.log.With(zap.Stringer("instance", inst))))
	p.caches[inst] = c
	p.order = append(p.order, inst)
	p.log.Debug("proxy cache created", zap.Stringer("instance", inst), zap.Stringer("group", group))
	return c
}

// Request is shorthand for CacheFor[I](p).Get(spec).
func Request[I any](p *Proxy, spec Specification[I]) *Requestor[I] {
	return CacheFor[I](p).Get(spec)
}

// WorldOf returns the World instances of I are stored in.
func WorldOf[I any](p *Proxy) *ecs.World {
	return p.worlds.WorldFor(p.GroupOf(reflect.TypeFor[I]()))
}

// Sweep runs Sweep on every cache in creation order.
func (p *Proxy) Sweep() int {
	n := 0
	for _, t := range p.order {
		n += p.caches[t].Sweep()
	}
	return n
}

// Specs returns the number of registered specifications across caches.
func (p *Proxy) Specs() int {
	n := 0
	for _, c := range p.caches {
		n += c.Len()
	}
	return n
}
