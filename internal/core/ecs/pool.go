package ecs

import (
	"fmt"
	"reflect"
)

// AnyPool is implemented by every Pool[T] so the World can fan out entity
// destruction and views can run membership tests without knowing T.
type AnyPool interface {
	Type() reflect.Type
	Policy() Policy
	Contains(e EntityID) bool
	Remove(e EntityID) bool
	Len() int
	Entities() []EntityID
	Clear()
}

// Pool stores components of type T for a set of entities. payload[i] belongs
// to the entity at packed position i.
type Pool[T any] struct {
	typ     reflect.Type
	policy  Policy
	set     *SparseSet
	payload []T
	zero    T
}

// NewPool creates a standalone pool. Pools owned by a World are created
// through PoolOf. PolicyFlag on a type that carries data falls back to
// PolicyDefault.
func NewPool[T any](policy Policy, pageSize int) *Pool[T] {
	typ := reflect.TypeFor[T]()
	if !policy.Fits(typ) {
		policy = PolicyDefault
	}
	return &Pool[T]{
		typ:    typ,
		policy: policy,
		set:    NewSparseSet(pageSize),
	}
}

func (p *Pool[T]) Type() reflect.Type   { return p.typ }
func (p *Pool[T]) Policy() Policy       { return p.policy }
func (p *Pool[T]) Len() int             { return p.set.Len() }
func (p *Pool[T]) Entities() []EntityID { return p.set.Entities() }

func (p *Pool[T]) index(e EntityID) (int, bool) {
	if p.policy == PolicyPacked {
		return p.set.Find(e)
	}
	return p.set.Index(e)
}

func (p *Pool[T]) Contains(e EntityID) bool {
	_, ok := p.index(e)
	return ok
}

// Emplace attaches v to e. A second Emplace for the same entity is rejected
// with ErrAlreadyPresent; use Replace to overwrite.
func (p *Pool[T]) Emplace(e EntityID, v T) error {
	if !e.Valid() {
		return fmt.Errorf("emplace %s: %w", p.typ, ErrStaleEntity)
	}
	switch p.policy {
	case PolicyPacked:
		if _, ok := p.set.Find(e); ok {
			return fmt.Errorf("emplace %s on %s: %w", p.typ, e, ErrAlreadyPresent)
		}
		p.set.push(e)
		p.payload = append(p.payload, v)
	case PolicyFlag:
		if !p.set.Emplace(e) {
			return fmt.Errorf("emplace %s on %s: %w", p.typ, e, ErrAlreadyPresent)
		}
	default:
		if !p.set.Emplace(e) {
			return fmt.Errorf("emplace %s on %s: %w", p.typ, e, ErrAlreadyPresent)
		}
		p.payload = append(p.payload, v)
	}
	return nil
}

// Replace overwrites the component of e.
func (p *Pool[T]) Replace(e EntityID, v T) error {
	i, ok := p.index(e)
	if !ok {
		return &ComponentNotFoundError{Entity: e, Type: p.typ}
	}
	if p.policy != PolicyFlag {
		p.payload[i] = v
	}
	return nil
}

// Get returns a pointer into the payload array. It stays valid until the
// next structural change (Emplace or Remove) of this pool. Flag pools return
// a pointer to a shared zero value.
func (p *Pool[T]) Get(e EntityID) (*T, error) {
	i, ok := p.index(e)
	if !ok {
		return nil, &ComponentNotFoundError{Entity: e, Type: p.typ}
	}
	return p.at(i), nil
}

func (p *Pool[T]) at(i int) *T {
	if p.policy == PolicyFlag {
		return &p.zero
	}
	return &p.payload[i]
}

// Remove detaches e, swapping the last element into its slot in both packed
// and payload arrays.
func (p *Pool[T]) Remove(e EntityID) bool {
	var (
		i  int
		ok bool
	)
	switch p.policy {
	case PolicyPacked:
		if i, ok = p.set.Find(e); ok {
			p.set.swapPop(i)
		}
	default:
		i, ok = p.set.swapRemove(e)
	}
	if !ok {
		return false
	}
	if p.policy != PolicyFlag {
		last := len(p.payload) - 1
		p.payload[i] = p.payload[last]
		var zero T
		p.payload[last] = zero
		p.payload = p.payload[:last]
	}
	return true
}

// Each calls fn for every member in packed order. fn must not add or remove
// members of this pool.
func (p *Pool[T]) Each(fn func(EntityID, *T)) {
	for i, e := range p.set.Entities() {
		fn(e, p.at(i))
	}
}

func (p *Pool[T]) Clear() {
	if p.policy == PolicyPacked {
		p.set.packed = p.set.packed[:0]
	} else {
		p.set.Clear()
	}
	clear(p.payload)
	p.payload = p.payload[:0]
}

// Aligned reports whether the packed and payload arrays have matching
// lengths. Flag pools carry no payload and are always aligned.
func (p *Pool[T]) Aligned() bool {
	if p.policy == PolicyFlag {
		return len(p.payload) == 0
	}
	return len(p.payload) == p.set.Len()
}
