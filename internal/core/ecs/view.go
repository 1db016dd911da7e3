package ecs

import "iter"

// Exclude names a pool whose members are filtered out of a view.
type Exclude struct {
	pool AnyPool
}

// Without excludes entities that have an F. If no pool for F exists yet the
// filter excludes nothing.
func Without[F any](w *World) Exclude {
	p := existingPool[F](w)
	if p == nil {
		return Exclude{}
	}
	return Exclude{pool: p}
}

// viewCore holds the type-erased part of a view: the required pools, the
// exclusion pools and the driver, which is the smallest required pool.
// Exclusion pools never drive: walking an excluded set yields nothing.
type viewCore struct {
	required []AnyPool
	filters  []AnyPool
	driver   int
}

func newViewCore(required []AnyPool, filters []Exclude) viewCore {
	c := viewCore{required: required}
	for _, f := range filters {
		if f.pool != nil {
			c.filters = append(c.filters, f.pool)
		}
	}
	for i, p := range required {
		if p.Len() < required[c.driver].Len() {
			c.driver = i
		}
	}
	return c
}

func (c *viewCore) driverPool() AnyPool { return c.required[c.driver] }

func (c *viewCore) match(e EntityID) bool {
	for i, p := range c.required {
		if i != c.driver && !p.Contains(e) {
			return false
		}
	}
	for _, f := range c.filters {
		if f.Contains(e) {
			return false
		}
	}
	return true
}

// each walks the driver and calls fn with the packed position of each
// matching entity. The driver length is re-read every step so that a
// mutation during iteration cannot index out of range; it is still
// undefined which entities are visited in that case.
func (c *viewCore) each(fn func(pos int, e EntityID)) {
	d := c.driverPool()
	for i := 0; i < d.Len(); i++ {
		e := d.Entities()[i]
		if c.match(e) {
			fn(i, e)
		}
	}
}

// component returns the T of e. When p is the driver the packed position is
// used directly instead of a lookup.
func component[T any](p *Pool[T], e EntityID, pos int, driver bool) *T {
	if driver {
		return p.at(pos)
	}
	i, _ := p.index(e)
	return p.at(i)
}

// Iterator is a lazy pull cursor over the entities of a view.
type Iterator struct {
	core *viewCore
	pos  int
	cur  EntityID
}

// Next advances to the next matching entity, skipping driver members that
// fail the membership or exclusion tests.
func (it *Iterator) Next() bool {
	d := it.core.driverPool()
	for it.pos++; it.pos < d.Len(); it.pos++ {
		e := d.Entities()[it.pos]
		if it.core.match(e) {
			it.cur = e
			return true
		}
	}
	it.cur = Null
	return false
}

// Entity returns the current entity, or Null before the first Next and after
// the last.
func (it *Iterator) Entity() EntityID { return it.cur }

func (c *viewCore) iter() *Iterator {
	return &Iterator{core: c, pos: -1, cur: Null}
}

func (c *viewCore) seq() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		it := c.iter()
		for it.Next() {
			if !yield(it.Entity()) {
				return
			}
		}
	}
}

// View1 iterates entities that have an A and none of the excluded types.
type View1[A any] struct {
	core viewCore
	a    *Pool[A]
}

func NewView1[A any](w *World, filters ...Exclude) *View1[A] {
	a := MustPoolOf[A](w)
	return &View1[A]{core: newViewCore([]AnyPool{a}, filters), a: a}
}

func (v *View1[A]) Each(fn func(EntityID, *A)) {
	v.core.each(func(pos int, e EntityID) {
		fn(e, component(v.a, e, pos, true))
	})
}

func (v *View1[A]) Iter() *Iterator              { return v.core.iter() }
func (v *View1[A]) Entities() iter.Seq[EntityID] { return v.core.seq() }
func (v *View1[A]) Contains(e EntityID) bool     { return v.a.Contains(e) && v.core.match(e) }
func (v *View1[A]) SizeHint() int                { return v.core.driverPool().Len() }

// View2 iterates entities that have an A and a B.
type View2[A, B any] struct {
	core viewCore
	a    *Pool[A]
	b    *Pool[B]
}

func NewView2[A, B any](w *World, filters ...Exclude) *View2[A, B] {
	a, b := MustPoolOf[A](w), MustPoolOf[B](w)
	return &View2[A, B]{core: newViewCore([]AnyPool{a, b}, filters), a: a, b: b}
}

func (v *View2[A, B]) Each(fn func(EntityID, *A, *B)) {
	d := v.core.driver
	v.core.each(func(pos int, e EntityID) {
		fn(e,
			component(v.a, e, pos, d == 0),
			component(v.b, e, pos, d == 1))
	})
}

func (v *View2[A, B]) Iter() *Iterator              { return v.core.iter() }
func (v *View2[A, B]) Entities() iter.Seq[EntityID] { return v.core.seq() }
func (v *View2[A, B]) SizeHint() int                { return v.core.driverPool().Len() }

func (v *View2[A, B]) Contains(e EntityID) bool {
	return v.core.driverPool().Contains(e) && v.core.match(e)
}

// View3 iterates entities that have an A, a B and a C.
type View3[A, B, C any] struct {
	core viewCore
	a    *Pool[A]
	b    *Pool[B]
	c    *Pool[C]
}

func NewView3[A, B, C any](w *World, filters ...Exclude) *View3[A, B, C] {
	a, b, c := MustPoolOf[A](w), MustPoolOf[B](w), MustPoolOf[C](w)
	return &View3[A, B, C]{core: newViewCore([]AnyPool{a, b, c}, filters), a: a, b: b, c: c}
}

func (v *View3[A, B, C]) Each(fn func(EntityID, *A, *B, *C)) {
	d := v.core.driver
	v.core.each(func(pos int, e EntityID) {
		fn(e,
			component(v.a, e, pos, d == 0),
			component(v.b, e, pos, d == 1),
			component(v.c, e, pos, d == 2))
	})
}

func (v *View3[A, B, C]) Iter() *Iterator              { return v.core.iter() }
func (v *View3[A, B, C]) Entities() iter.Seq[EntityID] { return v.core.seq() }
func (v *View3[A, B, C]) SizeHint() int                { return v.core.driverPool().Len() }

func (v *View3[A, B, C]) Contains(e EntityID) bool {
	return v.core.driverPool().Contains(e) && v.core.match(e)
}

// View4 iterates entities that have an A, a B, a C and a D.
type View4[A, B, C, D any] struct {
	core viewCore
	a    *Pool[A]
	b    *Pool[B]
	c    *Pool[C]
	d    *Pool[D]
}

func NewView4[A, B, C, D any](w *World, filters ...Exclude) *View4[A, B, C, D] {
	a, b, c, d := MustPoolOf[A](w), MustPoolOf[B](w), MustPoolOf[C](w), MustPoolOf[D](w)
	return &View4[A, B, C, D]{core: newViewCore([]AnyPool{a, b, c, d}, filters), a: a, b: b, c: c, d: d}
}

func (v *View4[A, B, C, D]) Each(fn func(EntityID, *A, *B, *C, *D)) {
	d := v.core.driver
	v.core.each(func(pos int, e EntityID) {
		fn(e,
			component(v.a, e, pos, d == 0),
			component(v.b, e, pos, d == 1),
			component(v.c, e, pos, d == 2),
			component(v.d, e, pos, d == 3))
	})
}

func (v *View4[A, B, C, D]) Iter() *Iterator              { return v.core.iter() }
func (v *View4[A, B, C, D]) Entities() iter.Seq[EntityID] { return v.core.seq() }
func (v *View4[A, B, C, D]) SizeHint() int                { return v.core.driverPool().Len() }

func (v *View4[A, B, C, D]) Contains(e EntityID) bool {
	return v.core.driverPool().Contains(e) && v.core.match(e)
}
