package proxy

import "fmt"

// Requestor is a counted reference to a cached instance. Every Requestor
// obtained from Get, Clone or Prototype must be released exactly once.
type Requestor[I any] struct {
	cache    *Cache[I]
	key      key
	released bool
}

// Hash returns the content hash of the specification.
func (r *Requestor[I]) Hash() uint64 { return r.key.hash }

// Version is 0 for the shared instance and unique per prototype.
func (r *Requestor[I]) Version() uint32 { return r.key.version }

func (r *Requestor[I]) Released() bool { return r.released }

// Same reports whether r and o reference the same instance slot.
func (r *Requestor[I]) Same(o *Requestor[I]) bool {
	return r != nil && o != nil && r.cache == o.cache && r.key == o.key
}

func (r *Requestor[I]) String() string {
	return fmt.Sprintf("%016x/%d", r.key.hash, r.key.version)
}

// Clone returns a second reference to the same slot.
func (r *Requestor[I]) Clone() (*Requestor[I], error) {
	s, row, err := r.cache.resolve(r)
	if err != nil {
		return nil, err
	}
	return r.cache.hire(row, s, r.key), nil
}

// Release drops the reference. The last release of a hash evicts its
// specification. Releasing twice returns ErrReleased.
func (r *Requestor[I]) Release() error {
	if r.released {
		return ErrReleased
	}
	r.released = true
	r.cache.fire(r.key)
	return nil
}

// Assure is shorthand for r's cache Assure.
func (r *Requestor[I]) Assure() (*I, error) {
	return r.cache.Assure(r)
}
