package object

import (
	"fmt"
	"sync"
)

// Ref points from a tree entry or commit to another object. It either owns
// an in-memory object or knows only a (type, hash) pair, in which case the
// object is looked up through a Resolver the first time it is needed.
type Ref struct {
	typ      ObjectType
	hash     Hash
	resolver Resolver

	mu  sync.Mutex
	obj Object
}

// NewRef wraps an in-memory object.
func NewRef(obj Object) *Ref {
	return &Ref{typ: obj.Type(), obj: obj}
}

// RefTo returns an unresolved reference to the object stored at h.
func RefTo(r Resolver, typ ObjectType, h Hash) *Ref {
	return &Ref{typ: typ, hash: h, resolver: r}
}

// Type is the kind the referenced object must have.
func (r *Ref) Type() ObjectType {
	return r.typ
}

// Resolved reports whether the target is held in memory.
func (r *Ref) Resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.obj != nil
}

// loaded returns the target if it is held in memory, without resolving it.
func (r *Ref) loaded() Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.obj
}

// Hash returns the target's digest without loading it. For an in-memory
// target the digest reflects its current contents.
func (r *Ref) Hash() (Hash, error) {
	r.mu.Lock()
	obj := r.obj
	r.mu.Unlock()
	if obj != nil {
		return obj.Hash()
	}
	return r.hash, nil
}

// Object returns the target, loading it on first use. A stored object of
// the wrong kind yields a *TypeError.
func (r *Ref) Object() (Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.obj != nil {
		return r.obj, nil
	}
	if r.resolver == nil {
		return nil, fmt.Errorf("object %s: no resolver: %w", r.hash, ErrObjectNotFound)
	}
	obj, err := r.resolver.Find(r.hash)
	if err != nil {
		return nil, err
	}
	if err := asType(obj, r.hash, r.typ); err != nil {
		return nil, err
	}
	r.obj = obj
	return obj, nil
}
