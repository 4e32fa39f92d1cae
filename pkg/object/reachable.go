package object

import (
	"fmt"
)

// Children returns the references an object holds: a tree's entries, or a
// commit's tree followed by its parents. Blobs have none.
func Children(obj Object) ([]*Ref, error) {
	switch o := obj.(type) {
	case *Tree:
		entries, err := o.Entries()
		if err != nil {
			return nil, err
		}
		refs := make([]*Ref, 0, len(entries))
		for _, e := range entries {
			refs = append(refs, e.Child)
		}
		return refs, nil
	case *Commit:
		return o.refs()
	default:
		return nil, nil
	}
}

// stale reports whether root no longer hashes to the digest it was loaded
// under: it, or an object loaded through its references, was changed in
// memory. Only loaded objects are visited; nothing is resolved.
func stale(root Object) bool {
	stack := []Object{root}
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var refs []*Ref
		switch o := obj.(type) {
		case *Tree:
			if o.hash == "" {
				return true
			}
			if !o.Materialized() {
				continue
			}
			te, err := o.state.Get()
			if err != nil {
				continue
			}
			for _, e := range te.list {
				refs = append(refs, e.Child)
			}
		case *Commit:
			if o.hash == "" {
				return true
			}
			if !o.Materialized() {
				continue
			}
			f, err := o.state.Get()
			if err != nil {
				continue
			}
			refs = append(refs, f.tree)
			refs = append(refs, f.parents...)
		}
		for _, ref := range refs {
			if child := ref.loaded(); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return false
}

// WalkFunc is called once for every object reached by Walk.
type WalkFunc func(h Hash, obj Object) error

type walkItem struct {
	hash Hash
	want ObjectType
}

// Walk visits every object reachable from roots exactly once. It keeps an
// explicit stack rather than recursing, so deep histories and trees do not
// grow the goroutine stack. Each object is found afresh through r, so
// visited objects can be collected once fn returns. Children must have the
// kind their parent claims.
func Walk(r Resolver, roots []Hash, fn WalkFunc) error {
	seen := make(map[Hash]struct{}, len(roots))
	stack := make([]walkItem, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, walkItem{hash: roots[i]})
	}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[item.hash]; ok {
			continue
		}
		seen[item.hash] = struct{}{}

		obj, err := r.Find(item.hash)
		if err != nil {
			return fmt.Errorf("walk %s: %w", item.hash, err)
		}
		if item.want != "" {
			if err := asType(obj, item.hash, item.want); err != nil {
				return fmt.Errorf("walk: %w", err)
			}
		}
		if err := fn(item.hash, obj); err != nil {
			return err
		}

		refs, err := Children(obj)
		if err != nil {
			return fmt.Errorf("walk %s: %w", item.hash, err)
		}
		for i := len(refs) - 1; i >= 0; i-- {
			h, err := refs[i].Hash()
			if err != nil {
				return fmt.Errorf("walk %s: %w", item.hash, err)
			}
			if _, ok := seen[h]; !ok {
				stack = append(stack, walkItem{hash: h, want: refs[i].Type()})
			}
		}
	}
	return nil
}

// ReachableSet returns the hashes of all objects reachable from roots.
func ReachableSet(r Resolver, roots []Hash) (map[Hash]struct{}, error) {
	out := make(map[Hash]struct{})
	err := Walk(r, roots, func(h Hash, _ Object) error {
		out[h] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
