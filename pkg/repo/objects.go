package repo

import (
	"fmt"

	"github.com/odvcencio/gitobj/pkg/object"
	"go.uber.org/zap"
)

// Find reads the object stored at h. Trees and commits come back
// unmaterialized; nothing below them is read until it is dereferenced.
func (r *Repo) Find(h object.Hash) (object.Object, error) {
	typ, payload, err := r.read(h)
	if err != nil {
		return nil, err
	}
	return object.Decode(r, h, typ, payload)
}

func (r *Repo) read(h object.Hash) (object.ObjectType, []byte, error) {
	if r.Cache == nil {
		return r.Store.Get(h)
	}
	return r.Cache.load(h, func() (object.ObjectType, []byte, error) {
		r.log.Debug("cache miss", zap.String("hash", string(h)))
		return r.Store.Get(h)
	})
}

// FindBlob is Find restricted to blobs.
func (r *Repo) FindBlob(h object.Hash) (*object.Blob, error) {
	obj, err := r.findType(h, object.TypeBlob)
	if err != nil {
		return nil, err
	}
	return obj.(*object.Blob), nil
}

// FindTree is Find restricted to trees.
func (r *Repo) FindTree(h object.Hash) (*object.Tree, error) {
	obj, err := r.findType(h, object.TypeTree)
	if err != nil {
		return nil, err
	}
	return obj.(*object.Tree), nil
}

// FindCommit is Find restricted to commits.
func (r *Repo) FindCommit(h object.Hash) (*object.Commit, error) {
	obj, err := r.findType(h, object.TypeCommit)
	if err != nil {
		return nil, err
	}
	return obj.(*object.Commit), nil
}

func (r *Repo) findType(h object.Hash, want object.ObjectType) (object.Object, error) {
	obj, err := r.Find(h)
	if err != nil {
		return nil, err
	}
	if obj.Type() != want {
		return nil, &object.TypeError{Hash: h, Got: obj.Type(), Want: want}
	}
	return obj, nil
}

// Exists reports whether h is in the store.
func (r *Repo) Exists(h object.Hash) bool {
	return r.Store.Has(h)
}

// Resolve expands an abbreviated hash to the full hash of a stored object.
func (r *Repo) Resolve(prefix string) (object.Hash, error) {
	return r.Store.Disambiguate(prefix)
}

// Delete removes a stored object, for rolling back a write. It reports
// whether an object was removed.
func (r *Repo) Delete(h object.Hash) (bool, error) {
	if r.Cache != nil {
		r.Cache.Forget(h)
	}
	return r.Store.Delete(h)
}

// Walk visits every object reachable from roots. See object.Walk.
func (r *Repo) Walk(roots []object.Hash, fn object.WalkFunc) error {
	return object.Walk(r, roots, fn)
}

// Save writes obj to the store and returns its hash. In-memory children
// that are not stored yet are written first, so the store never holds an
// object whose children are missing. Saving is idempotent.
func (r *Repo) Save(obj object.Object) (object.Hash, error) {
	root, err := obj.Hash()
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	if r.Store.Has(root) {
		return root, nil
	}

	type frame struct {
		obj      object.Object
		expanded bool
	}
	stack := []frame{{obj: obj}}
	written := 0
	for len(stack) > 0 {
		top := len(stack) - 1
		if !stack[top].expanded {
			stack[top].expanded = true
			refs, err := object.Children(stack[top].obj)
			if err != nil {
				return "", fmt.Errorf("save: %w", err)
			}
			for i := len(refs) - 1; i >= 0; i-- {
				if !refs[i].Resolved() {
					continue
				}
				child, err := refs[i].Object()
				if err != nil {
					return "", fmt.Errorf("save: %w", err)
				}
				h, err := child.Hash()
				if err != nil {
					return "", fmt.Errorf("save: %w", err)
				}
				if !r.Store.Has(h) {
					stack = append(stack, frame{obj: child})
				}
			}
			continue
		}

		cur := stack[top].obj
		stack = stack[:top]
		payload, err := cur.Payload()
		if err != nil {
			return "", fmt.Errorf("save: %w", err)
		}
		if _, err := r.Store.Write(cur.Type(), payload); err != nil {
			return "", fmt.Errorf("save: %w", err)
		}
		written++
	}

	r.log.Debug("saved object graph", zap.String("root", string(root)), zap.Int("objects", written))
	return root, nil
}
