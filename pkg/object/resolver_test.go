package object

import (
	"fmt"
	"testing"
)

type memObject struct {
	typ     ObjectType
	payload []byte
}

// memResolver is an in-memory Resolver that counts lookups.
type memResolver struct {
	objs  map[Hash]memObject
	finds int
}

func newMemResolver() *memResolver {
	return &memResolver{objs: make(map[Hash]memObject)}
}

func (m *memResolver) add(t *testing.T, obj Object) Hash {
	t.Helper()
	payload, err := obj.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	h := HashObject(obj.Type(), payload)
	m.objs[h] = memObject{typ: obj.Type(), payload: payload}
	return h
}

func (m *memResolver) Find(h Hash) (Object, error) {
	m.finds++
	o, ok := m.objs[h]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", h, ErrObjectNotFound)
	}
	return Decode(m, h, o.typ, o.payload)
}

// addGraph stores obj and every in-memory object reachable from it.
func (m *memResolver) addGraph(t *testing.T, obj Object) Hash {
	t.Helper()
	stack := []Object{obj}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m.add(t, cur)
		refs, err := Children(cur)
		if err != nil {
			t.Fatalf("Children: %v", err)
		}
		for _, ref := range refs {
			if child := ref.loaded(); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return m.add(t, obj)
}
