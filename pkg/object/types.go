package object

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	// TypeTag is reserved. It is never produced and never decoded.
	TypeTag ObjectType = "tag"
)

// Known reports whether t is a type the store accepts.
func (t ObjectType) Known() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
		return true
	}
	return false
}

// ParseObjectType validates a type name such as "blob".
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(s)
	if !t.Known() {
		return "", &TypeError{Got: t}
	}
	return t, nil
}

// Object is one of *Blob, *Tree or *Commit. The set is closed.
type Object interface {
	// Type returns the object's kind tag.
	Type() ObjectType
	// Hash returns the digest of the object's canonical form. It fails only
	// when the object (or an in-memory child) cannot produce its payload.
	Hash() (Hash, error)
	// Payload returns the serialized payload that the digest covers.
	Payload() ([]byte, error)

	sealed()
}

// Resolver looks objects up by hash. The repository façade implements it.
type Resolver interface {
	Find(h Hash) (Object, error)
}

// Decode builds the object for a (type, payload) pair read from storage.
// Trees and commits come back unmaterialized; children are resolved through
// r only when they are dereferenced.
func Decode(r Resolver, h Hash, t ObjectType, payload []byte) (Object, error) {
	switch t {
	case TypeBlob:
		return loadBlob(h, payload), nil
	case TypeTree:
		return loadTree(r, h, payload), nil
	case TypeCommit:
		return loadCommit(r, h, payload), nil
	default:
		return nil, &CorruptObjectError{Hash: h, Reason: "unsupported object type " + string(t)}
	}
}

// ToTree returns obj as a tree. Only trees are tree-ish.
func ToTree(obj Object) (*Tree, error) {
	if t, ok := obj.(*Tree); ok {
		return t, nil
	}
	h, _ := obj.Hash()
	return nil, &TypeError{Hash: h, Got: obj.Type(), Want: TypeTree}
}

func asType(obj Object, h Hash, want ObjectType) error {
	if obj.Type() != want {
		return &TypeError{Hash: h, Got: obj.Type(), Want: want}
	}
	return nil
}
