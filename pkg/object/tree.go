package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/odvcencio/gitobj/pkg/lazy"
)

// EntryKind is the kind of object a tree entry points at.
type EntryKind uint8

const (
	KindBlob EntryKind = iota + 1
	KindTree
	// KindLink is a symlink; its target path is stored as a blob.
	KindLink
)

// Mode bits as written in tree payloads.
const (
	ModeTypeMask uint32 = 0o170000
	ModeTree     uint32 = 0o040000
	ModeBlob     uint32 = 0o100000
	ModeLink     uint32 = 0o120000
	PermMask     uint32 = 0o777
)

func (k EntryKind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// ObjectType is the type of the object an entry of this kind refers to.
func (k EntryKind) ObjectType() ObjectType {
	if k == KindTree {
		return TypeTree
	}
	return TypeBlob
}

func (k EntryKind) typeBits() uint32 {
	switch k {
	case KindTree:
		return ModeTree
	case KindLink:
		return ModeLink
	default:
		return ModeBlob
	}
}

func kindForMode(mode uint32) (EntryKind, bool) {
	switch mode & ModeTypeMask {
	case ModeBlob:
		return KindBlob, true
	case ModeTree:
		return KindTree, true
	case ModeLink:
		return KindLink, true
	}
	return 0, false
}

// Entry is one named child of a tree.
type Entry struct {
	Name string
	// Perm holds POSIX permission bits. Only blob entries carry them.
	Perm  uint32
	Kind  EntryKind
	Child *Ref
}

// NewEntry builds an entry for an in-memory child.
func NewEntry(name string, kind EntryKind, perm uint32, child Object) (*Entry, error) {
	if err := validName(name); err != nil {
		return nil, &InvalidTreeEntryError{Path: name, Reason: err.Error()}
	}
	if child == nil {
		return nil, &InvalidTreeEntryError{Path: name, Reason: "missing object"}
	}
	if err := asType(child, "", kind.ObjectType()); err != nil {
		return nil, err
	}
	if kind != KindBlob {
		perm = 0
	}
	return &Entry{Name: name, Perm: perm & PermMask, Kind: kind, Child: NewRef(child)}, nil
}

// Mode is the combined type and permission bits written to the payload.
func (e *Entry) Mode() uint32 {
	if e.Kind != KindBlob {
		return e.Kind.typeBits()
	}
	return ModeBlob | (e.Perm & PermMask)
}

// SortKey is the name entries are ordered by: the entry name, with a
// trailing "/" for trees. The suffix is never stored.
func (e *Entry) SortKey() string {
	return sortKey(e.Name, e.Kind)
}

func sortKey(name string, kind EntryKind) string {
	if kind == KindTree {
		return name + "/"
	}
	return name
}

// Hash returns the child's hash without loading it.
func (e *Entry) Hash() (Hash, error) {
	return e.Child.Hash()
}

// Object loads the child.
func (e *Entry) Object() (Object, error) {
	return e.Child.Object()
}

// Tree loads the child of a tree entry.
func (e *Entry) Tree() (*Tree, error) {
	obj, err := e.Child.Object()
	if err != nil {
		return nil, err
	}
	return ToTree(obj)
}

type treeEntries struct {
	list []*Entry
}

// Tree is a directory listing kept in sort-key order with unique names. A
// tree read from storage parses its entries on first access; the objects
// they point at are loaded only when dereferenced.
//
// Trees are not safe for concurrent mutation.
type Tree struct {
	// hash is the digest the tree was loaded under. It is cleared by the
	// first mutation of t, and ignored once a loaded subtree is mutated.
	hash  Hash
	state *lazy.Value[*treeEntries]
}

// NewTree returns an empty in-memory tree.
func NewTree() *Tree {
	return &Tree{state: lazy.NewReady(&treeEntries{})}
}

func loadTree(r Resolver, h Hash, payload []byte) *Tree {
	decode := func(raw []byte) (*treeEntries, error) {
		return decodeTree(r, h, raw)
	}
	verify := func(te *treeEntries) error {
		data, err := encodeTree(te.list)
		if err != nil {
			return err
		}
		return verifyHash(h, TypeTree, data)
	}
	return &Tree{hash: h, state: lazy.NewProxied(payload, decode, verify)}
}

func (t *Tree) Type() ObjectType { return TypeTree }

func (t *Tree) sealed() {}

// Materialized reports whether the entries have been decoded.
func (t *Tree) Materialized() bool {
	return t.state.State() == lazy.Materialized
}

func (t *Tree) Hash() (Hash, error) {
	if t.hash != "" && !stale(t) {
		return t.hash, nil
	}
	data, err := t.Payload()
	if err != nil {
		return "", err
	}
	return HashObject(TypeTree, data), nil
}

func (t *Tree) Payload() ([]byte, error) {
	if raw, ok := t.state.Raw(); ok {
		return raw, nil
	}
	te, err := t.state.Get()
	if err != nil {
		return nil, err
	}
	return encodeTree(te.list)
}

// Entries returns the entries in sort-key order. The slice is a copy; the
// entries are shared with the tree.
func (t *Tree) Entries() ([]*Entry, error) {
	te, err := t.state.Get()
	if err != nil {
		return nil, err
	}
	return append([]*Entry(nil), te.list...), nil
}

// Len returns the number of entries.
func (t *Tree) Len() (int, error) {
	te, err := t.state.Get()
	if err != nil {
		return 0, err
	}
	return len(te.list), nil
}

// Entry finds the entry with the given name, whatever its kind.
func (t *Tree) Entry(name string) (*Entry, bool, error) {
	te, err := t.state.Get()
	if err != nil {
		return nil, false, err
	}
	if i := searchName(te.list, name, KindBlob); i >= 0 {
		return te.list[i], true, nil
	}
	return nil, false, nil
}

// Lookup resolves a slash-separated path below t, loading intermediate
// trees as needed.
func (t *Tree) Lookup(p string) (*Entry, bool, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	cur := t
	for i, part := range parts {
		e, ok, err := cur.Entry(part)
		if err != nil || !ok {
			return nil, false, err
		}
		if i == len(parts)-1 {
			return e, true, nil
		}
		if e.Kind != KindTree {
			return nil, false, nil
		}
		if cur, err = e.Tree(); err != nil {
			return nil, false, fmt.Errorf("lookup %q: %w", p, err)
		}
	}
	return nil, false, nil
}

// Search binary-searches for the entry named like e. It returns the index
// of the entry with that name if there is one, whatever its kind.
// Otherwise it returns -(insertionPoint + 1); see InsertionPoint.
func (t *Tree) Search(e *Entry) (int, error) {
	te, err := t.state.Get()
	if err != nil {
		return 0, err
	}
	return searchName(te.list, e.Name, e.Kind), nil
}

// InsertionPoint decodes a negative Search result.
func InsertionPoint(encoded int) int {
	return -(encoded + 1)
}

// Insert places e at a position returned by Search. A non-negative index
// replaces the entry with the same name; if the kind changes the entry is
// moved so the order holds. A negative index splices e in at the encoded
// insertion point.
func (t *Tree) Insert(idx int, e *Entry) error {
	te, err := t.state.Get()
	if err != nil {
		return err
	}
	if e == nil || e.Child == nil {
		return &InvalidTreeEntryError{Reason: "missing object"}
	}
	if err := validName(e.Name); err != nil {
		return &InvalidTreeEntryError{Path: e.Name, Reason: err.Error()}
	}
	if e.Child.Type() != e.Kind.ObjectType() {
		return &TypeError{Got: e.Child.Type(), Want: e.Kind.ObjectType()}
	}

	list := te.list
	if idx >= 0 {
		if idx >= len(list) || list[idx].Name != e.Name {
			return fmt.Errorf("tree insert %q: stale index %d", e.Name, idx)
		}
		if list[idx].Kind == e.Kind {
			list[idx] = e
			t.hash = ""
			return nil
		}
		list = append(append([]*Entry(nil), list[:idx]...), list[idx+1:]...)
		idx = searchKey(list, e.SortKey())
	}

	pos := InsertionPoint(idx)
	key := e.SortKey()
	if pos < 0 || pos > len(list) ||
		(pos > 0 && list[pos-1].SortKey() >= key) ||
		(pos < len(list) && list[pos].SortKey() <= key) {
		return fmt.Errorf("tree insert %q: stale index %d", e.Name, idx)
	}
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = e
	te.list = list
	t.hash = ""
	return nil
}

// Set inserts e, replacing any entry with the same name.
func (t *Tree) Set(e *Entry) error {
	idx, err := t.Search(e)
	if err != nil {
		return err
	}
	return t.Insert(idx, e)
}

// Remove deletes the entry with the given name. It reports whether one existed.
func (t *Tree) Remove(name string) (bool, error) {
	te, err := t.state.Get()
	if err != nil {
		return false, err
	}
	i := searchName(te.list, name, KindBlob)
	if i < 0 {
		return false, nil
	}
	te.list = append(te.list[:i], te.list[i+1:]...)
	t.hash = ""
	return true, nil
}

// searchName finds the entry called name, trying kind's sort key first and
// then the other one, since the key depends on whether the entry is a tree.
func searchName(list []*Entry, name string, kind EntryKind) int {
	idx := searchKey(list, sortKey(name, kind))
	if idx >= 0 {
		return idx
	}
	alt := KindTree
	if kind == KindTree {
		alt = KindBlob
	}
	if i := searchKey(list, sortKey(name, alt)); i >= 0 && list[i].Name == name {
		return i
	}
	return idx
}

// searchKey binary-searches list by sort key.
func searchKey(list []*Entry, key string) int {
	low, high := 0, len(list)
	for low < high {
		mid := int(uint(low+high) >> 1)
		switch k := list[mid].SortKey(); {
		case key < k:
			high = mid
		case key > k:
			low = mid + 1
		default:
			return mid
		}
	}
	return -(low + 1)
}

// validName rejects names that cannot appear as a single tree entry.
func validName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("reserved name")
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("name contains a path separator or NUL")
	}
	return nil
}

// encodeTree writes each entry as "<octal mode> <name>\0<20-byte hash>".
func encodeTree(list []*Entry) ([]byte, error) {
	buf := make([]byte, 0, len(list)*(HashSize+32))
	for _, e := range list {
		h, err := e.Child.Hash()
		if err != nil {
			return nil, fmt.Errorf("encode tree entry %q: %w", e.Name, err)
		}
		raw, err := h.Raw()
		if err != nil {
			return nil, fmt.Errorf("encode tree entry %q: %w", e.Name, err)
		}
		buf = strconv.AppendUint(buf, uint64(e.Mode()), 8)
		buf = append(buf, ' ')
		buf = append(buf, e.Name...)
		buf = append(buf, 0)
		buf = append(buf, raw...)
	}
	return buf, nil
}

// decodeTree parses tree records, rejecting out-of-order or duplicate
// names and modes outside the supported kinds.
func decodeTree(r Resolver, h Hash, data []byte) (*treeEntries, error) {
	te := &treeEntries{}
	names := make(map[string]struct{})
	prevKey := ""
	for len(data) > 0 {
		sp := bytes.IndexByte(data, ' ')
		if sp <= 0 || data[0] == '0' {
			return nil, corruptf(h, "malformed tree entry mode")
		}
		var mode uint32
		for _, b := range data[:sp] {
			if b < '0' || b > '7' || mode > ModeTypeMask {
				return nil, corruptf(h, "malformed tree entry mode %q", data[:sp])
			}
			mode = mode<<3 | uint32(b-'0')
		}
		data = data[sp+1:]

		nul := bytes.IndexByte(data, 0)
		if nul < 0 {
			return nil, corruptf(h, "unterminated tree entry name")
		}
		name := string(data[:nul])
		data = data[nul+1:]
		if len(data) < HashSize {
			return nil, corruptf(h, "truncated hash for tree entry %q", name)
		}
		childHash, _ := HashFromRaw(data[:HashSize])
		data = data[HashSize:]

		if err := validName(name); err != nil {
			return nil, corruptf(h, "tree entry %q: %v", name, err)
		}
		kind, ok := kindForMode(mode)
		if !ok {
			return nil, corruptf(h, "tree entry %q: unsupported mode %o", name, mode)
		}
		perm := mode & PermMask
		if kind != KindBlob && perm != 0 {
			return nil, corruptf(h, "tree entry %q: %s with permission bits %o", name, kind, perm)
		}
		if _, dup := names[name]; dup {
			return nil, corruptf(h, "duplicate tree entry %q", name)
		}
		names[name] = struct{}{}
		key := sortKey(name, kind)
		if len(te.list) > 0 && key <= prevKey {
			return nil, corruptf(h, "tree entry %q out of order", name)
		}
		prevKey = key

		te.list = append(te.list, &Entry{
			Name:  name,
			Perm:  perm,
			Kind:  kind,
			Child: RefTo(r, kind.ObjectType(), childHash),
		})
	}
	return te, nil
}
