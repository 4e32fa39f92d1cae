package repo

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/odvcencio/gitobj/pkg/object"
)

// buildSnapshot returns an in-memory tree:
//
//	README
//	src/main.go
//	src/lib/util.go
func buildSnapshot(t *testing.T) *object.Tree {
	t.Helper()
	tree := object.NewTree()
	for _, pe := range []object.PathEntry{
		{Path: "README", Kind: object.PathFile, Perm: 0o644, Content: []byte("readme\n")},
		{Path: "src/main.go", Kind: object.PathFile, Perm: 0o644, Content: []byte("package main\n")},
		{Path: "src/lib/util.go", Kind: object.PathFile, Perm: 0o644, Content: []byte("package lib\n")},
	} {
		if _, err := tree.Upsert(pe); err != nil {
			t.Fatalf("Upsert(%q): %v", pe.Path, err)
		}
	}
	return tree
}

func TestSaveWritesChildrenFirstAndOnce(t *testing.T) {
	r := newTestRepo(t)
	tree := buildSnapshot(t)
	c, err := r.NewCommit(tree, "initial\n")
	if err != nil {
		t.Fatalf("NewCommit: %v", err)
	}

	h, err := r.Save(c)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	// commit, root tree, src, src/lib, three blobs
	if got := r.Store.Stats().Writes; got != 7 {
		t.Fatalf("Writes after Save = %d, want 7", got)
	}

	set, err := object.ReachableSet(r, []object.Hash{h})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	if len(set) != 7 {
		t.Fatalf("reachable objects = %d, want 7", len(set))
	}
	for oh := range set {
		if !r.Exists(oh) {
			t.Errorf("reachable object %s not stored", oh)
		}
	}

	again, err := r.Save(c)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if again != h {
		t.Fatalf("second Save hash = %s, want %s", again, h)
	}
	if got := r.Store.Stats().Writes; got != 7 {
		t.Fatalf("Writes after second Save = %d, want 7", got)
	}
}

func TestSaveSkipsStoredSubtrees(t *testing.T) {
	r := newTestRepo(t)
	tree := buildSnapshot(t)
	if _, err := r.Save(tree); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before := r.Store.Stats().Writes

	if _, err := tree.Upsert(object.PathEntry{Path: "NEWS", Kind: object.PathFile, Perm: 0o644, Content: []byte("news\n")}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := r.Save(tree); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Only the new blob and the changed root tree are written.
	if got := r.Store.Stats().Writes - before; got != 2 {
		t.Fatalf("Writes for one added file = %d, want 2", got)
	}
}

func TestFindIsLazy(t *testing.T) {
	r := newTestRepo(t)
	c, err := r.NewCommit(buildSnapshot(t), "lazy\n")
	if err != nil {
		t.Fatalf("NewCommit: %v", err)
	}
	h, err := r.Save(c)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	base := r.Store.Stats().Reads
	loaded, err := r.FindCommit(h)
	if err != nil {
		t.Fatalf("FindCommit: %v", err)
	}
	if got := r.Store.Stats().Reads - base; got != 1 {
		t.Fatalf("FindCommit read %d objects, want 1", got)
	}
	if loaded.Materialized() {
		t.Fatal("commit materialized by Find")
	}

	if msg, err := loaded.Message(); err != nil || msg != "lazy\n" {
		t.Fatalf("Message = (%q, %v)", msg, err)
	}
	if !loaded.Materialized() {
		t.Fatal("commit not materialized after Message")
	}
	if got := r.Store.Stats().Reads - base; got != 1 {
		t.Fatalf("reading the message triggered %d reads, want 1 in total", got)
	}

	tree, err := loaded.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if got := r.Store.Stats().Reads - base; got != 2 {
		t.Fatalf("after Tree: %d reads, want 2", got)
	}
	if tree.Materialized() {
		t.Fatal("tree materialized before access")
	}
	if _, ok, err := tree.Entry("README"); err != nil || !ok {
		t.Fatalf("Entry(README) = (%v, %v)", ok, err)
	}
	if got := r.Store.Stats().Reads - base; got != 2 {
		t.Fatalf("reading tree entries triggered blob reads: %d reads, want 2", got)
	}
}

func TestFindTypedMismatch(t *testing.T) {
	r := newTestRepo(t)
	h, err := r.Save(buildSnapshot(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err = r.FindBlob(h)
	if !errors.Is(err, object.ErrObjectType) {
		t.Fatalf("FindBlob(tree) error = %v, want ErrObjectType", err)
	}
	var te *object.TypeError
	if !errors.As(err, &te) {
		t.Fatalf("FindBlob(tree) error %T, want *object.TypeError", err)
	}
	if diff := cmp.Diff(object.TypeError{Hash: h, Got: object.TypeTree, Want: object.TypeBlob}, *te); diff != "" {
		t.Fatalf("TypeError mismatch (-want +got):\n%s", diff)
	}
	if _, err := r.FindCommit(h); !errors.Is(err, object.ErrObjectType) {
		t.Fatalf("FindCommit(tree) error = %v, want ErrObjectType", err)
	}
	if _, err := r.FindTree(h); err != nil {
		t.Fatalf("FindTree: %v", err)
	}
}

func TestFindMissing(t *testing.T) {
	r := newTestRepo(t)
	missing := object.HashObject(object.TypeBlob, []byte("never written"))
	if _, err := r.Find(missing); !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("Find error = %v, want ErrObjectNotFound", err)
	}
	if r.Exists(missing) {
		t.Fatal("Exists = true for a missing object")
	}
}

func TestFindReturnsFreshInstances(t *testing.T) {
	r := newTestRepo(t)
	h, err := r.Save(buildSnapshot(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	a, err := r.FindTree(h)
	if err != nil {
		t.Fatalf("FindTree: %v", err)
	}
	b, err := r.FindTree(h)
	if err != nil {
		t.Fatalf("FindTree: %v", err)
	}
	if a == b {
		t.Fatal("Find returned the same instance twice")
	}
	if _, err := a.Upsert(object.PathEntry{Path: "extra", Kind: object.PathFile, Perm: 0o644}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if b.Materialized() {
		t.Fatal("second instance materialized by the first one's access")
	}
	if _, ok, _ := b.Entry("extra"); ok {
		t.Fatal("mutating one found tree changed another")
	}
}

func TestResolveAndDelete(t *testing.T) {
	r := newTestRepo(t, WithCache(NewCache()))
	blob := object.NewBlob([]byte("to be rolled back"))
	h, err := r.Save(blob)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := r.Resolve(string(h[:7]))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != h {
		t.Fatalf("Resolve = %s, want %s", got, h)
	}
	if _, err := r.FindBlob(h); err != nil {
		t.Fatalf("FindBlob: %v", err)
	}

	removed, err := r.Delete(h)
	if err != nil || !removed {
		t.Fatalf("Delete = (%v, %v)", removed, err)
	}
	if _, err := r.FindBlob(h); !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("FindBlob after Delete error = %v, want ErrObjectNotFound", err)
	}
	if _, err := r.Resolve(string(h[:7])); !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("Resolve after Delete error = %v, want ErrObjectNotFound", err)
	}
}

func TestWalkThroughRepo(t *testing.T) {
	r := newTestRepo(t)
	first, err := r.NewCommit(buildSnapshot(t), "first\n")
	if err != nil {
		t.Fatalf("NewCommit: %v", err)
	}
	second, err := r.NewCommit(buildSnapshot(t), "second\n", first)
	if err != nil {
		t.Fatalf("NewCommit: %v", err)
	}
	h, err := r.Save(second)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	counts := map[object.ObjectType]int{}
	err = r.Walk([]object.Hash{h}, func(_ object.Hash, obj object.Object) error {
		counts[obj.Type()]++
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	// Both commits share one tree graph.
	want := map[object.ObjectType]int{object.TypeCommit: 2, object.TypeTree: 3, object.TypeBlob: 3}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("walk counts mismatch (-want +got):\n%s", diff)
	}
}

func TestCorruptObjectSurfacesThroughFind(t *testing.T) {
	r := newTestRepo(t)
	h, err := r.Save(object.NewBlob([]byte("original")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := r.Delete(h); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Plant a different object's bytes under h.
	other, err := r.Store.Write(object.TypeBlob, []byte("impostor"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	copyObjectFile(t, r, other, h)

	if _, err := r.Find(h); !errors.Is(err, object.ErrCorruptObject) {
		t.Fatalf("Find error = %v, want ErrCorruptObject", err)
	}
}

func TestSaveAfterMutatingLoadedSubtree(t *testing.T) {
	r := newTestRepo(t, WithCache(NewCache()))
	h, err := r.Save(buildSnapshot(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	root, err := r.FindTree(h)
	if err != nil {
		t.Fatalf("FindTree: %v", err)
	}
	e, ok, err := root.Lookup("src/lib")
	if err != nil || !ok {
		t.Fatalf("Lookup(src/lib) = (%v, %v)", ok, err)
	}
	lib, err := e.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if _, err := lib.Upsert(object.PathEntry{Path: "extra.go", Kind: object.PathFile, Perm: 0o644, Content: []byte("package lib\n// extra\n")}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	writes := r.Store.Stats().Writes
	h2, err := r.Save(root)
	if err != nil {
		t.Fatalf("Save(mutated): %v", err)
	}
	if h2 == h {
		t.Fatal("Save returned the old root hash")
	}
	payload, err := root.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if want := object.HashObject(object.TypeTree, payload); h2 != want {
		t.Fatalf("Save hash = %s, payload hashes to %s", h2, want)
	}
	// new blob, src/lib, src, root
	if got := r.Store.Stats().Writes - writes; got != 4 {
		t.Fatalf("objects written = %d, want 4", got)
	}

	reloaded, err := r.FindTree(h2)
	if err != nil {
		t.Fatalf("FindTree(new root): %v", err)
	}
	fe, ok, err := reloaded.Lookup("src/lib/extra.go")
	if err != nil || !ok {
		t.Fatalf("Lookup(extra.go) = (%v, %v)", ok, err)
	}
	obj, err := fe.Object()
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if got := string(obj.(*object.Blob).Data()); got != "package lib\n// extra\n" {
		t.Fatalf("extra.go = %q", got)
	}
}
