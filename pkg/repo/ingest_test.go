package repo

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/odvcencio/gitobj/pkg/object"
)

func lsTree(t *testing.T, r *Repo, h object.Hash) map[string]uint32 {
	t.Helper()
	out := map[string]uint32{}
	var visit func(prefix string, tree *object.Tree)
	visit = func(prefix string, tree *object.Tree) {
		entries, err := tree.Entries()
		if err != nil {
			t.Fatalf("Entries: %v", err)
		}
		for _, e := range entries {
			out[prefix+e.Name] = e.Mode()
			if e.Kind == object.KindTree {
				sub, err := e.Tree()
				if err != nil {
					t.Fatalf("Tree(%s): %v", e.Name, err)
				}
				visit(prefix+e.Name+"/", sub)
			}
		}
	}
	tree, err := r.FindTree(h)
	if err != nil {
		t.Fatalf("FindTree: %v", err)
	}
	visit("", tree)
	return out
}

func TestWriteTreeIngestsWorkingDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks and permission bits")
	}
	r := newTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "README"), "readme\n", 0o644)
	writeTestFile(t, filepath.Join(r.RootDir, "bin", "run"), "#!/bin/sh\n", 0o755)
	writeTestFile(t, filepath.Join(r.RootDir, "src", "main.go"), "package main\n", 0o600)
	if err := os.Symlink("README", filepath.Join(r.RootDir, "link")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(r.RootDir, "empty"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	h, err := r.WriteTree()
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	want := map[string]uint32{
		"README":      0o100644,
		"bin":         0o040000,
		"bin/run":     0o100755,
		"empty":       0o040000,
		"link":        0o120000,
		"src":         0o040000,
		"src/main.go": 0o100644,
	}
	if diff := cmp.Diff(want, lsTree(t, r, h)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	tree, err := r.FindTree(h)
	if err != nil {
		t.Fatalf("FindTree: %v", err)
	}
	link, ok, err := tree.Lookup("link")
	if err != nil || !ok {
		t.Fatalf("Lookup(link) = (%v, %v)", ok, err)
	}
	target, err := link.Object()
	if err != nil {
		t.Fatalf("Object: %v", err)
	}
	if got := string(target.(*object.Blob).Data()); got != "README" {
		t.Fatalf("link target = %q, want README", got)
	}

	again, err := r.WriteTree()
	if err != nil {
		t.Fatalf("second WriteTree: %v", err)
	}
	if again != h {
		t.Fatalf("second WriteTree = %s, want %s", again, h)
	}
}

func TestWriteTreeSubsetOfPaths(t *testing.T) {
	r := newTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "keep", "a.txt"), "a", 0o644)
	writeTestFile(t, filepath.Join(r.RootDir, "skip", "b.txt"), "b", 0o644)
	writeTestFile(t, filepath.Join(r.RootDir, "top.txt"), "top", 0o644)

	h, err := r.WriteTree("keep", filepath.Join(r.RootDir, "top.txt"))
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	want := map[string]uint32{
		"keep":       0o040000,
		"keep/a.txt": 0o100644,
		"top.txt":    0o100644,
	}
	if diff := cmp.Diff(want, lsTree(t, r, h)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTreeSkipsRepositoryDirectory(t *testing.T) {
	r := newTestRepo(t)
	writeTestFile(t, filepath.Join(r.RootDir, "file"), "x", 0o644)
	if _, err := r.Save(object.NewBlob([]byte("something stored"))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	h, err := r.WriteTree()
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if diff := cmp.Diff(map[string]uint32{"file": 0o100644}, lsTree(t, r, h)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	h, err = r.WriteTree(r.GitDir)
	if err != nil {
		t.Fatalf("WriteTree(.git): %v", err)
	}
	if h != "4b825dc642cb6eb9a060e54bf8d69288fbee4904" {
		t.Fatalf("WriteTree(.git) = %s, want the empty tree", h)
	}
}

func TestWriteTreeRejectsOutsidePaths(t *testing.T) {
	r := newTestRepo(t)
	outside := t.TempDir()
	writeTestFile(t, filepath.Join(outside, "secret"), "x", 0o644)
	if _, err := r.WriteTree(outside); !errors.Is(err, object.ErrInvalidTreeEntry) {
		t.Fatalf("WriteTree(outside) error = %v, want ErrInvalidTreeEntry", err)
	}
	if _, err := r.WriteTree("../escape"); !errors.Is(err, object.ErrInvalidTreeEntry) {
		t.Fatalf("WriteTree(../escape) error = %v, want ErrInvalidTreeEntry", err)
	}
}
