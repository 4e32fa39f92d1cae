package worktree

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/odvcencio/gitobj/pkg/object"
)

func writeFile(t *testing.T, path, data string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), perm); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
}

func TestScanProposesEntries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks and permission bits")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a", 0o644)
	writeFile(t, filepath.Join(root, "dir", "tool"), "#!/bin/sh\n", 0o750)
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n", 0o644)
	if err := os.Symlink("a.txt", filepath.Join(root, "link")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	got, err := Scan(root, root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []object.PathEntry{
		{Path: "a.txt", Kind: object.PathFile, Perm: PermFile, Content: []byte("a")},
		{Path: "dir", Kind: object.PathDir},
		{Path: "dir/tool", Kind: object.PathFile, Perm: PermExecutable, Content: []byte("#!/bin/sh\n")},
		{Path: "link", Kind: object.PathSymlink, Content: []byte("a.txt")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestScanSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "nested", "f"), "data", 0o644)
	got, err := Scan(root, filepath.Join(root, "nested", "f"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []object.PathEntry{{Path: "nested/f", Kind: object.PathFile, Perm: PermFile, Content: []byte("data")}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestScanReportsSockets(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets")
	}
	root, err := os.MkdirTemp("", "wt")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })
	l, err := net.Listen("unix", filepath.Join(root, "s"))
	if err != nil {
		t.Skipf("unix socket unavailable: %v", err)
	}
	defer l.Close()

	got, err := Scan(root, root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 || got[0].Kind != object.PathSocket {
		t.Fatalf("Scan = %+v, want one socket entry", got)
	}
	tree := object.NewTree()
	if _, err := tree.Upsert(got[0]); !errors.Is(err, object.ErrInvalidTreeEntry) {
		t.Fatalf("Upsert(socket) error = %v, want ErrInvalidTreeEntry", err)
	}
}

func TestScanOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	if _, err := Scan(root, other); !errors.Is(err, object.ErrInvalidTreeEntry) {
		t.Fatalf("Scan(outside) error = %v, want ErrInvalidTreeEntry", err)
	}
}

func TestScanInsideRepositoryDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "objects", "x"), "x", 0o644)
	got, err := Scan(root, filepath.Join(root, ".git", "objects"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Scan inside .git = %+v, want nothing", got)
	}
}
