package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odvcencio/gitobj/pkg/object"
)

var testIdentity = object.Identity{Name: "Test User", Email: "test@example.com"}

// newTestRepo initializes a repository with a fixed identity and clock.
func newTestRepo(t *testing.T, opts ...Option) *Repo {
	t.Helper()
	opts = append([]Option{WithIdentity(StaticIdentity(testIdentity))}, opts...)
	r, err := Init(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	r.Now = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	return r
}

func writeTestFile(t *testing.T, path string, data string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), perm); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// WriteFile honours the umask; set the bits explicitly.
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
}

func assertDir(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected directory %s: %v", path, err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", path)
	}
}

// copyObjectFile copies the stored file of src to the path of dst.
func copyObjectFile(t *testing.T, r *Repo, src, dst object.Hash) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.GitDir, "objects", string(src[:2]), string(src[2:])))
	if err != nil {
		t.Fatalf("read object file: %v", err)
	}
	dstPath := filepath.Join(r.GitDir, "objects", string(dst[:2]), string(dst[2:]))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		t.Fatalf("write object file: %v", err)
	}
}
