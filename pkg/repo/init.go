package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/gitobj/pkg/object"
)

// Init creates a new repository at path: a .git/ directory holding an
// empty objects/ store. Returns an error if a .git/ directory already
// exists.
func Init(path string, opts ...Option) (*Repo, error) {
	gitDir := filepath.Join(path, object.RepoDirName)

	// Fail if .git/ already exists.
	if _, err := os.Stat(gitDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	}

	objectsDir := filepath.Join(gitDir, "objects")
	if err := os.MkdirAll(objectsDir, 0o755); err != nil {
		return nil, fmt.Errorf("init: mkdir %s: %w", objectsDir, err)
	}

	return newRepo(path, gitDir, opts), nil
}

// Open searches upward from path for a .git/ directory and opens the
// repository, applying the compression level from its config.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, object.RepoDirName)
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			cfg, err := readConfigFile(configPath(gitDir))
			if err != nil {
				return nil, fmt.Errorf("open: %w", err)
			}
			var storeOpts []object.StoreOption
			if cfg.Core.Compression != nil {
				storeOpts = append(storeOpts, object.WithCompressionLevel(*cfg.Core.Compression))
			}
			return newRepo(cur, gitDir, opts, storeOpts...), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a git repository (or any parent up to /)")
		}
		cur = parent
	}
}
