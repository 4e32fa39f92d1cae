// Package worktree turns files on disk into path entries for tree
// construction. It decides nothing about what a tree may hold; that is
// object.Tree.Upsert's job.
package worktree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/gitobj/pkg/object"
)

// Scan walks target and proposes one PathEntry per file, symlink and
// directory under it, with paths relative to root. Symlinks are not
// followed. Anything inside a repository directory is skipped. Devices,
// sockets and fifos are reported with their own kinds so the caller can
// reject them.
//
// Entries come in lexical walk order, so a directory always precedes its
// contents.
func Scan(root, target string) ([]object.PathEntry, error) {
	if !SubdirOf(root, target) {
		return nil, &object.InvalidTreeEntryError{Path: target, Reason: "is outside of repository"}
	}
	if rel, err := Rel(root, target); err == nil && inRepoDir(rel) {
		return nil, nil
	}

	var out []object.PathEntry
	err := filepath.WalkDir(target, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := Rel(root, p)
		if err != nil {
			return err
		}
		if d.Name() == object.RepoDirName && rel != "." {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}

		info, err := os.Lstat(p)
		if err != nil {
			return err
		}
		pe := object.PathEntry{Path: rel, Kind: kindFromFileMode(info.Mode())}
		switch pe.Kind {
		case object.PathFile:
			pe.Perm = permFromFileInfo(info)
			if pe.Content, err = os.ReadFile(p); err != nil {
				return err
			}
		case object.PathSymlink:
			dest, err := os.Readlink(p)
			if err != nil {
				return err
			}
			pe.Content = []byte(filepath.ToSlash(dest))
		}
		out = append(out, pe)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", target, err)
	}
	return out, nil
}

func inRepoDir(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if part == object.RepoDirName {
			return true
		}
	}
	return false
}
