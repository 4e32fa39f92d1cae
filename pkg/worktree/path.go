package worktree

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SubdirOf reports whether child is parent itself or lies beneath it.
// Both paths are made absolute and cleaned first; symlinks are not
// resolved.
func SubdirOf(parent, child string) bool {
	rel, err := relPath(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

// Rel returns child relative to root as a slash-separated path. It fails
// when child is not inside root.
func Rel(root, child string) (string, error) {
	rel, err := relPath(root, child)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside of %s", child, root)
	}
	return rel, nil
}

func relPath(parent, child string) (string, error) {
	p, err := filepath.Abs(parent)
	if err != nil {
		return "", err
	}
	c, err := filepath.Abs(child)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(p, c)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
