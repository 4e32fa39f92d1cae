package repo

import (
	"fmt"
	"path/filepath"

	"github.com/odvcencio/gitobj/pkg/object"
	"github.com/odvcencio/gitobj/pkg/worktree"
	"go.uber.org/zap"
)

// BuildTree scans the given paths and folds them into a new in-memory tree
// rooted at the working directory. Relative paths are taken from RootDir;
// with no paths the whole working directory is scanned. Nothing is saved.
func (r *Repo) BuildTree(paths ...string) (*object.Tree, error) {
	if len(paths) == 0 {
		paths = []string{r.RootDir}
	}
	tree := object.NewTree()
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(r.RootDir, p)
		}
		if !worktree.SubdirOf(r.RootDir, p) {
			return nil, fmt.Errorf("build tree: %w", &object.InvalidTreeEntryError{Path: p, Reason: "is outside of repository"})
		}
		if err := r.addPath(tree, p); err != nil {
			return nil, fmt.Errorf("build tree: %w", err)
		}
	}
	return tree, nil
}

func (r *Repo) addPath(tree *object.Tree, p string) error {
	entries, err := worktree.Scan(r.RootDir, p)
	if err != nil {
		return err
	}
	// A file named directly needs its parent directories; Upsert creates
	// them, so only the leaf entries matter here.
	for _, pe := range entries {
		if _, err := tree.Upsert(pe); err != nil {
			return err
		}
	}
	r.log.Debug("scanned path", zap.String("path", p), zap.Int("entries", len(entries)))
	return nil
}

// WriteTree builds a tree from the given paths, as BuildTree does, and
// saves it together with every blob and subtree it holds.
func (r *Repo) WriteTree(paths ...string) (object.Hash, error) {
	tree, err := r.BuildTree(paths...)
	if err != nil {
		return "", err
	}
	h, err := r.Save(tree)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	return h, nil
}
