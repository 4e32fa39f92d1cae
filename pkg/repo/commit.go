package repo

import (
	"fmt"

	"github.com/odvcencio/gitobj/pkg/object"
)

// NewCommit builds a commit of tree with the given parents. Author and
// committer come from DefaultIdentity and both timestamps from r.Now. The
// commit is not saved.
func (r *Repo) NewCommit(tree *object.Tree, message string, parents ...*object.Commit) (*object.Commit, error) {
	if tree == nil {
		return nil, fmt.Errorf("new commit: missing tree")
	}
	id, err := r.DefaultIdentity()
	if err != nil {
		return nil, fmt.Errorf("new commit: %w", err)
	}
	now := r.Now()

	parentRefs := make([]*object.Ref, 0, len(parents))
	for _, p := range parents {
		parentRefs = append(parentRefs, object.NewRef(p))
	}
	return object.NewCommit(object.CommitInfo{
		Tree:        object.NewRef(tree),
		Parents:     parentRefs,
		Author:      id,
		Committer:   id,
		AuthoredAt:  now,
		CommittedAt: now,
		Message:     message,
	})
}

// CommitTree builds and saves a commit of the stored tree treeHash with
// stored parents, without loading any of them.
func (r *Repo) CommitTree(treeHash object.Hash, message string, parents ...object.Hash) (object.Hash, error) {
	if _, err := r.FindTree(treeHash); err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	parentRefs := make([]*object.Ref, 0, len(parents))
	for _, p := range parents {
		if _, err := r.FindCommit(p); err != nil {
			return "", fmt.Errorf("commit tree: parent: %w", err)
		}
		parentRefs = append(parentRefs, object.RefTo(r, object.TypeCommit, p))
	}
	id, err := r.DefaultIdentity()
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	now := r.Now()
	c, err := object.NewCommit(object.CommitInfo{
		Tree:        object.RefTo(r, object.TypeTree, treeHash),
		Parents:     parentRefs,
		Author:      id,
		Committer:   id,
		AuthoredAt:  now,
		CommittedAt: now,
		Message:     message,
	})
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	return r.Save(c)
}
