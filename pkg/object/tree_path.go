package object

import (
	"path"
	"strings"
)

// PathKind classifies a filesystem object proposed for a tree.
type PathKind uint8

const (
	PathFile PathKind = iota
	PathSymlink
	PathDir
	PathDevice
	PathSocket
	PathFIFO
	PathOther
)

func (k PathKind) String() string {
	switch k {
	case PathFile:
		return "file"
	case PathSymlink:
		return "symlink"
	case PathDir:
		return "directory"
	case PathDevice:
		return "device"
	case PathSocket:
		return "socket"
	case PathFIFO:
		return "fifo"
	default:
		return "unsupported file type"
	}
}

// PathEntry is one item proposed for a tree by ingestion code.
type PathEntry struct {
	// Path is slash-separated and relative to the tree.
	Path string
	Kind PathKind
	// Perm holds permission bits; only files keep them.
	Perm uint32
	// Content is the file contents, or the target of a symlink.
	Content []byte
}

// Upsert adds or replaces the entry at pe.Path, creating intermediate trees
// as needed. Files and symlinks become blobs; a directory becomes an empty
// tree unless one already exists at that path. Paths that leave the tree,
// name the repository directory, or describe devices, sockets or fifos are
// rejected with an *InvalidTreeEntryError.
func (t *Tree) Upsert(pe PathEntry) (*Entry, error) {
	switch pe.Kind {
	case PathFile, PathSymlink, PathDir:
	default:
		return nil, &InvalidTreeEntryError{Path: pe.Path, Reason: "is of unsupported type " + pe.Kind.String()}
	}
	parts, err := splitTreePath(pe.Path)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		if pe.Kind == PathDir {
			return nil, nil
		}
		return nil, &InvalidTreeEntryError{Path: pe.Path, Reason: "empty path"}
	}
	return t.upsert(parts, pe)
}

func (t *Tree) upsert(parts []string, pe PathEntry) (*Entry, error) {
	name := parts[0]
	existing, found, err := t.Entry(name)
	if err != nil {
		return nil, err
	}

	if len(parts) > 1 {
		var sub *Tree
		switch {
		case found && existing.Kind == KindTree:
			if sub, err = existing.Tree(); err != nil {
				return nil, err
			}
		case found:
			return nil, &InvalidTreeEntryError{Path: pe.Path, Reason: name + " is not a directory"}
		default:
			sub = NewTree()
			e, err := NewEntry(name, KindTree, 0, sub)
			if err != nil {
				return nil, err
			}
			if err := t.Set(e); err != nil {
				return nil, err
			}
		}
		leaf, err := sub.upsert(parts[1:], pe)
		if err != nil {
			return nil, err
		}
		t.hash = ""
		return leaf, nil
	}

	var e *Entry
	switch pe.Kind {
	case PathFile:
		e, err = NewEntry(name, KindBlob, pe.Perm, NewBlob(pe.Content))
	case PathSymlink:
		e, err = NewEntry(name, KindLink, 0, NewBlob(pe.Content))
	case PathDir:
		if found && existing.Kind == KindTree {
			return existing, nil
		}
		e, err = NewEntry(name, KindTree, 0, NewTree())
	}
	if err != nil {
		return nil, err
	}
	if err := t.Set(e); err != nil {
		return nil, err
	}
	return e, nil
}

// splitTreePath cleans p and splits it into entry names. It rejects paths
// that climb out of the tree and paths inside a repository directory.
func splitTreePath(p string) ([]string, error) {
	if strings.IndexByte(p, 0) >= 0 {
		return nil, &InvalidTreeEntryError{Path: p, Reason: "contains NUL"}
	}
	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, &InvalidTreeEntryError{Path: p, Reason: "is outside of the tree root"}
	}
	if clean == "." {
		return nil, nil
	}
	parts := strings.Split(clean, "/")
	for _, part := range parts {
		if part == RepoDirName {
			return nil, &InvalidTreeEntryError{Path: p, Reason: "is inside the repository directory"}
		}
	}
	return parts, nil
}

// RepoDirName is the repository directory that trees never contain.
const RepoDirName = ".git"
