package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/odvcencio/gitobj/pkg/object"
	"github.com/odvcencio/gitobj/pkg/repo"
	"github.com/spf13/cobra"
)

type lsTreeOptions struct {
	recursive bool
	treesOnly bool
	showTrees bool
	long      bool
	nulTerm   bool
	nameOnly  bool
	abbrev    int
}

func newLsTreeCmd() *cobra.Command {
	var opts lsTreeOptions
	cmd := &cobra.Command{
		Use:   "ls-tree [-r] [-d] [-t] [-l] [-z] [--name-only] [--abbrev n] <tree-ish>",
		Short: "List the contents of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.abbrev != 0 && (opts.abbrev < 4 || opts.abbrev > object.HashHexSize) {
				return fmt.Errorf("ls-tree: --abbrev must be between 4 and %d", object.HashHexSize)
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			tree, err := resolveTreeish(r, args[0])
			if err != nil {
				return err
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			if err := listTree(w, tree, opts); err != nil {
				return err
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "recurse into subtrees")
	cmd.Flags().BoolVarP(&opts.treesOnly, "dirs-only", "d", false, "show only tree entries")
	cmd.Flags().BoolVarP(&opts.showTrees, "show-trees", "t", false, "show tree entries even when recursing")
	cmd.Flags().BoolVarP(&opts.long, "long", "l", false, "show blob sizes")
	cmd.Flags().BoolVarP(&opts.nulTerm, "null", "z", false, "terminate entries with NUL")
	cmd.Flags().BoolVar(&opts.nameOnly, "name-only", false, "list only names")
	cmd.Flags().IntVar(&opts.abbrev, "abbrev", 0, "abbreviate hashes to n hex digits")
	return cmd
}

// resolveTreeish accepts a tree hash or a commit hash, abbreviated or not.
func resolveTreeish(r *repo.Repo, name string) (*object.Tree, error) {
	h, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	obj, err := r.Find(h)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *object.Tree:
		return o, nil
	case *object.Commit:
		return o.Tree()
	default:
		return nil, &object.TypeError{Hash: h, Got: obj.Type(), Want: object.TypeTree}
	}
}

type lsTreeFrame struct {
	prefix  string
	entries []*object.Entry
	next    int
}

func listTree(w io.Writer, tree *object.Tree, opts lsTreeOptions) error {
	entries, err := tree.Entries()
	if err != nil {
		return err
	}
	stack := []*lsTreeFrame{{entries: entries}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := top.entries[top.next]
		top.next++
		path := top.prefix + e.Name

		isTree := e.Kind == object.KindTree
		descend := isTree && opts.recursive
		show := !descend || opts.showTrees || opts.treesOnly
		if opts.treesOnly && !isTree {
			show = false
		}
		if show {
			if err := writeLsTreeLine(w, e, path, opts); err != nil {
				return err
			}
		}
		if descend {
			sub, err := e.Tree()
			if err != nil {
				return err
			}
			subEntries, err := sub.Entries()
			if err != nil {
				return err
			}
			stack = append(stack, &lsTreeFrame{prefix: path + "/", entries: subEntries})
		}
	}
	return nil
}

func writeLsTreeLine(w io.Writer, e *object.Entry, path string, opts lsTreeOptions) error {
	term := "\n"
	if opts.nulTerm {
		term = "\x00"
	}
	if opts.nameOnly {
		_, err := fmt.Fprint(w, path, term)
		return err
	}

	h, err := e.Hash()
	if err != nil {
		return err
	}
	hash := string(h)
	if opts.abbrev > 0 {
		hash = h.Short(opts.abbrev)
	}
	if !opts.long {
		_, err = fmt.Fprintf(w, "%06o %s %s\t%s%s", e.Mode(), e.Kind.ObjectType(), hash, path, term)
		return err
	}

	size := "-"
	if e.Kind != object.KindTree {
		obj, err := e.Object()
		if err != nil {
			return err
		}
		payload, err := obj.Payload()
		if err != nil {
			return err
		}
		size = strconv.Itoa(len(payload))
	}
	_, err = fmt.Fprintf(w, "%06o %s %s %7s\t%s%s", e.Mode(), e.Kind.ObjectType(), hash, size, path, term)
	return err
}
