package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/gitobj/pkg/object"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd() *cobra.Command {
	var (
		parents  []string
		messages []string
	)
	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p parent]... [-m message]...",
		Short: "Store a commit of an existing tree",
		Long:  "Creates a commit of the given tree. Several -m flags become separate paragraphs; without -m the message is read from standard input.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			treeHash, err := r.Resolve(args[0])
			if err != nil {
				return err
			}
			parentHashes := make([]object.Hash, 0, len(parents))
			for _, p := range parents {
				h, err := r.Resolve(p)
				if err != nil {
					return fmt.Errorf("parent %s: %w", p, err)
				}
				parentHashes = append(parentHashes, h)
			}

			var message string
			if len(messages) > 0 {
				message = strings.Join(messages, "\n\n")
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				message = string(data)
			}
			if !strings.HasSuffix(message, "\n") {
				message += "\n"
			}

			h, err := r.CommitTree(treeHash, message, parentHashes...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (repeatable)")
	cmd.Flags().StringArrayVarP(&messages, "message", "m", nil, "commit message paragraph (repeatable)")
	return cmd
}
