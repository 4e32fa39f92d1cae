package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newWriteTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree [path...]",
		Short: "Store a tree built from working directory paths",
		Long:  "Scans the given paths (default: the whole working directory), stores every file and directory found and prints the root tree hash.",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			paths := make([]string, 0, len(args))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve path: %w", err)
				}
				paths = append(paths, abs)
			}

			h, err := r.WriteTree(paths...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
