package main

import (
	"fmt"
	"io"
	"os"

	"github.com/odvcencio/gitobj/pkg/object"
	"github.com/odvcencio/gitobj/pkg/repo"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	var (
		typeName  string
		write     bool
		fromStdin bool
		literally bool
	)
	cmd := &cobra.Command{
		Use:   "hash-object [-t type] [-w] [--stdin] [file...]",
		Short: "Compute object hashes and optionally store the objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := object.ParseObjectType(typeName)
			if err != nil {
				return err
			}
			if !fromStdin && len(args) == 0 {
				return fmt.Errorf("hash-object: no input; pass files or --stdin")
			}

			var r *repo.Repo
			if write {
				if r, err = openRepo(cmd); err != nil {
					return err
				}
			}

			hashOne := func(payload []byte) error {
				if !literally {
					if err := checkPayload(objType, payload); err != nil {
						return err
					}
				}
				h := object.HashObject(objType, payload)
				if r != nil {
					if _, err := r.Store.Put(h, objType, payload); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), h)
				return nil
			}

			if fromStdin {
				payload, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("hash-object: read stdin: %w", err)
				}
				if err := hashOne(payload); err != nil {
					return err
				}
			}
			for _, path := range args {
				payload, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("hash-object: %w", err)
				}
				if err := hashOne(payload); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", string(object.TypeBlob), "object type [blob,tree,commit]")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the store")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the object from standard input")
	cmd.Flags().BoolVar(&literally, "literally", false, "skip checking that trees and commits parse")
	return cmd
}

// checkPayload fully decodes a tree or commit payload. Decoding verifies
// that the payload re-encodes to itself.
func checkPayload(t object.ObjectType, payload []byte) error {
	obj, err := object.Decode(nil, object.HashObject(t, payload), t, payload)
	if err != nil {
		return err
	}
	switch o := obj.(type) {
	case *object.Tree:
		_, err = o.Len()
	case *object.Commit:
		_, err = o.Message()
	}
	return err
}
