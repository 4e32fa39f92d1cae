package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/odvcencio/gitobj/pkg/object"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var showType, showSize, exists, pretty bool
	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -e | -p) <object>",
		Short: "Show the type, size or content of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			for _, set := range []bool{showType, showSize, exists, pretty} {
				if set {
					modes++
				}
			}
			if modes != 1 {
				return fmt.Errorf("cat-file: exactly one of -t, -s, -e or -p is required")
			}

			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.Resolve(args[0])
			if err != nil {
				if exists && errors.Is(err, object.ErrObjectNotFound) {
					return errExitStatus1
				}
				return err
			}
			obj, err := r.Find(h)
			if err != nil {
				if exists {
					return errExitStatus1
				}
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case exists:
				return nil
			case showType:
				fmt.Fprintln(out, obj.Type())
				return nil
			case showSize:
				payload, err := obj.Payload()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, len(payload))
				return nil
			default:
				return prettyPrint(out, obj)
			}
		},
	}
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the payload size")
	cmd.Flags().BoolVarP(&exists, "exists", "e", false, "exit with status 0 when the object exists and is valid")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object content")
	return cmd
}

func prettyPrint(w io.Writer, obj object.Object) error {
	tree, ok := obj.(*object.Tree)
	if !ok {
		payload, err := obj.Payload()
		if err != nil {
			return err
		}
		_, err = w.Write(payload)
		return err
	}
	entries, err := tree.Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		h, err := e.Hash()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%06o %s %s\t%s\n", e.Mode(), e.Kind.ObjectType(), h, e.Name)
	}
	return nil
}
