package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify loose object integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			report, err := r.Store.Verify()
			if err != nil {
				if report != nil {
					for _, h := range report.Corrupt {
						fmt.Fprintf(cmd.ErrOrStderr(), "corrupt: %s\n", h)
					}
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: verified %d loose object(s)\n", report.LooseObjects)
			return nil
		},
	}
}
