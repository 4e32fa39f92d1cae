package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or set the default commit identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") || cmd.Flags().Changed("email") {
				cfg, err := r.ReadConfig()
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("name") {
					name = cfg.User.Name
				}
				if !cmd.Flags().Changed("email") {
					email = cfg.User.Email
				}
				return r.SetUser(name, email)
			}

			id, err := r.DefaultIdentity()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "set user name")
	cmd.Flags().StringVar(&email, "email", "", "set user email")
	return cmd
}
