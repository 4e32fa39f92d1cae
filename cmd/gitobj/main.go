package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errExitStatus1 makes the process exit 1 without printing anything.
var errExitStatus1 = errors.New("exit status 1")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errExitStatus1) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gitobj",
		Short:         "Content-addressed object store compatible with git loose objects",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().String(logLevelFlag, "warn", "log level [debug,info,warn,error]")
	root.PersistentFlags().String(logFormatFlag, "text", "log format [text,json]")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newLsTreeCmd())
	root.AddCommand(newWriteTreeCmd())
	root.AddCommand(newCommitTreeCmd())
	root.AddCommand(newVerifyCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gitobj 0.1.0-dev")
		},
	}
}
