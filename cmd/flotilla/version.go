package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carbocation/flotilla/compileinfo"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the revision this binary was built from",
		Args:  cobra.NoArgs,
		// Needs neither params nor a logger.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), compileinfo.Get())
		},
	}
}
