package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List built-in event kinds",
	Long: `List the event kinds the built-in classifier can emit.

These names are accepted by the --kinds flag of "dayzlog tail". Pattern
files and plugins may emit additional custom kinds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range event.KindNames() {
			if _, err := fmt.Fprintln(out, name); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
