package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tick"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tick",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tick version %s\n", strings.TrimSpace(tick.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
