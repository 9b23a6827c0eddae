package main

import (
	"fmt"

	"github.com/aretw0/tick/internal/cli"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [conversation-id]",
	Short: "Export the story graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the story state tree. Given a conversation
id, the states it went through are highlighted, along with the current one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		app, err := cli.NewApp(cmd.Context(), cfg, cli.AppOptions{Debug: debugFlag(cmd)})
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		var overlay *domain.Session
		if len(args) > 0 {
			s, err := app.Engine.Session(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load conversation %q: %w", args[0], err)
			}
			overlay = &s
		}
		fmt.Fprintln(cmd.OutOrStdout(), app.Engine.Graph(overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
