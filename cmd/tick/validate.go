package main

import (
	"fmt"

	"github.com/aretw0/tick"
	"github.com/aretw0/tick/internal/cli"
	"github.com/aretw0/tick/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [story-file-or-dir]",
	Short: "Check the story for consistency",
	Long: `Compiles the story and reports every problem found: transitions without intent,
leaf states without action, contexts nobody produces, unregistered handlers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.Stories = args[0]
		}

		story, err := cli.LoadStory(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		handlers, err := cli.NewHandlers(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if _, err := tick.New(story, tick.WithHandlers(handlers)); err != nil {
			problems := schema.ValidationErrors(err)
			if problems == nil {
				return err
			}
			for _, p := range problems {
				fmt.Fprintf(out, "  - %v\n", p)
			}
			return fmt.Errorf("story %q is invalid: %s", story.ID, schema.Summary(err))
		}
		fmt.Fprintf(out, "Story '%s' is valid! ✅\n", story.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
