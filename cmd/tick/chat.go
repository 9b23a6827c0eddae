package main

import (
	"os"

	"github.com/aretw0/tick/internal/cli"
	"github.com/aretw0/tick/internal/presentation/tui"
	"github.com/aretw0/tick/pkg/adapters/kafka"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the story from the terminal",
	Long: `Starts an interactive conversation. Each line is an intent, optionally followed by
context values (NAME=value) and entities (@role=value). Lines starting with '!'
fire a trigger. Type /help for the other commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := cli.NewApp(sigCtx, cfg, cli.AppOptions{Debug: debugFlag(cmd)})
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		opts := cli.ChatOptions{
			Styled: term.IsTerminal(int(os.Stdout.Fd())),
		}
		opts.ConversationID, _ = cmd.Flags().GetString("conversation")
		if opts.ConversationID == "" {
			opts.ConversationID = uuid.NewString()
		}
		if path, _ := cmd.Flags().GetString("labels"); path != "" {
			if opts.Labels, err = cli.LoadLabels(path); err != nil {
				return err
			}
		}
		if md, _ := cmd.Flags().GetBool("markdown"); md && opts.Styled {
			if opts.Render, err = tui.NewRenderer(); err != nil {
				return err
			}
		}
		if len(cfg.Kafka.Brokers) > 0 {
			snd := kafka.NewSender(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), kafka.WithStoryID(app.Engine.Story().ID))
			defer snd.Close()
			opts.Mirror = snd
		}

		out := cmd.OutOrStdout()
		if opts.Styled {
			tui.PrintBanner(out, app.Engine.Story().ID)
		}
		err = cli.RunChat(sigCtx, app.Engine, cmd.InOrStdin(), out, opts)
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("conversation", "c", "", "Conversation id to resume (default: a new uuid)")
	chatCmd.Flags().StringP("labels", "l", "", "YAML file mapping answer ids to texts")
	chatCmd.Flags().Bool("markdown", false, "Render the labels as markdown")
}
