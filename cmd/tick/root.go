package main

import (
	"fmt"
	"os"

	"github.com/aretw0/tick/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tick",
	Short: "Tick runs goal-driven dialogue stories",
	Long: `Tick executes conversational stories: each user intent sets an objective and the
engine plans the actions that reach it. Settings come from TICK_* environment
variables (and .env); flags override them.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("stories", "", "Story file or directory (TICK_STORIES)")
	flags.String("story", "", "Story id, when the directory holds several (TICK_STORY)")
	flags.String("store", "", "Session store: memory, file, sqlite or redis (TICK_STORE_BACKEND)")
	flags.String("dsn", "", "Directory of the file store or database of the sqlite store (TICK_STORE_DSN)")
	flags.String("tools", "", "Tools file declaring handlers run as local commands (TICK_TOOLS)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (TICK_LOG_LEVEL)")
	flags.String("log-format", "", "Log format: text or json (TICK_LOG_FORMAT)")
	flags.Bool("debug", false, "Log every action and handler call")
	flags.Bool("trace", false, "Print OpenTelemetry spans to stderr (TICK_TRACE)")
}

// loadConfig reads the environment then applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := map[string]*string{
		"stories":    &cfg.Stories,
		"story":      &cfg.Story,
		"store":      &cfg.Store.Backend,
		"dsn":        &cfg.Store.DSN,
		"tools":      &cfg.Tools,
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
	}
	for name, field := range overrides {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
		}
	}
	if flags.Changed("trace") {
		cfg.Trace, _ = flags.GetBool("trace")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
