package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/tick/internal/cli"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored conversations",
	Long:  `List, inspect, and remove the sessions of the configured store (--store, --dsn).`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			ids, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No stored conversations found.")
				return nil
			}
			fmt.Fprintln(out, "Conversations:")
			for _, id := range ids {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <conversation-id>",
	Short: "Inspect the session of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			s, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", args[0], err)
			}
			data, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <conversation-id>...",
	Short: "Remove one or more conversations",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			ids := args
			if all, _ := cmd.Flags().GetBool("all"); all {
				var err error
				if ids, err = store.List(cmd.Context()); err != nil {
					return err
				}
			}

			var errs []error
			for _, id := range ids {
				if err := store.Delete(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed conversation '%s'\n", id)
			}
			return errors.Join(errs...)
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored conversation")
}

func withStore(cmd *cobra.Command, fn func(ports.SessionStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, _, closeStore, err := cli.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore(cmd.Context())
	return fn(store)
}
