// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and delete saved research sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore(agentConfig().Session)
		if err != nil {
			return err
		}
		defer store.Close()

		infos, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No saved sessions.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %s\n", "ID", "Updated", "Title")
		for _, info := range infos {
			title := info.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(os.Stdout, "%-36s  %-19s  %s\n",
				info.ID, info.UpdatedAt.Format("2006-01-02 15:04:05"), title)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore(agentConfig().Session)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s\n", args[0])
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
