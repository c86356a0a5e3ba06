package main

import (
	"github.com/spf13/cobra"
)

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			if client.Store.Token() == "" {
				info("Not logged in.")
				return nil
			}
			if err := client.Logout(cmd.Context()); err != nil {
				// The local session is gone either way.
				warn("Server-side logout failed: %v", err)
			}
			success("Logged out")
			return nil
		},
	}
}
