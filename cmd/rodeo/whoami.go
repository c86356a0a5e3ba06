package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated identity and its capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			if err := client.Auth.Load(cmd.Context()); err != nil {
				return err
			}
			user := client.Auth.User()
			if user == nil {
				return fmt.Errorf("not logged in (run 'rodeo login')")
			}

			fmt.Printf("  Username:    %s\n", user.Username)
			if user.DisplayName != "" {
				fmt.Printf("  Name:        %s\n", user.DisplayName)
			}
			fmt.Printf("  Email:       %s\n", user.Email)
			fmt.Printf("  Roles:       %s\n", strings.Join(user.Roles, ", "))
			fmt.Printf("  Permissions: %s\n", strings.Join(user.Permissions, ", "))
			if client.Auth.IsAdmin(cmd.Context()) {
				fmt.Printf("  Admin:       yes\n")
			}
			return nil
		},
	}
}
