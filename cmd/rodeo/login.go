package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rodeo-sec/rodeo-go/pkg/login"
)

func loginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the platform",
		Long: `Authenticate and persist the session for later commands.

The password is read from the RODEO_PASSWORD environment variable
when set, otherwise from stdin.

Examples:
  rodeo login --username analyst1
  RODEO_PASSWORD=... rodeo login --username analyst1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, username)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Platform username")

	return cmd
}

func runLogin(cmd *cobra.Command, username string) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	if username == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	password := os.Getenv("RODEO_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	flow := client.NewLoginFlow()
	if err := flow.Submit(cmd.Context(), username, password); err != nil {
		return err
	}

	switch flow.State() {
	case login.StateSuccess:
		success("Logged in to %s as %s", cfg.BaseURL, username)
		return nil
	case login.StateFieldError:
		for _, field := range []login.Field{login.FieldUsername, login.FieldPassword} {
			if msg := flow.FieldError(field); msg != "" {
				warn("%s", msg)
			}
		}
		return fmt.Errorf("invalid input")
	case login.StateLockedOut:
		return fmt.Errorf("%s", flow.ErrorMessage())
	default:
		return fmt.Errorf("%s", flow.ErrorMessage())
	}
}
