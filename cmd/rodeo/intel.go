package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rodeo-sec/rodeo-go/pkg/localstore"
)

func intelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intel",
		Short: "Threat-intelligence lookups",
	}
	cmd.AddCommand(intelLookupCmd(), intelHistoryCmd())
	return cmd
}

func intelLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <indicator>",
		Short: "Enrich an indicator (IP, domain, hash, URL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			indicator := args[0]

			report, err := client.API.Intel.Lookup(cmd.Context(), indicator)
			if err != nil {
				return err
			}

			// Lookups are recorded locally so analysts can revisit
			// recent pivots.
			if err := client.Store.AppendIntelLookup(localstore.IntelLookup{
				Indicator: indicator,
				Type:      report.Type,
				LookedUp:  time.Now().UTC(),
			}); err != nil {
				warn("Could not record lookup history: %v", err)
			}

			fmt.Printf("  Indicator: %s\n", report.Indicator)
			fmt.Printf("  Type:      %s\n", report.Type)
			fmt.Printf("  Score:     %d\n", report.Score)
			if len(report.Tags) > 0 {
				fmt.Printf("  Tags:      %s\n", strings.Join(report.Tags, ", "))
			}
			if len(report.Sources) > 0 {
				fmt.Printf("  Sources:   %s\n", strings.Join(report.Sources, ", "))
			}
			return nil
		},
	}
}

func intelHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show recent local lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			history := client.Store.IntelHistory()
			if len(history) == 0 {
				info("No recorded lookups.")
				return nil
			}
			for _, entry := range history {
				fmt.Printf("  %s  %-8s %s\n",
					entry.LookedUp.Local().Format("2006-01-02 15:04"),
					entry.Type, entry.Indicator)
			}
			return nil
		},
	}
}
