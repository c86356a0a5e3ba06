package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
)

func samplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Browse the malware sample arsenal",
	}
	cmd.AddCommand(samplesListCmd())
	return cmd
}

func samplesListCmd() *cobra.Command {
	var (
		family  string
		verdict string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			samples, err := client.API.Samples.List(cmd.Context(), api.SampleFilter{
				Family:  family,
				Verdict: verdict,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				info("No samples match.")
				return nil
			}
			for _, s := range samples {
				fmt.Printf("  %-10s %-10s %-16s %s\n", s.ID, s.Verdict, s.Family, s.Filename)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "Filter by malware family")
	cmd.Flags().StringVar(&verdict, "verdict", "", "Filter by verdict")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results")

	return cmd
}
