package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}
	cmd.AddCommand(adminHealthCmd())
	cmd.AddCommand(adminStatsCmd())
	return cmd
}

func adminHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Health(context.Background())
			if err != nil {
				fatal("health", err)
			}
			output(resp, resp.Status)
		},
	}
}

func adminStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show workspace negotiation statistics",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Stats(context.Background())
			if err != nil {
				fatal("stats", err)
			}
			if flagFmt == "table" {
				rows := [][]string{
					{"Sessions", fmt.Sprintf("%d", resp.TotalSessions)},
					{"Rounds", fmt.Sprintf("%d", resp.TotalRounds)},
					{"Changes", fmt.Sprintf("%d", resp.TotalChanges)},
				}
				for status, n := range resp.SessionsByStatus {
					rows = append(rows, []string{"Sessions " + status, fmt.Sprintf("%d", n)})
				}
				for status, n := range resp.ChangesByStatus {
					rows = append(rows, []string{"Changes " + status, fmt.Sprintf("%d", n)})
				}
				formatTable([]string{"METRIC", "VALUE"}, rows)
				return
			}
			output(resp, "")
		},
	}
}
