package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/client"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and purge the audit log",
	}
	cmd.AddCommand(auditQueryCmd())
	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditQueryCmd() *cobra.Command {
	var entityType, entityID, action, since string
	var limit int
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query audit log entries",
		Run: func(cmd *cobra.Command, args []string) {
			opts := &client.AuditQueryOptions{
				EntityType: entityType,
				EntityID:   entityID,
				Action:     action,
				Limit:      limit,
			}
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: --since must be RFC3339 (e.g. 2026-08-01T00:00:00Z)\n")
					os.Exit(1)
				}
				opts.Since = &t
			}
			entries, err := apiClient.Audit.Query(context.Background(), opts)
			if err != nil {
				fatal("query audit", err)
			}
			if flagFmt == "table" {
				headers := []string{"TIME", "ACTION", "ENTITY", "ACTOR"}
				var rows [][]string
				for _, e := range entries {
					rows = append(rows, []string{
						e.CreatedAt.Format(time.RFC3339),
						e.Action,
						e.EntityType + "/" + e.EntityID,
						e.Actor,
					})
				}
				formatTable(headers, rows)
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().StringVar(&entityType, "entity-type", "", "Filter by entity type")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "Filter by entity ID")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().StringVar(&since, "since", "", "Only entries after this RFC3339 timestamp")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete audit entries past the retention window",
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.Audit.Purge(context.Background(), retentionDays)
			if err != nil {
				fatal("purge audit", err)
			}
			output(map[string]int{"deleted": deleted}, fmt.Sprintf("%d", deleted))
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 90, "Keep entries newer than this many days")
	return cmd
}
