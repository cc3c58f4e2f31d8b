package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/client"
)

func newChangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "change",
		Short: "Review and resolve detected changes",
	}
	cmd.AddCommand(changeListCmd())
	cmd.AddCommand(changeGetCmd())
	cmd.AddCommand(changeResolveCmd())
	cmd.AddCommand(changeAcceptAllCmd())
	cmd.AddCommand(changeRejectAllCmd())
	return cmd
}

func changeListCmd() *cobra.Command {
	var roundID, status string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list <session-id>",
		Short: "List a session's changes",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 || offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit and --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.ChangeListOptions{
				RoundID: roundID,
				Status:  status,
				Limit:   limit,
				Offset:  offset,
			}
			changes, err := apiClient.Changes.List(context.Background(), args[0], opts)
			if err != nil {
				fatal("list changes", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "TYPE", "CATEGORY", "STATUS", "RISK", "SECTION"}
				var rows [][]string
				for _, ch := range changes {
					rows = append(rows, []string{
						ch.ID, ch.ChangeType, ch.Category, ch.Status, ch.RiskLevel, ch.SectionHeading,
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, ch := range changes {
					fmt.Println(ch.ID)
				}
				return
			}
			output(changes, "")
		},
	}
	cmd.Flags().StringVar(&roundID, "round", "", "Filter by round ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func changeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a change by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			change, err := apiClient.Changes.Get(context.Background(), args[0])
			if err != nil {
				fatal("get change", err)
			}
			output(change, change.ID)
		},
	}
}

func changeResolveCmd() *cobra.Command {
	var status, resolvedBy string
	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a pending change",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpdateChangeStatusRequest{
				Status:     status,
				ResolvedBy: resolvedBy,
			}
			change, sess, err := apiClient.Changes.Resolve(context.Background(), args[0], req)
			if err != nil {
				fatal("resolve change", err)
			}
			output(map[string]any{"change": change, "session": sess}, change.ID)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Target status: accepted|rejected|countered (required)")
	cmd.Flags().StringVar(&resolvedBy, "by", "", "User resolving the change")
	cmd.MarkFlagRequired("status") //nolint:errcheck
	return cmd
}

func changeAcceptAllCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "accept-all <session-id>",
		Short: "Accept every pending change in a session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			result, err := apiClient.Changes.AcceptAll(context.Background(), args[0], actor)
			if err != nil {
				fatal("accept all", err)
			}
			output(result, fmt.Sprintf("%d", result.Affected))
		},
	}
	cmd.Flags().StringVar(&actor, "by", "", "User accepting the changes")
	return cmd
}

func changeRejectAllCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "reject-all <session-id>",
		Short: "Reject every pending change in a session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			result, err := apiClient.Changes.RejectAll(context.Background(), args[0], actor)
			if err != nil {
				fatal("reject all", err)
			}
			output(result, fmt.Sprintf("%d", result.Affected))
		},
	}
	cmd.Flags().StringVar(&actor, "by", "", "User rejecting the changes")
	return cmd
}
