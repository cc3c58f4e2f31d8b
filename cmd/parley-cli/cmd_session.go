package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/client"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage negotiation sessions",
	}
	cmd.AddCommand(sessionCreateCmd())
	cmd.AddCommand(sessionGetCmd())
	cmd.AddCommand(sessionListCmd())
	cmd.AddCommand(sessionSettleCmd())
	cmd.AddCommand(sessionAbandonCmd())
	return cmd
}

func sessionCreateCmd() *cobra.Command {
	var docID, counterparty, startedBy string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Start a negotiation session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateSessionRequest{
				DocID:            docID,
				Title:            args[0],
				CounterpartyName: counterparty,
				StartedBy:        startedBy,
			}
			sess, err := apiClient.Sessions.Create(context.Background(), req)
			if err != nil {
				fatal("create session", err)
			}
			output(sess, sess.ID)
		},
	}
	cmd.Flags().StringVar(&docID, "doc", "", "Document ID (required)")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "Counterparty name")
	cmd.Flags().StringVar(&startedBy, "by", "", "User starting the session")
	cmd.MarkFlagRequired("doc") //nolint:errcheck
	return cmd
}

func sessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a session by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sess, err := apiClient.Sessions.Get(context.Background(), args[0])
			if err != nil {
				fatal("get session", err)
			}
			output(sess, sess.ID)
		},
	}
}

func sessionListCmd() *cobra.Command {
	var docID, status string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List negotiation sessions",
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 || offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit and --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.SessionListOptions{
				DocID:  docID,
				Status: status,
				Limit:  limit,
				Offset: offset,
			}
			sessions, err := apiClient.Sessions.List(context.Background(), opts)
			if err != nil {
				fatal("list sessions", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "STATUS", "ROUND", "PENDING", "TITLE"}
				var rows [][]string
				for _, s := range sessions {
					rows = append(rows, []string{
						s.ID, s.Status,
						fmt.Sprintf("%d", s.CurrentRound),
						fmt.Sprintf("%d", s.Counts.Pending),
						s.Title,
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, s := range sessions {
					fmt.Println(s.ID)
				}
				return
			}
			output(sessions, "")
		},
	}
	cmd.Flags().StringVar(&docID, "doc", "", "Filter by document ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func sessionSettleCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "settle <id>",
		Short: "Settle a session (terminal)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sess, err := apiClient.Sessions.Settle(context.Background(), args[0], actor)
			if err != nil {
				fatal("settle session", err)
			}
			output(sess, sess.ID)
		},
	}
	cmd.Flags().StringVar(&actor, "by", "", "User settling the session")
	return cmd
}

func sessionAbandonCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "abandon <id>",
		Short: "Abandon a session (terminal)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sess, err := apiClient.Sessions.Abandon(context.Background(), args[0], actor)
			if err != nil {
				fatal("abandon session", err)
			}
			output(sess, sess.ID)
		},
	}
	cmd.Flags().StringVar(&actor, "by", "", "User abandoning the session")
	return cmd
}
