package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/client"
)

func newRoundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Import and inspect negotiation rounds",
	}
	cmd.AddCommand(roundImportCmd())
	cmd.AddCommand(roundListCmd())
	cmd.AddCommand(roundGetCmd())
	return cmd
}

func roundImportCmd() *cobra.Command {
	var htmlFile, html, proposedBy, proposerLabel, source, notes, createdBy string
	cmd := &cobra.Command{
		Use:   "import <session-id>",
		Short: "Import a draft as the next round",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if html == "" && htmlFile == "" {
				fmt.Fprintf(os.Stderr, "Error: one of --html or --file is required\n")
				os.Exit(1)
			}
			if htmlFile != "" {
				data, err := os.ReadFile(htmlFile)
				if err != nil {
					fatal("read html file", err)
				}
				html = string(data)
			}
			req := &client.ImportRoundRequest{
				HTML:          html,
				ProposedBy:    proposedBy,
				ProposerLabel: proposerLabel,
				ImportSource:  source,
				Notes:         notes,
				CreatedBy:     createdBy,
			}
			result, err := apiClient.Rounds.Import(context.Background(), args[0], req)
			if err != nil {
				fatal("import round", err)
			}
			if result.Replayed {
				fmt.Fprintf(os.Stderr, "Note: identical content already imported as round %d\n", result.Round.RoundNumber)
			}
			output(result, result.Round.ID)
		},
	}
	cmd.Flags().StringVar(&htmlFile, "file", "", "Read draft HTML from a file")
	cmd.Flags().StringVar(&html, "html", "", "Draft HTML inline")
	cmd.Flags().StringVar(&proposedBy, "proposed-by", "internal", "Proposing side: internal|external")
	cmd.Flags().StringVar(&proposerLabel, "proposer", "", "Display label for the proposer")
	cmd.Flags().StringVar(&source, "source", "", "Import source (upload, email, api)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes for the round")
	cmd.Flags().StringVar(&createdBy, "by", "", "User importing the round")
	return cmd
}

func roundListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <session-id>",
		Short: "List a session's rounds",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rounds, err := apiClient.Rounds.List(context.Background(), args[0])
			if err != nil {
				fatal("list rounds", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "ROUND", "TYPE", "PROPOSED BY", "CHANGES"}
				var rows [][]string
				for _, r := range rounds {
					rows = append(rows, []string{
						r.ID,
						fmt.Sprintf("%d", r.RoundNumber),
						r.RoundType, r.ProposedBy,
						fmt.Sprintf("%d", r.ChangeCount),
					})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, r := range rounds {
					fmt.Println(r.ID)
				}
				return
			}
			output(rounds, "")
		},
	}
	return cmd
}

func roundGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id> <round-id>",
		Short: "Get one round including its snapshots",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			round, err := apiClient.Rounds.Get(context.Background(), args[0], args[1])
			if err != nil {
				fatal("get round", err)
			}
			output(round, round.ID)
		},
	}
}
