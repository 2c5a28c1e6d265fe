package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxhq/junify/models"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit        int
		transactions bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if transactions {
				logs, err := a.transactions().List()
				if err != nil {
					return err
				}
				for _, tx := range logs {
					fmt.Fprintf(out, "%s  %s  %-11s %d files  %s\n",
						cyan(tx.ID), tx.Started.Local().Format(time.DateTime), tx.Status, len(tx.Entries), tx.Description)
				}
				return nil
			}

			journal, closeJournal, err := a.journal()
			if err != nil {
				return err
			}
			defer closeJournal()
			sessions, err := journal.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded.")
				return nil
			}
			for _, s := range sessions {
				mode := yellow("staged")
				if s.AppliesCount == s.StagesCount {
					mode = green("applied")
				}
				fmt.Fprintf(out, "%s  %s  %-7s %d/%d files  %d ops  %s\n",
					cyan(s.ID[:8]), s.StartedAt.Local().Format(time.DateTime), mode,
					s.AppliesCount, s.StagesCount, s.Operations, s.Root)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of sessions to show (0 = all)")
	cmd.Flags().BoolVar(&transactions, "transactions", false, "List file transactions instead of sessions")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Show the stages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, closeJournal, err := a.journal()
			if err != nil {
				return err
			}
			defer closeJournal()
			session, err := journal.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n%s %s\n", bold("Session:"), cyan(session.ID), bold("Root:"), session.Root)
			if session.TransactionID != "" {
				fmt.Fprintf(out, "%s %s\n", bold("Transaction:"), session.TransactionID)
			}
			for _, s := range session.Stages {
				status := s.Status
				switch status {
				case models.StageApplied:
					if s.Apply != nil && s.Apply.Reverted {
						status = red("reverted")
					} else {
						status = green(status)
					}
				case models.StageStale:
					status = red(status)
				default:
					status = yellow(status)
				}
				fmt.Fprintf(out, "  %-8s %s (%d operations, %s confidence)\n", status, s.FilePath, s.Operations, s.ConfidenceLevel)
				if showDiff {
					printDiff(out, s.Diff)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "Show the staged diff per file")
	return cmd
}
