package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxhq/junify/core"
)

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <session>",
		Short: "Write the staged files of a session",
		Long:  "Write the pending stages of a session in one transaction. Files edited since they were staged are skipped and marked stale.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, closeJournal, err := a.journal()
			if err != nil {
				return err
			}
			defer closeJournal()

			report, err := journal.Apply(cmd.Context(), args[0], a.transactions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range report.Applied {
				fmt.Fprintf(out, "%s %s\n", green("✓"), path)
			}
			for _, path := range report.Stale {
				fmt.Fprintf(out, "%s %s changed since it was staged\n", yellow("!"), path)
			}
			if len(report.Applied) == 0 {
				fmt.Fprintln(out, "Nothing to apply.")
				return nil
			}
			fmt.Fprintf(out, "\n%s %d files in transaction %s\n", green("Applied"), len(report.Applied), cyan(report.TransactionID))
			return nil
		},
	}
}

func newRollbackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <transaction>",
		Short: "Restore the files written by a transaction",
		Long:  "Restore the files of a committed transaction. Files edited after the transaction are left alone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			rbErr := a.transactions().RollbackCommitted(id)
			if rbErr != nil && !errors.Is(rbErr, core.ErrFileChanged) {
				return rbErr
			}

			journal, closeJournal, err := a.journal()
			if err != nil {
				return err
			}
			defer closeJournal()
			n, err := journal.MarkReverted(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s transaction %s (%d journal entries reverted)\n", green("Rolled back"), cyan(id), n)
			return rbErr
		},
	}
}

func newPruneCmd(a *app) *cobra.Command {
	var age time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished transactions and their backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tm := a.transactions()
			before, err := tm.List()
			if err != nil {
				return err
			}
			if err := tm.Prune(age); err != nil {
				return err
			}
			after, err := tm.List()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d transactions older than %s\n", len(before)-len(after), age)
			return nil
		},
	}
	cmd.Flags().DurationVar(&age, "older-than", 30*24*time.Hour, "Minimum age of pruned transactions")
	return cmd
}
