package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/junify/rules/junit"
)

func newRulesCmd(a *app) *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the migration rules in precedence order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := junit.Default().Filter(nil, a.cfg.Migrate.Priorities)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range reg.Rules() {
				state := green("enabled")
				if slices.Contains(a.cfg.Migrate.DisabledRules, r.Name()) {
					state = yellow("disabled")
				}
				fmt.Fprintf(out, "%s %-22s priority %-3d %s\n", cyan("•"), bold(r.Name()), r.Priority(), state)
				if preview {
					before, after := r.Preview()
					fmt.Fprintf(out, "    %s\n    %s\n", red("- "+oneLine(before)), green("+ "+oneLine(after)))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&preview, "preview", "p", false, "Show a before/after example per rule")
	return cmd
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
