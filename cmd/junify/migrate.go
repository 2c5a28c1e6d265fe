package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/junify/core"
)

type migrateFlags struct {
	write          bool
	diff           bool
	backup         bool
	jsonOut        bool
	noStage        bool
	include        []string
	exclude        []string
	disable        []string
	maxDepth       int
	maxFiles       int
	followSymlinks bool
}

func newMigrateCmd(a *app) *cobra.Command {
	var f migrateFlags
	cmd := &cobra.Command{
		Use:   "migrate [path]",
		Short: "Migrate the Java tests under path",
		Long: "Migrate every Java source under path (default: the current directory). " +
			"Without --write the run is a preview staged in the journal, to be written later with apply.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return a.runMigrate(cmd, path, f)
		},
	}
	fl := cmd.Flags()
	fl.BoolVarP(&f.write, "write", "w", false, "Write the migrated files")
	fl.BoolVarP(&f.diff, "diff", "d", false, "Show a unified diff per file")
	fl.BoolVar(&f.backup, "backup", false, "Keep a .bak copy of every written file")
	fl.BoolVar(&f.jsonOut, "json", false, "Print the result as JSON")
	fl.BoolVar(&f.noStage, "no-stage", false, "Do not record the run in the journal")
	fl.StringSliceVar(&f.include, "include", nil, "Include glob (default **/*.java)")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "Exclude glob")
	fl.StringSliceVar(&f.disable, "disable", nil, "Rule to skip")
	fl.IntVar(&f.maxDepth, "max-depth", 0, "Maximum directory depth (0 = unlimited)")
	fl.IntVar(&f.maxFiles, "max-files", 0, "Maximum number of files (0 = unlimited)")
	fl.BoolVar(&f.followSymlinks, "follow-symlinks", false, "Follow symbolic links")
	return cmd
}

func (a *app) runMigrate(cmd *cobra.Command, path string, f migrateFlags) error {
	root, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	reg, err := a.registry(f.disable)
	if err != nil {
		return err
	}

	scan := a.cfg.Scan
	scope := core.FileScope{
		Path:           root,
		Include:        scan.Include,
		Exclude:        append(append([]string{}, scan.Exclude...), f.exclude...),
		MaxDepth:       scan.MaxDepth,
		MaxFiles:       scan.MaxFiles,
		FollowSymlinks: scan.FollowSymlinks || f.followSymlinks,
		Language:       "java",
	}
	if len(f.include) > 0 {
		scope.Include = f.include
	}
	if f.maxDepth > 0 {
		scope.MaxDepth = f.maxDepth
	}
	if f.maxFiles > 0 {
		scope.MaxFiles = f.maxFiles
	}
	op := core.FileMigrateOp{
		Scope:  scope,
		DryRun: !f.write,
		Backup: f.backup || a.cfg.Migrate.Backup,
	}

	processor, migrators := a.processor(reg)
	result, err := processor.MigrateFiles(cmd.Context(), op)
	if err != nil {
		return err
	}
	stats := migrators.Stats()
	a.logger.Debug("parser pool", "borrowed", stats.BorrowCount, "returned", stats.ReturnCount, "cache", stats.Cache)

	var sessionID string
	if !f.noStage && result.FilesModified > 0 {
		journal, closeJournal, err := a.journal()
		if err != nil {
			return err
		}
		defer closeJournal()
		session, err := journal.Record(cmd.Context(), op, result)
		if err != nil {
			return err
		}
		sessionID = session.ID
	}

	out := cmd.OutOrStdout()
	if f.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			*core.FileMigrateResult
			SessionID string `json:"session_id,omitempty"`
		}{result, sessionID}); err != nil {
			return err
		}
	} else {
		printResult(out, root, result, f.diff)
		printNext(out, op, result, sessionID)
	}

	if failed := countFailed(result); failed > 0 {
		return fmt.Errorf("%d of %d files could not be migrated", failed, result.FilesScanned)
	}
	return nil
}

func printResult(w io.Writer, root string, result *core.FileMigrateResult, showDiff bool) {
	for _, d := range result.Files {
		rel, err := filepath.Rel(root, d.FilePath)
		if err != nil {
			rel = d.FilePath
		}
		switch {
		case d.Error != "":
			fmt.Fprintf(w, "%s %s: %s\n", red("✗"), rel, d.Error)
		case d.Modified:
			fmt.Fprintf(w, "%s %s (%d operations, %s confidence)\n", green("✓"), rel, d.Operations, d.Confidence.Level)
			if showDiff {
				printDiff(w, d.Diff)
			}
		}
	}

	fmt.Fprintf(w, "\n%s %d scanned, %d modified, %d operations, confidence %.2f (%s)\n",
		bold("Summary:"), result.FilesScanned, result.FilesModified, result.TotalOperations,
		result.Confidence.Score, result.Confidence.Level)
	for _, name := range slices.Sorted(maps.Keys(result.RuleCounts)) {
		fmt.Fprintf(w, "  %-18s %d\n", name, result.RuleCounts[name])
	}
}

func printNext(w io.Writer, op core.FileMigrateOp, result *core.FileMigrateResult, sessionID string) {
	switch {
	case result.FilesModified == 0:
		fmt.Fprintln(w, "Nothing to migrate.")
	case op.DryRun && sessionID != "":
		fmt.Fprintf(w, "\n%s session %s; write it with %s\n", yellow("Staged"), cyan(sessionID), bold("junify apply "+sessionID[:8]))
	case op.DryRun:
		fmt.Fprintf(w, "\n%s re-run with --write to modify files\n", yellow("Preview only:"))
	default:
		fmt.Fprintf(w, "\n%s transaction %s; undo with %s\n", green("Written"), cyan(result.TransactionID), bold("junify rollback "+result.TransactionID))
	}
}

// printDiff colors added and removed lines of a unified diff
func printDiff(w io.Writer, diff string) {
	for line := range strings.Lines(diff) {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(w, bold(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(w, green(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(w, red(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(w, cyan(line))
		default:
			fmt.Fprint(w, line)
		}
	}
}

func countFailed(result *core.FileMigrateResult) int {
	n := 0
	for _, d := range result.Files {
		if d.Error != "" {
			n++
		}
	}
	return n
}
