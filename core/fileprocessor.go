package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileProcessor migrates every file of a scope with the migrator of its
// language. Files are migrated in parallel and written inside one
// transaction.
type FileProcessor struct {
	walker    *FileWalker
	migrators ProviderRegistry
	workers   int
	writer    *AtomicWriter
	txManager *TransactionManager
	logger    *slog.Logger
}

// ProcessorOption configures a FileProcessor
type ProcessorOption func(*FileProcessor)

// WithWorkers sets the number of files migrated concurrently
func WithWorkers(n int) ProcessorOption {
	return func(fp *FileProcessor) {
		if n > 0 {
			fp.workers = n
		}
	}
}

// WithAtomicConfig replaces the writer configuration
func WithAtomicConfig(config AtomicWriteConfig) ProcessorOption {
	return func(fp *FileProcessor) {
		fp.writer = NewAtomicWriter(config)
	}
}

// WithTransactionDir sets where transaction logs and backups are kept
func WithTransactionDir(dir string) ProcessorOption {
	return func(fp *FileProcessor) {
		fp.txManager = NewTransactionManager(dir, nil)
	}
}

// WithProcessorLogger sets the logger of the processor
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(fp *FileProcessor) {
		if logger != nil {
			fp.logger = logger
		}
	}
}

// NewFileProcessor creates a processor resolving migrators from registry
func NewFileProcessor(registry ProviderRegistry, opts ...ProcessorOption) *FileProcessor {
	fp := &FileProcessor{
		walker:    NewFileWalker(),
		migrators: registry,
		workers:   8,
		writer:    NewAtomicWriter(DefaultAtomicConfig()),
		txManager: NewTransactionManager(filepath.Join(".junify", "transactions"), nil),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(fp)
	}
	fp.txManager.writer = fp.writer
	return fp
}

// Transactions returns the transaction manager of the processor
func (fp *FileProcessor) Transactions() *TransactionManager {
	return fp.txManager
}

// MigrateFiles migrates the files selected by op.Scope. Unless op.DryRun is
// set, changed files are written in one transaction that is rolled back as a
// whole when any write fails. Files whose migration fails are reported in
// their detail and left untouched.
func (fp *FileProcessor) MigrateFiles(ctx context.Context, op FileMigrateOp) (*FileMigrateResult, error) {
	start := time.Now()
	files, err := fp.walker.Collect(ctx, op.Scope)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", op.Scope.Path, err)
	}

	var selected []WalkResult
	for _, f := range files {
		if _, ok := fp.migrators.Migrator(f.Language); ok {
			selected = append(selected, f)
		}
	}
	scanDuration := time.Since(start)
	fp.logger.Debug("scan finished", "path", op.Scope.Path, "files", len(selected), "duration", scanDuration)

	migrateStart := time.Now()
	details := make([]FileMigrateDetail, len(selected))
	sem := make(chan struct{}, fp.workers)
	var wg sync.WaitGroup
	for i, f := range selected {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			details[i] = fp.migrateFile(ctx, f)
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &FileMigrateResult{
		FilesScanned: len(selected),
		ScanDuration: scanDuration.Milliseconds(),
		Files:        details,
		RuleCounts:   make(map[string]int),
	}
	for _, d := range details {
		result.TotalOperations += d.Operations
		for rule, n := range d.RuleCounts {
			result.RuleCounts[rule] += n
		}
		if d.Modified {
			result.FilesModified++
		}
	}

	if !op.DryRun && result.FilesModified > 0 {
		id, err := fp.write(result.Files, op.Backup)
		if err != nil {
			return nil, err
		}
		result.TransactionID = id
	}

	result.MigrateDuration = time.Since(migrateStart).Milliseconds()
	result.Confidence = fp.calculateOverallConfidence(result.Files)
	fp.logger.Info("migration finished",
		"files", result.FilesScanned,
		"modified", result.FilesModified,
		"operations", result.TotalOperations,
		"dry_run", op.DryRun,
		"transaction", result.TransactionID)
	return result, nil
}

// migrateFile runs the migrator of f on its content
func (fp *FileProcessor) migrateFile(ctx context.Context, f WalkResult) FileMigrateDetail {
	detail := FileMigrateDetail{
		FilePath:     f.Path,
		Language:     f.Language,
		OriginalSize: f.Info.Size(),
	}

	migrator, _ := fp.migrators.Migrator(f.Language)
	content, err := os.ReadFile(f.Path)
	if err != nil {
		detail.Error = fmt.Sprintf("read file: %v", err)
		return detail
	}

	res, err := migrator.Migrate(ctx, f.Path, content)
	if err != nil {
		fp.logger.Warn("migration failed", "file", f.Path, "error", err)
		detail.Error = err.Error()
		return detail
	}

	detail.Operations = res.Operations
	detail.RuleCounts = res.RuleCounts
	detail.Imports = res.Imports
	detail.Confidence = res.Confidence
	detail.Original = string(content)
	detail.Result = res.Modified
	detail.ModifiedSize = int64(len(res.Modified))
	if res.Changed {
		detail.Modified = true
		detail.Diff = res.Diff
	}
	for _, w := range res.Warnings {
		fp.logger.Debug("heuristic match", "file", f.Path, "warning", w)
	}
	return detail
}

// write replaces every modified file inside one transaction
func (fp *FileProcessor) write(details []FileMigrateDetail, backup bool) (string, error) {
	tx, err := fp.txManager.Begin(fmt.Sprintf("migrate %d files", countModified(details)))
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	for i := range details {
		d := &details[i]
		if !d.Modified {
			continue
		}
		if err := fp.writeOne(d, backup); err != nil {
			d.Error = err.Error()
			if rbErr := fp.txManager.Rollback(); rbErr != nil {
				return "", fmt.Errorf("write %s: %w (rollback: %v)", d.FilePath, err, rbErr)
			}
			return "", fmt.Errorf("write %s: %w", d.FilePath, err)
		}
	}

	if err := fp.txManager.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return tx.ID, nil
}

func (fp *FileProcessor) writeOne(d *FileMigrateDetail, backup bool) error {
	if backup {
		path, err := fp.writer.Backup(d.FilePath)
		if err != nil {
			return err
		}
		d.BackupPath = path
	}
	return fp.txManager.Replace(d.FilePath, []byte(d.Result))
}

func countModified(details []FileMigrateDetail) int {
	n := 0
	for _, d := range details {
		if d.Modified {
			n++
		}
	}
	return n
}

// calculateOverallConfidence averages the confidence of modified files and
// lowers it for failed files and weak individual results.
func (fp *FileProcessor) calculateOverallConfidence(details []FileMigrateDetail) ConfidenceScore {
	var total float64
	var modified int
	var failed, weak bool
	for _, d := range details {
		if d.Error != "" {
			failed = true
			continue
		}
		if !d.Modified {
			continue
		}
		total += d.Confidence.Score
		modified++
		if d.Confidence.Score < 0.7 {
			weak = true
		}
	}

	if modified == 0 {
		if failed {
			return ConfidenceScore{Score: 0, Level: "low", Factors: []ConfidenceFactor{failedFactor}}
		}
		return ConfidenceScore{Score: 1, Level: "high"}
	}

	score := total / float64(modified)
	factors := []ConfidenceFactor{}
	if failed {
		score += failedFactor.Impact
		factors = append(factors, failedFactor)
	}
	if weak {
		f := ConfidenceFactor{Name: "low_confidence_files", Impact: -0.1, Reason: "some files relied on heuristic matches"}
		score += f.Impact
		factors = append(factors, f)
	}
	score = min(max(score, 0), 1)
	return ConfidenceScore{Score: score, Level: ConfidenceLevel(score), Factors: factors}
}

var failedFactor = ConfidenceFactor{Name: "file_errors", Impact: -0.2, Reason: "some files could not be migrated"}

// ConfidenceLevel names the band of score
func ConfidenceLevel(score float64) string {
	switch {
	case score >= 0.8:
		return "high"
	case score >= 0.5:
		return "medium"
	}
	return "low"
}
