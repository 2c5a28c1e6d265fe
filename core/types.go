package core

import "context"

// Migrator migrates the source of one file
type Migrator interface {
	Language() string
	Migrate(ctx context.Context, path string, source []byte) (*MigrationResult, error)
}

// ProviderRegistry looks migrators up by language
type ProviderRegistry interface {
	Migrator(language string) (Migrator, bool)
}

// MigrationResult from provider
type MigrationResult struct {
	Modified   string          `json:"modified"`
	Diff       string          `json:"diff"`
	Changed    bool            `json:"changed"`
	Operations int             `json:"operations"`         // Operations queued in the pass
	RuleCounts map[string]int  `json:"rule_counts"`        // Operations per rule
	Imports    []string        `json:"imports,omitempty"`  // Net import changes, "+x" or "-x"
	Confidence ConfidenceScore `json:"confidence"`         // Derived from how matches resolved
	Warnings   []string        `json:"warnings,omitempty"` // Matches accepted on heuristics
}

// ConfidenceScore for migrations
type ConfidenceScore struct {
	Score   float64            `json:"score"` // 0.0 to 1.0
	Level   string             `json:"level"` // high, medium, low
	Factors []ConfidenceFactor `json:"factors"`
}

// ConfidenceFactor explains score calculation
type ConfidenceFactor struct {
	Name   string  `json:"name"`
	Impact float64 `json:"impact"` // -1.0 to 1.0
	Reason string  `json:"reason"`
}

// FileScope defines which files to process in filesystem operations
type FileScope struct {
	Path           string   `json:"path"`                // Root path to scan
	Include        []string `json:"include,omitempty"`   // File patterns to include (**/*.java)
	Exclude        []string `json:"exclude,omitempty"`   // File patterns to exclude
	MaxDepth       int      `json:"max_depth,omitempty"` // Max directory depth (0 = unlimited)
	MaxFiles       int      `json:"max_files,omitempty"` // Max files to process (0 = unlimited)
	FollowSymlinks bool     `json:"follow_symlinks"`     // Follow symbolic links
	Language       string   `json:"language,omitempty"`  // Auto-detect by extension if empty
}

// FileMigrateOp represents a migration over a set of files
type FileMigrateOp struct {
	Scope  FileScope `json:"scope"`   // Files to operate on
	DryRun bool      `json:"dry_run"` // Preview only, don't modify files
	Backup bool      `json:"backup"`  // Keep .bak copies of modified files
}

// FileMatch represents a discovered source file
type FileMatch struct {
	FilePath string `json:"file_path"` // Absolute file path
	FileSize int64  `json:"file_size"` // File size in bytes
	ModTime  int64  `json:"mod_time"`  // Last modification time (Unix timestamp)
	Language string `json:"language"`  // Detected language
}

// FileMigrateResult represents the result of a migration over many files
type FileMigrateResult struct {
	FilesScanned    int                 `json:"files_scanned"`            // Total files processed
	FilesModified   int                 `json:"files_modified"`           // Files actually changed
	TotalOperations int                 `json:"total_operations"`         // Operations across all files
	ScanDuration    int64               `json:"scan_duration_ms"`         // Time spent scanning (ms)
	MigrateDuration int64               `json:"migrate_duration_ms"`      // Time spent migrating (ms)
	Files           []FileMigrateDetail `json:"files"`                    // Per-file results
	RuleCounts      map[string]int      `json:"rule_counts"`              // Operations per rule across files
	Confidence      ConfidenceScore     `json:"confidence"`               // Overall confidence
	TransactionID   string              `json:"transaction_id,omitempty"` // Transaction ID for rollback
}

// FileMigrateDetail represents the migration result for a single file
type FileMigrateDetail struct {
	FilePath     string          `json:"file_path"`
	Language     string          `json:"language"`
	Operations   int             `json:"operations"`
	RuleCounts   map[string]int  `json:"rule_counts,omitempty"`
	Imports      []string        `json:"imports,omitempty"`
	Modified     bool            `json:"modified"`
	Diff         string          `json:"diff,omitempty"`
	Confidence   ConfidenceScore `json:"confidence"`
	Error        string          `json:"error,omitempty"`
	BackupPath   string          `json:"backup_path,omitempty"`
	OriginalSize int64           `json:"original_size"`
	ModifiedSize int64           `json:"modified_size"`

	// Contents are kept for staging and are not serialized
	Original string `json:"-"`
	Result   string `json:"-"`
}
