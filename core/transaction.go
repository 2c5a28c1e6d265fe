package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TxStatus is the lifecycle state of a transaction
type TxStatus string

const (
	TxPending    TxStatus = "pending"
	TxCommitted  TxStatus = "committed"
	TxRolledBack TxStatus = "rolled_back"
)

// TxEntry records one file replaced inside a transaction
type TxEntry struct {
	FilePath   string    `json:"file_path"`
	BackupPath string    `json:"backup_path"`
	Before     string    `json:"before"`          // checksum of the original content
	After      string    `json:"after,omitempty"` // checksum of the written content
	Timestamp  time.Time `json:"timestamp"`
	Completed  bool      `json:"completed"`
	Error      string    `json:"error,omitempty"`
}

// TransactionLog is the journal of one migration run
type TransactionLog struct {
	ID          string    `json:"id"`
	Started     time.Time `json:"started"`
	Completed   time.Time `json:"completed,omitzero"`
	Entries     []TxEntry `json:"entries"`
	Status      TxStatus  `json:"status"`
	Description string    `json:"description"`
}

// TransactionManager journals file replacements under dir so a run can be
// rolled back, either while it is open or after it committed.
type TransactionManager struct {
	dir    string
	writer *AtomicWriter

	mu      sync.Mutex
	current *TransactionLog
}

// NewTransactionManager creates a manager keeping logs and backups in dir.
// The directory is created by the first transaction.
func NewTransactionManager(dir string, writer *AtomicWriter) *TransactionManager {
	return &TransactionManager{dir: dir, writer: writer}
}

// Dir returns the journal directory
func (tm *TransactionManager) Dir() string {
	return tm.dir
}

// Begin opens a transaction
func (tm *TransactionManager) Begin(description string) (*TransactionLog, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransactionActive, tm.current.ID)
	}
	if err := os.MkdirAll(tm.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transaction dir: %w", err)
	}

	tx := &TransactionLog{
		ID:          uuid.NewString(),
		Started:     time.Now().UTC(),
		Entries:     []TxEntry{},
		Status:      TxPending,
		Description: description,
	}
	if err := tm.save(tx); err != nil {
		return nil, err
	}
	tm.current = tx
	return tx, nil
}

// Record backs path up before it is replaced and journals the entry
func (tm *TransactionManager) Record(path string) (TxEntry, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return TxEntry{}, ErrNoTransaction
	}

	info, err := os.Stat(path)
	if err != nil {
		return TxEntry{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return TxEntry{}, err
	}

	backups := filepath.Join(tm.dir, tm.current.ID)
	if err := os.MkdirAll(backups, 0o755); err != nil {
		return TxEntry{}, fmt.Errorf("create backup dir: %w", err)
	}
	backup := filepath.Join(backups, fmt.Sprintf("%04d-%s", len(tm.current.Entries), filepath.Base(path)))
	if err := os.WriteFile(backup, content, info.Mode().Perm()); err != nil {
		return TxEntry{}, fmt.Errorf("write backup: %w", err)
	}

	entry := TxEntry{
		FilePath:   path,
		BackupPath: backup,
		Before:     Checksum(content),
		Timestamp:  time.Now().UTC(),
	}
	tm.current.Entries = append(tm.current.Entries, entry)
	if err := tm.save(tm.current); err != nil {
		return TxEntry{}, err
	}
	return entry, nil
}

// Complete marks the entry of path done. A nil err records the checksum of
// written, the content now on disk.
func (tm *TransactionManager) Complete(path string, written []byte, err error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return ErrNoTransaction
	}

	for i := range tm.current.Entries {
		e := &tm.current.Entries[i]
		if e.FilePath != path || e.Completed {
			continue
		}
		e.Completed = true
		if err != nil {
			e.Error = err.Error()
		} else {
			e.After = Checksum(written)
		}
		return tm.save(tm.current)
	}
	return fmt.Errorf("no pending entry for %s", path)
}

// Replace records path, writes content through the atomic writer and
// completes the entry.
func (tm *TransactionManager) Replace(path string, content []byte) error {
	if _, err := tm.Record(path); err != nil {
		return err
	}
	err := tm.writer.WriteFile(path, content)
	if cerr := tm.Complete(path, content, err); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Commit closes the transaction. Every entry must have completed cleanly.
func (tm *TransactionManager) Commit() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return ErrNoTransaction
	}
	for _, e := range tm.current.Entries {
		if !e.Completed || e.Error != "" {
			return fmt.Errorf("cannot commit: %s did not complete", e.FilePath)
		}
	}

	tm.current.Status = TxCommitted
	tm.current.Completed = time.Now().UTC()
	err := tm.save(tm.current)
	tm.current = nil
	return err
}

// Rollback restores every recorded file of the open transaction
func (tm *TransactionManager) Rollback() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.current == nil {
		return ErrNoTransaction
	}
	tx := tm.current
	tm.current = nil
	return tm.restore(tx, false)
}

// Active reports whether a transaction is open
func (tm *TransactionManager) Active() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.current != nil
}

// RollbackCommitted restores the files of a committed transaction. Files
// edited since the transaction wrote them are left alone and reported with
// ErrFileChanged.
func (tm *TransactionManager) RollbackCommitted(id string) error {
	tx, err := tm.Load(id)
	if err != nil {
		return err
	}
	if tx.Status != TxCommitted {
		return fmt.Errorf("%w: %s is %s", ErrNotCommitted, id, tx.Status)
	}
	return tm.restore(tx, true)
}

// restore writes backups back in reverse order and marks tx rolled back
func (tm *TransactionManager) restore(tx *TransactionLog, verify bool) error {
	var errs []error
	for i := len(tx.Entries) - 1; i >= 0; i-- {
		e := tx.Entries[i]
		if e.BackupPath == "" {
			continue
		}
		if verify {
			current, err := os.ReadFile(e.FilePath)
			if err != nil {
				errs = append(errs, fmt.Errorf("read %s: %w", e.FilePath, err))
				continue
			}
			if Checksum(current) != e.After {
				errs = append(errs, fmt.Errorf("%w: %s", ErrFileChanged, e.FilePath))
				continue
			}
		}
		content, err := os.ReadFile(e.BackupPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("read backup of %s: %w", e.FilePath, err))
			continue
		}
		if err := tm.writer.WriteFile(e.FilePath, content); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", e.FilePath, err))
		}
	}

	tx.Status = TxRolledBack
	tx.Completed = time.Now().UTC()
	if err := tm.save(tx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Load reads the log of transaction id
func (tm *TransactionManager) Load(id string) (*TransactionLog, error) {
	data, err := os.ReadFile(filepath.Join(tm.dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("read transaction %s: %w", id, err)
	}
	var tx TransactionLog
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("parse transaction %s: %w", id, err)
	}
	return &tx, nil
}

// List returns every readable transaction log, newest first
func (tm *TransactionManager) List() ([]TransactionLog, error) {
	entries, err := os.ReadDir(tm.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var logs []TransactionLog
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		tx, err := tm.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		logs = append(logs, *tx)
	}
	slices.SortFunc(logs, func(a, b TransactionLog) int {
		return b.Started.Compare(a.Started)
	})
	return logs, nil
}

// Prune removes finished transactions older than age, with their backups
func (tm *TransactionManager) Prune(age time.Duration) error {
	logs, err := tm.List()
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-age)
	for _, tx := range logs {
		if tx.Status == TxPending || !tx.Completed.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(tm.dir, tx.ID)); err != nil {
			return err
		}
		if err := os.Remove(filepath.Join(tm.dir, tx.ID+".json")); err != nil {
			return err
		}
	}
	return nil
}

func (tm *TransactionManager) save(tx *TransactionLog) error {
	data, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tm.dir, tx.ID+".json"), data, 0o644); err != nil {
		return fmt.Errorf("write transaction log: %w", err)
	}
	return nil
}

// Checksum returns the hex SHA-256 digest of content
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
