package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// AtomicWriteConfig controls how files are replaced
type AtomicWriteConfig struct {
	UseFsync    bool          // Sync the temp file before the rename
	LockTimeout time.Duration // Max time to wait for a file lock
	TempSuffix  string        // Suffix of the temp file next to the target
	LockSuffix  string        // Suffix of the lock file next to the target
}

// DefaultAtomicConfig returns the writer defaults
func DefaultAtomicConfig() AtomicWriteConfig {
	return AtomicWriteConfig{
		LockTimeout: 5 * time.Second,
		TempSuffix:  ".junify.tmp",
		LockSuffix:  ".junify.lock",
	}
}

// AtomicWriter replaces files through a temp file and a rename, holding a
// lock file next to the target while it writes.
type AtomicWriter struct {
	config AtomicWriteConfig

	mu    sync.Mutex
	locks map[string]*os.File
}

// NewAtomicWriter creates a writer with config
func NewAtomicWriter(config AtomicWriteConfig) *AtomicWriter {
	if config.TempSuffix == "" {
		config.TempSuffix = DefaultAtomicConfig().TempSuffix
	}
	if config.LockSuffix == "" {
		config.LockSuffix = DefaultAtomicConfig().LockSuffix
	}
	return &AtomicWriter{config: config, locks: make(map[string]*os.File)}
}

// WriteFile atomically replaces path with content, keeping the mode of an
// existing file.
func (aw *AtomicWriter) WriteFile(path string, content []byte) error {
	if err := aw.lock(path); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer aw.unlock(path)

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := path + aw.config.TempSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if aw.config.UseFsync {
		if err := f.Sync(); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("sync temp file: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Backup copies path to path.bak and returns the copy's path
func (aw *AtomicWriter) Backup(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := path + ".bak"
	if err := os.WriteFile(backup, content, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return backup, nil
}

func (aw *AtomicWriter) lock(path string) error {
	lockPath := path + aw.config.LockSuffix
	deadline := time.Now().Add(aw.config.LockTimeout)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			aw.mu.Lock()
			aw.locks[path] = f
			aw.mu.Unlock()
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
		if staleLock(lockPath) {
			os.Remove(lockPath)
			continue
		}
		if !time.Now().Before(deadline) {
			return ErrLockTimeout
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (aw *AtomicWriter) unlock(path string) {
	aw.mu.Lock()
	f, ok := aw.locks[path]
	delete(aw.locks, path)
	aw.mu.Unlock()
	if !ok {
		return
	}
	f.Close()
	os.Remove(path + aw.config.LockSuffix)
}

// staleLock reports whether the process that wrote lockPath is gone
func staleLock(lockPath string) bool {
	content, err := os.ReadFile(lockPath)
	if err != nil {
		return false
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		// the owner has not written its pid yet
		return false
	}
	pid, err := strconv.Atoi(text)
	if err != nil {
		return true
	}
	return !isProcessAlive(pid)
}

// Cleanup releases every lock still held
func (aw *AtomicWriter) Cleanup() {
	aw.mu.Lock()
	paths := make([]string, 0, len(aw.locks))
	for path := range aw.locks {
		paths = append(paths, path)
	}
	aw.mu.Unlock()
	for _, path := range paths {
		aw.unlock(path)
	}
}
