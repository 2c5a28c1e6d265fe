package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *TransactionManager {
	t.Helper()
	return NewTransactionManager(filepath.Join(t.TempDir(), "tx"), NewAtomicWriter(DefaultAtomicConfig()))
}

func sourceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ATest.java")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func replace(t *testing.T, tm *TransactionManager, path, content string) {
	t.Helper()
	require.NoError(t, tm.Replace(path, []byte(content)))
}

func TestTransactionManager_Begin(t *testing.T) {
	tm := newManager(t)

	tx, err := tm.Begin("migrate 1 files")
	require.NoError(t, err)
	assert.NoError(t, uuid.Validate(tx.ID))
	assert.Equal(t, TxPending, tx.Status)
	assert.True(t, tm.Active())
	assert.FileExists(t, filepath.Join(tm.Dir(), tx.ID+".json"))

	_, err = tm.Begin("second")
	assert.ErrorIs(t, err, ErrTransactionActive)
}

func TestTransactionManager_NoTransaction(t *testing.T) {
	tm := newManager(t)

	_, err := tm.Record("x")
	assert.ErrorIs(t, err, ErrNoTransaction)
	assert.ErrorIs(t, tm.Complete("x", nil, nil), ErrNoTransaction)
	assert.ErrorIs(t, tm.Commit(), ErrNoTransaction)
	assert.ErrorIs(t, tm.Rollback(), ErrNoTransaction)
}

func TestTransactionManager_Commit(t *testing.T) {
	tm := newManager(t)
	path := sourceFile(t, "import org.junit.Test;")

	tx, err := tm.Begin("migrate")
	require.NoError(t, err)
	replace(t, tm, path, "import org.junit.jupiter.api.Test;")
	require.NoError(t, tm.Commit())
	assert.False(t, tm.Active())

	loaded, err := tm.Load(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, TxCommitted, loaded.Status)
	require.Len(t, loaded.Entries, 1)
	entry := loaded.Entries[0]
	assert.Equal(t, path, entry.FilePath)
	assert.Equal(t, Checksum([]byte("import org.junit.Test;")), entry.Before)
	assert.Equal(t, Checksum([]byte("import org.junit.jupiter.api.Test;")), entry.After)
	assert.Equal(t, "import org.junit.Test;", readFile(t, entry.BackupPath))
}

func TestTransactionManager_CommitRejectsIncomplete(t *testing.T) {
	tm := newManager(t)
	path := sourceFile(t, "a")

	_, err := tm.Begin("migrate")
	require.NoError(t, err)
	_, err = tm.Record(path)
	require.NoError(t, err)
	assert.Error(t, tm.Commit())
	assert.True(t, tm.Active())
}

func TestTransactionManager_Rollback(t *testing.T) {
	tm := newManager(t)
	first := sourceFile(t, "first")
	second := sourceFile(t, "second")

	tx, err := tm.Begin("migrate")
	require.NoError(t, err)
	replace(t, tm, first, "first migrated")
	replace(t, tm, second, "second migrated")

	require.NoError(t, tm.Rollback())
	assert.Equal(t, "first", readFile(t, first))
	assert.Equal(t, "second", readFile(t, second))

	loaded, err := tm.Load(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, TxRolledBack, loaded.Status)
}

func TestTransactionManager_RollbackCommitted(t *testing.T) {
	tm := newManager(t)
	path := sourceFile(t, "before")

	tx, err := tm.Begin("migrate")
	require.NoError(t, err)
	replace(t, tm, path, "after")
	require.NoError(t, tm.Commit())

	require.NoError(t, tm.RollbackCommitted(tx.ID))
	assert.Equal(t, "before", readFile(t, path))

	err = tm.RollbackCommitted(tx.ID)
	assert.ErrorIs(t, err, ErrNotCommitted)
}

func TestTransactionManager_RollbackCommittedKeepsEditedFiles(t *testing.T) {
	tm := newManager(t)
	edited := sourceFile(t, "edited before")
	untouched := sourceFile(t, "untouched before")

	tx, err := tm.Begin("migrate")
	require.NoError(t, err)
	replace(t, tm, edited, "edited after")
	replace(t, tm, untouched, "untouched after")
	require.NoError(t, tm.Commit())

	require.NoError(t, os.WriteFile(edited, []byte("hand edit"), 0o644))

	err = tm.RollbackCommitted(tx.ID)
	assert.ErrorIs(t, err, ErrFileChanged)
	assert.Equal(t, "hand edit", readFile(t, edited))
	assert.Equal(t, "untouched before", readFile(t, untouched))
}

func TestTransactionManager_ListAndPrune(t *testing.T) {
	tm := newManager(t)
	logs, err := tm.List()
	require.NoError(t, err)
	assert.Empty(t, logs)

	first, err := tm.Begin("first")
	require.NoError(t, err)
	require.NoError(t, tm.Commit())
	time.Sleep(10 * time.Millisecond)
	second, err := tm.Begin("second")
	require.NoError(t, err)

	logs, err = tm.List()
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, second.ID, logs[0].ID)
	assert.Equal(t, first.ID, logs[1].ID)

	require.NoError(t, tm.Prune(0))
	logs, err = tm.List()
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, TxPending, logs[0].Status)
}
