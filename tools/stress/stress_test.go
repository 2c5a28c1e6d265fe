//go:build stress

package stress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/junify/core"
	"github.com/oxhq/junify/providers"
	"github.com/oxhq/junify/providers/java"
	"github.com/oxhq/junify/rules/junit"
)

const testClass = `package com.example;

import org.junit.Before;
import org.junit.Test;
import static org.junit.Assert.assertEquals;

public class Case%dTest {
    @Before
    public void setUp() {}

    @Test(timeout = 1000)
    public void adds() {
        assertEquals("sum", 4, 2 + 2);
    }
}
`

func TestStressMigrate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	const files = 40
	for i := 0; i < files; i++ {
		path := filepath.Join(dir, fmt.Sprintf("Case%dTest.java", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testClass, i)), 0o644))
	}

	registry := providers.NewRegistry()
	registry.Register(java.New(junit.Default()))

	processor := core.NewFileProcessor(registry, core.WithWorkers(16), core.WithTransactionDir(t.TempDir()))
	op := core.FileMigrateOp{
		Scope:  core.FileScope{Path: dir, Include: []string{"**/*.java"}, Language: "java"},
		DryRun: true,
	}

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		result, err := processor.MigrateFiles(ctx, op)
		require.NoError(t, err, "iteration %d", i)
		require.Equal(t, files, result.FilesModified, "iteration %d", i)
		require.Equal(t, files*3, result.TotalOperations, "iteration %d", i)
	}

	stats := registry.Stats()
	require.Zero(t, stats.Active, "parser pool did not drain")
	require.Equal(t, stats.BorrowCount, stats.ReturnCount)
}
