package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/junify/providers/catalog"
)

func init() {
	catalog.Register(catalog.LanguageInfo{ID: "java", Extensions: []string{".java"}})
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func collectPaths(t *testing.T, scope FileScope) []string {
	t.Helper()
	files, err := NewFileWalker().Collect(context.Background(), scope)
	require.NoError(t, err)
	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(scope.Path, f.Path)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel
}

func TestFileWalker_Collect(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/test/java/a/ATest.java":  "class ATest {}",
		"src/test/java/b/BTest.java":  "class BTest {}",
		"src/main/java/a/A.java":      "class A {}",
		"README.md":                   "docs",
		".git/objects/x.java":         "class X {}",
		".junify/transactions/y.java": "class Y {}",
	})

	tests := []struct {
		name  string
		scope FileScope
		want  []string
	}{
		{
			name:  "all known files",
			scope: FileScope{Path: root},
			want:  []string{"src/main/java/a/A.java", "src/test/java/a/ATest.java", "src/test/java/b/BTest.java"},
		},
		{
			name:  "include glob",
			scope: FileScope{Path: root, Include: []string{"src/test/**/*.java"}},
			want:  []string{"src/test/java/a/ATest.java", "src/test/java/b/BTest.java"},
		},
		{
			name:  "base name glob",
			scope: FileScope{Path: root, Include: []string{"*Test.java"}},
			want:  []string{"src/test/java/a/ATest.java", "src/test/java/b/BTest.java"},
		},
		{
			name:  "exclude directory",
			scope: FileScope{Path: root, Exclude: []string{"**/b"}},
			want:  []string{"src/main/java/a/A.java", "src/test/java/a/ATest.java"},
		},
		{
			name:  "max depth",
			scope: FileScope{Path: root, MaxDepth: 2},
			want:  nil,
		},
		{
			name:  "forced language",
			scope: FileScope{Path: root, Include: []string{"*.md"}, Language: "java"},
			want:  []string{"README.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collectPaths(t, tt.scope))
		})
	}
}

func TestFileWalker_MaxFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"A.java": "", "B.java": "", "C.java": "",
	})
	assert.Len(t, collectPaths(t, FileScope{Path: root, MaxFiles: 2}), 2)
}

func TestFileWalker_InvalidScope(t *testing.T) {
	walker := NewFileWalker()

	_, err := walker.Walk(context.Background(), FileScope{})
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = walker.Walk(context.Background(), FileScope{Path: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, ErrInvalidScope)

	file := filepath.Join(t.TempDir(), "A.java")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = walker.Walk(context.Background(), FileScope{Path: file})
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestFileWalker_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"A.java": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileWalker().Collect(ctx, FileScope{Path: root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileWalker_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, outside, map[string]string{"Linked.java": ""})
	writeTree(t, root, map[string]string{"A.java": ""})
	if err := os.Symlink(outside, filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	// a loop back to the root must not recurse forever
	require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))

	assert.Equal(t, []string{"A.java"}, collectPaths(t, FileScope{Path: root}))
	assert.Equal(t, []string{"A.java", "linked/Linked.java"},
		collectPaths(t, FileScope{Path: root, FollowSymlinks: true}))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "java", DetectLanguage("Foo.java"))
	assert.Equal(t, "java", DetectLanguage("Foo.JAVA"))
	assert.Equal(t, "", DetectLanguage("Foo.kt"))
	assert.Equal(t, "", DetectLanguage("Makefile"))
}
