package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/junify/providers/catalog"
)

// skipDirs are never descended into
var skipDirs = []string{".git", ".hg", ".svn", ".junify", ".idea"}

// FileWalker discovers source files under a scope in parallel
type FileWalker struct {
	workers    int
	bufferSize int
}

// NewFileWalker creates a walker sized for I/O bound work
func NewFileWalker() *FileWalker {
	return &FileWalker{
		workers:    runtime.NumCPU() * 2,
		bufferSize: 256,
	}
}

// WalkResult is one discovered file. Language is empty when no registered
// language claims the file extension.
type WalkResult struct {
	Path     string
	Info     fs.FileInfo
	Language string
	Error    error
}

// scan carries the state of one directory traversal
type scan struct {
	ctx     context.Context
	scope   FileScope
	paths   chan<- string
	sent    int
	visited map[string]bool
}

// Walk streams the files selected by scope. The channel is closed when the
// traversal ends or ctx is cancelled.
func (fw *FileWalker) Walk(ctx context.Context, scope FileScope) (<-chan WalkResult, error) {
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	results := make(chan WalkResult, fw.bufferSize)
	paths := make(chan string, fw.bufferSize)

	var wg sync.WaitGroup
	for range fw.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				select {
				case <-ctx.Done():
					return
				case results <- stat(path, scope.Language):
				}
			}
		}()
	}

	go func() {
		defer close(paths)
		s := &scan{ctx: ctx, scope: scope, paths: paths}
		if scope.FollowSymlinks {
			s.visited = map[string]bool{realPath(scope.Path): true}
		}
		s.dir(scope.Path, 0)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results, nil
}

// Collect walks scope and returns the files a known language claims,
// ordered by path.
func (fw *FileWalker) Collect(ctx context.Context, scope FileScope) ([]WalkResult, error) {
	results, err := fw.Walk(ctx, scope)
	if err != nil {
		return nil, err
	}

	var files []WalkResult
	for r := range results {
		if r.Error != nil || r.Language == "" {
			continue
		}
		files = append(files, r)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(files, func(a, b WalkResult) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files, nil
}

func (s *scan) full() bool {
	return s.scope.MaxFiles > 0 && s.sent >= s.scope.MaxFiles
}

func (s *scan) dir(path string, depth int) {
	if s.full() || s.ctx.Err() != nil {
		return
	}
	if s.scope.MaxDepth > 0 && depth > s.scope.MaxDepth {
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if s.full() || s.ctx.Err() != nil {
			return
		}

		full := filepath.Join(path, entry.Name())
		if matchAny(s.scope.Path, full, s.scope.Exclude) {
			continue
		}

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			if !s.scope.FollowSymlinks {
				continue
			}
			info, err := os.Stat(full)
			if err != nil {
				continue
			}
			isDir = info.IsDir()
		}

		if isDir {
			if slices.Contains(skipDirs, entry.Name()) {
				continue
			}
			if s.visited != nil {
				resolved := realPath(full)
				if s.visited[resolved] {
					continue
				}
				s.visited[resolved] = true
			}
			s.dir(full, depth+1)
			continue
		}

		if len(s.scope.Include) > 0 && !matchAny(s.scope.Path, full, s.scope.Include) {
			continue
		}
		select {
		case <-s.ctx.Done():
			return
		case s.paths <- full:
			s.sent++
		}
	}
}

// stat builds the WalkResult of one file
func stat(path, language string) WalkResult {
	info, err := os.Stat(path)
	if err != nil {
		return WalkResult{Path: path, Error: err}
	}
	if language == "" {
		language = DetectLanguage(path)
	}
	return WalkResult{Path: path, Info: info, Language: language}
}

// DetectLanguage returns the registered language of path's extension, or
// the empty string.
func DetectLanguage(path string) string {
	return catalog.Detect(path)
}

// matchAny reports whether path matches one of patterns, tried against the
// path relative to root and the path as given. Patterns without a separator
// also match the base name.
func matchAny(root, path string, patterns []string) bool {
	candidates := []string{filepath.ToSlash(path)}
	if rel, err := filepath.Rel(root, path); err == nil {
		candidates = append(candidates, filepath.ToSlash(rel))
	}
	for _, pattern := range patterns {
		for _, c := range candidates {
			if ok, err := doublestar.Match(pattern, c); err == nil && ok {
				return true
			}
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil && resolved != "" {
		return resolved
	}
	return path
}

func validateScope(scope FileScope) error {
	if scope.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidScope)
	}
	info, err := os.Stat(scope.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScope, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidScope, scope.Path)
	}
	return nil
}
