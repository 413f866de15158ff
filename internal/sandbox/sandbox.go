// Package sandbox resolves relative paths against a workspace root with
// guaranteed containment, enumerates the files beneath that root, and
// reads their contents as UTF-8 text. No operation in this package ever
// returns a path outside the workspace root, even for adversarial ".."
// segments or paths using the non-native separator.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// ErrPathOutsideWorkspace is returned by Resolve when the requested path
// would escape the workspace root.
var ErrPathOutsideWorkspace = errors.New("path outside workspace")

// ErrNotAFile is returned by Read when the resolved path is not a
// regular file (e.g. a directory).
var ErrNotAFile = errors.New("not a file")

// DefaultMaxList is the listing cap used when the caller doesn't specify one.
const DefaultMaxList = 1000

// Sandbox bounds all file operations to a single absolute root directory.
type Sandbox struct {
	root string
}

// New resolves root to an absolute, cleaned path and returns a Sandbox
// bound to it. An empty root means "use the current working directory."
func New(root string) (Sandbox, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Sandbox{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return Sandbox{}, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	return Sandbox{root: filepath.Clean(abs)}, nil
}

// Root returns the sandbox's absolute workspace root.
func (s Sandbox) Root() string {
	return s.root
}

// Resolve joins relative against the workspace root and requires the
// result to be contained within it. relative may use either platform
// path separator. An empty or "." relative path resolves to the root
// itself.
func (s Sandbox) Resolve(relative string) (string, error) {
	cleanedRel := filepath.FromSlash(strings.ReplaceAll(relative, "\\", "/"))
	joined := filepath.Join(s.root, cleanedRel)

	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	resolved := filepath.Clean(abs)

	if resolved != s.root && !strings.HasPrefix(resolved, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathOutsideWorkspace, relative)
	}

	return resolved, nil
}

// List performs a depth-first traversal from the workspace root, emitting
// the relative path of every regular file, stopping once max entries have
// been accumulated. max must be at least 1. Directory ordering is
// platform-defined and must not be relied upon by callers.
func (s Sandbox) List(max int) ([]string, error) {
	return s.ListMatching(max, "")
}

// ListMatching is List filtered to relative paths whose forward-slash
// form matches the glob pattern. An empty pattern matches everything.
func (s Sandbox) ListMatching(max int, pattern string) ([]string, error) {
	if max < 1 {
		max = DefaultMaxList
	}

	var matcher glob.Glob
	if pattern != "" {
		m, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		matcher = m
	}

	var results []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if len(results) >= max {
			return filepath.SkipAll
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %q: %w", path, err)
		}
		relSlash := filepath.ToSlash(rel)

		if matcher != nil && !matcher.Match(relSlash) {
			return nil
		}

		results = append(results, rel)
		if len(results) >= max {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace: %w", err)
	}

	return results, nil
}

// FileContent is the result of a successful Read.
type FileContent struct {
	Path    string
	Content string
}

// Read resolves relative through the containment check, requires the
// target to be a regular file, and returns its contents as UTF-8 text.
func (s Sandbox) Read(relative string) (FileContent, error) {
	resolved, err := s.Resolve(relative)
	if err != nil {
		return FileContent{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return FileContent{}, fmt.Errorf("failed to stat %q: %w", relative, err)
	}
	if !info.Mode().IsRegular() {
		return FileContent{}, fmt.Errorf("%w: %q", ErrNotAFile, relative)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return FileContent{}, fmt.Errorf("failed to read %q: %w", relative, err)
	}

	return FileContent{Path: relative, Content: string(data)}, nil
}

// Write resolves relative through the containment check and writes
// content to it, creating the file if necessary. Used by the edit_file
// builtin tool; the core read-only Sandbox contract (Resolve/List/Read)
// never calls this.
func (s Sandbox) Write(relative string, content string) error {
	resolved, err := s.Resolve(relative)
	if err != nil {
		return err
	}
	if err := os.WriteFile(resolved, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write %q: %w", relative, err)
	}
	return nil
}
