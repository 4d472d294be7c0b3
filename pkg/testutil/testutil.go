// Package testutil provides helpers for building fixture source trees in
// tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Tree maps slash separated relative paths to file contents.
type Tree map[string]string

// WriteFile creates a file with the given content under dir, creating parent
// directories as needed. It returns the absolute path of the file.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// WriteTree writes every file of tree under a fresh temporary directory and
// returns the directory. Symlinks in the temp path are resolved so ids
// computed relative to it are stable.
func WriteTree(t *testing.T, tree Tree) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	for name, content := range tree {
		WriteFile(t, dir, name, content)
	}
	return dir
}
