// Package emit persists rendered assets.
package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/coldog/jspack/pkg/linker"
	"github.com/coldog/jspack/pkg/output"
)

// DefaultConcurrency bounds concurrent asset writes.
const DefaultConcurrency = 4

// Sink stores one named file.
type Sink interface {
	// Put stores content under name. name is slash separated and relative.
	Put(ctx context.Context, name string, content []byte) error

	// Location describes where name ends up, for logs and summaries.
	Location(name string) string
}

// Write stores every asset in sink, at most concurrency at a time. The first
// error cancels the remaining writes.
func Write(ctx context.Context, sink Sink, assets []linker.Asset, concurrency int) error {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	for _, a := range assets {
		if err := checkName(a.Filename); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, a := range assets {
		a := a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink.Put(ctx, a.Filename, a.Content); err != nil {
				return fmt.Errorf("emit %s: %w", a.Filename, err)
			}
			output.Debug("emitted", "file", sink.Location(a.Filename), "bytes", len(a.Content))
			return nil
		})
	}
	return g.Wait()
}

// checkName rejects names escaping the output location.
func checkName(name string) error {
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("emit: invalid asset name %q", name)
	}
	return nil
}

// DirSink writes files under a directory, creating it as needed.
type DirSink struct {
	Dir string
}

// Put writes content to a temporary file next to the target and renames it
// into place.
func (s DirSink) Put(_ context.Context, name string, content []byte) error {
	path := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Location implements Sink.
func (s DirSink) Location(name string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(name))
}
