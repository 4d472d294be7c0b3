// Package resolve implements a basic node resolution algorithm: extension
// probing, directory index fallback, package.json "main" and node_modules
// lookup for bare specifiers.
package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultExtensions are probed when no extensions are configured.
var DefaultExtensions = []string{".js", ".json"}

// ErrNotFound is wrapped by every Error.
var ErrNotFound = errors.New("resolve: module not found")

// Error reports a specifier that could not be resolved.
type Error struct {
	// Specifier is the literal passed to require.
	Specifier string

	// FromDir is the directory the specifier was resolved against.
	FromDir string

	// Requester is the canonical id of the requiring module, when known.
	Requester string
}

func (e *Error) Error() string {
	if e.Requester != "" {
		return fmt.Sprintf("could not resolve %q from %s (required by %s)", e.Specifier, e.FromDir, e.Requester)
	}
	return fmt.Sprintf("could not resolve %q from %s", e.Specifier, e.FromDir)
}

// Unwrap returns ErrNotFound.
func (e *Error) Unwrap() error {
	return ErrNotFound
}

type kind uint8

const (
	missing kind = iota
	file
	dir
)

const statCacheSize = 4096

// Resolver maps require specifiers to absolute file paths. A Resolver memoizes
// file system lookups for its lifetime, so create one per build.
type Resolver struct {
	// Extensions are probed in order. Each starts with a dot.
	Extensions []string

	stats *lru.Cache[string, kind]
}

// New returns a Resolver probing the given extensions. Extensions without a
// leading dot get one; an empty list means DefaultExtensions.
func New(extensions []string) *Resolver {
	stats, _ := lru.New[string, kind](statCacheSize)
	return &Resolver{
		Extensions: NormalizeExtensions(extensions),
		stats:      stats,
	}
}

// NormalizeExtensions returns exts with a leading dot on every entry, empty
// and duplicate entries dropped. An empty result falls back to
// DefaultExtensions.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := map[string]bool{}
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return out
}

// IsRelative reports whether name is resolved against the requiring file's
// directory rather than looked up in node_modules.
func IsRelative(name string) bool {
	return name == "." || name == ".." ||
		strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") ||
		strings.HasPrefix(name, "/") || filepath.IsAbs(name)
}

// Resolve returns the absolute path of the file name refers to when required
// from a file in fromDir.
func (r *Resolver) Resolve(fromDir, name string) (string, error) {
	if name == "" {
		return "", &Error{Specifier: name, FromDir: fromDir}
	}

	if IsRelative(name) {
		base := name
		if !filepath.IsAbs(base) {
			base = filepath.Join(fromDir, filepath.FromSlash(name))
		}
		if p, ok := r.load(base); ok {
			return p, nil
		}
		return "", &Error{Specifier: name, FromDir: fromDir}
	}

	// Bare specifier: walk up looking for node_modules/<name>.
	for d := fromDir; ; {
		if p, ok := r.load(filepath.Join(d, "node_modules", filepath.FromSlash(name))); ok {
			return p, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return "", &Error{Specifier: name, FromDir: fromDir}
}

// load resolves base as a file first, then as a directory.
func (r *Resolver) load(base string) (string, bool) {
	base = filepath.Clean(base)
	if p, ok := r.loadFile(base); ok {
		return p, true
	}
	if r.stat(base) != dir {
		return "", false
	}
	if main := readMain(filepath.Join(base, "package.json")); main != "" {
		m := filepath.Join(base, filepath.FromSlash(main))
		if p, ok := r.loadFile(m); ok {
			return p, true
		}
		if p, ok := r.loadIndex(m); ok {
			return p, true
		}
	}
	return r.loadIndex(base)
}

func (r *Resolver) loadFile(base string) (string, bool) {
	if r.stat(base) == file {
		return base, true
	}
	for _, ext := range r.Extensions {
		if r.stat(base+ext) == file {
			return base + ext, true
		}
	}
	return "", false
}

func (r *Resolver) loadIndex(base string) (string, bool) {
	for _, ext := range r.Extensions {
		p := filepath.Join(base, "index"+ext)
		if r.stat(p) == file {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) stat(name string) kind {
	if r.stats != nil {
		if k, ok := r.stats.Get(name); ok {
			return k
		}
	}
	k := missing
	if st, err := os.Stat(name); err == nil {
		if st.IsDir() {
			k = dir
		} else {
			k = file
		}
	}
	if r.stats != nil {
		r.stats.Add(name, k)
	}
	return k
}

// readMain returns the "main" field of a package.json, or "" when the file is
// missing or unreadable.
func readMain(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	m := struct {
		Main string `json:"main"`
	}{}
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return ""
	}
	return strings.TrimSpace(m.Main)
}
