package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/coldog/jspack/pkg/compiler"
	"github.com/coldog/jspack/pkg/emit"
	"github.com/coldog/jspack/pkg/linker"
	"github.com/coldog/jspack/pkg/resolve"
	"github.com/coldog/jspack/pkg/transform"
)

// Entry is a named entry file with an absolute path.
type Entry = compiler.Entry

// Options is a validated configuration ready for a build.
type Options struct {
	// Root is absolute.
	Root string

	// Entries are sorted by name; paths are absolute.
	Entries []Entry

	Extensions []string
	Pipeline   *transform.Pipeline

	// OutputPath is absolute.
	OutputPath string
	Filename   string

	// Bucket is nil unless an object store is configured.
	Bucket *emit.BucketConfig
}

var placeholder = regexp.MustCompile(`\[[^\]]*\]`)

// Normalize validates cfg and resolves every path against cwd. reg supplies
// the transforms rules may name; nil means transform.Builtins.
func Normalize(cfg *Config, cwd string, reg transform.Registry) (*Options, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if reg == nil {
		reg = transform.Builtins()
	}

	root, err := absDir(cwd, cfg.Context)
	if err != nil {
		return nil, &Error{Field: "context", Message: "cannot resolve", Cause: err}
	}

	entries, err := normalizeEntries(cfg.Entry, root)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Output.Path) == "" {
		return nil, invalid("output.path", "is empty")
	}
	outPath := cfg.Output.Path
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(root, outPath)
	}

	filename := cfg.Output.Filename
	if filename == "" {
		filename = linker.DefaultFilename
	}
	if err := checkFilename(filename, len(entries)); err != nil {
		return nil, err
	}

	pipeline, err := transform.Compile(cfg.Module.Rules, reg)
	if err != nil {
		return nil, &Error{Field: "module.rules", Message: "invalid rule", Cause: err}
	}

	var bucket *emit.BucketConfig
	if cfg.Output.Bucket.Enabled() {
		if err := cfg.Output.Bucket.Validate(); err != nil {
			return nil, &Error{Field: "output.bucket", Message: "incomplete", Cause: err}
		}
		b := cfg.Output.Bucket
		bucket = &b
	}

	return &Options{
		Root:       root,
		Entries:    entries,
		Extensions: resolve.NormalizeExtensions(cfg.Resolve.Extensions),
		Pipeline:   pipeline,
		OutputPath: filepath.Clean(outPath),
		Filename:   filename,
		Bucket:     bucket,
	}, nil
}

func absDir(cwd, dir string) (string, error) {
	if dir == "" {
		dir = cwd
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(cwd, dir)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return dir, nil
}

// normalizeEntries accepts a single path or a map of name to path.
func normalizeEntries(raw any, root string) ([]Entry, error) {
	named := map[string]string{}
	switch v := raw.(type) {
	case nil:
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, invalid("entry", "path is empty")
		}
		named[DefaultEntryName] = v
	case map[string]string:
		for k, p := range v {
			named[k] = p
		}
	case map[string]any:
		for k, p := range v {
			s, ok := p.(string)
			if !ok {
				return nil, invalid("entry."+k, "must be a path, got %T", p)
			}
			named[k] = s
		}
	default:
		return nil, invalid("entry", "must be a path or a map of name to path, got %T", raw)
	}
	if len(named) == 0 {
		return nil, invalid("entry", "no entries configured")
	}

	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	// Names are case sensitive but must not differ only by case, since
	// their assets would collide on case insensitive file systems.
	folded := map[string]string{}
	entries := make([]Entry, 0, len(named))
	for _, name := range names {
		p := named[name]
		if strings.TrimSpace(name) == "" {
			return nil, invalid("entry", "entry name is empty")
		}
		if other, ok := folded[strings.ToLower(name)]; ok {
			return nil, invalid("entry."+name, "differs from entry %q only by case", other)
		}
		folded[strings.ToLower(name)] = name
		if strings.TrimSpace(p) == "" {
			return nil, invalid("entry."+name, "path is empty")
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, &Error{Field: "entry." + name, Message: "entry file not found", Cause: err}
		}
		if info.IsDir() {
			return nil, invalid("entry."+name, "%s is a directory", p)
		}
		entries = append(entries, Entry{Name: name, Path: filepath.Clean(p)})
	}
	return entries, nil
}

func checkFilename(tmpl string, entries int) error {
	for _, p := range placeholder.FindAllString(tmpl, -1) {
		if p != "[name]" && p != "[hash]" {
			return invalid("output.filename", "unknown placeholder %s", p)
		}
	}
	if filepath.IsAbs(tmpl) || strings.HasPrefix(filepath.ToSlash(filepath.Clean(tmpl)), "../") {
		return invalid("output.filename", "%q must be relative to the output path", tmpl)
	}
	if strings.HasSuffix(tmpl, "/") {
		return invalid("output.filename", "%q names a directory", tmpl)
	}
	if entries > 1 && !strings.Contains(tmpl, "[name]") {
		return invalid("output.filename", "%q needs [name] with %d entries", tmpl, entries)
	}
	return nil
}

// ParseEntry parses a name=path flag value. A bare path is named after its
// base name without extension.
func ParseEntry(s string) (name, path string) {
	if i := strings.Index(s, "="); i > 0 {
		return s[:i], s[i+1:]
	}
	base := filepath.Base(s)
	return strings.TrimSuffix(base, filepath.Ext(base)), s
}
