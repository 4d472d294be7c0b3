// Package compiler builds the module graph: it reads and transforms every
// file reachable from the entries, rewrites static require calls to go
// through the bundle's module registry and records the dependency edges.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coldog/jspack/pkg/output"
	"github.com/coldog/jspack/pkg/resolve"
)

// Resolver maps a require specifier to an absolute file path.
type Resolver interface {
	Resolve(fromDir, specifier string) (string, error)
}

// Transformer rewrites raw file contents before parsing.
type Transformer interface {
	Apply(path string, source []byte) ([]byte, error)
}

// Entry is a named root file.
type Entry struct {
	Name string
	Path string
}

// Options configure Build.
type Options struct {
	// Root is the absolute directory canonical ids are relative to.
	Root string

	// Entries are built in order.
	Entries []Entry

	// Resolver resolves require specifiers.
	Resolver Resolver

	// Transformer is applied to every file before parsing. Optional.
	Transformer Transformer
}

// builder owns all mutable build state. Modules are added to the graph
// before their dependencies are built, so an id present in the graph is
// either finished or in flight and is never built twice.
type builder struct {
	ctx   context.Context
	opts  Options
	graph *Graph
}

// Build compiles every entry and everything it requires. The walk is depth
// first and single threaded: a module is fully rewritten before its
// dependencies are built. The first error aborts the build.
func Build(ctx context.Context, opts Options) (*Graph, error) {
	if opts.Resolver == nil {
		return nil, errors.New("compiler: no resolver")
	}
	if !filepath.IsAbs(opts.Root) {
		return nil, fmt.Errorf("compiler: root %q is not absolute", opts.Root)
	}

	b := &builder{ctx: ctx, opts: opts, graph: newGraph(opts.Root)}
	for _, e := range opts.Entries {
		m, err := b.entry(e)
		if err != nil {
			return nil, err
		}
		b.graph.Entries = append(b.graph.Entries, EntryModule{Name: e.Name, ID: m.ID})
	}
	return b.graph, nil
}

func (b *builder) entry(e Entry) (*Module, error) {
	path, err := filepath.Abs(e.Path)
	if err != nil {
		return nil, err
	}
	id, err := b.id(path)
	if err != nil {
		return nil, err
	}
	output.Debug("build entry", "entry", e.Name, "id", id)

	// The entry file may already be a dependency of an earlier entry.
	if m, ok := b.graph.Module(id); ok {
		b.claim(m, e.Name)
		return m, nil
	}
	return b.build(e.Name, path, id)
}

// build compiles the module at path on behalf of entry and recurses into
// dependencies not seen before.
func (b *builder) build(entry, path, id string) (*Module, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}

	m := &Module{ID: id, Path: path, Entries: []string{entry}}
	b.graph.add(m)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	src := raw
	if b.opts.Transformer != nil {
		if src, err = b.opts.Transformer.Apply(path, raw); err != nil {
			return nil, err
		}
	}

	calls, err := scanRequires(b.ctx, path, src)
	if err != nil {
		return nil, err
	}

	var (
		edits   []edit
		pending []string
		paths   = map[string]string{}
	)
	for _, call := range calls {
		dep, err := b.opts.Resolver.Resolve(filepath.Dir(path), call.Specifier)
		if err != nil {
			var rerr *resolve.Error
			if errors.As(err, &rerr) {
				rerr.Requester = id
			}
			return nil, err
		}
		depID, err := b.id(dep)
		if err != nil {
			return nil, err
		}
		output.Debug("resolve", "module", id, "specifier", call.Specifier, "id", depID)

		edits = append(edits, call.edits(depID)...)
		m.addDependency(depID)
		b.graph.edges.AddEdge(id, depID)

		if existing, ok := b.graph.Module(depID); ok {
			b.claim(existing, entry)
		} else if _, queued := paths[depID]; !queued {
			paths[depID] = dep
			pending = append(pending, depID)
		}
	}
	m.setSource(rewrite(src, edits))

	for _, depID := range pending {
		// An earlier sibling may have pulled it in already.
		if existing, ok := b.graph.Module(depID); ok {
			b.claim(existing, entry)
			continue
		}
		if _, err := b.build(entry, paths[depID], depID); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// claim adds entry to m and everything m requires. Modules that already
// belong to entry stop the walk, which also terminates on cycles.
func (b *builder) claim(m *Module, entry string) {
	if !m.addEntry(entry) {
		return
	}
	for _, id := range m.Dependencies {
		if dep, ok := b.graph.Module(id); ok {
			b.claim(dep, entry)
		}
	}
}

// id returns the canonical id of an absolute path.
func (b *builder) id(path string) (string, error) {
	return ModuleID(b.opts.Root, path)
}

// ModuleID returns "./" followed by the slash separated path of file
// relative to root.
func ModuleID(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("module id for %s: %w", file, err)
	}
	return "./" + filepath.ToSlash(rel), nil
}
