// Package bundler drives a complete run: it builds the module graph for the
// configured entries, assembles and renders one chunk per entry and hands the
// assets to a sink, notifying lifecycle hooks along the way.
package bundler

import (
	"context"
	"errors"
	"time"

	"github.com/coldog/jspack/pkg/compiler"
	"github.com/coldog/jspack/pkg/config"
	"github.com/coldog/jspack/pkg/emit"
	"github.com/coldog/jspack/pkg/hooks"
	"github.com/coldog/jspack/pkg/linker"
	"github.com/coldog/jspack/pkg/output"
	"github.com/coldog/jspack/pkg/resolve"
)

// Compiler runs builds for one normalized configuration.
type Compiler struct {
	Options *config.Options

	// Hooks is notified of each phase. Optional.
	Hooks *hooks.Bus

	// Sink receives the assets. When nil, NewSink(Options) is used.
	Sink emit.Sink

	// DryRun renders every asset but writes none.
	DryRun bool

	// Concurrency bounds concurrent writes. Zero means
	// emit.DefaultConcurrency.
	Concurrency int
}

// New returns a Compiler for opts with an empty hook bus.
func New(opts *config.Options) *Compiler {
	return &Compiler{Options: opts, Hooks: &hooks.Bus{}}
}

// NewSink returns the sink opts select: the configured bucket, or the output
// directory.
func NewSink(opts *config.Options) (emit.Sink, error) {
	if opts.Bucket != nil {
		sink, err := emit.NewBucketSink(*opts.Bucket)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
	return emit.DirSink{Dir: opts.OutputPath}, nil
}

// Run performs one build. Hooks fire in the order BeforeRun, BeforeEmit,
// AfterEmit. Any error aborts the run before anything is written.
func (c *Compiler) Run(ctx context.Context) (*Stats, error) {
	if c.Options == nil {
		return nil, errors.New("bundler: no options")
	}
	start := time.Now()
	log := output.ModuleLogger("bundler")

	c.Hooks.Call(hooks.BeforeRun)

	g, err := compiler.Build(ctx, compiler.Options{
		Root:        c.Options.Root,
		Entries:     c.Options.Entries,
		Resolver:    resolve.New(c.Options.Extensions),
		Transformer: c.Options.Pipeline,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("module graph built", "entries", len(g.Entries), "modules", len(g.Modules))

	cycles := g.Cycles()
	for _, cycle := range cycles {
		log.Warn("circular dependency", "modules", cycle)
	}

	chunks := linker.Assemble(g)
	for _, ch := range chunks {
		log.Debug("chunk assembled", "name", ch.Name, "entry", ch.Entry,
			"modules", len(ch.Modules), "reachable", len(g.Reachable(ch.Entry)))
	}
	assets, err := linker.RenderAll(chunks, c.Options.Filename)
	if err != nil {
		return nil, err
	}

	c.Hooks.Call(hooks.BeforeEmit)

	stats := newStats(c.Options.Root, g, chunks, assets, cycles)
	stats.DryRun = c.DryRun

	if !c.DryRun {
		sink := c.Sink
		if sink == nil {
			if sink, err = NewSink(c.Options); err != nil {
				return nil, err
			}
		}
		if err := emit.Write(ctx, sink, assets, c.Concurrency); err != nil {
			return nil, err
		}
		for _, a := range assets {
			stats.Emitted = append(stats.Emitted, sink.Location(a.Filename))
		}
	}

	c.Hooks.Call(hooks.AfterEmit)

	stats.Elapsed = time.Since(start).Round(time.Millisecond).String()
	log.Info("build complete", "chunks", len(chunks), "modules", len(g.Modules), "elapsed", stats.Elapsed)
	return stats, nil
}
