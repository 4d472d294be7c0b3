package bundler

import (
	"github.com/coldog/jspack/pkg/compiler"
	"github.com/coldog/jspack/pkg/linker"
	"github.com/coldog/jspack/pkg/output"
)

// Stats describes a finished run.
type Stats struct {
	Root    string                 `json:"root" yaml:"root"`
	Entries []compiler.EntryModule `json:"entries" yaml:"entries"`
	Modules []ModuleStats          `json:"modules" yaml:"modules"`
	Chunks  []ChunkStats           `json:"chunks" yaml:"chunks"`
	Cycles  [][]string             `json:"cycles,omitempty" yaml:"cycles,omitempty"`

	// Emitted lists the location of every written asset. Empty on a dry run.
	Emitted []string `json:"emitted,omitempty" yaml:"emitted,omitempty"`
	DryRun  bool     `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	Elapsed string   `json:"elapsed" yaml:"elapsed"`
}

// ModuleStats describes one module.
type ModuleStats struct {
	ID           string   `json:"id" yaml:"id"`
	Path         string   `json:"path" yaml:"path"`
	Size         int      `json:"size" yaml:"size"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Entries      []string `json:"entries" yaml:"entries"`
}

// ChunkStats describes one rendered chunk.
type ChunkStats struct {
	Name     string   `json:"name" yaml:"name"`
	Entry    string   `json:"entry" yaml:"entry"`
	Filename string   `json:"filename" yaml:"filename"`
	Size     int      `json:"size" yaml:"size"`
	Modules  []string `json:"modules" yaml:"modules"`
}

func newStats(root string, g *compiler.Graph, chunks []*linker.Chunk, assets []linker.Asset, cycles [][]string) *Stats {
	s := &Stats{
		Root:    root,
		Entries: g.Entries,
		Cycles:  cycles,
	}
	for _, m := range g.Modules {
		s.Modules = append(s.Modules, ModuleStats{
			ID:           m.ID,
			Path:         m.Path,
			Size:         len(m.Source),
			Dependencies: m.Dependencies,
			Entries:      m.Entries,
		})
	}
	for i, c := range chunks {
		s.Chunks = append(s.Chunks, ChunkStats{
			Name:     c.Name,
			Entry:    c.Entry,
			Filename: assets[i].Filename,
			Size:     len(assets[i].Content),
			Modules:  c.IDs(),
		})
	}
	return s
}

// Summary returns one summary line per chunk.
func (s *Stats) Summary() []output.AssetLine {
	lines := make([]output.AssetLine, len(s.Chunks))
	for i, c := range s.Chunks {
		lines[i] = output.AssetLine{
			Filename: c.Filename,
			Chunk:    c.Name,
			Modules:  len(c.Modules),
			Size:     c.Size,
		}
	}
	return lines
}
