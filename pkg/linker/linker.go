// Package linker groups compiled modules into chunks, one per entry, and
// renders each chunk into a self-contained script.
//
// Architecture:
// - The compiler traverses entrypoints and tags every module with the
//   entries that reach it.
// - Assemble collects, per entry, every module tagged with it.
// - Render wraps each module in a factory keyed by its canonical id and
//   prepends a small registry runtime that executes factories on demand.
package linker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/coldog/jspack/pkg/compiler"
)

// DefaultFilename is used when no output filename template is configured.
const DefaultFilename = "[name].js"

// Chunk is the set of modules reachable from one entry. Modules reached from
// several entries appear in each of their chunks.
type Chunk struct {
	// Name is the entry name.
	Name string

	// Entry is the canonical id of the entry module.
	Entry string

	// Modules are in discovery order, entry module first.
	Modules []*compiler.Module
}

// IDs returns the ids of the chunk's modules in order.
func (c *Chunk) IDs() []string {
	ids := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		ids[i] = m.ID
	}
	return ids
}

// Hash returns the hex sha256 over the hashes of the chunk's modules.
func (c *Chunk) Hash() string {
	h := sha256.New()
	for _, m := range c.Modules {
		h.Write([]byte(m.ID))
		h.Write([]byte(m.Hash))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Filename expands template: [name] becomes the chunk name and [hash] the
// first 8 characters of the chunk hash.
func (c *Chunk) Filename(template string) string {
	if template == "" {
		template = DefaultFilename
	}
	name := strings.ReplaceAll(template, "[name]", c.Name)
	if strings.Contains(name, "[hash]") {
		name = strings.ReplaceAll(name, "[hash]", c.Hash()[:8])
	}
	return name
}

// Asset is one rendered output file.
type Asset struct {
	Filename string
	Chunk    string
	Modules  int
	Content  []byte
}
