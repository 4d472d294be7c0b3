package linker

import (
	"github.com/coldog/jspack/pkg/compiler"
)

// Assemble returns one chunk per entry of g, in entry order. A chunk holds
// every module tagged with its entry, in discovery order.
func Assemble(g *compiler.Graph) []*Chunk {
	chunks := make([]*Chunk, 0, len(g.Entries))
	for _, e := range g.Entries {
		c := &Chunk{Name: e.Name, Entry: e.ID}
		if m, ok := g.Module(e.ID); ok {
			c.Modules = append(c.Modules, m)
		}
		for _, m := range g.Modules {
			if m.ID != e.ID && m.HasEntry(e.Name) {
				c.Modules = append(c.Modules, m)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks
}
