package compiler

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/coldog/jspack/pkg/graph"
)

// Module is one source file after transformation and require rewriting.
type Module struct {
	// ID is the canonical id: "./" + slash separated path relative to the
	// build root.
	ID string `json:"id" yaml:"id"`

	// Path is the absolute file path.
	Path string `json:"path" yaml:"path"`

	// Dependencies are the ids of required modules in source order, without
	// duplicates.
	Dependencies []string `json:"dependencies" yaml:"dependencies"`

	// Entries are the names of every entry that reaches this module, in the
	// order they reached it.
	Entries []string `json:"entries" yaml:"entries"`

	// Source is the rewritten source text.
	Source string `json:"-" yaml:"-"`

	// Hash is the hex sha256 of Source.
	Hash string `json:"hash" yaml:"hash"`
}

// HasEntry reports whether the entry called name reaches m.
func (m *Module) HasEntry(name string) bool {
	for _, e := range m.Entries {
		if e == name {
			return true
		}
	}
	return false
}

func (m *Module) addEntry(name string) bool {
	if m.HasEntry(name) {
		return false
	}
	m.Entries = append(m.Entries, name)
	return true
}

func (m *Module) addDependency(id string) {
	for _, d := range m.Dependencies {
		if d == id {
			return
		}
	}
	m.Dependencies = append(m.Dependencies, id)
}

func (m *Module) setSource(src []byte) {
	h := sha256.Sum256(src)
	m.Source = string(src)
	m.Hash = hex.EncodeToString(h[:])
}

// EntryModule ties an entry name to the id of its root module.
type EntryModule struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id" yaml:"id"`
}

// Graph is the result of a build: every module reachable from any entry,
// indexed by id.
type Graph struct {
	Root    string
	Entries []EntryModule
	Modules []*Module

	byID  map[string]*Module
	edges *graph.Graph
}

func newGraph(root string) *Graph {
	return &Graph{
		Root:  root,
		byID:  map[string]*Module{},
		edges: graph.New(),
	}
}

func (g *Graph) add(m *Module) {
	g.byID[m.ID] = m
	g.Modules = append(g.Modules, m)
	g.edges.AddNode(m.ID)
}

// Module returns the module with the given id.
func (g *Graph) Module(id string) (*Module, bool) {
	m, ok := g.byID[id]
	return m, ok
}

// Entry returns the root module of the named entry.
func (g *Graph) Entry(name string) (*Module, bool) {
	for _, e := range g.Entries {
		if e.Name == name {
			return g.Module(e.ID)
		}
	}
	return nil, false
}

// Reachable returns the ids of id and every module it transitively requires.
func (g *Graph) Reachable(id string) []string {
	return g.edges.Reachable(id)
}

// Cycles returns the groups of modules that require each other.
func (g *Graph) Cycles() [][]string {
	return g.edges.Cycles()
}
