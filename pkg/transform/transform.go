// Package transform applies text-to-text source transforms to module files
// before they are parsed. Transforms are selected by path matching rules and
// looked up by name in a Registry when the rules are compiled.
package transform

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Func transforms the source of the file at path.
type Func func(path string, source []byte) ([]byte, error)

// Registry maps transform names to implementations.
type Registry map[string]Func

// ErrInvalidRule is wrapped by every RuleError.
var ErrInvalidRule = errors.New("transform: invalid rule")

// Rule selects the transforms applied to files whose path matches Test.
type Rule struct {
	// Test is a regular expression matched against the slash separated
	// absolute path of the file.
	Test string `json:"test" yaml:"test" mapstructure:"test"`

	// Use lists transform names. They run last to first.
	Use []string `json:"use,omitempty" yaml:"use,omitempty" mapstructure:"use"`

	// Loader is shorthand for a single transform.
	Loader string `json:"loader,omitempty" yaml:"loader,omitempty" mapstructure:"loader"`
}

// Names returns the transform chain of r.
func (r Rule) Names() []string {
	if r.Loader != "" {
		return append([]string{r.Loader}, r.Use...)
	}
	return r.Use
}

// RuleError reports a rule that cannot be compiled.
type RuleError struct {
	Index  int
	Test   string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("module.rules[%d] (test %q): %s", e.Index, e.Test, e.Reason)
}

// Unwrap returns ErrInvalidRule.
func (e *RuleError) Unwrap() error {
	return ErrInvalidRule
}

type step struct {
	name string
	fn   Func
}

type compiledRule struct {
	test  *regexp.Regexp
	chain []step
}

// Pipeline is a compiled, immutable rule set.
type Pipeline struct {
	rules    []compiledRule
	fallback map[string]step
}

// Compile checks every rule and resolves its transform names against reg.
// Nothing is looked up by name after Compile returns.
func Compile(rules []Rule, reg Registry) (*Pipeline, error) {
	p := &Pipeline{fallback: map[string]step{}}

	for i, r := range rules {
		if strings.TrimSpace(r.Test) == "" {
			return nil, &RuleError{Index: i, Test: r.Test, Reason: "test is empty"}
		}
		re, err := regexp.Compile(r.Test)
		if err != nil {
			return nil, &RuleError{Index: i, Test: r.Test, Reason: err.Error()}
		}
		names := r.Names()
		if len(names) == 0 {
			return nil, &RuleError{Index: i, Test: r.Test, Reason: "rule has neither use nor loader"}
		}

		cr := compiledRule{test: re}
		for _, name := range names {
			fn, ok := reg[name]
			if !ok {
				return nil, &RuleError{Index: i, Test: r.Test, Reason: fmt.Sprintf("unknown transform %q", name)}
			}
			cr.chain = append(cr.chain, step{name: name, fn: fn})
		}
		p.rules = append(p.rules, cr)
	}

	// JSON files need wrapping to be valid modules. Only used when no rule
	// matches the file.
	if fn, ok := reg["json"]; ok {
		p.fallback[".json"] = step{name: "json", fn: fn}
	}
	return p, nil
}

// Chain returns the transform names applied to path, in execution order.
func (p *Pipeline) Chain(path string) []string {
	steps := p.steps(path)
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	return names
}

// Apply runs every matching transform over source. The chains of all
// matching rules are concatenated in rule order and executed last to first.
func (p *Pipeline) Apply(path string, source []byte) ([]byte, error) {
	if p == nil {
		return source, nil
	}
	out := source
	for _, s := range p.steps(path) {
		var err error
		out, err = s.fn(path, out)
		if err != nil {
			return nil, fmt.Errorf("transform %s on %s: %w", s.name, path, err)
		}
	}
	return out, nil
}

func (p *Pipeline) steps(path string) []step {
	if p == nil {
		return nil
	}
	slashed := filepath.ToSlash(path)

	var chain []step
	for _, r := range p.rules {
		if r.test.MatchString(slashed) {
			chain = append(chain, r.chain...)
		}
	}
	if len(chain) == 0 {
		if s, ok := p.fallback[strings.ToLower(filepath.Ext(path))]; ok {
			return []step{s}
		}
		return nil
	}

	// Reverse into execution order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
