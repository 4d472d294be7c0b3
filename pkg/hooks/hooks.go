// Package hooks is a synchronous lifecycle notification bus. The compiler
// calls each phase once per run; listeners observe the phase but cannot alter
// or cancel it.
package hooks

import (
	"github.com/coldog/jspack/pkg/output"
)

// Phase names a point in the compiler lifecycle.
type Phase string

const (
	// BeforeRun fires before any module is built.
	BeforeRun Phase = "before-run"

	// BeforeEmit fires after every asset is rendered, before any is written.
	BeforeEmit Phase = "before-emit"

	// AfterEmit fires after every asset is written.
	AfterEmit Phase = "after-emit"
)

// Phases lists the phases in the order the compiler calls them.
var Phases = []Phase{BeforeRun, BeforeEmit, AfterEmit}

// Listener observes a phase.
type Listener func()

type listener struct {
	name string
	fn   Listener
}

// Bus holds listeners per phase in registration order. The zero value is
// ready to use.
type Bus struct {
	listeners map[Phase][]listener
}

// Plugin registers listeners on a Bus.
type Plugin interface {
	Name() string
	Apply(b *Bus)
}

// On registers fn for phase under name. name is only used for logging.
func (b *Bus) On(phase Phase, name string, fn Listener) {
	if fn == nil {
		return
	}
	if b.listeners == nil {
		b.listeners = map[Phase][]listener{}
	}
	b.listeners[phase] = append(b.listeners[phase], listener{name: name, fn: fn})
}

// Use applies plugins in order.
func (b *Bus) Use(plugins ...Plugin) {
	for _, p := range plugins {
		output.Debug("applying plugin", "plugin", p.Name())
		p.Apply(b)
	}
}

// Call runs the listeners of phase in registration order.
func (b *Bus) Call(phase Phase) {
	if b == nil {
		return
	}
	for _, l := range b.listeners[phase] {
		output.Debug("hook", "phase", phase, "listener", l.name)
		l.fn()
	}
}

// Len returns the number of listeners registered for phase.
func (b *Bus) Len(phase Phase) int {
	if b == nil {
		return 0
	}
	return len(b.listeners[phase])
}

// LogPlugin logs every phase at debug level.
type LogPlugin struct{}

// Name implements Plugin.
func (LogPlugin) Name() string { return "log" }

// Apply implements Plugin.
func (LogPlugin) Apply(b *Bus) {
	for _, phase := range Phases {
		phase := phase
		b.On(phase, "log", func() {
			output.Debug("compiler phase", "phase", phase)
		})
	}
}
