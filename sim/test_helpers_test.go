package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim/process"
)

// funcEvent runs an arbitrary callback at a fixed time. Tests use it to
// inject deliveries and probes between kernel events.
type funcEvent struct {
	time float64
	fn   func(*Simulator)
}

func (e *funcEvent) Timestamp() float64     { return e.time }
func (e *funcEvent) Kind() EventKind        { return "probe" }
func (e *funcEvent) Target() string         { return "test" }
func (e *funcEvent) Execute(sim *Simulator) { e.fn(sim) }

func at(time float64, fn func(*Simulator)) Event {
	return &funcEvent{time: time, fn: fn}
}

func mustDefinition(t *testing.T, doc string) *process.Definition {
	t.Helper()
	def, err := process.Parse([]byte(doc))
	require.NoError(t, err)
	return def
}

func newTestSim(t *testing.T, doc string, term Termination) *Simulator {
	t.Helper()
	sim, err := NewSimulator(Config{Definition: mustDefinition(t, doc), Termination: term, Seed: 42})
	require.NoError(t, err)
	return sim
}

func component[T Component](t *testing.T, sim *Simulator, id string) T {
	t.Helper()
	c, ok := sim.Component(id)
	require.True(t, ok, "component %s not found", id)
	typed, ok := c.(T)
	require.True(t, ok, "component %s has type %T", id, c)
	return typed
}

func box(id string, attrs map[string]any) *Element {
	return &Element{ID: id, Type: "box", Attributes: attrs}
}

func ids(els []*Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.ID
	}
	return out
}
