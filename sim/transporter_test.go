package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim/process"
)

func transportYAML(params string) string {
	return `
nodes:
  - {id: q, type: queue}
  - id: tr
    type: transporter
    params: ` + params + `
  - {id: out, type: output}
edges:
  - {id: e1, from: q, to: tr}
  - {id: e2, from: tr, to: out}
`
}

func newTransportSim(t *testing.T, params string) (*Simulator, *Queue, *Transporter) {
	t.Helper()
	sim := newTestSim(t, transportYAML(params), UntilTime(100))
	sim.Start()
	return sim, component[*Queue](t, sim, "q"), component[*Transporter](t, sim, "tr")
}

func deliveredAt(t *testing.T, sim *Simulator, id string) float64 {
	t.Helper()
	visit, ok := sim.Record().Visit(id, "out", string(process.KindOutput))
	require.True(t, ok, "%s never reached the output", id)
	return visit
}

// === Continuous Mode Tests ===

func TestTransporter_Continuous_RejectsInsideGap(t *testing.T) {
	// GIVEN a continuous transporter with a minimum gap of 5
	_, _, tr := newTransportSim(t, "{tipo: continuo, t_min_entrada: 5, distribucion: {tipo: fija, valor: 1}}")
	require.False(t, tr.Mobile())

	// WHEN elements are delivered directly at t=1, t=3.5 and t=6
	// THEN only those outside the gap are accepted
	assert.True(t, tr.Receive(box("a", nil), 1, process.DefaultInPort))
	assert.False(t, tr.Receive(box("b", nil), 3.5, process.DefaultInPort))
	assert.True(t, tr.Receive(box("c", nil), 6, process.DefaultInPort))
}

func TestTransporter_Continuous_PullsOnePerGap(t *testing.T) {
	// GIVEN three elements waiting upstream and a gap of 2
	sim, q, _ := newTransportSim(t, "{tipo: continuo, t_min_entrada: 2, distribucion: {tipo: fija, valor: 1}}")
	fill(t, q, box("a", nil), box("b", nil), box("c", nil))

	// WHEN the run drains
	_, err := sim.Run()
	require.NoError(t, err)

	// THEN pickups happen at 0, 2 and 4, each arriving one unit later
	assert.Equal(t, 1.0, deliveredAt(t, sim, "a"))
	assert.Equal(t, 3.0, deliveredAt(t, sim, "b"))
	assert.Equal(t, 5.0, deliveredAt(t, sim, "c"))
	assert.Equal(t, 0, q.Count(""))
}

// === Mobile Mode Tests ===

func TestTransporter_Mobile_DepartsWhenFull(t *testing.T) {
	// GIVEN a mobile transporter of capacity 2
	sim, q, tr := newTransportSim(t, "{tipo: movil, capacidad: 2, distribucion: {tipo: fija, valor: 3}}")
	require.True(t, tr.Mobile())

	// WHEN two elements become available at t=0
	fill(t, q, box("a", nil), box("b", nil))

	// THEN it departs immediately and the batch lands together at t=3
	assert.True(t, tr.InTransit())
	assert.True(t, tr.IsActive())
	assert.Equal(t, 0, tr.Count(""))
	_, err := sim.Run()
	require.NoError(t, err)
	assert.Equal(t, 3.0, deliveredAt(t, sim, "a"))
	assert.Equal(t, 3.0, deliveredAt(t, sim, "b"))
	assert.False(t, tr.InTransit())
}

func TestTransporter_Mobile_DepartsOnTimeout(t *testing.T) {
	// GIVEN a capacity that will never fill and a wait limit of 4
	sim, q, tr := newTransportSim(t, "{tipo: movil, capacidad: 3, t_espera_max: 4, distribucion: {tipo: fija, valor: 3}}")

	// WHEN a single element is loaded at t=0
	fill(t, q, box("a", nil))
	assert.Equal(t, 1, tr.Count(""))

	// THEN it leaves at t=4 and arrives at t=7
	_, err := sim.Run()
	require.NoError(t, err)
	assert.Equal(t, 7.0, deliveredAt(t, sim, "a"))
}

func TestTransporter_Mobile_StaleTimeoutIgnored(t *testing.T) {
	// GIVEN a batch that departed full before its wait timeout fired
	sim, q, tr := newTransportSim(t, "{tipo: movil, capacidad: 2, t_espera_max: 4, distribucion: {tipo: fija, valor: 1}}")
	fill(t, q, box("a", nil))
	sim.Schedule(at(1, func(s *Simulator) { q.Receive(box("b", nil), 1, process.DefaultInPort) }))
	sim.Schedule(at(3, func(s *Simulator) { q.Receive(box("c", nil), 3, process.DefaultInPort) }))
	var heldAt5 int
	sim.Schedule(at(5, func(*Simulator) { heldAt5 = tr.Count("") }))

	// WHEN the run drains
	_, err := sim.Run()
	require.NoError(t, err)

	// THEN the first batch's timeout at t=4 did not dispatch c, which waited
	// for its own timeout at t=7
	assert.Equal(t, 2.0, deliveredAt(t, sim, "a"))
	assert.Equal(t, 2.0, deliveredAt(t, sim, "b"))
	assert.Equal(t, 1, heldAt5)
	assert.Equal(t, 8.0, deliveredAt(t, sim, "c"))
}

func TestTransporter_Mobile_RejectsWhileInTransit(t *testing.T) {
	_, q, tr := newTransportSim(t, "{tipo: movil, capacidad: 1, distribucion: {tipo: fija, valor: 3}}")
	fill(t, q, box("a", nil))
	require.True(t, tr.InTransit())

	assert.False(t, tr.Receive(box("b", nil), 1, process.DefaultInPort))
	assert.Equal(t, 0, tr.Count(""))
}

// === Failure Tests ===

func TestTransporter_ArrivalWhileFailed_HeldUntilRecovery(t *testing.T) {
	// GIVEN a transporter failed over [0.5, 2.5) carrying an element due at t=1
	sim, q, _ := newTransportSim(t, `
      tipo: continuo
      distribucion: {tipo: fija, valor: 1}
      failures:
        - dist_activacion: {tipo: fija, valor: 0.5}
          dist_duracion: {tipo: fija, valor: 2}`)
	fill(t, q, box("a", nil))

	// WHEN the run proceeds past recovery
	sim.termination = UntilTime(3)
	_, err := sim.Run()
	require.NoError(t, err)

	// THEN the load is handed over at the recovery instant
	assert.Equal(t, 2.5, deliveredAt(t, sim, "a"))
}

func TestTransporter_Defaults(t *testing.T) {
	_, _, tr := newTransportSim(t, "{}")
	assert.False(t, tr.Mobile())
	assert.Equal(t, 1, tr.capacity)
	assert.Equal(t, 0.0, tr.minGap)
	assert.Equal(t, 1.0, tr.travel.Params["valor"])
}
