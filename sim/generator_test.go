package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === Autonomous Generation Tests ===

func TestGenerator_Limit_StopsScheduling(t *testing.T) {
	// GIVEN a generator limited to 3 elements
	sim := newTestSim(t, `
nodes:
  - id: gen
    type: generator
    params:
      distribucion: {tipo: fija, valor: 2}
      elemento: box
      limite: 3
  - {id: out, type: output}
edges:
  - {id: e1, from: gen, to: out}
`, UntilTime(100))

	// WHEN the run drains
	res, err := sim.Run()
	require.NoError(t, err)

	// THEN exactly 3 were created and delivered, the last at t=6
	g := component[*Generator](t, sim, "gen")
	assert.Equal(t, 3, g.Generated())
	assert.Equal(t, 3, res.Stats.Delivered)
	assert.Equal(t, 6.0, res.Clock)
	assert.Empty(t, sim.Pending())
	assert.False(t, g.IsActive())
	assert.Equal(t, 0, g.Count(""))
}

func TestGenerator_Attributes_DrawnFromDistributions(t *testing.T) {
	sim := newTestSim(t, `
nodes:
  - id: gen
    type: generator
    params:
      distribucion: {tipo: fija, valor: 1}
      elemento: box
      parametros:
        limpio: {"true": 1}
        color: {red: 0, blue: 1}
        peso: {"2.5": 1}
`, UntilTime(3))

	res, err := sim.Run()
	require.NoError(t, err)

	require.Equal(t, 3, res.Record.Len())
	for _, id := range res.Record.ElementIDs() {
		et, ok := res.Record.Element(id)
		require.True(t, ok)
		assert.Equal(t, true, et.Attributes["limpio"])
		assert.Equal(t, "blue", et.Attributes["color"])
		assert.Equal(t, 2.5, et.Attributes["peso"])
	}
}

func TestGenerator_UnknownElementType_Skipped(t *testing.T) {
	// GIVEN a catalog that does not define the generator's element type
	sim := newTestSim(t, `
nodes:
  - id: gen
    type: generator
    params:
      distribucion: {tipo: fija, valor: 1}
      elemento: box
elements:
  - {type: bottle}
`, UntilTime(5))

	// WHEN the run completes
	res, err := sim.Run()
	require.NoError(t, err)

	// THEN nothing was created but the generator kept its schedule
	assert.Equal(t, 0, res.Record.Len())
	assert.Equal(t, 5, res.Stats.EventsExecuted)
	require.Len(t, sim.Pending(), 1)
	assert.Equal(t, EventGenerate, sim.Pending()[0].Kind())
}

func TestGenerator_NoDistribution_DoesNotSchedule(t *testing.T) {
	sim := newTestSim(t, `
nodes:
  - id: gen
    type: generator
    params: {elemento: box}
`, UntilTime(5))
	sim.Start()
	assert.Empty(t, sim.Pending())
}

// === On-Demand Tests ===

func onDemandYAML(limit string) string {
	return `
nodes:
  - id: gen
    type: generator
    params:
      onDemand: true
      elemento: box
      limite: ` + limit + `
`
}

func TestGenerator_OnDemand_RespectsLimit(t *testing.T) {
	// GIVEN an on-demand generator with 2 elements of supply
	sim := newTestSim(t, onDemandYAML("2"), UntilTime(10))
	sim.Start()
	g := component[*Generator](t, sim, "gen")

	// THEN nothing is scheduled and supply is reported per type
	assert.Empty(t, sim.Pending())
	assert.Equal(t, 2, g.Count(""))
	assert.Equal(t, 2, g.Count("box"))
	assert.Equal(t, 0, g.Count("bottle"))

	// WHEN more than the remaining supply is requested
	assert.Nil(t, g.Request(1, 3, ""))

	// THEN an exact request is served and exhausts the supply
	got := g.Request(1, 2, "")
	require.Len(t, got, 2)
	assert.Equal(t, []string{"box-1-gen", "box-2-gen"}, ids(got))
	assert.Equal(t, 1.0, got[0].CreatedAt)
	assert.Equal(t, 0, g.Count(""))
	assert.Nil(t, g.Request(2, 1, ""))
	assert.Equal(t, 2, sim.Generated())
}

func TestGenerator_OnDemand_Unlimited(t *testing.T) {
	sim := newTestSim(t, onDemandYAML("inf"), UntilTime(10))
	g := component[*Generator](t, sim, "gen")

	assert.Equal(t, Unlimited, g.Count(""))
	assert.Len(t, g.Request(0, 50, ""), 50)
	assert.Equal(t, Unlimited, g.Count(""))
}

func TestGenerator_Failed_ServesNothing(t *testing.T) {
	sim := newTestSim(t, `
nodes:
  - id: gen
    type: generator
    params:
      onDemand: true
      elemento: box
      failures: [`+neverFails+`]
`, UntilTime(10))
	g := component[*Generator](t, sim, "gen")
	g.failing[0] = true

	assert.Equal(t, 0, g.Count(""))
	assert.Nil(t, g.Request(0, 1, ""))
	assert.True(t, g.Failed())
	assert.Equal(t, 1, g.ActiveFailures())
}
