package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/sim/process"
)

func sensorYAML(kind, sensors string) string {
	return `
nodes:
  - id: c
    type: ` + kind + `
    params:
      sensors: ` + sensors + `
`
}

func values(series []Sample) []float64 {
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = s.Value
	}
	return out
}

func times(series []Sample) []float64 {
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = s.Time
	}
	return out
}

func onlySensor(t *testing.T, sim *Simulator) Sensor {
	t.Helper()
	c, ok := sim.Component("c")
	require.True(t, ok)
	require.Len(t, c.Sensors(), 1)
	return c.Sensors()[0]
}

func deliverAt(sim *Simulator, time float64, id string) {
	sim.Schedule(at(time, func(s *Simulator) {
		c, _ := s.Component("c")
		c.(Receiver).Receive(box(id, nil), time, process.DefaultInPort)
	}))
}

// === Counter Tests ===

func TestCounterSensor_TickCadence(t *testing.T) {
	// GIVEN a counter with interval 5 seeing entries at t=2 and t=7
	sim := newTestSim(t, sensorYAML("output", "[{type: contador, intervalo: 5, id_entradas: [in-0]}]"), UntilTime(20))
	deliverAt(sim, 2, "a")
	deliverAt(sim, 7, "b")

	// WHEN run to t=20
	res, err := sim.Run()
	require.NoError(t, err)

	// THEN ticks land at 5, 10, 15, 20 with cumulative totals
	report := onlySensor(t, sim).Report()
	assert.Equal(t, []float64{5, 10, 15, 20}, times(report.Series))
	assert.Equal(t, []float64{1, 2, 2, 2}, values(report.Series))
	require.NotNil(t, report.Total)
	assert.Equal(t, 2.0, *report.Total)
	assert.Equal(t, "c", report.Component)
	assert.Contains(t, sim.Record().StepsAt(10), "sensor contador on c read 2")

	node, ok := res.Node("c")
	require.True(t, ok)
	require.Len(t, node.Sensors, 1)
	assert.Equal(t, SensorCounter, node.Sensors[0].Type)
}

func TestCounterSensor_IgnoresUnwatchedPorts(t *testing.T) {
	sim := newTestSim(t, sensorYAML("output", "[{type: contador, intervalo: 1, id_entradas: [in-9]}]"), UntilTime(2))
	deliverAt(sim, 0.5, "a")

	_, err := sim.Run()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, values(onlySensor(t, sim).Report().Series))
}

func TestCounterSensor_CountsGeneratorExits(t *testing.T) {
	sim := newTestSim(t, `
nodes:
  - id: c
    type: generator
    params:
      distribucion: {tipo: fija, valor: 1}
      elemento: box
      sensors: [{type: contador, intervalo: 5, id_salidas: [out-0]}]
`, UntilTime(10))

	_, err := sim.Run()
	require.NoError(t, err)

	// Ticks armed at start run ahead of generations at the same instant.
	assert.Equal(t, []float64{4, 9}, values(onlySensor(t, sim).Report().Series))
}

// === Flow Rate Tests ===

func TestFlowRateSensor_RatePerInterval(t *testing.T) {
	sim := newTestSim(t, sensorYAML("output", "[{type: medidor_flujo, intervalo: 2, id_entradas: [in-0]}]"), UntilTime(6))
	deliverAt(sim, 0.5, "a")
	deliverAt(sim, 1, "b")
	deliverAt(sim, 3, "c")

	_, err := sim.Run()
	require.NoError(t, err)

	report := onlySensor(t, sim).Report()
	assert.Equal(t, []float64{1, 0.5, 0}, values(report.Series))
	assert.Nil(t, report.Total)
}

// === Extreme Occupancy Tests ===

func TestExtremeSensors_TrackRunningExtremes(t *testing.T) {
	tests := []struct {
		sensor string
		want   []float64
	}{
		{SensorMaxQueue, []float64{2, 2, 4}},
		{SensorMinQueue, []float64{2, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.sensor, func(t *testing.T) {
			// GIVEN a queue whose occupancy goes 2 -> 1 -> 4 across ticks
			sim := newTestSim(t, sensorYAML("queue", "[{type: "+tt.sensor+", intervalo: 1}]"), UntilTime(3))
			sim.Start()
			q := component[*Queue](t, sim, "c")
			fill(t, q, box("a", nil), box("b", nil))
			sim.Schedule(at(1.5, func(*Simulator) { q.Request(1.5, 1, "") }))
			sim.Schedule(at(2.5, func(*Simulator) {
				fill(t, q, box("c", nil), box("d", nil), box("e", nil))
			}))

			_, err := sim.Run()
			require.NoError(t, err)

			report := onlySensor(t, sim).Report()
			assert.Equal(t, tt.want, values(report.Series))
			occupancies := make([]int, 0, len(report.Series))
			for _, s := range report.Series {
				require.NotNil(t, s.Occupancy)
				occupancies = append(occupancies, *s.Occupancy)
			}
			assert.Equal(t, []int{2, 1, 4}, occupancies)
			if tt.sensor == SensorMaxQueue {
				require.NotNil(t, report.Max)
				assert.Equal(t, 4.0, *report.Max)
			} else {
				require.NotNil(t, report.Min)
				assert.Equal(t, 1.0, *report.Min)
			}
		})
	}
}

// === Uptime Tests ===

func TestUptimeSensor_ExcludesFailureEpisodes(t *testing.T) {
	// GIVEN a queue failed over [2, 4) sampled every 2 units
	sim := newTestSim(t, `
nodes:
  - id: c
    type: queue
    params:
      sensors: [{type: porcentaje_tiempo_encendido, intervalo: 2}]
      failures:
        - dist_activacion: {tipo: fija, valor: 2}
          dist_duracion: {tipo: fija, valor: 2}
`, UntilTime(6))

	_, err := sim.Run()
	require.NoError(t, err)

	got := values(onlySensor(t, sim).Report().Series)
	require.Len(t, got, 3)
	assert.Equal(t, 100.0, got[0])
	assert.Equal(t, 50.0, got[1])
	assert.InDelta(t, 66.67, got[2], 0.01)
}

func TestOperatingSensor_UsesOccupancy(t *testing.T) {
	// GIVEN a queue holding one element until t=1.5
	sim := newTestSim(t, sensorYAML("queue", "[{type: porcentaje_tiempo_funcionamiento, intervalo: 1}]"), UntilTime(2))
	sim.Start()
	q := component[*Queue](t, sim, "c")
	fill(t, q, box("a", nil))
	sim.Schedule(at(1.5, func(*Simulator) { q.Request(1.5, 1, "") }))

	_, err := sim.Run()
	require.NoError(t, err)

	report := onlySensor(t, sim).Report()
	assert.Equal(t, []float64{100, 50}, values(report.Series))
	require.NotNil(t, report.Total)
	assert.Equal(t, 50.0, *report.Total)
}

// === Configuration Tests ===

func TestSensors_UnknownTypeSkipped(t *testing.T) {
	sim := newTestSim(t, sensorYAML("queue", "[{type: termometro}, {type: CONTADOR}]"), UntilTime(1))
	c, ok := sim.Component("c")
	require.True(t, ok)
	require.Len(t, c.Sensors(), 1)
	assert.Equal(t, SensorCounter, c.Sensors()[0].Type())
	assert.Equal(t, 1.0, c.Sensors()[0].Interval())
}

func TestSensors_NestedParamsLocation(t *testing.T) {
	sim := newTestSim(t, `
nodes:
  - id: c
    type: queue
    params:
      params:
        sensors: [{type: maximo, intervalo: 3}]
`, UntilTime(1))
	sim.Start()
	pending := sim.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, EventSensorTick, pending[0].Kind())
	assert.Equal(t, 3.0, pending[0].Timestamp())
}
