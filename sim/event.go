package sim

import "fmt"

// EventKind tags the operation an event performs when executed.
type EventKind string

const (
	EventGenerate         EventKind = "generate"
	EventSensorTick       EventKind = "sensor-tick"
	EventFailureStart     EventKind = "failure-start"
	EventFailureEnd       EventKind = "failure-end"
	EventFinishProcessing EventKind = "finish-processing"
	EventTryStart         EventKind = "try-start"
	EventTransportArrival EventKind = "transport-arrival"
	EventTransportRepoll  EventKind = "transport-repoll"
	EventDepartureTimeout EventKind = "departure-timeout"
)

// Event is a small payload naming a target component and an operation.
// Executing it dispatches to the component; events hold no closures, so the
// pending queue can be inspected without side effects.
type Event interface {
	Timestamp() float64
	Kind() EventKind
	Target() string
	Execute(*Simulator)
}

// describeEvent renders an event for logs and errors.
func describeEvent(ev Event) string {
	if ev == nil {
		return "init"
	}
	return fmt.Sprintf("%s on %s at t=%g", ev.Kind(), ev.Target(), ev.Timestamp())
}

// GenerateEvent triggers one autonomous generation step.
type GenerateEvent struct {
	time      float64
	component string
}

func (e *GenerateEvent) Timestamp() float64 { return e.time }
func (e *GenerateEvent) Kind() EventKind    { return EventGenerate }
func (e *GenerateEvent) Target() string     { return e.component }

// Execute creates and pushes one element, then reschedules the generator.
func (e *GenerateEvent) Execute(sim *Simulator) {
	if g, ok := sim.components[e.component].(*Generator); ok {
		g.generate(e.time)
	}
}

// SensorTickEvent samples one sensor and schedules its next tick.
type SensorTickEvent struct {
	time      float64
	component string
	sensor    int
}

func (e *SensorTickEvent) Timestamp() float64 { return e.time }
func (e *SensorTickEvent) Kind() EventKind    { return EventSensorTick }
func (e *SensorTickEvent) Target() string     { return e.component }

// Execute appends a sample and re-arms the sensor; ticks never stop on their own.
func (e *SensorTickEvent) Execute(sim *Simulator) {
	c, ok := sim.components[e.component]
	if !ok {
		return
	}
	s := c.base().sensors[e.sensor]
	s.Tick(e.time)
	if sample, ok := s.Latest(); ok {
		sim.record.Stepf(e.time, "sensor %s on %s read %g", s.Type(), e.component, sample.Value)
	}
	sim.Schedule(&SensorTickEvent{time: e.time + s.Interval(), component: e.component, sensor: e.sensor})
}

// FailureStartEvent begins an episode of the index-th failure spec.
type FailureStartEvent struct {
	time      float64
	component string
	spec      int
}

func (e *FailureStartEvent) Timestamp() float64 { return e.time }
func (e *FailureStartEvent) Kind() EventKind    { return EventFailureStart }
func (e *FailureStartEvent) Target() string     { return e.component }

func (e *FailureStartEvent) Execute(sim *Simulator) {
	if c, ok := sim.components[e.component]; ok {
		c.base().startFailure(e.time, e.spec)
	}
}

// FailureEndEvent ends an episode and arms the next activation of the same spec.
type FailureEndEvent struct {
	time      float64
	component string
	spec      int
}

func (e *FailureEndEvent) Timestamp() float64 { return e.time }
func (e *FailureEndEvent) Kind() EventKind    { return EventFailureEnd }
func (e *FailureEndEvent) Target() string     { return e.component }

func (e *FailureEndEvent) Execute(sim *Simulator) {
	if c, ok := sim.components[e.component]; ok {
		c.base().endFailure(e.time, e.spec)
	}
}

// FinishProcessingEvent completes the job in flight on a transformer.
type FinishProcessingEvent struct {
	time      float64
	component string
}

func (e *FinishProcessingEvent) Timestamp() float64 { return e.time }
func (e *FinishProcessingEvent) Kind() EventKind    { return EventFinishProcessing }
func (e *FinishProcessingEvent) Target() string     { return e.component }

func (e *FinishProcessingEvent) Execute(sim *Simulator) {
	if t, ok := sim.components[e.component].(*Transformer); ok {
		t.finishProcessing(e.time)
	}
}

// TryStartEvent asks a transformer to start its next job if inputs allow.
type TryStartEvent struct {
	time      float64
	component string
}

func (e *TryStartEvent) Timestamp() float64 { return e.time }
func (e *TryStartEvent) Kind() EventKind    { return EventTryStart }
func (e *TryStartEvent) Target() string     { return e.component }

func (e *TryStartEvent) Execute(sim *Simulator) {
	if t, ok := sim.components[e.component].(*Transformer); ok {
		t.tryStartProcessing(e.time)
	}
}

// TransportArrivalEvent lands a load at the far end of a transporter.
type TransportArrivalEvent struct {
	time      float64
	component string
	elements  []*Element
}

func (e *TransportArrivalEvent) Timestamp() float64 { return e.time }
func (e *TransportArrivalEvent) Kind() EventKind    { return EventTransportArrival }
func (e *TransportArrivalEvent) Target() string     { return e.component }

// Elements returns the load carried by this arrival.
func (e *TransportArrivalEvent) Elements() []*Element { return e.elements }

func (e *TransportArrivalEvent) Execute(sim *Simulator) {
	if t, ok := sim.components[e.component].(*Transporter); ok {
		t.arrive(e.time, e.elements)
	}
}

// TransportRepollEvent re-polls upstream once the acceptance gap has elapsed.
type TransportRepollEvent struct {
	time      float64
	component string
}

func (e *TransportRepollEvent) Timestamp() float64 { return e.time }
func (e *TransportRepollEvent) Kind() EventKind    { return EventTransportRepoll }
func (e *TransportRepollEvent) Target() string     { return e.component }

func (e *TransportRepollEvent) Execute(sim *Simulator) {
	if t, ok := sim.components[e.component].(*Transporter); ok {
		t.pullFromInputs(e.time, "")
	}
}

// DepartureTimeoutEvent forces a partially loaded mobile transporter to leave.
// batch identifies the load it was armed for; a stale timeout is a no-op.
type DepartureTimeoutEvent struct {
	time      float64
	component string
	batch     int
}

func (e *DepartureTimeoutEvent) Timestamp() float64 { return e.time }
func (e *DepartureTimeoutEvent) Kind() EventKind    { return EventDepartureTimeout }
func (e *DepartureTimeoutEvent) Target() string     { return e.component }

func (e *DepartureTimeoutEvent) Execute(sim *Simulator) {
	if t, ok := sim.components[e.component].(*Transporter); ok {
		t.departureTimeout(e.time, e.batch)
	}
}
