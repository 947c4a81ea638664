package sim

import (
	"strings"

	"github.com/procsim/procsim/sim/process"
)

// SensorEvent is the direction of an element crossing a component port.
type SensorEvent string

const (
	SensorEntry SensorEvent = "entrada"
	SensorExit  SensorEvent = "salida"
)

// Sensor type tags accepted in node parameters.
const (
	SensorCounter   = "contador"
	SensorFlowRate  = "medidor_flujo"
	SensorMaxQueue  = "maximo"
	SensorMinQueue  = "minimo"
	SensorUptime    = "porcentaje_tiempo_encendido"
	SensorOperating = "porcentaje_tiempo_funcionamiento"
)

// ValidSensorTypes lists every sensor type newSensor can build.
var ValidSensorTypes = map[string]bool{
	SensorCounter:   true,
	SensorFlowRate:  true,
	SensorMaxQueue:  true,
	SensorMinQueue:  true,
	SensorUptime:    true,
	SensorOperating: true,
}

// Sample is one tick reading. Occupancy is set by the max/min sensors,
// which report the running extreme as Value.
type Sample struct {
	Time      float64 `json:"t"`
	Value     float64 `json:"value"`
	Occupancy *int    `json:"occupancy,omitempty"`
}

// SensorReport is a sensor's full series plus its type-specific summary.
type SensorReport struct {
	Type      string   `json:"type"`
	Component string   `json:"component"`
	Total     *float64 `json:"total,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Series    []Sample `json:"series"`
}

// Sensor is a passive observer attached to one component. It never mutates
// the component it watches.
type Sensor interface {
	Type() string
	Interval() float64
	Notify(ev SensorEvent, port string, el *Element)
	Tick(time float64)
	// Latest returns the most recent tick sample.
	Latest() (Sample, bool)
	Report() SensorReport
}

func newSensor(cfg process.SensorConfig, owner Component) (Sensor, bool) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if !ValidSensorTypes[typ] {
		return nil, false
	}
	b := sensorBase{
		typ:      typ,
		interval: cfg.IntervalOrDefault(),
		entries:  toSet(cfg.Entries),
		exits:    toSet(cfg.Exits),
		owner:    owner,
	}
	switch typ {
	case SensorCounter:
		return &CounterSensor{sensorBase: b}, true
	case SensorFlowRate:
		return &FlowRateSensor{sensorBase: b}, true
	case SensorMaxQueue:
		return &ExtremeSensor{sensorBase: b, max: true}, true
	case SensorMinQueue:
		return &ExtremeSensor{sensorBase: b}, true
	case SensorUptime:
		return &UptimeSensor{sensorBase: b}, true
	default:
		return &OperatingSensor{sensorBase: b}, true
	}
}

func toSet(ports []string) map[string]bool {
	set := make(map[string]bool, len(ports))
	for _, p := range ports {
		set[p] = true
	}
	return set
}

type sensorBase struct {
	typ      string
	interval float64
	entries  map[string]bool
	exits    map[string]bool
	owner    Component
	samples  []Sample
}

func (s *sensorBase) Type() string      { return s.typ }
func (s *sensorBase) Interval() float64 { return s.interval }

func (s *sensorBase) Notify(ev SensorEvent, port string, el *Element) {}

// matches reports whether a crossing on port is one this sensor listens to.
func (s *sensorBase) matches(ev SensorEvent, port string) bool {
	switch ev {
	case SensorEntry:
		return s.entries[port]
	case SensorExit:
		return s.exits[port]
	}
	return false
}

func (s *sensorBase) Latest() (Sample, bool) {
	if len(s.samples) == 0 {
		return Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

func (s *sensorBase) append(time, value float64, occupancy *int) {
	s.samples = append(s.samples, Sample{Time: time, Value: value, Occupancy: occupancy})
}

func (s *sensorBase) report() SensorReport {
	series := make([]Sample, len(s.samples))
	copy(series, s.samples)
	return SensorReport{Type: s.typ, Component: s.owner.ID(), Series: series}
}

// CounterSensor counts matching crossings; each tick records the running total.
type CounterSensor struct {
	sensorBase
	count int
}

func (s *CounterSensor) Notify(ev SensorEvent, port string, el *Element) {
	if s.matches(ev, port) {
		s.count++
	}
}

func (s *CounterSensor) Tick(time float64) { s.append(time, float64(s.count), nil) }

func (s *CounterSensor) Report() SensorReport {
	r := s.report()
	total := float64(s.count)
	r.Total = &total
	return r
}

// FlowRateSensor reports matching crossings per unit time over the last interval.
type FlowRateSensor struct {
	sensorBase
	window int
}

func (s *FlowRateSensor) Notify(ev SensorEvent, port string, el *Element) {
	if s.matches(ev, port) {
		s.window++
	}
}

func (s *FlowRateSensor) Tick(time float64) {
	s.append(time, float64(s.window)/s.interval, nil)
	s.window = 0
}

func (s *FlowRateSensor) Report() SensorReport { return s.report() }

// ExtremeSensor tracks the running maximum (or minimum) occupancy of its
// component as sampled at each tick.
type ExtremeSensor struct {
	sensorBase
	max  bool
	best int
	seen bool
}

func (s *ExtremeSensor) Tick(time float64) {
	occ := occupancy(s.owner)
	if !s.seen || (s.max && occ > s.best) || (!s.max && occ < s.best) {
		s.best = occ
		s.seen = true
	}
	s.append(time, float64(s.best), &occ)
}

func (s *ExtremeSensor) Report() SensorReport {
	r := s.report()
	best := float64(s.best)
	if s.max {
		r.Max = &best
	} else {
		r.Min = &best
	}
	return r
}

// UptimeSensor reports the percentage of elapsed time the component spent
// outside failure episodes, judged at tick granularity.
type UptimeSensor struct {
	sensorBase
	activeTime float64
	lastTick   float64
}

func (s *UptimeSensor) Tick(time float64) {
	if !s.owner.Failed() {
		s.activeTime += time - s.lastTick
	}
	s.lastTick = time
	s.append(time, percentOf(s.activeTime, time), nil)
}

func (s *UptimeSensor) Report() SensorReport { return s.report() }

// OperatingSensor is UptimeSensor with a component-specific notion of active.
type OperatingSensor struct {
	sensorBase
	activeTime float64
	lastTick   float64
}

func (s *OperatingSensor) Tick(time float64) {
	if operating(s.owner) {
		s.activeTime += time - s.lastTick
	}
	s.lastTick = time
	s.append(time, percentOf(s.activeTime, time), nil)
}

func (s *OperatingSensor) Report() SensorReport {
	r := s.report()
	total := 0.0
	if s.lastTick > 0 {
		total = 100 * s.activeTime / s.lastTick
	}
	r.Total = &total
	return r
}

func occupancy(c Component) int {
	if counter, ok := c.(Counter); ok {
		return counter.Count("")
	}
	return 0
}

func operating(c Component) bool {
	if a, ok := c.(Activity); ok {
		return a.IsActive()
	}
	if counter, ok := c.(Counter); ok {
		return counter.Count("") > 0
	}
	return !c.Failed()
}

func percentOf(active, elapsed float64) float64 {
	if elapsed <= 0 {
		elapsed = 1
	}
	return 100 * active / elapsed
}
