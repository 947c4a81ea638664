package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/dist"
	"github.com/procsim/procsim/sim/process"
)

// Component is the shared surface of every node variant.
type Component interface {
	ID() string
	Kind() process.Kind
	Label() string
	// Failed reports whether any failure episode is active.
	Failed() bool
	Sensors() []Sensor
	init()
	base() *Base
}

// Base carries the state and behavior common to all variants: identity,
// sensors and the recurring failure model.
type Base struct {
	id        string
	processID string
	label     string
	kind      process.Kind
	sim       *Simulator
	sampler   *dist.Sampler
	sensors   []Sensor

	failures []process.FailureConfig
	failing  []bool

	// onRecover runs when the last active failure episode ends.
	onRecover func(time float64)
}

func newBase(sim *Simulator, node process.Node) (Base, error) {
	failures, err := node.Params.Failures()
	if err != nil {
		return Base{}, fmt.Errorf("node %s failures: %w", node.ID, err)
	}
	return Base{
		id:        node.ID,
		processID: node.ProcessID,
		label:     node.Label,
		kind:      node.Kind(),
		sim:       sim,
		sampler:   dist.NewSampler(sim.rng.For(node.ID)),
		failures:  failures,
		failing:   make([]bool, len(failures)),
	}, nil
}

func (b *Base) ID() string         { return b.id }
func (b *Base) Kind() process.Kind { return b.kind }
func (b *Base) Label() string      { return b.label }
func (b *Base) Sensors() []Sensor  { return b.sensors }
func (b *Base) base() *Base        { return b }

func (b *Base) Failed() bool {
	for _, f := range b.failing {
		if f {
			return true
		}
	}
	return false
}

// ActiveFailures returns how many failure specs are currently in an episode.
func (b *Base) ActiveFailures() int {
	n := 0
	for _, f := range b.failing {
		if f {
			n++
		}
	}
	return n
}

func (b *Base) attachSensors(owner Component, cfgs []process.SensorConfig) {
	for _, cfg := range cfgs {
		s, ok := newSensor(cfg, owner)
		if !ok {
			logrus.Warnf("component %s: unknown sensor type %q, skipped", b.id, cfg.Type)
			continue
		}
		b.sensors = append(b.sensors, s)
	}
}

// startSensors arms the first tick of every sensor at clock+interval.
func (b *Base) startSensors() {
	for i, s := range b.sensors {
		b.sim.Schedule(&SensorTickEvent{time: b.sim.Clock + s.Interval(), component: b.id, sensor: i})
	}
}

// initFailures arms the first activation of every failure spec.
func (b *Base) initFailures() {
	for i := range b.failures {
		b.scheduleFailure(i)
	}
}

func (b *Base) scheduleFailure(spec int) {
	delay := b.sampler.Sample(b.failures[spec].Activation)
	b.sim.Schedule(&FailureStartEvent{time: b.sim.Clock + delay, component: b.id, spec: spec})
}

func (b *Base) startFailure(time float64, spec int) {
	if b.failing[spec] {
		return
	}
	b.failing[spec] = true
	d := b.sampler.Sample(b.failures[spec].Duration)
	logrus.Infof("[t=%.3f] %s %s failed for %.2f", time, b.kind, b.id, d)
	b.stepf("%s %s failed for %.2f", b.kind, b.id, d)
	b.sim.metrics.failureStarted(b.id)
	b.sim.Schedule(&FailureEndEvent{time: time + d, component: b.id, spec: spec})
}

func (b *Base) endFailure(time float64, spec int) {
	if !b.failing[spec] {
		return
	}
	b.failing[spec] = false
	logrus.Infof("[t=%.3f] %s %s recovered", time, b.kind, b.id)
	b.stepf("%s %s recovered", b.kind, b.id)
	b.scheduleFailure(spec)
	if !b.Failed() && b.onRecover != nil {
		b.onRecover(time)
	}
}

func (b *Base) notify(ev SensorEvent, port string, el *Element) {
	for _, s := range b.sensors {
		s.Notify(ev, port, el)
	}
}

func (b *Base) stepf(format string, args ...any) {
	b.sim.record.Stepf(b.sim.Clock, format, args...)
}

func (b *Base) recordCreation(el *Element, time float64) {
	b.sim.record.RecordCreation(el.ID, el.Attributes, b.id, string(b.kind), time)
}

func (b *Base) recordVisit(el *Element, time float64) {
	b.sim.record.RecordVisit(el.ID, b.id, string(b.kind), time)
}

// lose logs a refused element as a step-log entry and counts it.
func (b *Base) lose(reason, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logrus.Debugf("[t=%.3f] %s", b.sim.Clock, msg)
	b.stepf("%s", msg)
	b.sim.metrics.elementLost(reason)
}

// notifyDownstream signals every listener wired to this component's outputs.
func (b *Base) notifyDownstream(time float64) {
	for _, l := range b.sim.graph.Out(b.id) {
		if l.Listener != nil {
			l.Listener.NotifyAvailable(time, l.Edge.TargetPort())
		}
	}
}

// pushDownstream hands el to every receiver among links and returns how
// many accepted it.
func (b *Base) pushDownstream(el *Element, time float64, links []Link) int {
	accepted := 0
	for _, l := range links {
		if l.Receiver == nil {
			continue
		}
		if l.Receiver.Receive(el, time, l.Edge.TargetPort()) {
			accepted++
		}
	}
	return accepted
}
