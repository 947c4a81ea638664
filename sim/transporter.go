package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/dist"
	"github.com/procsim/procsim/sim/process"
)

// Transporter models transit delay. In continuous mode it carries single
// items with a minimum gap between acceptances; in mobile mode it batches up
// to its capacity and departs when full or when the wait timeout fires.
type Transporter struct {
	Base
	mobile   bool
	travel   dist.Spec
	minGap   float64
	capacity int
	maxWait  float64

	lastAccepted float64
	buffer       []*Element
	busy         bool
	batch        int
	held         [][]*Element // arrivals that landed while failed
}

func newTransporter(sim *Simulator, node process.Node) (*Transporter, error) {
	b, err := newBase(sim, node)
	if err != nil {
		return nil, err
	}
	var p TransporterParams
	if err := node.Params.Decode(&p); err != nil {
		return nil, fmt.Errorf("transporter %s: %w", node.ID, err)
	}
	t := &Transporter{
		Base:         b,
		travel:       dist.Fixed(1),
		minGap:       max(p.MinGap, 0),
		capacity:     p.Capacity,
		maxWait:      p.MaxWait,
		lastAccepted: math.Inf(-1),
	}
	switch mode := strings.ToLower(strings.TrimSpace(p.Mode)); mode {
	case "", TransportContinuous:
	case TransportMobile:
		t.mobile = true
	default:
		logrus.Warnf("transporter %s: unknown tipo %q, using %s", node.ID, p.Mode, TransportContinuous)
	}
	if p.Distribution != nil && !p.Distribution.IsZero() {
		t.travel = *p.Distribution
	}
	if t.capacity <= 0 {
		t.capacity = 1
	}
	if t.maxWait <= 0 {
		t.maxWait = math.Inf(1)
	}
	t.onRecover = t.recover
	return t, nil
}

func (t *Transporter) init() {
	t.initFailures()
	mode := TransportContinuous
	if t.mobile {
		mode = TransportMobile
	}
	logrus.Debugf("transporter %s initialized (%s)", t.id, mode)
}

// Mobile reports whether the transporter batches loads.
func (t *Transporter) Mobile() bool { return t.mobile }

// InTransit reports whether a mobile load is on its way.
func (t *Transporter) InTransit() bool { return t.busy }

// Count returns the number of buffered (not yet departed) elements.
func (t *Transporter) Count(elementType string) int {
	n := 0
	for _, el := range t.buffer {
		if elementType == "" || el.Type == elementType {
			n++
		}
	}
	return n
}

// IsActive reports whether the transporter is carrying or loading.
func (t *Transporter) IsActive() bool {
	return !t.Failed() && (t.busy || len(t.buffer) > 0)
}

// NotifyAvailable pulls from the upstream peers wired to port.
func (t *Transporter) NotifyAvailable(time float64, port string) {
	if t.Failed() {
		logrus.Debugf("[t=%.3f] transporter %s is failed, ignoring availability", time, t.id)
		return
	}
	if t.busy {
		return
	}
	t.pullFromInputs(time, port)
}

// Receive accepts a directly delivered element. A continuous transporter
// rejects it when inside the minimum gap; a mobile one when in transit or
// full. Rejected elements are lost, not queued.
func (t *Transporter) Receive(el *Element, time float64, port string) bool {
	if el == nil || el.ID == "" {
		logrus.Warnf("[t=%.3f] transporter %s received an element without identity", time, t.id)
		return false
	}
	if t.Failed() {
		t.lose(LossFailed, "transporter %s is failed, dropped %s", t.id, el.ID)
		return false
	}
	if !t.mobile {
		if !t.gapElapsed(time) {
			t.lose(LossTooEarly, "transporter %s rejected %s, too early", t.id, el.ID)
			return false
		}
		t.accept(el, time, port)
		return true
	}
	if t.busy || len(t.buffer) >= t.capacity {
		t.lose(LossBusy, "transporter %s cannot load %s", t.id, el.ID)
		return false
	}
	t.load(el, time, port)
	return true
}

// gapTolerance absorbs float rounding between a re-poll scheduled at
// last+minGap and the gap check it performs.
const gapTolerance = 1e-9

func (t *Transporter) gapElapsed(time float64) bool {
	return time-t.lastAccepted+gapTolerance >= t.minGap
}

// pullFromInputs requests work from upstream peers on port (all ports when
// empty).
func (t *Transporter) pullFromInputs(time float64, port string) {
	if t.Failed() || t.busy {
		return
	}
	links := t.sim.graph.In(t.id)
	if port != "" {
		links = t.sim.graph.InOnPort(t.id, port)
	}
	for _, l := range links {
		if l.Source == nil {
			continue
		}
		inPort := l.Edge.TargetPort()
		if !t.mobile {
			if !t.gapElapsed(time) {
				return
			}
			if l.Source.Count("") > 0 {
				for _, el := range l.Source.Request(time, 1, l.Edge.SourcePort()) {
					t.accept(el, time, inPort)
				}
			}
			continue
		}
		space := t.capacity - len(t.buffer)
		if space <= 0 || t.busy {
			return
		}
		if n := min(l.Source.Count(""), space); n > 0 {
			for _, el := range l.Source.Request(time, n, l.Edge.SourcePort()) {
				t.load(el, time, inPort)
			}
		}
	}
}

// accept starts one continuous transit.
func (t *Transporter) accept(el *Element, time float64, port string) {
	t.lastAccepted = time
	t.recordVisit(el, time)
	t.notify(SensorEntry, port, el)
	arrival := time + t.sampler.Sample(t.travel)
	t.stepf("transporter %s picked up %s, arrives at t=%g", t.id, el.ID, arrival)
	t.sim.Schedule(&TransportArrivalEvent{time: arrival, component: t.id, elements: []*Element{el}})
	t.sim.Schedule(&TransportRepollEvent{time: time + max(t.minGap, dist.Epsilon), component: t.id})
}

// load adds el to the mobile buffer, departing when full and arming the
// wait timeout on the first item of a batch.
func (t *Transporter) load(el *Element, time float64, port string) {
	t.buffer = append(t.buffer, el)
	t.recordVisit(el, time)
	t.notify(SensorEntry, port, el)
	t.stepf("transporter %s loaded %s (%d/%d)", t.id, el.ID, len(t.buffer), t.capacity)
	switch {
	case len(t.buffer) >= t.capacity:
		t.depart(time)
	case len(t.buffer) == 1 && !math.IsInf(t.maxWait, 1):
		t.sim.Schedule(&DepartureTimeoutEvent{time: time + t.maxWait, component: t.id, batch: t.batch})
	}
}

func (t *Transporter) depart(time float64) {
	if t.Failed() {
		logrus.Debugf("[t=%.3f] transporter %s is failed, cannot depart", time, t.id)
		return
	}
	if len(t.buffer) == 0 {
		return
	}
	load := t.buffer
	t.buffer = nil
	t.busy = true
	t.batch++
	arrival := time + t.sampler.Sample(t.travel)
	t.stepf("transporter %s departed with %d element(s), arrives at t=%g", t.id, len(load), arrival)
	t.sim.Schedule(&TransportArrivalEvent{time: arrival, component: t.id, elements: load})
}

func (t *Transporter) departureTimeout(time float64, batch int) {
	if batch != t.batch || t.busy || len(t.buffer) == 0 {
		return
	}
	t.depart(time)
}

func (t *Transporter) arrive(time float64, elements []*Element) {
	if t.mobile {
		t.busy = false
	}
	t.deliver(time, elements)
}

// deliver forwards a load downstream and then re-polls upstream. While
// failed the load is held until recovery.
func (t *Transporter) deliver(time float64, elements []*Element) {
	if t.Failed() {
		logrus.Debugf("[t=%.3f] transporter %s is failed, holding %d element(s)", time, t.id, len(elements))
		t.held = append(t.held, elements)
		return
	}
	out := t.sim.graph.Out(t.id)
	for _, el := range elements {
		t.pushDownstream(el, time, out)
		for _, l := range out {
			t.notify(SensorExit, l.Edge.SourcePort(), el)
		}
		t.stepf("transporter %s delivered %s", t.id, el.ID)
	}
	t.pullFromInputs(time, "")
}

func (t *Transporter) recover(time float64) {
	held := t.held
	t.held = nil
	for _, load := range held {
		t.deliver(time, load)
	}
	if t.mobile && len(t.buffer) > 0 {
		if len(t.buffer) >= t.capacity {
			t.depart(time)
			return
		}
		if !math.IsInf(t.maxWait, 1) {
			t.sim.Schedule(&DepartureTimeoutEvent{time: time + t.maxWait, component: t.id, batch: t.batch})
		}
	}
	t.pullFromInputs(time, "")
}
