package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/dist"
	"github.com/procsim/procsim/sim/process"
)

// Transformer consumes recipe inputs, holds them for a processing time and
// emits recipe outputs. One job runs at a time. Each recipe input is bound
// to the input port named after its element type; each output leaves on the
// output port named after its element type.
type Transformer struct {
	Base
	recipe       Recipe
	templates    map[string]map[string]any
	distribution *dist.Spec

	buffers  map[string][]*Element // pushed elements by input port
	busy     bool
	job      []*Element
	produced int
}

func newTransformer(sim *Simulator, node process.Node) (*Transformer, error) {
	b, err := newBase(sim, node)
	if err != nil {
		return nil, err
	}
	var p TransformerParams
	if err := node.Params.Decode(&p); err != nil {
		return nil, fmt.Errorf("transformer %s: %w", node.ID, err)
	}
	t := &Transformer{
		Base:         b,
		recipe:       p.Recipe,
		templates:    make(map[string]map[string]any, len(p.Templates)),
		distribution: p.Nested.Distribution,
		buffers:      make(map[string][]*Element),
	}
	for _, tpl := range p.Templates {
		if _, dup := t.templates[tpl.ElementType]; !dup {
			t.templates[tpl.ElementType] = tpl.Attributes
		}
	}
	t.onRecover = t.tryStartProcessing
	return t, nil
}

func (t *Transformer) init() {
	t.initFailures()
}

// Busy reports whether a job is in flight.
func (t *Transformer) Busy() bool { return t.busy }

// InFlight returns the inputs held by the current job.
func (t *Transformer) InFlight() []*Element { return t.job }

// Produced returns how many output elements this transformer has created.
func (t *Transformer) Produced() int { return t.produced }

// Receive buffers a pushed element under its input port and tries to start.
func (t *Transformer) Receive(el *Element, time float64, port string) bool {
	if el == nil || el.ID == "" {
		logrus.Warnf("[t=%.3f] transformer %s received an element without identity", time, t.id)
		return false
	}
	if t.Failed() {
		t.lose(LossFailed, "transformer %s is failed, dropped %s", t.id, el.ID)
		return false
	}
	t.buffers[port] = append(t.buffers[port], el)
	t.tryStartProcessing(time)
	return true
}

// NotifyAvailable retries the recipe when an upstream peer has stock.
func (t *Transformer) NotifyAvailable(time float64, port string) {
	if t.Failed() {
		return
	}
	t.tryStartProcessing(time)
}

// Count returns the number of locally buffered elements.
func (t *Transformer) Count(elementType string) int {
	n := 0
	for _, buf := range t.buffers {
		for _, el := range buf {
			if elementType == "" || el.Type == elementType {
				n++
			}
		}
	}
	return n
}

// IsActive reports whether a job is being processed.
func (t *Transformer) IsActive() bool {
	return !t.Failed() && t.busy
}

func (t *Transformer) bufferedOfType(port, typ string) int {
	n := 0
	for _, el := range t.buffers[port] {
		if el.Type == typ {
			n++
		}
	}
	return n
}

// takeBuffered removes up to n buffered elements of typ from port, oldest first.
func (t *Transformer) takeBuffered(port, typ string, n int) []*Element {
	var taken []*Element
	kept := t.buffers[port][:0]
	for _, el := range t.buffers[port] {
		if len(taken) < n && el.Type == typ {
			taken = append(taken, el)
			continue
		}
		kept = append(kept, el)
	}
	t.buffers[port] = kept
	return taken
}

// inputPlan is how one recipe input will be satisfied.
type inputPlan struct {
	port   string
	typ    string
	local  int
	remote int
	link   Link
}

// plan checks every recipe input and returns nil unless all of them can be
// met. Nothing is consumed while planning.
func (t *Transformer) plan() []inputPlan {
	plans := make([]inputPlan, 0, len(t.recipe.Inputs))
	reserved := make(map[string]int)
	// claimed tracks stock already promised to earlier inputs, per upstream
	// edge and type, so two inputs of one type cannot both count it.
	claimed := make(map[string]int)
	for _, in := range t.recipe.Inputs {
		port, need := in.ElementType, in.Count()
		avail := t.bufferedOfType(port, in.ElementType) - reserved[port]
		local := min(max(avail, 0), need)
		reserved[port] += local
		p := inputPlan{port: port, typ: in.ElementType, local: local, remote: need - local}
		if p.remote > 0 {
			found := false
			for _, l := range t.sim.graph.InOnPort(t.id, port) {
				key := l.Peer + "/" + in.ElementType
				if l.Source != nil && l.Source.Count(in.ElementType) >= claimed[key]+p.remote {
					claimed[key] += p.remote
					p.link, found = l, true
					break
				}
			}
			if !found {
				logrus.Debugf("[t=%.3f] transformer %s waits for %d %s on %s", t.sim.Clock, t.id, need, in.ElementType, port)
				return nil
			}
		}
		plans = append(plans, p)
	}
	return plans
}

func (t *Transformer) tryStartProcessing(time float64) {
	if t.busy || t.Failed() || len(t.recipe.Inputs) == 0 {
		return
	}
	plans := t.plan()
	if plans == nil {
		return
	}
	var consumed []*Element
	ports := make([]string, 0, len(t.recipe.Inputs))
	for _, p := range plans {
		got := t.takeBuffered(p.port, p.typ, p.local)
		if p.remote > 0 {
			got = append(got, p.link.Source.Request(time, p.remote, p.link.Edge.SourcePort())...)
		}
		for range got {
			ports = append(ports, p.port)
		}
		consumed = append(consumed, got...)
	}
	if len(consumed) < t.recipe.required() {
		// An upstream peer handed over less than it reported. Keep what was
		// pulled buffered for the next attempt.
		for i, el := range consumed {
			t.buffers[ports[i]] = append(t.buffers[ports[i]], el)
		}
		logrus.Debugf("[t=%.3f] transformer %s got %d of %d inputs, not started", time, t.id, len(consumed), t.recipe.required())
		return
	}
	for i, el := range consumed {
		t.notify(SensorEntry, ports[i], el)
		t.recordVisit(el, time)
	}
	t.busy = true
	t.job = consumed
	duration := t.recipe.Time
	if duration <= 0 {
		var first dist.Subject
		if len(consumed) > 0 {
			first = consumed[0]
		}
		duration = t.sampler.SampleProcessing(t.distribution, first)
	}
	duration = max(duration, dist.Epsilon)
	end := time + duration
	logrus.Debugf("[t=%.3f] transformer %s started a job with %d input(s), ends at %.3f", time, t.id, len(consumed), end)
	t.stepf("transformer %s started processing, ends at t=%g", t.id, end)
	t.sim.Schedule(&FinishProcessingEvent{time: end, component: t.id})
}

func (t *Transformer) finishProcessing(time float64) {
	t.busy = false
	t.job = nil
	defer t.sim.Schedule(&TryStartEvent{time: time, component: t.id})

	if t.Failed() {
		for _, out := range t.recipe.Outputs {
			t.lose(LossDiscarded, "transformer %s finished while failed, discarded %d %s", t.id, out.Count(), out.ElementType)
		}
		return
	}
	for _, out := range t.recipe.Outputs {
		links := t.sim.graph.OutOnPort(t.id, out.ElementType)
		for i := 0; i < out.Count(); i++ {
			el := t.produce(out.ElementType, time)
			t.notify(SensorExit, out.ElementType, el)
			if t.pushDownstream(el, time, links) == 0 && len(links) == 0 {
				logrus.Debugf("[t=%.3f] transformer %s has no output wired for %s", time, t.id, out.ElementType)
			}
		}
	}
}

func (t *Transformer) produce(typ string, time float64) *Element {
	t.produced++
	el := &Element{
		ID:         elementID(typ, t.produced, t.id),
		Type:       typ,
		CreatedAt:  time,
		Attributes: copyAttributes(t.templates[typ]),
	}
	t.recordCreation(el, time)
	t.sim.elementCreated(t.id, false)
	t.stepf("transformer %s produced %s (#%s)", t.id, el.Type, el.ID)
	return el
}
