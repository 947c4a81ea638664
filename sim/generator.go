package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/process"
)

// Generator is a source of elements. In autonomous mode it self-schedules by
// its inter-arrival distribution and pushes each element downstream; in
// on-demand mode it synthesizes elements only when requested.
type Generator struct {
	Base
	params    GeneratorParams
	generated int
}

func newGenerator(sim *Simulator, node process.Node) (*Generator, error) {
	b, err := newBase(sim, node)
	if err != nil {
		return nil, err
	}
	g := &Generator{Base: b}
	if err := node.Params.Decode(&g.params); err != nil {
		return nil, fmt.Errorf("generator %s: %w", node.ID, err)
	}
	return g, nil
}

func (g *Generator) init() {
	g.initFailures()
	if g.params.OnDemand {
		g.notifyDownstream(g.sim.Clock)
		return
	}
	g.scheduleNext()
}

// Generated returns how many elements this generator has created.
func (g *Generator) Generated() int { return g.generated }

func (g *Generator) exhausted() bool {
	limit, ok := g.params.Limit.Max()
	return ok && g.generated >= limit
}

func (g *Generator) scheduleNext() {
	if g.exhausted() {
		return
	}
	if g.params.Distribution.IsZero() {
		logrus.Warnf("generator %s has no distribucion, autonomous generation disabled", g.id)
		return
	}
	next := g.sim.Clock + g.sampler.Sample(g.params.Distribution)
	g.sim.Schedule(&GenerateEvent{time: next, component: g.id})
}

func (g *Generator) generate(time float64) {
	if g.Failed() {
		logrus.Debugf("[t=%.3f] generator %s is failed, not producing", time, g.id)
		g.stepf("generator %s is failed, not producing", g.id)
		g.scheduleNext()
		return
	}
	if g.exhausted() {
		return
	}
	if !g.knownType() {
		logrus.Warnf("[t=%.3f] generator %s: no element definition for %q", time, g.id, g.params.ElementType)
		g.scheduleNext()
		return
	}
	el := g.create(time)
	g.notify(SensorExit, process.DefaultOutPort, el)
	g.pushDownstream(el, time, g.sim.graph.Out(g.id))
	g.scheduleNext()
}

// knownType reports whether the element type is in the catalog. An empty
// catalog accepts any type.
func (g *Generator) knownType() bool {
	if len(g.sim.def.Elements) == 0 {
		return true
	}
	_, ok := g.sim.def.ElementType(g.params.ElementType)
	return ok
}

func (g *Generator) create(time float64) *Element {
	g.generated++
	attrs := make(map[string]any, len(g.params.Attributes))
	for _, a := range g.params.Attributes {
		attrs[a.Name] = a.pick(g.sampler.Float64())
	}
	el := &Element{
		ID:         elementID(g.params.ElementType, g.generated, g.id),
		Type:       g.params.ElementType,
		CreatedAt:  time,
		Attributes: attrs,
	}
	g.recordCreation(el, time)
	g.sim.elementCreated(g.id, true)
	logrus.Debugf("[t=%.3f] generator %s created %s", time, g.id, el.ID)
	g.stepf("generator %s created %s (#%s)", g.id, el.Type, el.ID)
	return el
}

// Count returns the remaining on-demand supply: Unlimited without a limit.
// Autonomous generators push instead and report 0, as do failed ones and
// requests for a different element type.
func (g *Generator) Count(elementType string) int {
	if !g.params.OnDemand || g.Failed() || (elementType != "" && elementType != g.params.ElementType) {
		return 0
	}
	limit, ok := g.params.Limit.Max()
	if !ok {
		return Unlimited
	}
	return max(limit-g.generated, 0)
}

// Request synthesizes exactly quantity elements, or none if the remaining
// limit cannot cover them, the generator is failed or it is autonomous.
func (g *Generator) Request(time float64, quantity int, port string) []*Element {
	if g.Failed() {
		logrus.Debugf("[t=%.3f] generator %s is failed, request ignored", time, g.id)
		return nil
	}
	if quantity <= 0 || quantity > g.Count("") {
		return nil
	}
	if !g.knownType() {
		logrus.Warnf("[t=%.3f] generator %s: no element definition for %q", time, g.id, g.params.ElementType)
		return nil
	}
	if port == "" {
		port = process.DefaultOutPort
	}
	out := make([]*Element, 0, quantity)
	for i := 0; i < quantity; i++ {
		el := g.create(time)
		g.notify(SensorExit, port, el)
		out = append(out, el)
	}
	return out
}

// IsActive reports whether the generator can still produce into the network.
func (g *Generator) IsActive() bool {
	return !g.Failed() && !g.exhausted() && len(g.sim.graph.Out(g.id)) > 0
}
