package sim

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/process"
	"github.com/procsim/procsim/sim/trace"
)

// Simulator owns the clock, the pending event queue, the component table and
// the run record. It is single-threaded: every event runs to completion
// before the next is popped.
type Simulator struct {
	Clock float64

	def         *process.Definition
	termination Termination
	rng         *ComponentStreams
	events      EventQueue
	nextSeq     int64
	record      *trace.Record
	graph       *Graph
	components  map[string]Component
	order       []Component
	metrics     *RunMetrics

	generated int // elements created by generators
	delivered int // elements collected by outputs
	executed  int
	started   bool
	finished  bool
}

// NewSimulator builds one component per node, resolves the network and
// attaches sensors. Nothing is scheduled until Start or Run.
func NewSimulator(cfg Config) (*Simulator, error) {
	if cfg.Definition == nil {
		return nil, errors.New("process definition is required")
	}
	if err := cfg.Definition.Validate(); err != nil {
		return nil, fmt.Errorf("invalid process definition: %w", err)
	}
	if err := cfg.Termination.Validate(); err != nil {
		return nil, err
	}
	sim := &Simulator{
		def:         cfg.Definition,
		termination: cfg.Termination,
		rng:         NewComponentStreams(NewSimulationKey(cfg.Seed)),
		events:      make(EventQueue, 0),
		record:      trace.NewRecord(),
		components:  make(map[string]Component, len(cfg.Definition.Nodes)),
		metrics:     cfg.Metrics,
	}
	for _, node := range cfg.Definition.Nodes {
		c, err := newComponent(sim, node)
		if err != nil {
			return nil, err
		}
		sensors, err := node.Params.Sensors()
		if err != nil {
			return nil, fmt.Errorf("node %s sensors: %w", node.ID, err)
		}
		c.base().attachSensors(c, sensors)
		sim.components[node.ID] = c
		sim.order = append(sim.order, c)
	}
	sim.graph = newGraph(cfg.Definition, sim.components)
	return sim, nil
}

// newComponent matches the node type exhaustively against the six variants.
func newComponent(sim *Simulator, node process.Node) (Component, error) {
	switch node.Kind() {
	case process.KindGenerator:
		return newGenerator(sim, node)
	case process.KindQueue:
		return newQueue(sim, node)
	case process.KindSelector:
		return newSelector(sim, node)
	case process.KindTransformer:
		return newTransformer(sim, node)
	case process.KindTransporter:
		return newTransporter(sim, node)
	case process.KindOutput:
		return newOutput(sim, node)
	default:
		return nil, fmt.Errorf("node %s: unknown type %q", node.ID, node.Type)
	}
}

// Schedule inserts ev into the pending queue. Events at equal timestamps run
// in the order they were scheduled. An event in the past runs on the next
// pop without moving the clock backwards.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.events, eventEntry{event: ev, seqID: sim.nextSeq})
	sim.nextSeq++
}

// Pending returns the queued events in execution order without running them.
func (sim *Simulator) Pending() []Event {
	entries := make(EventQueue, len(sim.events))
	copy(entries, sim.events)
	sort.Slice(entries, entries.Less)
	out := make([]Event, len(entries))
	for i, e := range entries {
		out[i] = e.event
	}
	return out
}

// Record returns the run record being written.
func (sim *Simulator) Record() *trace.Record { return sim.record }

// Graph returns the resolved network.
func (sim *Simulator) Graph() *Graph { return sim.graph }

// Component returns the component built for node id.
func (sim *Simulator) Component(id string) (Component, bool) {
	c, ok := sim.components[id]
	return c, ok
}

// Components returns every component in definition order.
func (sim *Simulator) Components() []Component { return sim.order }

// Generated returns the number of elements created by generators so far.
func (sim *Simulator) Generated() int { return sim.generated }

// Delivered returns the number of elements collected by outputs so far.
func (sim *Simulator) Delivered() int { return sim.delivered }

func (sim *Simulator) elementCreated(component string, byGenerator bool) {
	if byGenerator {
		sim.generated++
	}
	sim.metrics.elementCreated(component)
}

func (sim *Simulator) elementDelivered() {
	sim.delivered++
	sim.metrics.elementDelivered()
}

// Start arms sensor ticks and initializes every component once. Run calls
// it; calling it directly lets the initial queue be inspected with Pending.
func (sim *Simulator) Start() {
	if sim.started {
		return
	}
	sim.started = true
	for _, c := range sim.order {
		c.base().startSensors()
	}
	for _, c := range sim.order {
		c.init()
	}
}

// shouldStop also refuses to pop an event past the time limit, so the clock
// never ends beyond it.
func (sim *Simulator) shouldStop() bool {
	if sim.termination.Reached(sim.Clock, sim.generated, sim.delivered) {
		return true
	}
	return len(sim.events) > 0 && sim.termination.Beyond(sim.events[0].event.Timestamp())
}

// Run executes events until the queue drains or the termination condition
// holds. A panic inside an event aborts the run with a *RunError and no
// result.
func (sim *Simulator) Run() (res *Result, err error) {
	if sim.finished {
		return nil, errors.New("simulation already ran")
	}
	var current Event
	defer func() {
		if r := recover(); r != nil {
			sim.finished = true
			logrus.Errorf("[t=%.3f] simulation aborted during %s: %v", sim.Clock, describeEvent(current), r)
			res, err = nil, &RunError{Time: sim.Clock, Event: describeEvent(current), Cause: panicCause(r)}
		}
	}()

	logrus.Infof("simulation starting: %d nodes, %d edges", len(sim.order), sim.graph.EdgeCount())
	sim.Start()
	for len(sim.events) > 0 && !sim.shouldStop() {
		current = heap.Pop(&sim.events).(eventEntry).event
		if ts := current.Timestamp(); ts > sim.Clock {
			sim.Clock = ts
		}
		logrus.Debugf("[t=%.3f] executing %s on %s", sim.Clock, current.Kind(), current.Target())
		current.Execute(sim)
		sim.executed++
		sim.metrics.eventExecuted(current.Kind())
	}
	sim.finished = true
	sim.metrics.finished(sim.Clock)
	logrus.Infof("[t=%.3f] simulation ended: %d events, %d elements, %d pending",
		sim.Clock, sim.executed, sim.record.Len(), len(sim.events))
	return sim.report(), nil
}
