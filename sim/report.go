package sim

import (
	"github.com/procsim/procsim/sim/trace"
)

// NodeReport is the end-of-run view of one component. Stored is set for
// variants that hold elements, Generated for variants that create them.
type NodeReport struct {
	NodeID    string         `json:"nodeId"`
	Type      string         `json:"type"`
	Stored    *int           `json:"stored,omitempty"`
	Generated *int           `json:"generated,omitempty"`
	Failed    bool           `json:"failed"`
	Sensors   []SensorReport `json:"sensors"`
}

// Stats summarizes a run.
type Stats struct {
	Clock          float64 `json:"clock"`
	NodesCount     int     `json:"nodesCount"`
	EdgesCount     int     `json:"edgesCount"`
	TotalElements  int     `json:"totalElements"`
	Generated      int     `json:"generated"`
	Delivered      int     `json:"delivered"`
	EventsExecuted int     `json:"eventsExecuted"`
	PendingEvents  int     `json:"pendingEvents"`
}

// Result is what a completed run hands to its consumer.
type Result struct {
	Clock  float64       `json:"clock"`
	Record *trace.Record `json:"record"`
	Nodes  []NodeReport  `json:"nodeStats"`
	Stats  Stats         `json:"stats"`

	// Components is the live component table, in definition order.
	Components []Component `json:"-"`
}

// Node returns the report for node id.
func (r *Result) Node(id string) (NodeReport, bool) {
	for _, n := range r.Nodes {
		if n.NodeID == id {
			return n, true
		}
	}
	return NodeReport{}, false
}

func (sim *Simulator) report() *Result {
	res := &Result{
		Clock:      sim.Clock,
		Record:     sim.record,
		Components: sim.order,
		Stats: Stats{
			Clock:          sim.Clock,
			NodesCount:     len(sim.def.Nodes),
			EdgesCount:     len(sim.def.Edges),
			TotalElements:  sim.record.Len(),
			Generated:      sim.generated,
			Delivered:      sim.delivered,
			EventsExecuted: sim.executed,
			PendingEvents:  len(sim.events),
		},
	}
	for _, c := range sim.order {
		res.Nodes = append(res.Nodes, nodeReport(c))
	}
	return res
}

func nodeReport(c Component) NodeReport {
	n := NodeReport{
		NodeID:  c.ID(),
		Type:    string(c.Kind()),
		Failed:  c.Failed(),
		Sensors: make([]SensorReport, 0, len(c.Sensors())),
	}
	intp := func(v int) *int { return &v }
	switch v := c.(type) {
	case *Generator:
		n.Generated = intp(v.Generated())
	case *Queue:
		n.Stored = intp(v.Count(""))
	case *Output:
		n.Stored = intp(v.Count(""))
	case *Transporter:
		n.Stored = intp(v.Count(""))
	case *Transformer:
		n.Stored = intp(v.Count(""))
		n.Generated = intp(v.Produced())
	}
	for _, s := range c.Sensors() {
		n.Sensors = append(n.Sensors, s.Report())
	}
	return n
}
