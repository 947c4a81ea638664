package sim

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/process"
)

// Selector aggregates several upstream sources behind one pull interface.
// It holds no buffer; partial fulfillment is allowed.
type Selector struct {
	Base
	strategy string
	ports    []string // precedence (prioridad) or rotation sequence (orden)
	cursor   int
}

func newSelector(sim *Simulator, node process.Node) (*Selector, error) {
	b, err := newBase(sim, node)
	if err != nil {
		return nil, err
	}
	var p SelectorParams
	if err := node.Params.Decode(&p); err != nil {
		return nil, fmt.Errorf("selector %s: %w", node.ID, err)
	}
	strategy := strings.ToLower(strings.TrimSpace(p.Strategy))
	switch strategy {
	case "":
		strategy = SelectorPriority
	case SelectorPriority, SelectorOrder:
	default:
		logrus.Warnf("selector %s: unknown estrategia %q, using %s", node.ID, p.Strategy, SelectorPriority)
		strategy = SelectorPriority
	}
	s := &Selector{Base: b, strategy: strategy, ports: p.InputOrder}
	s.onRecover = s.notifyDownstream
	return s, nil
}

func (s *Selector) init() {
	s.initFailures()
	if len(s.ports) == 0 {
		seen := make(map[string]bool)
		for _, l := range s.sim.graph.In(s.id) {
			if port := l.Edge.TargetPort(); !seen[port] {
				seen[port] = true
				s.ports = append(s.ports, port)
			}
		}
	}
}

// Ports returns the input ports in precedence or rotation order.
func (s *Selector) Ports() []string { return s.ports }

// Count sums the availability of every connected upstream component.
func (s *Selector) Count(elementType string) int {
	if s.Failed() {
		return 0
	}
	total := 0
	for _, l := range s.sim.graph.In(s.id) {
		if l.Source != nil {
			total = addCount(total, l.Source.Count(elementType))
		}
	}
	return total
}

// sourceOn returns the first upstream source wired to port.
func (s *Selector) sourceOn(port string) (Link, bool) {
	for _, l := range s.sim.graph.InOnPort(s.id, port) {
		if l.Source != nil {
			return l, true
		}
	}
	return Link{}, false
}

// Request collects up to quantity elements from upstream per the strategy.
// It returns nil when failed, unwired, or when nothing was collected.
func (s *Selector) Request(time float64, quantity int, port string) []*Element {
	if s.Failed() {
		logrus.Debugf("[t=%.3f] selector %s is failed, request refused", time, s.id)
		return nil
	}
	if len(s.sim.graph.In(s.id)) == 0 {
		logrus.Debugf("[t=%.3f] selector %s has no inputs", time, s.id)
		return nil
	}
	var got []*Element
	if s.strategy == SelectorOrder {
		got = s.roundRobin(time, quantity)
	} else {
		got = s.byPriority(time, quantity)
	}
	if len(got) == 0 {
		return nil
	}
	if len(got) < quantity {
		logrus.Debugf("[t=%.3f] selector %s delivered %d/%d", time, s.id, len(got), quantity)
	}
	if port == "" {
		port = process.DefaultOutPort
	}
	for _, el := range got {
		s.recordVisit(el, time)
		s.notify(SensorExit, port, el)
	}
	s.stepf("selector %s delivered %d element(s)", s.id, len(got))
	return got
}

// byPriority drains each port in order, one element at a time, before
// moving to the next.
func (s *Selector) byPriority(time float64, quantity int) []*Element {
	var got []*Element
	for _, port := range s.ports {
		if len(got) >= quantity {
			break
		}
		l, ok := s.sourceOn(port)
		if !ok {
			continue
		}
		for len(got) < quantity && l.Source.Count("") > 0 {
			res := l.Source.Request(time, 1, l.Edge.SourcePort())
			if len(res) == 0 {
				break
			}
			got = append(got, res...)
			s.notify(SensorEntry, port, res[0])
		}
	}
	return got
}

// roundRobin pulls one element per port per pass starting at the persisted
// cursor, stopping after a full pass yields nothing.
func (s *Selector) roundRobin(time float64, quantity int) []*Element {
	n := len(s.ports)
	if n == 0 {
		return nil
	}
	var got []*Element
	idx := s.cursor % n
	for scanned := 0; len(got) < quantity && scanned < n; {
		port := s.ports[idx]
		idx = (idx + 1) % n
		l, ok := s.sourceOn(port)
		if !ok {
			scanned++
			continue
		}
		res := l.Source.Request(time, 1, l.Edge.SourcePort())
		if len(res) == 0 {
			scanned++
			continue
		}
		scanned = 0
		got = append(got, res...)
		s.notify(SensorEntry, port, res[0])
		s.cursor = idx
	}
	return got
}

// NotifyAvailable re-propagates an upstream availability signal downstream.
func (s *Selector) NotifyAvailable(time float64, port string) {
	if s.Failed() {
		return
	}
	s.notifyDownstream(time)
}
