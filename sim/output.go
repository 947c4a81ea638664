package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/process"
)

// Output is a terminal collector.
type Output struct {
	Base
	held []*Element
}

func newOutput(sim *Simulator, node process.Node) (*Output, error) {
	b, err := newBase(sim, node)
	if err != nil {
		return nil, err
	}
	return &Output{Base: b}, nil
}

func (o *Output) init() {
	o.initFailures()
}

// Receive collects el unless the output is failed or el has no identity.
func (o *Output) Receive(el *Element, time float64, port string) bool {
	if el == nil || el.ID == "" {
		logrus.Warnf("[t=%.3f] output %s received an element without identity", time, o.id)
		return false
	}
	if o.Failed() {
		o.lose(LossFailed, "output %s is failed, dropped %s", o.id, el.ID)
		return false
	}
	o.held = append(o.held, el)
	o.recordVisit(el, time)
	o.notify(SensorEntry, port, el)
	o.sim.elementDelivered()
	logrus.Debugf("[t=%.3f] output %s received %s, total=%d", time, o.id, el.ID, len(o.held))
	o.stepf("output %s received %s, total=%d", o.id, el.ID, len(o.held))
	return true
}

// Count returns the number of collected elements of the given type (all when empty).
func (o *Output) Count(elementType string) int {
	if elementType == "" {
		return len(o.held)
	}
	n := 0
	for _, el := range o.held {
		if el.Type == elementType {
			n++
		}
	}
	return n
}

// Held returns the collected elements in arrival order.
func (o *Output) Held() []*Element {
	out := make([]*Element, len(o.held))
	copy(out, o.held)
	return out
}
