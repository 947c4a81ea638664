package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/process"
)

// Queue is a bounded or unbounded buffer with a configurable release
// discipline. Requests are all-or-nothing.
type Queue struct {
	Base
	capacity Limit
	strategy QueueStrategy
	priority *PriorityConfig
	ranks    map[string]float64
	held     []*Element
}

func newQueue(sim *Simulator, node process.Node) (*Queue, error) {
	b, err := newBase(sim, node)
	if err != nil {
		return nil, err
	}
	var p QueueParams
	if err := node.Params.Decode(&p); err != nil {
		return nil, fmt.Errorf("queue %s: %w", node.ID, err)
	}
	strategy, ok := ParseQueueStrategy(p.Strategy)
	if !ok {
		logrus.Warnf("queue %s: unknown estrategia %q, using FIFO", node.ID, p.Strategy)
	}
	q := &Queue{Base: b, capacity: p.Capacity, strategy: strategy, priority: p.Priority}
	if p.Priority != nil {
		q.ranks = make(map[string]float64, len(p.Priority.Order))
		for _, r := range p.Priority.Order {
			q.ranks[fmt.Sprint(r.Value)] = r.Position
		}
	}
	q.onRecover = q.recover
	return q, nil
}

func (q *Queue) init() {
	q.initFailures()
	logrus.Debugf("queue %s initialized (capacity=%v, strategy=%s)", q.id, q.capacity, q.strategy)
}

// Strategy returns the release discipline in use.
func (q *Queue) Strategy() QueueStrategy { return q.strategy }

// Held returns a snapshot of the buffered elements in arrival order.
func (q *Queue) Held() []*Element {
	out := make([]*Element, len(q.held))
	copy(out, q.held)
	return out
}

// Receive buffers el unless the queue is failed or full; a refused element
// is lost.
func (q *Queue) Receive(el *Element, time float64, port string) bool {
	if el == nil || el.ID == "" {
		logrus.Warnf("[t=%.3f] queue %s received an element without identity", time, q.id)
		return false
	}
	if q.Failed() {
		q.lose(LossFailed, "queue %s is failed, dropped %s", q.id, el.ID)
		return false
	}
	if limit, ok := q.capacity.Max(); ok && len(q.held) >= limit {
		q.lose(LossQueueFull, "queue %s is full, lost %s", q.id, el.ID)
		return false
	}
	q.held = append(q.held, el)
	q.recordVisit(el, time)
	q.stepf("queue %s received %s, size=%d", q.id, el.ID, len(q.held))
	q.notify(SensorEntry, port, el)
	q.notifyDownstream(time)
	return true
}

// Count returns the number of held elements of the given type (all when empty).
func (q *Queue) Count(elementType string) int {
	if elementType == "" {
		return len(q.held)
	}
	n := 0
	for _, el := range q.held {
		if el.Type == elementType {
			n++
		}
	}
	return n
}

// Request removes exactly quantity elements per the strategy, or returns
// nothing and leaves the queue untouched.
func (q *Queue) Request(time float64, quantity int, port string) []*Element {
	if q.Failed() {
		logrus.Debugf("[t=%.3f] queue %s is failed, request refused", time, q.id)
		return nil
	}
	if quantity <= 0 || len(q.held) < quantity {
		return nil
	}
	if port == "" {
		port = process.DefaultOutPort
	}
	out := make([]*Element, 0, quantity)
	for i := 0; i < quantity; i++ {
		el := q.take(q.nextIndex())
		q.notify(SensorExit, port, el)
		out = append(out, el)
	}
	q.stepf("queue %s released %d, size=%d", q.id, quantity, len(q.held))
	return out
}

func (q *Queue) nextIndex() int {
	switch q.strategy {
	case StrategyLIFO:
		return len(q.held) - 1
	case StrategyRandom:
		return q.sampler.Intn(len(q.held))
	case StrategyPriority:
		return q.priorityIndex()
	default:
		return 0
	}
}

// priorityIndex picks the held element with the lowest rank; ties and
// unranked values keep arrival order.
func (q *Queue) priorityIndex() int {
	if q.priority == nil || q.priority.Attribute == "" {
		return 0
	}
	best, bestRank := 0, math.Inf(1)
	for i, el := range q.held {
		v, ok := el.Attribute(q.priority.Attribute)
		if !ok {
			continue
		}
		if rank, ok := q.ranks[fmt.Sprint(v)]; ok && rank < bestRank {
			best, bestRank = i, rank
		}
	}
	return best
}

func (q *Queue) take(i int) *Element {
	el := q.held[i]
	q.held = append(q.held[:i], q.held[i+1:]...)
	return el
}

func (q *Queue) recover(time float64) {
	if len(q.held) > 0 {
		q.notifyDownstream(time)
	}
}
