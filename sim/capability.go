package sim

import "math"

// Capability sets a component variant may implement. The network graph
// resolves them once per edge at construction.

// Receiver accepts pushed elements on a named input port. A false return
// means the element was refused and is lost to the pusher.
type Receiver interface {
	Receive(el *Element, time float64, port string) bool
}

// Counter reports current occupancy, optionally filtered by element type
// (empty matches all).
type Counter interface {
	Count(elementType string) int
}

// Source hands out elements on request from a named output port.
type Source interface {
	Counter
	Request(time float64, quantity int, port string) []*Element
}

// Listener is signaled when an upstream peer has elements available on the
// given input port.
type Listener interface {
	NotifyAvailable(time float64, port string)
}

// Activity reports component-specific "working" state for operating sensors.
type Activity interface {
	IsActive() bool
}

// Unlimited is the count reported by sources without a finite supply.
const Unlimited = math.MaxInt

func addCount(a, b int) int {
	if a > Unlimited-b {
		return Unlimited
	}
	return a + b
}
