package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim/process"
)

// Link is one edge seen from one of its endpoints, with the peer's
// capabilities resolved. Capabilities the peer lacks are nil.
type Link struct {
	Edge process.Edge
	Peer string

	Receiver Receiver // downstream peer accepting pushes
	Listener Listener // downstream peer accepting availability signals
	Source   Source   // upstream peer serving requests
}

// Graph is the static, resolved edge list. It is read-only once built.
type Graph struct {
	out   map[string][]Link
	in    map[string][]Link
	edges int
}

func newGraph(def *process.Definition, components map[string]Component) *Graph {
	g := &Graph{
		out: make(map[string][]Link),
		in:  make(map[string][]Link),
	}
	for _, e := range def.Edges {
		from, okFrom := components[e.From]
		to, okTo := components[e.To]
		if !okFrom || !okTo {
			logrus.Warnf("edge %q: endpoint %s -> %s does not exist, skipped", e.ID, e.From, e.To)
			continue
		}
		recv, _ := to.(Receiver)
		lis, _ := to.(Listener)
		src, _ := from.(Source)
		if recv == nil && lis == nil {
			logrus.Warnf("edge %q: %s %s cannot accept elements", e.ID, to.Kind(), to.ID())
		}
		g.out[e.From] = append(g.out[e.From], Link{Edge: e, Peer: e.To, Receiver: recv, Listener: lis})
		g.in[e.To] = append(g.in[e.To], Link{Edge: e, Peer: e.From, Source: src})
		g.edges++
	}
	return g
}

// Out returns the links leaving id, in declaration order.
func (g *Graph) Out(id string) []Link { return g.out[id] }

// In returns the links entering id, in declaration order.
func (g *Graph) In(id string) []Link { return g.in[id] }

// InOnPort returns the links entering id on the given target port.
func (g *Graph) InOnPort(id, port string) []Link {
	var links []Link
	for _, l := range g.in[id] {
		if l.Edge.TargetPort() == port {
			links = append(links, l)
		}
	}
	return links
}

// OutOnPort returns the links leaving id from the given source port.
func (g *Graph) OutOnPort(id, port string) []Link {
	var links []Link
	for _, l := range g.out[id] {
		if l.Edge.SourcePort() == port {
			links = append(links, l)
		}
	}
	return links
}

// EdgeCount returns the number of edges whose endpoints both resolved.
func (g *Graph) EdgeCount() int { return g.edges }
