// Package process holds the process definition consumed by the simulation
// kernel: nodes, port-qualified edges and the element-type catalog.
package process

import "strings"

// Kind is the closed set of component variants a node may declare.
type Kind string

const (
	KindGenerator   Kind = "generator"
	KindQueue       Kind = "queue"
	KindSelector    Kind = "selector"
	KindTransformer Kind = "transformer"
	KindTransporter Kind = "transporter"
	KindOutput      Kind = "output"
)

// ValidKinds lists every node type the kernel can build.
var ValidKinds = map[Kind]bool{
	KindGenerator:   true,
	KindQueue:       true,
	KindSelector:    true,
	KindTransformer: true,
	KindTransporter: true,
	KindOutput:      true,
}

// ParseKind normalizes a node type tag. Matching is case-insensitive.
func ParseKind(tag string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(tag)))
	return k, ValidKinds[k]
}

// Default port names used when an edge omits its handles.
const (
	DefaultInPort  = "in-0"
	DefaultOutPort = "out-0"
)

// Definition is an immutable process topology.
type Definition struct {
	Nodes    []Node        `yaml:"nodes" json:"nodes" validate:"required,min=1,dive"`
	Edges    []Edge        `yaml:"edges" json:"edges" validate:"dive"`
	Elements []ElementType `yaml:"elements" json:"elements" validate:"dive"`
}

// Node is one component declaration. Position fields are carried for the
// editor and ignored by the kernel.
type Node struct {
	ID        string  `yaml:"id" json:"id" validate:"required"`
	ProcessID string  `yaml:"process_id" json:"process_id"`
	Type      string  `yaml:"type" json:"type" validate:"required,nodekind"`
	Label     string  `yaml:"label" json:"label"`
	PosX      float64 `yaml:"pos_x" json:"pos_x"`
	PosY      float64 `yaml:"pos_y" json:"pos_y"`
	Params    Params  `yaml:"params" json:"params"`
}

// Kind returns the normalized node type. Nodes that passed Validate always
// yield a member of ValidKinds.
func (n Node) Kind() Kind {
	k, _ := ParseKind(n.Type)
	return k
}

// Edge is a directed connection from a source port to a target port.
type Edge struct {
	ID           string `yaml:"id" json:"id"`
	From         string `yaml:"from" json:"from" validate:"required"`
	To           string `yaml:"to" json:"to" validate:"required"`
	SourceHandle string `yaml:"sourceHandle" json:"sourceHandle"`
	TargetHandle string `yaml:"targetHandle" json:"targetHandle"`
}

// SourcePort returns the source handle, defaulting to DefaultOutPort.
func (e Edge) SourcePort() string {
	if e.SourceHandle == "" {
		return DefaultOutPort
	}
	return e.SourceHandle
}

// TargetPort returns the target handle, defaulting to DefaultInPort.
func (e Edge) TargetPort() string {
	if e.TargetHandle == "" {
		return DefaultInPort
	}
	return e.TargetHandle
}

// ElementType is a catalog entry describing a kind of work item.
type ElementType struct {
	ID     string `yaml:"id" json:"id"`
	Type   string `yaml:"type" json:"type" validate:"required"`
	Label  string `yaml:"label" json:"label"`
	Params Params `yaml:"params" json:"params"`
}

// Node returns the node with the given id.
func (d *Definition) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ElementType looks up a catalog entry by its type tag.
func (d *Definition) ElementType(typ string) (ElementType, bool) {
	for _, el := range d.Elements {
		if el.Type == typ {
			return el, true
		}
	}
	return ElementType{}, false
}

// OutEdges returns the edges leaving node id, in declaration order.
func (d *Definition) OutEdges(id string) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// InEdges returns the edges entering node id, in declaration order.
func (d *Definition) InEdges(id string) []Edge {
	var in []Edge
	for _, e := range d.Edges {
		if e.To == id {
			in = append(in, e)
		}
	}
	return in
}

// ProcessID returns the owning process id of the first node that declares one.
func (d *Definition) ProcessID() string {
	for _, n := range d.Nodes {
		if n.ProcessID != "" {
			return n.ProcessID
		}
	}
	return ""
}
