package sim

import (
	"fmt"
	"strings"
)

// Element is a discrete work item flowing through the network. Its fields are
// fixed at creation; ownership moves with every Receive or Request.
type Element struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	CreatedAt  float64        `json:"createdAt"`
	Attributes map[string]any `json:"attributes"`
}

// elementID derives the identity of the seq-th element of type typ created by
// the component with id componentID.
func elementID(typ string, seq int, componentID string) string {
	return fmt.Sprintf("%s-%d-%s", typ, seq, componentID)
}

// ElementType returns the element's type tag.
func (e *Element) ElementType() string {
	return e.Type
}

// Attribute resolves a possibly dotted attribute path ("size.w"). A key that
// literally contains dots wins over nested lookup.
func (e *Element) Attribute(path string) (any, bool) {
	if e == nil || path == "" {
		return nil, false
	}
	if v, ok := e.Attributes[path]; ok {
		return v, true
	}
	var cur any = e.Attributes
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[any]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func copyAttributes(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
