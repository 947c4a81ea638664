package dist

import (
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the normalized law of a distribution descriptor.
type Kind string

const (
	KindNone        Kind = ""
	KindFixed       Kind = "fixed"
	KindUniform     Kind = "uniform"
	KindExponential Kind = "exponential"
	KindNormal      Kind = "normal"
	KindUnknown     Kind = "unknown"
)

// kindAliases maps accepted type tags (lower-cased) to their law.
var kindAliases = map[string]Kind{
	"fija":        KindFixed,
	"fijo":        KindFixed,
	"fixed":       KindFixed,
	"uniforme":    KindUniform,
	"uniform":     KindUniform,
	"exponencial": KindExponential,
	"exponential": KindExponential,
	"normal":      KindNormal,
}

// KindOf resolves a type tag by exact (case-insensitive) alias.
func KindOf(tag string) Kind {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return KindNone
	}
	if k, ok := kindAliases[t]; ok {
		return k
	}
	return KindUnknown
}

// looseKindOf resolves a type tag by substring, the way processing-time
// descriptors are matched ("Exp", "uniforme continua", ...).
func looseKindOf(tag string) Kind {
	t := strings.ToLower(strings.TrimSpace(tag))
	switch {
	case t == "":
		return KindNone
	case strings.Contains(t, "exp"):
		return KindExponential
	case strings.Contains(t, "norm"):
		return KindNormal
	case strings.Contains(t, "uni"):
		return KindUniform
	case strings.Contains(t, "fij"), strings.Contains(t, "fix"):
		return KindFixed
	}
	return KindUnknown
}

// Spec is a distribution descriptor.
//
// The general form is {tipo, params}. Processing-time descriptors may add an
// ordered list of attribute conditions with a default branch; a descriptor may
// also be a bare number or a list of alternative descriptors.
type Spec struct {
	Type       string             // type tag as written
	Params     map[string]float64 // numeric parameters (valor, min, max, lambda, mu, sigma, ...)
	Conditions []Condition        // ordered attribute-conditioned branches
	Default    *Spec              // fallback branch when no condition matches
	Choices    []Spec             // alternatives; one is chosen uniformly at random
	Value      *float64           // bare number
}

// Condition is one attribute-conditioned branch of a processing-time descriptor.
type Condition struct {
	ElementType  string // optional element type the first consumed element must have
	ParamKey     string // attribute name, dotted paths allowed
	Operator     string // =, ==, !=, <>, >, >=, <, <=
	Value        any    // literal compared against the attribute
	Distribution Spec
}

// Fixed returns a Fixed(v) descriptor.
func Fixed(v float64) Spec {
	return Spec{Type: "fija", Params: map[string]float64{"valor": v}}
}

// Uniform returns a Uniform(min, max) descriptor.
func Uniform(min, max float64) Spec {
	return Spec{Type: "uniforme", Params: map[string]float64{"min": min, "max": max}}
}

// Exponential returns an Exponential(lambda) descriptor.
func Exponential(lambda float64) Spec {
	return Spec{Type: "exponencial", Params: map[string]float64{"lambda": lambda}}
}

// Normal returns a Normal(mu, sigma) descriptor.
func Normal(mu, sigma float64) Spec {
	return Spec{Type: "normal", Params: map[string]float64{"mu": mu, "sigma": sigma}}
}

// Kind returns the exact-alias law of the descriptor.
func (s Spec) Kind() Kind {
	return KindOf(s.Type)
}

// IsZero reports whether the descriptor carries no information at all.
func (s Spec) IsZero() bool {
	return s.Type == "" && len(s.Params) == 0 && len(s.Conditions) == 0 &&
		s.Default == nil && len(s.Choices) == 0 && s.Value == nil
}

// param returns the first present parameter among names, or def.
func (s Spec) param(def float64, names ...string) float64 {
	for _, n := range names {
		if v, ok := s.Params[n]; ok {
			return v
		}
	}
	return def
}

func (s Spec) hasParams(names ...string) bool {
	for _, n := range names {
		if _, ok := s.Params[n]; !ok {
			return false
		}
	}
	return true
}

// UnmarshalYAML accepts a mapping, a sequence of descriptors or a bare number.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = FromValue(raw)
	return nil
}

// UnmarshalJSON mirrors UnmarshalYAML for JSON payloads.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = FromValue(raw)
	return nil
}

// FromValue builds a descriptor from a generic decoded value.
func FromValue(v any) Spec {
	switch x := v.(type) {
	case nil:
		return Spec{}
	case []any:
		choices := make([]Spec, 0, len(x))
		for _, item := range x {
			choices = append(choices, FromValue(item))
		}
		return Spec{Choices: choices}
	case map[string]any:
		return fromMap(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return Spec{Value: &f}
		}
		return Spec{Type: x}
	}
	if f, ok := ToFloat(v); ok {
		return Spec{Value: &f}
	}
	return Spec{}
}

func fromMap(m map[string]any) Spec {
	var s Spec
	s.Type = firstString(m, "tipo", "type")

	params, ok := m["params"].(map[string]any)
	if !ok {
		params, ok = m["parametros"].(map[string]any)
	}
	if !ok {
		params = m
	}
	for k, raw := range params {
		if f, ok := ToFloat(raw); ok {
			if s.Params == nil {
				s.Params = make(map[string]float64)
			}
			s.Params[k] = f
		}
	}

	if conds, ok := m["conditions"].([]any); ok {
		for _, c := range conds {
			cm, ok := c.(map[string]any)
			if !ok {
				continue
			}
			s.Conditions = append(s.Conditions, fromConditionMap(cm))
		}
	}
	if def, ok := m["default"]; ok && def != nil {
		d := FromValue(def)
		s.Default = &d
	}
	return s
}

func fromConditionMap(m map[string]any) Condition {
	c := Condition{
		ElementType: firstString(m, "elementType", "element_type"),
		ParamKey:    firstString(m, "paramKey", "param_key"),
		Operator:    firstString(m, "operator"),
		Value:       m["value"],
	}
	switch {
	case m["distribution"] != nil:
		c.Distribution = FromValue(m["distribution"])
	case m["distribucion"] != nil:
		c.Distribution = FromValue(m["distribucion"])
	default:
		c.Distribution = fromMap(m)
	}
	return c
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	return ""
}

// ToFloat converts a decoded scalar to float64. Booleans are not numbers here.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
