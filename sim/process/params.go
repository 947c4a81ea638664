package process

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/procsim/procsim/sim/dist"
)

// Params is a node's free-form parameter bag. The raw document node is kept
// so variant-specific structs can be decoded from it with key order intact.
type Params struct {
	node *yaml.Node
}

// NewParams encodes v into a parameter bag.
func NewParams(v any) (Params, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return Params{}, fmt.Errorf("encoding params: %w", err)
	}
	return Params{node: &n}, nil
}

// MustParams is NewParams for literals known to encode.
func MustParams(v any) Params {
	p, err := NewParams(v)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Params) UnmarshalYAML(value *yaml.Node) error {
	n := *value
	p.node = &n
	return nil
}

func (p Params) MarshalYAML() (any, error) {
	if p.node == nil {
		return nil, nil
	}
	return p.node, nil
}

// MarshalJSON renders the bag as a JSON object so stored definitions keep
// their parameters.
func (p Params) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	var raw any
	if err := p.node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding params: %w", err)
	}
	return json.Marshal(jsonSafe(raw))
}

// UnmarshalJSON accepts any JSON value; JSON is parsed as YAML so the bag
// decodes the same way as a YAML definition.
func (p *Params) UnmarshalJSON(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing params: %w", err)
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		return p.UnmarshalYAML(doc.Content[0])
	}
	p.node = nil
	return nil
}

// jsonSafe rewrites map[any]any produced by YAML decoding into string-keyed
// maps that encoding/json accepts.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = jsonSafe(val)
		}
		return m
	case map[string]any:
		for k, val := range x {
			x[k] = jsonSafe(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = jsonSafe(val)
		}
		return x
	}
	return v
}

// IsZero reports whether the bag is absent or null.
func (p Params) IsZero() bool {
	return p.node == nil || p.node.Kind == 0 || p.node.Tag == "!!null"
}

// Decode unmarshals the bag into v. Unknown keys are ignored; an absent bag
// leaves v untouched.
func (p Params) Decode(v any) error {
	if p.IsZero() {
		return nil
	}
	if err := p.node.Decode(v); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	return nil
}

// SensorConfig configures one sensor attached to a component.
type SensorConfig struct {
	Type     string   `yaml:"type"`
	Interval *float64 `yaml:"intervalo"`
	Entries  []string `yaml:"id_entradas"`
	Exits    []string `yaml:"id_salidas"`
}

// IntervalOrDefault returns the configured tick interval, 1 when unset or
// non-positive.
func (s SensorConfig) IntervalOrDefault() float64 {
	if s.Interval == nil || *s.Interval <= 0 {
		return 1
	}
	return *s.Interval
}

// FailureConfig is one recurring failure spec: time until activation and
// episode duration.
type FailureConfig struct {
	Activation dist.Spec `yaml:"dist_activacion"`
	Duration   dist.Spec `yaml:"dist_duracion"`
}

type observers struct {
	Sensors  []SensorConfig  `yaml:"sensors"`
	Failures []FailureConfig `yaml:"failures"`
}

type observerBag struct {
	Top    observers  `yaml:",inline"`
	Params *observers `yaml:"params"`
}

func (p Params) observers() (observerBag, error) {
	var bag observerBag
	err := p.Decode(&bag)
	if bag.Params == nil {
		bag.Params = &observers{}
	}
	return bag, err
}

// Sensors returns the sensor configurations found at params.params.sensors,
// falling back to params.sensors.
func (p Params) Sensors() ([]SensorConfig, error) {
	bag, err := p.observers()
	if err != nil {
		return nil, err
	}
	if len(bag.Params.Sensors) > 0 {
		return bag.Params.Sensors, nil
	}
	return bag.Top.Sensors, nil
}

// Failures returns the failure specs found at params.params.failures,
// falling back to params.failures.
func (p Params) Failures() ([]FailureConfig, error) {
	bag, err := p.observers()
	if err != nil {
		return nil, err
	}
	if len(bag.Params.Failures) > 0 {
		return bag.Params.Failures, nil
	}
	return bag.Top.Failures, nil
}
