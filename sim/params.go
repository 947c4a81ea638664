package sim

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/procsim/procsim/sim/dist"
)

// Limit is a count that may be unbounded. Positive integers (or numeric
// strings) bound it; zero, "inf", empty and null leave it unbounded.
type Limit struct {
	n int
}

// Bounded returns a limit of n; n <= 0 is unbounded.
func Bounded(n int) Limit { return Limit{n: n} }

// Max returns the bound and whether one is set.
func (l Limit) Max() (int, bool) { return l.n, l.n > 0 }

func (l *Limit) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
		l.n = 0
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(value.Value))
	switch s {
	case "", "inf", "infinity", "infinito", "ilimitado":
		l.n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("limit %q is not a number", value.Value)
	}
	l.n = int(f)
	return nil
}

// WeightedValue is one attribute outcome and its probability.
type WeightedValue struct {
	Value string
	Prob  float64
}

// AttributeDist is the discrete distribution of one element attribute.
type AttributeDist struct {
	Name   string
	Values []WeightedValue
}

// AttributeDists keeps attribute distributions in declaration order so draws
// are reproducible for a fixed seed.
type AttributeDists []AttributeDist

func (a *AttributeDists) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		attr := AttributeDist{Name: value.Content[i].Value}
		dm := value.Content[i+1]
		if dm.Kind != yaml.MappingNode {
			return fmt.Errorf("attribute %q: expected value->probability mapping", attr.Name)
		}
		for j := 0; j+1 < len(dm.Content); j += 2 {
			var raw any
			if err := dm.Content[j+1].Decode(&raw); err != nil {
				return fmt.Errorf("attribute %q: %w", attr.Name, err)
			}
			p, ok := dist.ToFloat(raw)
			if !ok {
				return fmt.Errorf("attribute %q value %q: probability %v is not a number", attr.Name, dm.Content[j].Value, raw)
			}
			attr.Values = append(attr.Values, WeightedValue{Value: dm.Content[j].Value, Prob: p})
		}
		*a = append(*a, attr)
	}
	return nil
}

// pick draws one outcome by accumulating probability mass until u falls in
// range, falling back to the first listed value.
func (d AttributeDist) pick(u float64) any {
	if len(d.Values) == 0 {
		return nil
	}
	acc := 0.0
	for _, wv := range d.Values {
		acc += wv.Prob
		if u <= acc {
			return parseScalar(wv.Value)
		}
	}
	return parseScalar(d.Values[0].Value)
}

func parseScalar(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return s
}

// GeneratorParams configures a Generator.
type GeneratorParams struct {
	OnDemand     bool           `yaml:"onDemand"`
	Limit        Limit          `yaml:"limite"`
	Distribution dist.Spec      `yaml:"distribucion"`
	ElementType  string         `yaml:"elemento"`
	Attributes   AttributeDists `yaml:"parametros"`
}

// QueueStrategy is a queue release discipline.
type QueueStrategy string

const (
	StrategyFIFO     QueueStrategy = "FIFO"
	StrategyLIFO     QueueStrategy = "LIFO"
	StrategyRandom   QueueStrategy = "RANDOM"
	StrategyPriority QueueStrategy = "PRIORIDAD"
)

// ParseQueueStrategy normalizes a strategy tag; unknown tags report false.
func ParseQueueStrategy(tag string) (QueueStrategy, bool) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "", "FIFO":
		return StrategyFIFO, true
	case "LIFO":
		return StrategyLIFO, true
	case "RANDOM", "ALEATORIO":
		return StrategyRandom, true
	case "PRIORIDAD", "PRIORITY":
		return StrategyPriority, true
	}
	return StrategyFIFO, false
}

// PriorityRank maps one attribute value to its service rank (lower first).
type PriorityRank struct {
	Value    any     `yaml:"valor"`
	Position float64 `yaml:"posicion"`
}

// PriorityConfig names the attribute a PRIORIDAD queue ranks by.
type PriorityConfig struct {
	Attribute string         `yaml:"atributo"`
	Order     []PriorityRank `yaml:"orden"`
}

// QueueParams configures a Queue.
type QueueParams struct {
	Capacity Limit           `yaml:"capacidad"`
	Strategy string          `yaml:"estrategia"`
	Priority *PriorityConfig `yaml:"prioridad"`
}

// Selector strategies.
const (
	SelectorPriority = "prioridad"
	SelectorOrder    = "orden"
)

// SelectorParams configures a Selector.
type SelectorParams struct {
	Strategy   string   `yaml:"estrategia"`
	InputOrder []string `yaml:"orden_entradas"`
}

// RecipeItem is a quantity of one element type.
type RecipeItem struct {
	Quantity    int    `yaml:"cantidad"`
	ElementType string `yaml:"elemento"`
}

// Count returns the quantity, defaulting to 1.
func (r RecipeItem) Count() int {
	if r.Quantity <= 0 {
		return 1
	}
	return r.Quantity
}

// Recipe is a transformer's input/output contract. A positive Time fixes the
// processing duration.
type Recipe struct {
	Inputs  []RecipeItem `yaml:"inputs"`
	Outputs []RecipeItem `yaml:"outputs"`
	Time    float64      `yaml:"tiempo"`
}

func (r Recipe) required() int {
	n := 0
	for _, in := range r.Inputs {
		n += in.Count()
	}
	return n
}

// OutputTemplate gives default attributes to produced elements of one type.
type OutputTemplate struct {
	ElementType string         `yaml:"elemento"`
	Attributes  map[string]any `yaml:"params"`
}

// TransformerParams configures a Transformer.
type TransformerParams struct {
	Recipe    Recipe           `yaml:"receta"`
	Templates []OutputTemplate `yaml:"salidasDef"`
	Nested    struct {
		Distribution *dist.Spec `yaml:"distribution"`
	} `yaml:"params"`
}

// Transporter modes.
const (
	TransportContinuous = "continuo"
	TransportMobile     = "movil"
)

// TransporterParams configures a Transporter.
type TransporterParams struct {
	Mode         string     `yaml:"tipo"`
	Distribution *dist.Spec `yaml:"distribucion"`
	MinGap       float64    `yaml:"t_min_entrada"`
	Capacity     int        `yaml:"capacidad"`
	MaxWait      float64    `yaml:"t_espera_max"`
}

func (l Limit) String() string {
	if l.n <= 0 {
		return "inf"
	}
	return strconv.Itoa(l.n)
}
