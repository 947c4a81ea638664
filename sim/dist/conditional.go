package dist

import (
	"fmt"
	"math"
)

// Subject is what a processing-time condition is evaluated against: the first
// element consumed by a job.
type Subject interface {
	ElementType() string
	// Attribute looks up an attribute; dotted paths descend into nested maps.
	Attribute(path string) (any, bool)
}

// SampleProcessing returns a processing duration for a job whose first consumed
// element is first (nil when nothing was consumed).
//
// Conditions are evaluated in order against first; the first match's
// distribution is sampled (a list picks one entry uniformly at random first).
// With no match, or no first element, the default branch is used. A descriptor
// without a recognized type falls back to {min,max} → uniform, bare number → that
// number (both floored to Epsilon), otherwise 0. Callers scheduling on the
// result must floor the 0 case themselves.
func (s *Sampler) SampleProcessing(spec *Spec, first Subject) float64 {
	if spec == nil {
		return 0
	}
	if len(spec.Conditions) > 0 {
		if first != nil {
			for _, cond := range spec.Conditions {
				if cond.ElementType != "" && first.ElementType() != cond.ElementType {
					continue
				}
				attr, _ := first.Attribute(cond.ParamKey)
				if EvalOperator(attr, cond.Operator, cond.Value) {
					chosen := cond.Distribution
					return s.SampleProcessing(&chosen, first)
				}
			}
		}
		if spec.Default != nil {
			return s.SampleProcessing(spec.Default, first)
		}
	}
	if len(spec.Choices) > 0 {
		chosen := spec.Choices[s.rng.Intn(len(spec.Choices))]
		return s.SampleProcessing(&chosen, first)
	}

	switch kind := looseKindOf(spec.Type); kind {
	case KindFixed, KindUniform, KindExponential, KindNormal:
		return s.sampleKind(kind, *spec)
	case KindNone:
		if spec.hasParams("min", "max") {
			a, b := spec.Params["min"], spec.Params["max"]
			return math.Max(math.Abs(a+(b-a)*s.rng.Float64()), Epsilon)
		}
		if spec.hasParams("a", "b") {
			a, b := spec.Params["a"], spec.Params["b"]
			return math.Max(math.Abs(a+(b-a)*s.rng.Float64()), Epsilon)
		}
		if spec.Value != nil {
			return math.Max(*spec.Value, Epsilon)
		}
	}
	return 0
}

// EvalOperator compares an attribute value against a literal.
// Equality is loose: numbers compare numerically, everything else by its
// printed form, so true matches "true". Ordering operators compare numerically
// and are false when either side is not a number.
func EvalOperator(left any, operator string, right any) bool {
	switch operator {
	case "", "=", "==":
		return looseEqual(left, right)
	case "!=", "<>":
		return !looseEqual(left, right)
	case ">", ">=", "<", "<=":
		l, lok := ToFloat(left)
		r, rok := ToFloat(right)
		if !lok || !rok {
			return false
		}
		switch operator {
		case ">":
			return l > r
		case ">=":
			return l >= r
		case "<":
			return l < r
		default:
			return l <= r
		}
	}
	return looseEqual(left, right)
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := ToFloat(a); ok {
		if fb, ok := ToFloat(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
