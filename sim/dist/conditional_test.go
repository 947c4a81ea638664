package dist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type subject struct {
	typ   string
	attrs map[string]any
}

func (s subject) ElementType() string { return s.typ }

func (s subject) Attribute(path string) (any, bool) {
	var cur any = s.attrs
	for _, p := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func conditionalSpec() *Spec {
	def := Fixed(4)
	return &Spec{
		Conditions: []Condition{
			{ElementType: "box", ParamKey: "size.w", Operator: ">", Value: 10, Distribution: Fixed(9)},
			{ParamKey: "limpio", Operator: "=", Value: "true", Distribution: Fixed(2)},
		},
		Default: &def,
	}
}

func TestSampleProcessing_FirstMatchingConditionWins(t *testing.T) {
	// GIVEN a box whose nested width exceeds the threshold and which is also clean
	first := subject{typ: "box", attrs: map[string]any{"size": map[string]any{"w": 12}, "limpio": true}}

	// WHEN a processing time is sampled
	got := newTestSampler(1).SampleProcessing(conditionalSpec(), first)

	// THEN the first condition's distribution is used
	assert.Equal(t, 9.0, got)
}

func TestSampleProcessing_TypeMismatchSkipsCondition(t *testing.T) {
	first := subject{typ: "bottle", attrs: map[string]any{"size": map[string]any{"w": 12}, "limpio": true}}
	assert.Equal(t, 2.0, newTestSampler(1).SampleProcessing(conditionalSpec(), first))
}

func TestSampleProcessing_NoMatch_UsesDefault(t *testing.T) {
	first := subject{typ: "bottle", attrs: map[string]any{"limpio": false}}
	assert.Equal(t, 4.0, newTestSampler(1).SampleProcessing(conditionalSpec(), first))
}

func TestSampleProcessing_NoConsumedElements_UsesDefault(t *testing.T) {
	assert.Equal(t, 4.0, newTestSampler(1).SampleProcessing(conditionalSpec(), nil))
}

func TestSampleProcessing_ListDistribution_PicksOneEntry(t *testing.T) {
	spec := &Spec{Conditions: []Condition{{
		ParamKey:     "k",
		Operator:     "=",
		Value:        1,
		Distribution: Spec{Choices: []Spec{Fixed(1), Fixed(2)}},
	}}}
	first := subject{typ: "x", attrs: map[string]any{"k": 1}}
	s := newTestSampler(5)
	seen := map[float64]bool{}
	for i := 0; i < 200; i++ {
		seen[s.SampleProcessing(spec, first)] = true
	}
	assert.True(t, seen[1] && seen[2], "expected both list entries to be chosen, got %v", seen)
	assert.Len(t, seen, 2)
}

func TestSampleProcessing_UntypedFallbacks(t *testing.T) {
	s := newTestSampler(1)
	five := 5.0

	// bare number → that number
	assert.Equal(t, 5.0, s.SampleProcessing(&Spec{Value: &five}, nil))

	// {min,max} → uniform
	got := s.SampleProcessing(&Spec{Params: map[string]float64{"min": 1, "max": 2}}, nil)
	assert.True(t, got >= 1 && got < 2, "uniform fallback %v outside [1,2)", got)

	// untyped values never go below Epsilon
	zero := 0.0
	assert.Equal(t, Epsilon, s.SampleProcessing(&Spec{Value: &zero}, nil))
	got = s.SampleProcessing(&Spec{Params: map[string]float64{"min": -4, "max": -2}}, nil)
	assert.True(t, got > 2 && got <= 4, "negative uniform fallback %v not folded to [2,4]", got)

	// nothing recognizable → 0
	assert.Equal(t, 0.0, s.SampleProcessing(&Spec{Params: map[string]float64{"foo": 1}}, nil))
	assert.Equal(t, 0.0, s.SampleProcessing(nil, nil))
}

func TestSampleProcessing_LooseTypeTags(t *testing.T) {
	s := newTestSampler(1)
	assert.Equal(t, 3.0, s.SampleProcessing(&Spec{Type: "Fijo", Params: map[string]float64{"valor": 3}}, nil))
	got := s.SampleProcessing(&Spec{Type: "Uniforme continua", Params: map[string]float64{"a": 1, "b": 2}}, nil)
	assert.True(t, got >= 1 && got < 2)
}

func TestEvalOperator(t *testing.T) {
	tests := []struct {
		left  any
		op    string
		right any
		want  bool
	}{
		{true, "=", "true", true},
		{"red", "==", "red", true},
		{3, "=", "3", true},
		{3, "!=", 4, true},
		{"a", "<>", "a", false},
		{5, ">", 3, true},
		{5, ">=", 5, true},
		{2, "<", "3", true},
		{3, "<=", 2, false},
		{"abc", ">", 1, false},
		{nil, "=", "x", false},
		{"x", "~", "x", true},
	}
	for _, tt := range tests {
		if got := EvalOperator(tt.left, tt.op, tt.right); got != tt.want {
			t.Errorf("EvalOperator(%v, %q, %v) = %v, want %v", tt.left, tt.op, tt.right, got, tt.want)
		}
	}
}
