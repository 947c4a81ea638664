package dist

import (
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func newTestSampler(seed int64) *Sampler {
	return NewSampler(rand.New(rand.NewSource(seed)))
}

func TestSampler_AllKinds_StrictlyPositiveOver10000Draws(t *testing.T) {
	// GIVEN one descriptor of every kind, including degenerate parameters
	specs := map[string]Spec{
		"fixed-zero":        Fixed(0),
		"fixed-negative":    Fixed(-3),
		"uniform-zero":      Uniform(0, 0),
		"uniform-negative":  Uniform(-5, -1),
		"exponential":       Exponential(2),
		"exponential-zero":  Exponential(0),
		"normal-centered":   Normal(0, 1),
		"normal-degenerate": Normal(0, 0),
	}
	s := newTestSampler(7)

	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			// WHEN sampled 10,000 times
			for i := 0; i < 10000; i++ {
				// THEN every draw is > 0
				if got := s.Sample(spec); !(got > 0) {
					t.Fatalf("draw %d: got %v, want > 0", i, got)
				}
			}
		})
	}
}

func TestSampler_Positivity_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("uniform draws are positive for any bounds", prop.ForAll(
		func(seed int64, a, b float64) bool {
			return newTestSampler(seed).Sample(Uniform(a, b)) > 0
		},
		gen.Int64(),
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("normal draws are positive for any parameters", prop.ForAll(
		func(seed int64, mu, sigma float64) bool {
			return newTestSampler(seed).Sample(Normal(mu, sigma)) > 0
		},
		gen.Int64(),
		gen.Float64Range(-1e3, 1e3),
		gen.Float64Range(0, 1e3),
	))

	properties.Property("exponential draws are positive for any rate", prop.ForAll(
		func(seed int64, lambda float64) bool {
			return newTestSampler(seed).Sample(Exponential(lambda)) > 0
		},
		gen.Int64(),
		gen.Float64Range(-10, 1e4),
	))

	properties.Property("fixed draws are positive for any value", prop.ForAll(
		func(v float64) bool {
			return newTestSampler(1).Sample(Fixed(v)) > 0
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}

func TestSampler_Fixed_ReturnsValue(t *testing.T) {
	s := newTestSampler(1)
	assert.Equal(t, 2.5, s.Sample(Fixed(2.5)))
	assert.Equal(t, Epsilon, s.Sample(Fixed(0)))
}

func TestSampler_Fixed_MissingValue_DefaultsToTenth(t *testing.T) {
	s := newTestSampler(1)
	assert.Equal(t, 0.1, s.Sample(Spec{Type: "Fija"}))
}

func TestSampler_Uniform_WithinBounds(t *testing.T) {
	s := newTestSampler(3)
	for i := 0; i < 1000; i++ {
		got := s.Sample(Uniform(2, 4))
		if got < 2 || got >= 4 {
			t.Fatalf("uniform draw %v outside [2,4)", got)
		}
	}
}

func TestSampler_Exponential_MeanApproximatesInverseRate(t *testing.T) {
	s := newTestSampler(11)
	const n = 20000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += s.Sample(Exponential(4))
	}
	mean := sum / n
	if math.Abs(mean-0.25) > 0.02 {
		t.Errorf("exponential mean %v, want ~0.25", mean)
	}
}

func TestSampler_UnknownTag_ReturnsOne(t *testing.T) {
	s := newTestSampler(1)
	assert.Equal(t, 1.0, s.Sample(Spec{Type: "weibull"}))
	assert.Equal(t, 1.0, s.Sample(Spec{}))
}

func TestSampler_SameSeed_SameSequence(t *testing.T) {
	a, b := newTestSampler(42), newTestSampler(42)
	for i := 0; i < 100; i++ {
		if a.Sample(Normal(5, 2)) != b.Sample(Normal(5, 2)) {
			t.Fatalf("draw %d diverged for identical seeds", i)
		}
	}
}

func TestKindOf_Aliases(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"Fija", KindFixed},
		{"fijo", KindFixed},
		{"fixed", KindFixed},
		{"Uniforme", KindUniform},
		{"uniform", KindUniform},
		{"Exponencial", KindExponential},
		{"normal", KindNormal},
		{"", KindNone},
		{"gamma", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.tag))
		})
	}
}
