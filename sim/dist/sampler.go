// Package dist samples durations from distribution descriptors.
//
// Every duration returned by Sample is floored to Epsilon so simulated time
// always moves forward.
package dist

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

const (
	// Epsilon is the smallest duration Sample ever returns.
	Epsilon = 1e-12
	// minLambda floors the exponential rate.
	minLambda = 1e-8
	// unknownFallback is returned for unrecognized descriptor tags.
	unknownFallback = 1.0
)

// Sampler draws durations from descriptors using its own RNG stream.
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a Sampler. Panics if rng is nil.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		panic("dist.NewSampler: rng must not be nil")
	}
	return &Sampler{rng: rng}
}

// Float64 returns a uniform draw in [0, 1).
func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// Intn returns a uniform draw in [0, n). n must be positive.
func (s *Sampler) Intn(n int) int {
	return s.rng.Intn(n)
}

// Sample returns a strictly positive duration drawn from spec.
// Unknown tags log a warning and return 1.
func (s *Sampler) Sample(spec Spec) float64 {
	if len(spec.Choices) > 0 {
		return s.Sample(spec.Choices[s.rng.Intn(len(spec.Choices))])
	}
	if spec.Type == "" && spec.Value != nil {
		return math.Max(*spec.Value, Epsilon)
	}
	kind := spec.Kind()
	if kind == KindNone || kind == KindUnknown {
		logrus.Warnf("unknown distribution %q, using %v", spec.Type, unknownFallback)
		return unknownFallback
	}
	return s.sampleKind(kind, spec)
}

func (s *Sampler) sampleKind(kind Kind, spec Spec) float64 {
	switch kind {
	case KindFixed:
		return math.Max(spec.param(0.1, "valor", "value"), Epsilon)

	case KindUniform:
		a := spec.param(0, "min", "a")
		b := spec.param(1, "max", "b")
		return math.Max(math.Abs(a+s.rng.Float64()*(b-a)), Epsilon)

	case KindExponential:
		lambda := math.Max(spec.param(1, "lambda", "lam"), minLambda)
		return math.Max(-math.Log(1-s.rng.Float64())/lambda, Epsilon)

	case KindNormal:
		mu := spec.param(0, "mu", "mean")
		sigma := spec.param(1, "sigma", "sd")
		return math.Max(math.Abs(mu+sigma*s.boxMuller()), Epsilon)
	}
	return unknownFallback
}

// boxMuller returns a standard normal draw.
func (s *Sampler) boxMuller() float64 {
	u, v := 0.0, 0.0
	for u == 0 {
		u = s.rng.Float64()
	}
	for v == 0 {
		v = s.rng.Float64()
	}
	return math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)
}
