package neat

import "math/rand"

// RandomSource is the uniform generator every stochastic operator draws from.
type RandomSource interface {
	// Int returns a uniformly distributed integer in [min, max].
	Int(min, max int) int
	// Float returns a uniformly distributed float in [min, max).
	Float(min, max float64) float64
}

type mathRandSource struct {
	r *rand.Rand
}

// NewRandomSource returns a RandomSource backed by math/rand seeded with seed.
func NewRandomSource(seed int64) RandomSource {
	return &mathRandSource{r: rand.New(rand.NewSource(seed))}
}

func (s *mathRandSource) Int(min, max int) int {
	if max <= min {
		return min
	}
	return s.r.Intn(max-min+1) + min
}

func (s *mathRandSource) Float(min, max float64) float64 {
	return s.r.Float64()*(max-min) + min
}

// chance runs a Bernoulli trial with success probability p.
func chance(rng RandomSource, p float64) bool {
	return rng.Float(0, 1) < p
}
