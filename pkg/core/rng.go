package core

import "math/rand"

// RandomNumberGenerator is the canonical random stream of a render context.
// Every consumer receives it explicitly; there is no package-global stream, so
// seeding a context makes a whole shading task reproducible.
type RandomNumberGenerator struct {
	rand *rand.Rand
}

// NewRandomNumberGenerator creates a generator with the given seed
func NewRandomNumberGenerator(seed int64) *RandomNumberGenerator {
	return &RandomNumberGenerator{rand: rand.New(rand.NewSource(seed))}
}

// Canonical returns the next canonical random variable in [0, 1)
func (r *RandomNumberGenerator) Canonical() float64 {
	return r.rand.Float64()
}

// Intn returns a random integer in [0, n)
func (r *RandomNumberGenerator) Intn(n int) int {
	return r.rand.Intn(n)
}

// BsdfSample holds the two canonical random variables a lobe sampler consumes.
// Values are fixed at construction.
type BsdfSample struct {
	U, V float64
}

// NewBsdfSample draws a sample from the context random stream
func NewBsdfSample(rc *RenderContext) BsdfSample {
	return BsdfSample{U: rc.Rng.Canonical(), V: rc.Rng.Canonical()}
}
