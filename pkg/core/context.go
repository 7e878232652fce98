package core

// RenderContext carries the per-task state shading needs: a memory arena for
// scratch allocations and the random stream. Each integrator task owns exactly
// one context; the shading core never shares mutable state across contexts, so
// tasks run in parallel without synchronization.
type RenderContext struct {
	Arena *MemoryAllocator
	Rng   *RandomNumberGenerator
}

// NewRenderContext initializes a context with the given random seed
func NewRenderContext(seed int64) *RenderContext {
	return &RenderContext{
		Arena: NewMemoryAllocator(),
		Rng:   NewRandomNumberGenerator(seed),
	}
}

// Reset recycles the arena so the context can serve the next task. The random
// stream keeps advancing; reseeding is the scheduler's call.
func (rc *RenderContext) Reset() *RenderContext {
	rc.Arena.Reset()
	return rc
}
