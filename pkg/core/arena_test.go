package core

import "testing"

func TestArenaAllocAndReset(t *testing.T) {
	m := NewMemoryAllocator()

	a := m.Alloc(100)
	if len(a) != 100 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		a[i] = 0xAB
	}

	// subsequent allocations bump within the same block without overlap
	b := m.Alloc(100)
	for i := range b {
		if b[i] != 0 {
			t.Fatal("fresh allocation is not zeroed")
		}
	}
	b[0] = 0xCD
	if a[0] != 0xAB {
		t.Fatal("allocations overlap")
	}

	m.Reset()
	c := m.Alloc(MemBlockSize)
	if len(c) != MemBlockSize {
		t.Fatalf("len = %d after reset", len(c))
	}
}

func TestArenaSpillsToNextBlock(t *testing.T) {
	m := NewMemoryAllocator()
	m.Alloc(MemBlockSize - 8)
	// the remaining slack cannot hold this, so it spills into a new block
	b := m.Alloc(64)
	if len(b) != 64 {
		t.Fatalf("len = %d", len(b))
	}
}

func TestArenaOversizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("allocation beyond one block must panic")
		}
	}()
	NewMemoryAllocator().Alloc(MemBlockSize + 1)
}

func TestArenaFloats(t *testing.T) {
	m := NewMemoryAllocator()
	f := m.AllocFloats(256)
	if len(f) != 256 {
		t.Fatalf("len = %d", len(f))
	}
	for i := range f {
		if f[i] != 0 {
			t.Fatal("fresh float buffer is not zeroed")
		}
		f[i] = float64(i)
	}
	g := m.AllocFloats(256)
	if g[0] != 0 {
		t.Fatal("buffers overlap")
	}

	m.Reset()
	h := m.AllocFloats(16)
	for i := range h {
		if h[i] != 0 {
			t.Fatal("recycled buffer is not zeroed")
		}
	}
}

func TestRenderContextReset(t *testing.T) {
	rc := NewRenderContext(42)
	rc.Arena.Alloc(128)
	if rc.Reset() != rc {
		t.Fatal("reset returns the context")
	}

	// the random stream stays usable and in range
	for i := 0; i < 1000; i++ {
		v := rc.Rng.Canonical()
		if v < 0 || v >= 1 {
			t.Fatalf("canonical value %v out of range", v)
		}
	}
}
