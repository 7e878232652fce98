package core

// Memory arena configuration. Blocks are fixed size and allocations never
// cross a block boundary; a request larger than one block is a programming
// error.
const (
	MemBlockSize = 32768
	MemAlignSize = 4
)

func memSizeAligned(s int) int {
	return ((s + MemAlignSize - 1) / MemAlignSize) * MemAlignSize
}

type memoryBlock struct {
	data  []byte
	start int
}

type floatBlock struct {
	data  []float64
	start int
}

// MemoryAllocator hands out scratch memory from a pool of fixed-size blocks
// with bump-pointer allocation. Nothing is ever freed individually; Reset
// recycles every consumed block in O(blocks) without touching their contents.
// Allocations are only valid until the owning context is reset, so no long
// lived structure may hold on to them.
type MemoryAllocator struct {
	available []*memoryBlock
	used      []*memoryBlock

	floatAvailable []*floatBlock
	floatUsed      []*floatBlock
}

// NewMemoryAllocator creates an empty allocator; blocks are grabbed lazily
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{}
}

// Alloc returns a zeroed byte slice of the requested size from the pool
func (m *MemoryAllocator) Alloc(size int) []byte {
	if size > MemBlockSize {
		panic("memory allocator: allocation exceeds block size")
	}
	var current *memoryBlock
	if len(m.available) > 0 {
		current = m.available[0]
	}
	if current == nil || current.start+size > MemBlockSize {
		if current != nil {
			m.used = append(m.used, current)
			m.available = m.available[1:]
		}
		if len(m.available) == 0 {
			m.available = append([]*memoryBlock{{data: make([]byte, MemBlockSize)}}, m.available...)
		}
		current = m.available[0]
	}
	ret := current.data[current.start : current.start+size]
	for i := range ret {
		ret[i] = 0
	}
	current.start += memSizeAligned(size)
	return ret
}

// AllocFloats returns a zeroed float64 scratch buffer of length n. The
// Fourier BSDF evaluator draws its per-query coefficient buffers from here so
// that evaluating measured materials stays allocation free on the Go heap.
func (m *MemoryAllocator) AllocFloats(n int) []float64 {
	const floatsPerBlock = MemBlockSize / 8
	if n > floatsPerBlock {
		panic("memory allocator: allocation exceeds block size")
	}
	var current *floatBlock
	if len(m.floatAvailable) > 0 {
		current = m.floatAvailable[0]
	}
	if current == nil || current.start+n > floatsPerBlock {
		if current != nil {
			m.floatUsed = append(m.floatUsed, current)
			m.floatAvailable = m.floatAvailable[1:]
		}
		if len(m.floatAvailable) == 0 {
			m.floatAvailable = append([]*floatBlock{{data: make([]float64, floatsPerBlock)}}, m.floatAvailable...)
		}
		current = m.floatAvailable[0]
	}
	ret := current.data[current.start : current.start+n]
	for i := range ret {
		ret[i] = 0
	}
	current.start += n
	return ret
}

// Reset moves every consumed block back onto the free list. Previously
// returned slices must not be used afterwards.
func (m *MemoryAllocator) Reset() {
	m.available = append(m.available, m.used...)
	m.used = m.used[:0]
	for _, b := range m.available {
		b.start = 0
	}
	m.floatAvailable = append(m.floatAvailable, m.floatUsed...)
	m.floatUsed = m.floatUsed[:0]
	for _, b := range m.floatAvailable {
		b.start = 0
	}
}
