// Package stream keeps a bounded window of decoded chunks around a moving
// observer. Chunks live in a fixed N x N toroidal grid: a coordinate maps to
// slot (coord+offset) mod N on each axis, and a new chunk that lands on an
// occupied slot evicts whatever was there.
//
// Nothing in this package is safe for concurrent use.
package stream

import (
	"github.com/astei/chunkscope/chunk"
	"github.com/astei/chunkscope/metrics"
)

// DefaultSize is the default grid edge, in chunks.
const DefaultSize = 64

// SlotState is the life cycle of one grid slot.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotLoading
	SlotResident
)

func (s SlotState) String() string {
	switch s {
	case SlotLoading:
		return "loading"
	case SlotResident:
		return "resident"
	}
	return "empty"
}

type slot struct {
	state SlotState
	x, z  int
	chunk *chunk.Chunk
}

// Cache is the toroidal chunk grid.
type Cache struct {
	size   int
	offset int
	slots  []slot

	// OnEvict is called with every chunk that leaves the grid, whether it was
	// overwritten, evicted explicitly or dropped by Clear.
	OnEvict func(*chunk.Chunk)
	metrics *metrics.Metrics
}

// NewCache creates an empty size x size grid. Sizes below 1 use DefaultSize.
func NewCache(size int, m *metrics.Metrics) *Cache {
	if size < 1 {
		size = DefaultSize
	}
	return &Cache{
		size: size,
		// Keeps coordinates down to -size<<16 non-negative before the modulus.
		offset:  size << 16,
		slots:   make([]slot, size*size),
		metrics: m,
	}
}

// Size is the grid edge N.
func (c *Cache) Size() int {
	return c.size
}

func (c *Cache) axis(v int) int {
	i := (v + c.offset) % c.size
	if i < 0 {
		i += c.size
	}
	return i
}

// Index returns the grid cell that chunk x, z maps to.
func (c *Cache) Index(x, z int) (ix, iz int) {
	return c.axis(x), c.axis(z)
}

func (c *Cache) slot(x, z int) *slot {
	ix, iz := c.Index(x, z)
	return &c.slots[ix+iz*c.size]
}

// Peek returns the resident chunk at x, z, or nil when the slot is empty,
// still loading or holds another coordinate. It never loads.
func (c *Cache) Peek(x, z int) *chunk.Chunk {
	s := c.slot(x, z)
	if s.state != SlotResident || s.x != x || s.z != z {
		return nil
	}
	return s.chunk
}

// Slot reports the state of the slot x, z maps to, and the coordinate that
// currently occupies it.
func (c *Cache) Slot(x, z int) (state SlotState, ox, oz int) {
	s := c.slot(x, z)
	return s.state, s.x, s.z
}

// Reserve marks the slot for x, z as loading. The previous occupant, if any,
// is evicted.
func (c *Cache) Reserve(x, z int) {
	s := c.slot(x, z)
	c.drop(s)
	s.state, s.x, s.z = SlotLoading, x, z
}

// Put stores ch in its slot and returns the chunk it displaced, if any.
func (c *Cache) Put(ch *chunk.Chunk) *chunk.Chunk {
	s := c.slot(ch.X, ch.Z)
	if s.chunk == ch {
		return nil
	}
	evicted := s.chunk
	c.drop(s)
	s.state, s.x, s.z, s.chunk = SlotResident, ch.X, ch.Z, ch
	c.metrics.Loaded()
	return evicted
}

// Evict empties the slot for x, z if it holds that coordinate.
func (c *Cache) Evict(x, z int) {
	s := c.slot(x, z)
	if s.state != SlotEmpty && s.x == x && s.z == z {
		c.drop(s)
	}
}

func (c *Cache) drop(s *slot) {
	if s.chunk != nil {
		c.metrics.Evicted()
		if c.OnEvict != nil {
			c.OnEvict(s.chunk)
		}
	}
	*s = slot{}
}

// Each calls fn for every resident chunk in grid order.
func (c *Cache) Each(fn func(*chunk.Chunk)) {
	for i := range c.slots {
		if c.slots[i].state == SlotResident {
			fn(c.slots[i].chunk)
		}
	}
}

// Len is the number of resident chunks.
func (c *Cache) Len() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].state == SlotResident {
			n++
		}
	}
	return n
}

// Clear evicts everything.
func (c *Cache) Clear() {
	for i := range c.slots {
		if c.slots[i].chunk != nil && c.OnEvict != nil {
			c.OnEvict(c.slots[i].chunk)
		}
		c.slots[i] = slot{}
	}
	c.metrics.Cleared()
}
