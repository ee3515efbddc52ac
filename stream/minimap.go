package stream

import (
	"github.com/astei/chunkscope/chunk"
)

// DefaultTrimThreshold is the net movement, in chunks, between minimap trims.
const DefaultTrimThreshold = 32

// ColumnKey addresses one chunk column of the minimap.
type ColumnKey struct {
	X, Z int
}

// Minimap accumulates top-down samples of every chunk loaded so far. Net
// observer movement is tracked per axis; each time it crosses the threshold
// the strip of columns farthest behind the observer is dropped.
type Minimap struct {
	threshold  int
	nether     bool
	columns    map[ColumnKey]*[chunk.Width * chunk.Width]int
	netX, netZ int
}

func NewMinimap(threshold int, nether bool) *Minimap {
	if threshold < 1 {
		threshold = DefaultTrimThreshold
	}
	return &Minimap{
		threshold: threshold,
		nether:    nether,
		columns:   make(map[ColumnKey]*[chunk.Width * chunk.Width]int),
	}
}

// Add samples c. A column already present is replaced.
func (m *Minimap) Add(c *chunk.Chunk) {
	top := c.TopBlocks(m.nether)
	m.columns[ColumnKey{c.X, c.Z}] = &top
}

// Column returns the sample for chunk x, z, indexed z*16+x.
func (m *Minimap) Column(x, z int) ([chunk.Width * chunk.Width]int, bool) {
	top, ok := m.columns[ColumnKey{x, z}]
	if !ok {
		return [chunk.Width * chunk.Width]int{}, false
	}
	return *top, true
}

func (m *Minimap) Len() int {
	return len(m.columns)
}

// Each calls fn for every sampled column, in no particular order.
func (m *Minimap) Each(fn func(key ColumnKey, top *[chunk.Width * chunk.Width]int)) {
	for k, top := range m.columns {
		fn(k, top)
	}
}

// Bounds returns the smallest rectangle holding every sampled column.
func (m *Minimap) Bounds() (lo, hi ColumnKey, ok bool) {
	for k := range m.columns {
		if !ok {
			lo, hi, ok = k, k, true
			continue
		}
		if k.X < lo.X {
			lo.X = k.X
		}
		if k.Z < lo.Z {
			lo.Z = k.Z
		}
		if k.X > hi.X {
			hi.X = k.X
		}
		if k.Z > hi.Z {
			hi.Z = k.Z
		}
	}
	return lo, hi, ok
}

// Moved records observer movement and trims once the net movement on an axis
// reaches the threshold. It returns the number of columns dropped.
func (m *Minimap) Moved(dx, dz int) int {
	m.netX += dx
	m.netZ += dz
	dropped := 0
	for m.netX >= m.threshold {
		m.netX -= m.threshold
		dropped += m.trim(func(lo, hi, k ColumnKey) bool { return k.X < lo.X+m.threshold })
	}
	for m.netX <= -m.threshold {
		m.netX += m.threshold
		dropped += m.trim(func(lo, hi, k ColumnKey) bool { return k.X > hi.X-m.threshold })
	}
	for m.netZ >= m.threshold {
		m.netZ -= m.threshold
		dropped += m.trim(func(lo, hi, k ColumnKey) bool { return k.Z < lo.Z+m.threshold })
	}
	for m.netZ <= -m.threshold {
		m.netZ += m.threshold
		dropped += m.trim(func(lo, hi, k ColumnKey) bool { return k.Z > hi.Z-m.threshold })
	}
	return dropped
}

func (m *Minimap) trim(far func(lo, hi, k ColumnKey) bool) int {
	lo, hi, ok := m.Bounds()
	if !ok {
		return 0
	}
	n := 0
	for k := range m.columns {
		if far(lo, hi, k) {
			delete(m.columns, k)
			n++
		}
	}
	return n
}
