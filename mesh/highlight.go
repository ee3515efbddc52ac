package mesh

import (
	"github.com/astei/chunkscope/chunk"
	"github.com/willf/bitset"
)

// exploredSet marks the cells of one chunk lying within the highlight radius
// of a trigger block.
type exploredSet struct {
	cells  *bitset.BitSet
	height int
}

func (s *exploredSet) index(x, y, z int) uint {
	return uint((y*chunk.Width+z)*chunk.Width + x)
}

func (s *exploredSet) has(x, y, z int) bool {
	if s == nil || y < 0 || y >= s.height {
		return false
	}
	return s.cells.Test(s.index(x, y, z))
}

// mark sets every cell of the chunk within radius r of the trigger at tx, ty,
// tz. The trigger may lie outside the chunk.
func (s *exploredSet) mark(tx, ty, tz, r int) {
	x0, x1 := clamp(tx-r, chunk.Width), clamp(tx+r, chunk.Width)
	z0, z1 := clamp(tz-r, chunk.Width), clamp(tz+r, chunk.Width)
	y0, y1 := clamp(ty-r, s.height), clamp(ty+r, s.height)
	if tx+r < 0 || tx-r >= chunk.Width || tz+r < 0 || tz-r >= chunk.Width {
		return
	}
	for y := y0; y <= y1; y++ {
		for z := z0; z <= z1; z++ {
			for x := x0; x <= x1; x++ {
				s.cells.Set(s.index(x, y, z))
			}
		}
	}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// explore finds every trigger within reach of c: the chunk itself and a ring
// of width radius around it. Cells in chunks that are not resident are
// skipped.
func (e *Engine) explore(c *chunk.Chunk) *exploredSet {
	h := c.Height()
	s := &exploredSet{cells: bitset.New(uint(chunk.Width * chunk.Width * h)), height: h}
	r := e.radius

	c.Rewind()
	for cell, ok := c.Next(); ok; cell, ok = c.Next() {
		if cell.ID != 0 && e.reg.Type(cell.ID).Highlight {
			s.mark(cell.X, cell.Y, cell.Z, r)
		}
	}
	if e.nb == nil {
		return s
	}
	for x := -r; x < chunk.Width+r; x++ {
		for z := -r; z < chunk.Width+r; z++ {
			if x >= 0 && x < chunk.Width && z >= 0 && z < chunk.Width {
				continue
			}
			for y := 0; y < h; y++ {
				id, _, ok := e.nb.Neighbor(c, x, y, z)
				if ok && id != 0 && e.reg.Type(id).Highlight {
					s.mark(x, y, z, r)
				}
			}
		}
	}
	return s
}
