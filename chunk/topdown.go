package chunk

// NetherFillerID stands in for columns under the nether ceiling where no
// opening was found, so the map shows rock instead of a hole.
const NetherFillerID = 87

// TopBlocks samples the chunk from above: one block id per column, indexed
// z*16+x, naming the highest non-air cell (0 for an empty column).
//
// In the nether the ceiling is always solid, so the sample skips it: the first
// non-air cell below the first air cell is taken. A column that is solid under
// the ceiling without such a transition reports NetherFillerID.
func (c *Chunk) TopBlocks(nether bool) [Width * Width]int {
	var out [Width * Width]int
	top := c.MaxHeight()
	for z := 0; z < Width; z++ {
		for x := 0; x < Width; x++ {
			if nether {
				out[z*Width+x] = c.netherColumn(x, z, top)
			} else {
				out[z*Width+x] = c.column(x, z, top)
			}
		}
	}
	return out
}

func (c *Chunk) column(x, z, top int) int {
	for y := top; y >= 0; y-- {
		if id := c.store.block(x, y, z); id != 0 {
			return id
		}
	}
	return 0
}

func (c *Chunk) netherColumn(x, z, top int) int {
	sawAir, sawSolid := false, false
	for y := top; y >= 0; y-- {
		id := c.store.block(x, y, z)
		switch {
		case id == 0:
			sawAir = true
		case sawAir:
			return id
		default:
			sawSolid = true
		}
	}
	if sawSolid {
		return NetherFillerID
	}
	return 0
}
