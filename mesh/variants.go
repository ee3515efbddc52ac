package mesh

import (
	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/chunk"
)

// variant emits the geometry of one non-solid-pass block.
func (e *Engine) variant(b *builder, c *chunk.Chunk, cell chunk.Cell, bt *blocks.BlockType) {
	data := c.Data(cell.X, cell.Y, cell.Z)
	switch s := bt.Shape.(type) {
	case blocks.Cube, blocks.Placeholder:
		for f := blocks.Face(0); f < blocks.NumFaces; f++ {
			if !e.hidden(c, cell, bt, f) {
				b.face(unitBox, f, bt.TextureFor(data, f))
			}
		}
	case blocks.Rotated:
		e.rotated(b, c, cell, bt, s.Kind, data)
	case blocks.Connector:
		e.connector(b, c, cell, bt, s, data)
	case blocks.Billboard:
		e.billboard(b, bt, s.Kind, data)
	case blocks.Liquid:
		e.liquid(b, c, cell, bt, s.Family)
	}
}

// boxCulled emits the faces of bx, skipping those on the cell boundary that
// face an opaque neighbor.
func (e *Engine) boxCulled(b *builder, c *chunk.Chunk, cell chunk.Cell, bx box, tex func(blocks.Face) int) {
	for f := blocks.Face(0); f < blocks.NumFaces; f++ {
		if bx.onBoundary(f) && e.solidAcross(c, cell, f) {
			continue
		}
		b.face(bx, f, tex(f))
	}
}

func (b *builder) boxAll(bx box, tex int) {
	for f := blocks.Face(0); f < blocks.NumFaces; f++ {
		b.face(bx, f, tex)
	}
}

func extra(bt *blocks.BlockType, name string) int {
	if tex, ok := bt.Extra[name]; ok {
		return tex
	}
	return bt.Texture
}

var (
	// Upper step of a stair, by ascending direction east, west, south,
	// north.
	stairSteps = [4]box{
		{0.5, 0, 0, 1, 1, 1},
		{0, 0, 0, 0.5, 1, 1},
		{0, 0, 0.5, 1, 1, 1},
		{0, 0, 0, 1, 1, 0.5},
	}
	// Direction from foot to head of a bed.
	bedDirections = [4]blocks.Face{blocks.FaceSouth, blocks.FaceWest, blocks.FaceNorth, blocks.FaceEast}
	// A thin plate against each side: west, north, east, south.
	doorPlates = [4]box{
		{0, 0, 0, 3.0 / 16, 1, 1},
		{0, 0, 0, 1, 1, 3.0 / 16},
		{13.0 / 16, 0, 0, 1, 1, 1},
		{0, 0, 13.0 / 16, 1, 1, 1},
	}
	trapdoorOpen = [4]box{
		{0, 0, 13.0 / 16, 1, 1, 1},
		{0, 0, 0, 1, 1, 3.0 / 16},
		{13.0 / 16, 0, 0, 1, 1, 1},
		{0, 0, 0, 3.0 / 16, 1, 1},
	}
	// Wall sign boards for data 2..5.
	wallSigns = [4]box{
		{0, 0.25, 14.0 / 16, 1, 0.75, 1},
		{0, 0.25, 0, 1, 0.75, 2.0 / 16},
		{14.0 / 16, 0.25, 0, 1, 0.75, 1},
		{0, 0.25, 0, 2.0 / 16, 0.75, 1},
	}
	pistonFacings = [6]blocks.Face{
		blocks.FaceBottom, blocks.FaceTop, blocks.FaceNorth,
		blocks.FaceSouth, blocks.FaceWest, blocks.FaceEast,
	}
	// Lever bases for data 1..4, then the floor base.
	leverBases = [5]box{
		{0, 5.0 / 16, 4.0 / 16, 3.0 / 16, 11.0 / 16, 12.0 / 16},
		{13.0 / 16, 5.0 / 16, 4.0 / 16, 1, 11.0 / 16, 12.0 / 16},
		{4.0 / 16, 5.0 / 16, 0, 12.0 / 16, 11.0 / 16, 3.0 / 16},
		{4.0 / 16, 5.0 / 16, 13.0 / 16, 12.0 / 16, 11.0 / 16, 1},
		{5.0 / 16, 0, 4.0 / 16, 11.0 / 16, 3.0 / 16, 12.0 / 16},
	}
	// Offsets of wall-mounted torches and lever handles for data 1..4.
	wallOffsets = [4][3]float32{
		{-5.0 / 16, 3.0 / 16, 0},
		{5.0 / 16, 3.0 / 16, 0},
		{0, 3.0 / 16, -5.0 / 16},
		{0, 3.0 / 16, 5.0 / 16},
	}
)

func (e *Engine) rotated(b *builder, c *chunk.Chunk, cell chunk.Cell, bt *blocks.BlockType, kind blocks.RotatedKind, data int) {
	texFor := func(f blocks.Face) int { return bt.TextureFor(data, f) }
	switch kind {
	case blocks.RotStairs:
		base := box{0, 0, 0, 1, 0.5, 1}
		step := stairSteps[data&3]
		step.y0 = 0.5
		if data&4 != 0 {
			base.y0, base.y1 = 0.5, 1
			step.y0, step.y1 = 0, 0.5
		}
		e.boxCulled(b, c, cell, base, texFor)
		e.boxCulled(b, c, cell, step, texFor)

	case blocks.RotSlab:
		bx := box{0, 0, 0, 1, 0.5, 1}
		if data&8 != 0 {
			bx.y0, bx.y1 = 0.5, 1
		}
		e.boxCulled(b, c, cell, bx, texFor)

	case blocks.RotBed:
		toHead := bedDirections[data&3]
		part := "foot"
		end, join := toHead.Opposite(), toHead
		if data&8 != 0 {
			part = "head"
			end, join = toHead, toHead.Opposite()
		}
		bx := box{0, 0, 0, 1, 9.0 / 16, 1}
		for f := blocks.Face(0); f < blocks.NumFaces; f++ {
			// The face between the two halves is never visible.
			if f == join || (bx.onBoundary(f) && e.solidAcross(c, cell, f)) {
				continue
			}
			tex := bt.Texture
			switch {
			case f == blocks.FaceTop:
				tex = extra(bt, part+"_top")
			case f == end:
				tex = extra(bt, part+"_end")
			case f.Horizontal():
				tex = extra(bt, part+"_side")
			}
			b.face(bx, f, tex)
		}

	case blocks.RotDoor:
		side := data & 3
		if data&4 != 0 {
			side = (side + 1) & 3
		}
		tex := extra(bt, "bottom")
		if data&8 != 0 {
			tex = extra(bt, "top")
		}
		e.boxCulled(b, c, cell, doorPlates[side], func(blocks.Face) int { return tex })

	case blocks.RotTrapdoor:
		bx := box{0, 0, 0, 1, 3.0 / 16, 1}
		if data&4 != 0 {
			bx = trapdoorOpen[data&3]
		}
		e.boxCulled(b, c, cell, bx, texFor)

	case blocks.RotSign:
		b.boxAll(box{7.0 / 16, 0, 7.0 / 16, 9.0 / 16, 0.5, 9.0 / 16}, bt.Texture)
		board := box{0, 0.5, 7.0 / 16, 1, 1, 9.0 / 16}
		if ((data&15+2)/4)%2 == 1 {
			board = box{7.0 / 16, 0.5, 0, 9.0 / 16, 1, 1}
		}
		b.boxAll(board, bt.Texture)

	case blocks.RotWallSign:
		i := data - 2
		if i < 0 || i > 3 {
			i = 0
		}
		b.boxAll(wallSigns[i], bt.Texture)

	case blocks.RotPiston:
		facing := blocks.FaceTop
		if i := data & 7; i < len(pistonFacings) {
			facing = pistonFacings[i]
		}
		bx := unitBox
		extended := data&8 != 0
		if extended {
			bx = shorten(bx, facing, 4.0/16)
		}
		e.boxCulled(b, c, cell, bx, func(f blocks.Face) int {
			switch f {
			case facing:
				if extended {
					return bt.Texture
				}
				return extra(bt, "front")
			case facing.Opposite():
				return extra(bt, "back")
			}
			return extra(bt, "side")
		})

	case blocks.RotLever:
		i := data&7 - 1
		if i < 0 || i > 3 {
			i = 4
		}
		b.boxAll(leverBases[i], extra(bt, "base"))
		var off [3]float32
		if i < 4 {
			off = wallOffsets[i]
		}
		e.stick(b, bt.Texture, off)

	case blocks.RotButton:
		depth := float32(2.0 / 16)
		if data&8 != 0 {
			depth = 1.0 / 16
		}
		lo, hi := float32(5.0/16), float32(11.0/16)
		y0, y1 := float32(6.0/16), float32(10.0/16)
		var bx box
		switch data & 7 {
		case 1:
			bx = box{0, y0, lo, depth, y1, hi}
		case 2:
			bx = box{1 - depth, y0, lo, 1, y1, hi}
		case 3:
			bx = box{lo, y0, 0, hi, y1, depth}
		default:
			bx = box{lo, y0, 1 - depth, hi, y1, 1}
		}
		b.boxAll(bx, bt.Texture)
	}
}

// shorten pulls face f of bx in by d.
func shorten(bx box, f blocks.Face, d float32) box {
	switch f {
	case blocks.FaceTop:
		bx.y1 -= d
	case blocks.FaceBottom:
		bx.y0 += d
	case blocks.FaceNorth:
		bx.z0 += d
	case blocks.FaceSouth:
		bx.z1 -= d
	case blocks.FaceWest:
		bx.x0 += d
	case blocks.FaceEast:
		bx.x1 -= d
	}
	return bx
}

// stick draws a torch-like post sized from the decoration bounds of tex.
func (e *Engine) stick(b *builder, tex int, off [3]float32) {
	bounds := e.decoration(tex)
	x0, x1 := sixteenths(bounds.Left), sixteenths(bounds.Left+bounds.Width)
	h := sixteenths(bounds.Height)
	bx := box{x0, 0, x0, x1, h, x1}.shift(off[0], off[1], off[2])
	for _, f := range []blocks.Face{blocks.FaceTop, blocks.FaceNorth, blocks.FaceSouth, blocks.FaceWest, blocks.FaceEast} {
		b.face(bx, f, tex)
	}
}
