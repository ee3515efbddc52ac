package mesh

import (
	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/chunk"
)

var horizontal = [4]blocks.Face{blocks.FaceNorth, blocks.FaceSouth, blocks.FaceWest, blocks.FaceEast}

// arm returns a bar running from the middle of the cell to face f. w0..w1 is
// the bar's extent across the cell, from0 where it leaves the middle.
func arm(f blocks.Face, from0, w0, w1, y0, y1 float32) box {
	switch f {
	case blocks.FaceNorth:
		return box{w0, y0, 0, w1, y1, from0}
	case blocks.FaceSouth:
		return box{w0, y0, 1 - from0, w1, y1, 1}
	case blocks.FaceWest:
		return box{0, y0, w0, from0, y1, w1}
	}
	return box{1 - from0, y0, w0, 1, y1, w1}
}

// connects reports whether a connector joins its neighbor across f. Unknown
// neighbors never connect.
func (e *Engine) connects(c *chunk.Chunk, cell chunk.Cell, bt *blocks.BlockType, kind blocks.ConnectorKind, f blocks.Face) bool {
	id, _, ok := e.across(c, cell, f)
	if !ok || id == 0 {
		return false
	}
	if id == bt.ID {
		return true
	}
	other := e.reg.Type(id)
	if other.Solid {
		return true
	}
	conn, isConn := other.Shape.(blocks.Connector)
	if !isConn {
		return false
	}
	switch kind {
	case blocks.ConnFence:
		return conn.Kind == blocks.ConnFenceGate
	case blocks.ConnPane:
		return conn.Kind == blocks.ConnPane
	}
	return false
}

func (e *Engine) connector(b *builder, c *chunk.Chunk, cell chunk.Cell, bt *blocks.BlockType, s blocks.Connector, data int) {
	tex := bt.Texture
	switch s.Kind {
	case blocks.ConnFence:
		b.boxAll(box{6.0 / 16, 0, 6.0 / 16, 10.0 / 16, 1, 10.0 / 16}, tex)
		for _, f := range horizontal {
			if !e.connects(c, cell, bt, s.Kind, f) {
				continue
			}
			b.boxAll(arm(f, 6.0/16, 7.0/16, 9.0/16, 12.0/16, 15.0/16), tex)
			b.boxAll(arm(f, 6.0/16, 7.0/16, 9.0/16, 6.0/16, 9.0/16), tex)
		}

	case blocks.ConnPane:
		var joined []blocks.Face
		for _, f := range horizontal {
			if e.connects(c, cell, bt, s.Kind, f) {
				joined = append(joined, f)
			}
		}
		if len(joined) == 0 {
			joined = horizontal[:]
		}
		b.boxAll(box{7.0 / 16, 0, 7.0 / 16, 9.0 / 16, 1, 9.0 / 16}, tex)
		for _, f := range joined {
			b.boxAll(arm(f, 7.0/16, 7.0/16, 9.0/16, 0, 1), tex)
		}

	case blocks.ConnVine:
		sides := data & 15
		if sides == 0 {
			sides = 15
		}
		const t = 1.0 / 16
		plates := [4]struct {
			bit  int
			bx   box
			face blocks.Face
		}{
			{1, box{0, 0, 1 - t, 1, 1, 1}, blocks.FaceNorth},
			{2, box{0, 0, 0, t, 1, 1}, blocks.FaceEast},
			{4, box{0, 0, 0, 1, 1, t}, blocks.FaceSouth},
			{8, box{1 - t, 0, 0, 1, 1, 1}, blocks.FaceWest},
		}
		for _, p := range plates {
			if sides&p.bit != 0 {
				b.face(p.bx, p.face, tex)
				b.face(p.bx, p.face.Opposite(), tex)
			}
		}

	case blocks.ConnFenceGate:
		alongX := data&1 == 0
		posts := [2]box{
			{0, 5.0 / 16, 7.0 / 16, 2.0 / 16, 1, 9.0 / 16},
			{14.0 / 16, 5.0 / 16, 7.0 / 16, 1, 1, 9.0 / 16},
		}
		bars := []box{
			{2.0 / 16, 6.0 / 16, 7.0 / 16, 14.0 / 16, 9.0 / 16, 9.0 / 16},
			{2.0 / 16, 12.0 / 16, 7.0 / 16, 14.0 / 16, 15.0 / 16, 9.0 / 16},
		}
		if data&4 != 0 {
			// Open: the bars swing back against the posts.
			bars = []box{
				{0, 6.0 / 16, 9.0 / 16, 2.0 / 16, 15.0 / 16, 15.0 / 16},
				{14.0 / 16, 6.0 / 16, 9.0 / 16, 1, 15.0 / 16, 15.0 / 16},
			}
		}
		for _, bx := range append(posts[:], bars...) {
			if !alongX {
				bx = swapXZ(bx)
			}
			b.boxAll(bx, tex)
		}

	case blocks.ConnStem:
		for _, f := range horizontal {
			id, _, ok := e.across(c, cell, f)
			if ok && e.reg.Type(id).Name == s.Fruit {
				e.bentStem(b, extra(bt, "bent"), f)
				return
			}
		}
		px := (data&7 + 1) * 2
		e.cross(b, tex, blocks.Bounds{Top: 16 - px, Width: 16, Height: px})
	}
}

func swapXZ(bx box) box {
	return box{bx.z0, bx.y0, bx.x0, bx.z1, bx.y1, bx.x1}
}

// bentStem draws a single plane from the middle of the cell towards the fruit.
func (e *Engine) bentStem(b *builder, tex int, f blocks.Face) {
	dx, _, dz := f.Offset()
	x1, z1 := 0.5+float32(dx)/2, 0.5+float32(dz)/2
	b.plane(0.5, 0.5, x1, z1, 0, 10.0/16, tex, blocks.Bounds{Left: 0, Top: 6, Width: 8, Height: 10})
}

// cross draws two diagonal planes covering the given part of the texture cell,
// standing on the floor of the cell.
func (e *Engine) cross(b *builder, tex int, bounds blocks.Bounds) {
	lo := sixteenths(bounds.Left)
	hi := sixteenths(bounds.Left + bounds.Width)
	h := sixteenths(bounds.Height)
	b.plane(lo, lo, hi, hi, 0, h, tex, bounds)
	b.plane(lo, hi, hi, lo, 0, h, tex, bounds)
}

func (e *Engine) billboard(b *builder, bt *blocks.BlockType, kind blocks.BillboardKind, data int) {
	tex := bt.TextureFor(data, blocks.FaceNorth)
	switch kind {
	case blocks.BillboardCross:
		e.cross(b, tex, e.decoration(tex))
	case blocks.BillboardTorch:
		var off [3]float32
		if i := data - 1; i >= 0 && i < 4 {
			off = wallOffsets[i]
		}
		e.stick(b, tex, off)
	case blocks.BillboardFlat:
		// Straight rails running east-west turn their texture.
		b.floor(1.0/16, tex, data == 1)
	}
}

// liquid draws a liquid cell. Faces against the same family are skipped; the
// surface sits lower unless the same liquid lies above; a side against a
// half-height block only covers the part above it.
func (e *Engine) liquid(b *builder, c *chunk.Chunk, cell chunk.Cell, bt *blocks.BlockType, family string) {
	same := func(id int) bool {
		l, ok := e.reg.Type(id).Shape.(blocks.Liquid)
		return ok && l.Family == family
	}
	top := float32(14.0 / 16)
	if id, _, ok := e.across(c, cell, blocks.FaceTop); ok && same(id) {
		top = 1
	}
	for f := blocks.Face(0); f < blocks.NumFaces; f++ {
		id, _, ok := e.across(c, cell, f)
		bx := box{0, 0, 0, 1, top, 1}
		if ok {
			other := e.reg.Type(id)
			if same(id) || other.Solid {
				continue
			}
			if f.Horizontal() && other.Half {
				bx.y0 = 0.5
			}
		}
		b.face(bx, f, bt.TextureFor(0, f))
	}
}
