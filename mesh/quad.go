package mesh

import (
	"github.com/astei/chunkscope/blocks"
)

// Vertex is a corner of a quad. Positions are world coordinates in blocks; U
// and V are texel offsets from the top-left corner of the quad's texture cell.
type Vertex struct {
	X, Y, Z float32
	U, V    float32
}

// Quad is one textured face.
type Quad struct {
	Vertices [4]Vertex
	Texture  int
	// Color multiplies the texture: a face shade, or an ore highlight color.
	Color [3]float32
}

// BatchHandle is whatever a Sink returns for a built batch. The engine only
// stores it and hands it back.
type BatchHandle interface{}

// Sink turns a list of quads into something a renderer can replay.
type Sink interface {
	Build(quads []Quad) BatchHandle
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(quads []Quad) BatchHandle

func (f SinkFunc) Build(quads []Quad) BatchHandle {
	return f(quads)
}

// box is an axis-aligned region of a cell, in cell units.
type box struct {
	x0, y0, z0 float32
	x1, y1, z1 float32
}

var unitBox = box{0, 0, 0, 1, 1, 1}

// sixteenths converts texel units to cell units.
func sixteenths(v int) float32 {
	return float32(v) / 16
}

// onBoundary reports whether face f of bx lies on the face of the cell.
func (bx box) onBoundary(f blocks.Face) bool {
	switch f {
	case blocks.FaceTop:
		return bx.y1 == 1
	case blocks.FaceBottom:
		return bx.y0 == 0
	case blocks.FaceNorth:
		return bx.z0 == 0
	case blocks.FaceSouth:
		return bx.z1 == 1
	case blocks.FaceWest:
		return bx.x0 == 0
	case blocks.FaceEast:
		return bx.x1 == 1
	}
	return false
}

func (bx box) shift(dx, dy, dz float32) box {
	return box{bx.x0 + dx, bx.y0 + dy, bx.z0 + dz, bx.x1 + dx, bx.y1 + dy, bx.z1 + dz}
}

var faceShades = [blocks.NumFaces]float32{
	blocks.FaceTop:    1.0,
	blocks.FaceBottom: 0.5,
	blocks.FaceNorth:  0.6,
	blocks.FaceSouth:  0.6,
	blocks.FaceWest:   0.8,
	blocks.FaceEast:   0.8,
}

// builder collects the quads of one batch. The origin, color and texture
// offset are set per block.
type builder struct {
	quads []Quad

	ox, oy, oz float32
	// fixed, when set, replaces the per-face shade.
	fixed  *[3]float32
	offset int
}

func (b *builder) at(x, y, z int) {
	b.ox, b.oy, b.oz = float32(x), float32(y), float32(z)
}

func (b *builder) emit(v [4]Vertex, tex int, shade float32) {
	for i := range v {
		v[i].X += b.ox
		v[i].Y += b.oy
		v[i].Z += b.oz
	}
	q := Quad{Vertices: v, Texture: tex + b.offset, Color: [3]float32{shade, shade, shade}}
	if b.fixed != nil {
		q.Color = *b.fixed
	}
	b.quads = append(b.quads, q)
}

// face emits face f of bx, mapping the texture the way a cube would so that
// partial boxes show the matching part of the cell.
func (b *builder) face(bx box, f blocks.Face, tex int) {
	x0, y0, z0, x1, y1, z1 := bx.x0, bx.y0, bx.z0, bx.x1, bx.y1, bx.z1
	var v [4]Vertex
	switch f {
	case blocks.FaceTop:
		v = [4]Vertex{
			{x0, y1, z0, x0 * 16, z0 * 16},
			{x0, y1, z1, x0 * 16, z1 * 16},
			{x1, y1, z1, x1 * 16, z1 * 16},
			{x1, y1, z0, x1 * 16, z0 * 16},
		}
	case blocks.FaceBottom:
		v = [4]Vertex{
			{x0, y0, z1, x0 * 16, z1 * 16},
			{x0, y0, z0, x0 * 16, z0 * 16},
			{x1, y0, z0, x1 * 16, z0 * 16},
			{x1, y0, z1, x1 * 16, z1 * 16},
		}
	case blocks.FaceNorth:
		v = [4]Vertex{
			{x1, y1, z0, (1 - x1) * 16, (1 - y1) * 16},
			{x1, y0, z0, (1 - x1) * 16, (1 - y0) * 16},
			{x0, y0, z0, (1 - x0) * 16, (1 - y0) * 16},
			{x0, y1, z0, (1 - x0) * 16, (1 - y1) * 16},
		}
	case blocks.FaceSouth:
		v = [4]Vertex{
			{x0, y1, z1, x0 * 16, (1 - y1) * 16},
			{x0, y0, z1, x0 * 16, (1 - y0) * 16},
			{x1, y0, z1, x1 * 16, (1 - y0) * 16},
			{x1, y1, z1, x1 * 16, (1 - y1) * 16},
		}
	case blocks.FaceWest:
		v = [4]Vertex{
			{x0, y1, z0, z0 * 16, (1 - y1) * 16},
			{x0, y0, z0, z0 * 16, (1 - y0) * 16},
			{x0, y0, z1, z1 * 16, (1 - y0) * 16},
			{x0, y1, z1, z1 * 16, (1 - y1) * 16},
		}
	case blocks.FaceEast:
		v = [4]Vertex{
			{x1, y1, z1, (1 - z1) * 16, (1 - y1) * 16},
			{x1, y0, z1, (1 - z1) * 16, (1 - y0) * 16},
			{x1, y0, z0, (1 - z0) * 16, (1 - y0) * 16},
			{x1, y1, z0, (1 - z0) * 16, (1 - y1) * 16},
		}
	default:
		return
	}
	b.emit(v, tex, faceShades[f])
}

// plane emits a vertical quad from (x0, z0) to (x1, z1) spanning y0..y1,
// textured with the given texel rectangle.
func (b *builder) plane(x0, z0, x1, z1, y0, y1 float32, tex int, uv blocks.Bounds) {
	u0, v0 := float32(uv.Left), float32(uv.Top)
	u1, v1 := u0+float32(uv.Width), v0+float32(uv.Height)
	b.emit([4]Vertex{
		{x0, y1, z0, u0, v0},
		{x0, y0, z0, u0, v1},
		{x1, y0, z1, u1, v1},
		{x1, y1, z1, u1, v0},
	}, tex, 1)
}

// floor emits a horizontal quad covering the cell at height y. Rotated swaps
// the texture axes.
func (b *builder) floor(y float32, tex int, rotated bool) {
	v := [4]Vertex{
		{0, y, 0, 0, 0},
		{0, y, 1, 0, 16},
		{1, y, 1, 16, 16},
		{1, y, 0, 16, 0},
	}
	if rotated {
		for i := range v {
			v[i].U, v[i].V = v[i].V, v[i].U
		}
	}
	b.emit(v, tex, 1)
}
