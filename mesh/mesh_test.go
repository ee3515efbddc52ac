package mesh

import (
	"testing"

	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureCell struct {
	x, y, z int
	id      int
	data    int
}

func flatChunk(cx, cz int, cells ...fixtureCell) *chunk.Chunk {
	arr := make([]byte, chunk.FlatCells)
	for _, c := range cells {
		arr[c.y+c.z*chunk.FlatHeight+c.x*chunk.FlatHeight*chunk.Width] = byte(c.id)
	}
	ch := chunk.NewFlat(cx, cz, arr, nil)
	for _, c := range cells {
		ch.SetData(c.x, c.y, c.z, c.data)
	}
	return ch
}

func registry(t *testing.T) *blocks.Registry {
	t.Helper()
	reg, err := blocks.Default()
	require.NoError(t, err)
	return reg
}

type countingSink struct {
	builds int
}

func (s *countingSink) Build(quads []Quad) BatchHandle {
	s.builds++
	return len(quads)
}

// neighborFunc lets tests fake the surroundings of a chunk.
type neighborFunc func(x, y, z int) (int, bool)

func (f neighborFunc) Neighbor(_ *chunk.Chunk, x, y, z int) (id, data int, ok bool) {
	id, ok = f(x, y, z)
	return id, 0, ok
}

func bounds(q Quad) (lo, hi [3]float32) {
	lo = [3]float32{q.Vertices[0].X, q.Vertices[0].Y, q.Vertices[0].Z}
	hi = lo
	for _, v := range q.Vertices[1:] {
		p := [3]float32{v.X, v.Y, v.Z}
		for i := range p {
			if p[i] < lo[i] {
				lo[i] = p[i]
			}
			if p[i] > hi[i] {
				hi[i] = p[i]
			}
		}
	}
	return lo, hi
}

// onPlane counts quads flat on axis at value v.
func onPlane(quads []Quad, axis int, v float32) int {
	n := 0
	for _, q := range quads {
		lo, hi := bounds(q)
		if lo[axis] == v && hi[axis] == v {
			n++
		}
	}
	return n
}

func TestSolidCubeCulling(t *testing.T) {
	var cells []fixtureCell
	for x := 5; x <= 7; x++ {
		for y := 10; y <= 12; y++ {
			for z := 5; z <= 7; z++ {
				cells = append(cells, fixtureCell{x: x, y: y, z: z, id: 1})
			}
		}
	}
	e := NewEngine(registry(t), nil, &countingSink{}, Options{})
	quads := e.Build(flatChunk(0, 0, cells...), 0, chunk.PassSolid)

	require.Len(t, quads, 54)
	for axis, outer := range [3][2]float32{{5, 8}, {10, 13}, {5, 8}} {
		assert.Equal(t, 9, onPlane(quads, axis, outer[0]))
		assert.Equal(t, 9, onPlane(quads, axis, outer[1]))
		// No face between two blocks of the cube, so nothing for the center.
		assert.Zero(t, onPlane(quads, axis, outer[0]+1))
		assert.Zero(t, onPlane(quads, axis, outer[0]+2))
	}
}

func TestSolidFaceShades(t *testing.T) {
	e := NewEngine(registry(t), nil, &countingSink{}, Options{})
	quads := e.Build(flatChunk(0, 0, fixtureCell{x: 3, y: 40, z: 3, id: 1}), 0, chunk.PassSolid)
	require.Len(t, quads, 6)

	shade := func(axis int, v float32) float32 {
		for _, q := range quads {
			lo, hi := bounds(q)
			if lo[axis] == v && hi[axis] == v {
				return q.Color[0]
			}
		}
		return -1
	}
	assert.Equal(t, float32(1.0), shade(1, 41))
	assert.Equal(t, float32(0.5), shade(1, 40))
	assert.Equal(t, float32(0.8), shade(0, 3))
	assert.Equal(t, float32(0.8), shade(0, 4))
	assert.Equal(t, float32(0.6), shade(2, 3))
	assert.Equal(t, float32(0.6), shade(2, 4))
	for _, q := range quads {
		assert.Equal(t, 1, q.Texture)
	}
}

func TestOreHighlightTint(t *testing.T) {
	reg := registry(t)
	e := NewEngine(reg, nil, &countingSink{}, Options{OreHighlight: []int{14}})
	quads := e.Build(flatChunk(0, 0, fixtureCell{x: 3, y: 40, z: 3, id: 14}), 0, chunk.PassSolid)
	require.Len(t, quads, 6)
	for _, q := range quads {
		assert.Equal(t, [3]float32{0xfc / 255.0, 0xee / 255.0, 0x4b / 255.0}, q.Color)
	}
}

func TestChunkBorderUsesNeighbors(t *testing.T) {
	c := flatChunk(0, 0, fixtureCell{x: 15, y: 40, z: 0, id: 1})

	// Unknown neighbors never hide a face.
	e := NewEngine(registry(t), nil, &countingSink{}, Options{})
	assert.Len(t, e.Build(c, 0, chunk.PassSolid), 6)

	stoneEast := neighborFunc(func(x, y, z int) (int, bool) {
		if x == 16 {
			return 1, true
		}
		return 0, true
	})
	e = NewEngine(registry(t), stoneEast, &countingSink{}, Options{})
	quads := e.Build(c, 0, chunk.PassSolid)
	assert.Len(t, quads, 5)
	assert.Zero(t, onPlane(quads, 0, 16))
}

func TestEdgeCubeOnlyHiddenBySameID(t *testing.T) {
	c := flatChunk(0, 0,
		fixtureCell{x: 1, y: 10, z: 1, id: 166},
		fixtureCell{x: 2, y: 10, z: 1, id: 166},
		fixtureCell{x: 1, y: 10, z: 2, id: 1},
	)
	e := NewEngine(registry(t), nil, &countingSink{}, Options{})
	quads := e.Build(c, 0, chunk.PassSolid)
	// Two barriers hide the face they share; the stone hides nothing of the
	// barrier but the barrier, being solid, hides the stone's north face.
	assert.Len(t, quads, 15)
}

func TestGlassAndPlaceholderPasses(t *testing.T) {
	c := flatChunk(0, 0,
		fixtureCell{x: 1, y: 10, z: 1, id: 20},
		fixtureCell{x: 2, y: 10, z: 1, id: 20},
		fixtureCell{x: 8, y: 10, z: 8, id: 250},
	)
	e := NewEngine(registry(t), nil, &countingSink{}, Options{})

	assert.Len(t, e.Build(c, 0, chunk.PassGlass), 10)
	solid := e.Build(c, 0, chunk.PassSolid)
	require.Len(t, solid, 6)
	for _, q := range solid {
		assert.Equal(t, 255, q.Texture)
	}
	assert.Empty(t, e.Build(c, 1, chunk.PassSolid))
}

func TestBatchRebuildsOnlyWhenDirty(t *testing.T) {
	sink := &countingSink{}
	e := NewEngine(registry(t), nil, sink, Options{})
	c := flatChunk(0, 0, fixtureCell{x: 3, y: 40, z: 3, id: 1})

	h := e.Batch(c, 0, chunk.PassSolid)
	assert.Equal(t, 6, h)
	assert.Equal(t, 1, sink.builds)
	assert.False(t, c.IsDirty(0, chunk.PassSolid))

	assert.Equal(t, 6, e.Batch(c, 0, chunk.PassSolid))
	assert.Equal(t, 1, sink.builds)

	c.MarkDirty(chunk.PassSolid)
	e.Batch(c, 0, chunk.PassSolid)
	assert.Equal(t, 2, sink.builds)

	var seen int
	e.Frame(c, func(sheet int, pass chunk.Pass, h BatchHandle) {
		seen++
	})
	assert.Equal(t, 8, seen)
	// Solid on sheet 0 was clean; the other seven were still dirty.
	assert.Equal(t, 9, sink.builds)
	e.Frame(c, func(int, chunk.Pass, BatchHandle) {})
	assert.Equal(t, 9, sink.builds)

	assert.Nil(t, e.Batch(c, 5, chunk.PassSolid))
	assert.Equal(t, 1, e.Cached())
	e.Forget(c)
	assert.Zero(t, e.Cached())
}

func TestExploredHighlight(t *testing.T) {
	reg := registry(t)
	c := flatChunk(0, 0,
		fixtureCell{x: 8, y: 64, z: 8, id: 50, data: 5},
		fixtureCell{x: 8, y: 62, z: 8, id: 1},
		fixtureCell{x: 8, y: 60, z: 8, id: 1},
		fixtureCell{x: 0, y: 30, z: 5, id: 1},
		fixtureCell{x: 2, y: 30, z: 5, id: 1},
	)
	torchWest := neighborFunc(func(x, y, z int) (int, bool) {
		if x == -2 && y == 30 && z == 5 {
			return 50, true
		}
		return 0, true
	})
	e := NewEngine(reg, torchWest, &countingSink{}, Options{ExploredHighlight: true})
	quads := e.Build(c, 0, chunk.PassSolid)
	require.Len(t, quads, 24)

	stride := reg.HighlightStride()
	for _, q := range quads {
		lo, hi := bounds(q)
		switch {
		case lo[1] >= 62:
			assert.Equal(t, 1+stride, q.Texture, "near the torch")
		case lo[1] >= 60:
			assert.Equal(t, 1, q.Texture, "out of reach")
		case hi[0] <= 1:
			assert.Equal(t, 1+stride, q.Texture, "near the torch next door")
		default:
			assert.Equal(t, 1, q.Texture)
		}
	}
}

func TestLiquidFaces(t *testing.T) {
	c := flatChunk(0, 0,
		fixtureCell{x: 5, y: 10, z: 5, id: 9},
		fixtureCell{x: 5, y: 11, z: 5, id: 9},
		fixtureCell{x: 6, y: 10, z: 5, id: 44},
	)
	e := NewEngine(registry(t), nil, &countingSink{}, Options{})
	quads := e.Build(c, 0, chunk.PassGlass)
	require.Len(t, quads, 10)

	var sawSurface, sawShrunk bool
	for _, q := range quads {
		lo, hi := bounds(q)
		if lo[1] == hi[1] && lo[1] == 11+14.0/16 {
			sawSurface = true
		}
		if lo[0] == 6 && hi[0] == 6 && hi[1] == 11 {
			assert.Equal(t, float32(10.5), lo[1])
			sawShrunk = true
		}
		assert.Equal(t, 205, q.Texture)
	}
	assert.True(t, sawSurface)
	assert.True(t, sawShrunk)
	assert.Zero(t, onPlane(quads, 1, 11))
}

func TestTorchUsesDecorationBounds(t *testing.T) {
	c := flatChunk(0, 0, fixtureCell{x: 3, y: 20, z: 3, id: 50, data: 5})
	e := NewEngine(registry(t), nil, &countingSink{}, Options{})
	quads := e.Build(c, 0, chunk.PassNonstandard)
	require.Len(t, quads, 5)
	for _, q := range quads {
		lo, hi := bounds(q)
		assert.GreaterOrEqual(t, lo[0], float32(3+7.0/16))
		assert.LessOrEqual(t, hi[0], float32(3+9.0/16))
		assert.Equal(t, float32(20+10.0/16), hi[1])
		assert.Equal(t, 80, q.Texture)
	}
}

func TestConnectors(t *testing.T) {
	reg := registry(t)
	e := NewEngine(reg, nil, &countingSink{}, Options{})

	lone := flatChunk(0, 0, fixtureCell{x: 4, y: 10, z: 4, id: 101})
	assert.Len(t, e.Build(lone, 0, chunk.PassNonstandard), 30, "no connection draws all four arms")

	joined := flatChunk(0, 0,
		fixtureCell{x: 4, y: 10, z: 4, id: 101},
		fixtureCell{x: 5, y: 10, z: 4, id: 1},
	)
	assert.Len(t, e.Build(joined, 0, chunk.PassNonstandard), 12)

	fence := flatChunk(0, 0,
		fixtureCell{x: 4, y: 10, z: 4, id: 85},
		fixtureCell{x: 4, y: 10, z: 5, id: 85},
	)
	// Two posts, each with a two-bar arm towards the other.
	assert.Len(t, e.Build(fence, 0, chunk.PassNonstandard), 2*6+2*12)

	bent := flatChunk(0, 0,
		fixtureCell{x: 4, y: 10, z: 4, id: 104, data: 7},
		fixtureCell{x: 5, y: 10, z: 4, id: 86},
	)
	quads := e.Build(bent, 0, chunk.PassNonstandard)
	require.Len(t, quads, 1)
	assert.Equal(t, 127, quads[0].Texture)

	growing := flatChunk(0, 0, fixtureCell{x: 4, y: 10, z: 4, id: 104, data: 3})
	quads = e.Build(growing, 0, chunk.PassNonstandard)
	require.Len(t, quads, 2)
	_, hi := bounds(quads[0])
	assert.Equal(t, float32(10.5), hi[1])
	assert.Equal(t, 111, quads[0].Texture)
}

func TestBedHalves(t *testing.T) {
	c := flatChunk(0, 0, fixtureCell{x: 4, y: 10, z: 4, id: 26, data: 8})
	e := NewEngine(registry(t), nil, &countingSink{}, Options{})
	quads := e.Build(c, 0, chunk.PassNonstandard)
	require.Len(t, quads, 5)

	byTexture := map[int]int{}
	for _, q := range quads {
		byTexture[q.Texture]++
	}
	assert.Equal(t, map[int]int{135: 1, 152: 1, 151: 2, 4: 1}, byTexture)
	// The head lies south of the foot, so its north face is the joint.
	assert.Zero(t, onPlane(quads, 2, 4))
}

func TestPaintings(t *testing.T) {
	reg := registry(t)
	c := flatChunk(0, 0)
	c.Paintings = []chunk.Painting{
		{X: 3, Y: 70, Z: 4, Dir: 0, Motive: "Kebab"},
		{X: 3, Y: 70, Z: 6, Dir: 1, Motive: "Fighters"},
		{X: 3, Y: 70, Z: 8, Dir: 2, Motive: "NoSuchPicture"},
	}
	e := NewEngine(reg, nil, &countingSink{}, Options{})

	assert.Empty(t, e.Build(c, 0, chunk.PassNonstandard))
	quads := e.Build(c, reg.PaintingSheet(), chunk.PassNonstandard)
	require.Len(t, quads, 2)
	assert.Equal(t, 0, quads[0].Texture)
	assert.Equal(t, 6*16, quads[1].Texture)

	lo, hi := bounds(quads[0])
	assert.Equal(t, [3]float32{3, 70, 4 + 1.0/16}, lo)
	assert.Equal(t, [3]float32{4, 71, 4 + 1.0/16}, hi)

	m, ok := LookupMotive("minecraft:skull_and_roses")
	require.True(t, ok)
	assert.Equal(t, Motive{128, 128, 32, 32}, m)
}

func TestSelectedPass(t *testing.T) {
	reg := registry(t)
	c := flatChunk(0, 0,
		fixtureCell{x: 1, y: 10, z: 1, id: 1},
		fixtureCell{x: 2, y: 10, z: 1, id: 1},
		fixtureCell{x: 3, y: 10, z: 1, id: 3},
	)
	e := NewEngine(reg, nil, &countingSink{}, Options{})
	assert.Nil(t, e.Build(c, 0, chunk.PassSelected))

	e = NewEngine(reg, nil, &countingSink{}, Options{Selected: []int{1}})
	quads := e.Build(c, 0, chunk.PassSelected)
	assert.Len(t, quads, 12)
	for _, q := range quads {
		assert.Equal(t, [3]float32{1, 1, 1}, q.Color)
	}
}
