// Package mesh turns resident chunks into textured quad batches. Batches are
// kept per chunk, texture sheet and pass, and rebuilt from scratch only when
// the chunk flags them dirty.
package mesh

import (
	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/chunk"
	"github.com/astei/chunkscope/metrics"
)

// DefaultHighlightRadius is the reach of a highlight trigger, in cells, along
// every axis.
const DefaultHighlightRadius = 3

// Neighbors answers lookups that leave a chunk. Positions are relative to c's
// origin. It must not load chunks; ok is false when the cell is unknown.
type Neighbors interface {
	Neighbor(c *chunk.Chunk, x, y, z int) (id, data int, ok bool)
}

type Options struct {
	// ExploredHighlight shifts the textures of blocks near highlight
	// triggers into the second texture bank.
	ExploredHighlight bool
	HighlightRadius   int
	// OreHighlight lists ids whose solid faces are tinted with the block
	// color instead of the face shade.
	OreHighlight []int
	// Selected lists ids drawn again, unculled, in the selected pass.
	Selected []int
	Metrics  *metrics.Metrics
}

type chunkBatches struct {
	handles [chunk.MaxSheets][chunk.NumPasses]BatchHandle
	built   [chunk.MaxSheets][chunk.NumPasses]bool
}

// Engine builds and caches batches. It is not safe for concurrent use.
type Engine struct {
	reg  *blocks.Registry
	nb   Neighbors
	sink Sink

	explored bool
	radius   int
	ores     map[int][3]float32
	selected map[int]bool
	metrics  *metrics.Metrics

	decorations map[int]blocks.Bounds
	batches     map[*chunk.Chunk]*chunkBatches
}

// NewEngine creates an engine. nb may be nil, in which case every lookup
// outside the chunk is unknown.
func NewEngine(reg *blocks.Registry, nb Neighbors, sink Sink, opts Options) *Engine {
	e := &Engine{
		reg:         reg,
		nb:          nb,
		sink:        sink,
		explored:    opts.ExploredHighlight,
		radius:      opts.HighlightRadius,
		ores:        make(map[int][3]float32),
		selected:    make(map[int]bool),
		metrics:     opts.Metrics,
		decorations: make(map[int]blocks.Bounds),
		batches:     make(map[*chunk.Chunk]*chunkBatches),
	}
	if e.radius <= 0 {
		e.radius = DefaultHighlightRadius
	}
	for _, id := range opts.OreHighlight {
		c := reg.Type(id).Color
		e.ores[id] = [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
	}
	for _, id := range opts.Selected {
		e.selected[id] = true
	}
	return e
}

// Batch returns the batch for c, sheet and pass, rebuilding it first if c
// flags it dirty. Sheets outside the registry yield nil.
func (e *Engine) Batch(c *chunk.Chunk, sheet int, pass chunk.Pass) BatchHandle {
	if sheet < 0 || sheet >= e.reg.Sheets() || sheet >= chunk.MaxSheets || pass < 0 || pass >= chunk.NumPasses {
		return nil
	}
	cb := e.batches[c]
	if cb == nil {
		cb = &chunkBatches{}
		e.batches[c] = cb
	}
	if cb.built[sheet][pass] && !c.IsDirty(sheet, pass) {
		return cb.handles[sheet][pass]
	}
	quads := e.Build(c, sheet, pass)
	cb.handles[sheet][pass] = e.sink.Build(quads)
	cb.built[sheet][pass] = true
	c.ClearDirty(sheet, pass)
	e.metrics.Rebuilt(pass.String(), len(quads))
	return cb.handles[sheet][pass]
}

// Frame calls fn with every batch of c, rebuilding the dirty ones.
func (e *Engine) Frame(c *chunk.Chunk, fn func(sheet int, pass chunk.Pass, h BatchHandle)) {
	for sheet := 0; sheet < e.reg.Sheets() && sheet < chunk.MaxSheets; sheet++ {
		for pass := chunk.Pass(0); pass < chunk.NumPasses; pass++ {
			fn(sheet, pass, e.Batch(c, sheet, pass))
		}
	}
}

// Forget drops the batches of c. Wire it to the cache's eviction hook.
func (e *Engine) Forget(c *chunk.Chunk) {
	delete(e.batches, c)
}

// Cached is the number of chunks with batches held by the engine.
func (e *Engine) Cached() int {
	return len(e.batches)
}

// passOf sorts a block type into the pass that draws it.
func passOf(bt *blocks.BlockType) (chunk.Pass, bool) {
	if bt.Shape == nil {
		return 0, false
	}
	if bt.Glass {
		return chunk.PassGlass, true
	}
	switch bt.Shape.(type) {
	case blocks.Cube, blocks.Placeholder:
		return chunk.PassSolid, true
	}
	return chunk.PassNonstandard, true
}

var faceGroups = []struct {
	faces []blocks.Face
	shade float32
}{
	{[]blocks.Face{blocks.FaceTop}, 1.0},
	{[]blocks.Face{blocks.FaceBottom}, 0.5},
	{[]blocks.Face{blocks.FaceEast, blocks.FaceWest}, 0.8},
	{[]blocks.Face{blocks.FaceNorth, blocks.FaceSouth}, 0.6},
}

// Build generates the quads of one batch without touching the cache or the
// dirty flags.
func (e *Engine) Build(c *chunk.Chunk, sheet int, pass chunk.Pass) []Quad {
	b := &builder{}
	var hl *exploredSet
	if e.explored && pass != chunk.PassSelected {
		hl = e.explore(c)
	}

	switch pass {
	case chunk.PassSolid:
		for _, g := range faceGroups {
			shade := [3]float32{g.shade, g.shade, g.shade}
			e.walk(c, sheet, chunk.PassSolid, func(cell chunk.Cell, bt *blocks.BlockType) {
				e.place(b, c, cell, hl)
				b.fixed = &shade
				if tint, ok := e.ores[cell.ID]; ok {
					b.fixed = &tint
				}
				data := c.Data(cell.X, cell.Y, cell.Z)
				for _, f := range g.faces {
					if !e.hidden(c, cell, bt, f) {
						b.face(unitBox, f, bt.TextureFor(data, f))
					}
				}
			})
		}
	case chunk.PassNonstandard, chunk.PassGlass:
		e.walk(c, sheet, pass, func(cell chunk.Cell, bt *blocks.BlockType) {
			e.place(b, c, cell, hl)
			e.variant(b, c, cell, bt)
		})
		if pass == chunk.PassNonstandard && sheet == e.reg.PaintingSheet() {
			b.offset, b.fixed = 0, nil
			b.at(0, 0, 0)
			e.paintings(b, c)
		}
	case chunk.PassSelected:
		if len(e.selected) == 0 {
			return nil
		}
		white := [3]float32{1, 1, 1}
		c.Rewind()
		for cell, ok := c.Next(); ok; cell, ok = c.Next() {
			if !e.selected[cell.ID] {
				continue
			}
			bt := e.reg.Type(cell.ID)
			if bt.Sheet != sheet {
				continue
			}
			e.place(b, c, cell, nil)
			b.fixed = &white
			data := c.Data(cell.X, cell.Y, cell.Z)
			for f := blocks.Face(0); f < blocks.NumFaces; f++ {
				b.face(unitBox, f, bt.TextureFor(data, f))
			}
		}
	}
	return b.quads
}

// walk visits every block of c on sheet that is drawn in pass.
func (e *Engine) walk(c *chunk.Chunk, sheet int, pass chunk.Pass, fn func(chunk.Cell, *blocks.BlockType)) {
	c.Rewind()
	for cell, ok := c.Next(); ok; cell, ok = c.Next() {
		if cell.ID == 0 {
			continue
		}
		bt := e.reg.Type(cell.ID)
		if bt.Sheet != sheet {
			continue
		}
		if p, ok := passOf(bt); ok && p == pass {
			fn(cell, bt)
		}
	}
}

// place moves the builder to cell and resets per-block state.
func (e *Engine) place(b *builder, c *chunk.Chunk, cell chunk.Cell, hl *exploredSet) {
	b.at(c.X*chunk.Width+cell.X, cell.Y, c.Z*chunk.Width+cell.Z)
	b.fixed = nil
	b.offset = 0
	if hl.has(cell.X, cell.Y, cell.Z) {
		b.offset = e.reg.HighlightStride()
	}
}

// neighbor looks up a cell relative to c, going through the resolver only
// when the cell lies outside the chunk's footprint.
func (e *Engine) neighbor(c *chunk.Chunk, x, y, z int) (id, data int, ok bool) {
	if x >= 0 && x < chunk.Width && z >= 0 && z < chunk.Width {
		if y < 0 || y >= c.Height() {
			return 0, 0, false
		}
		return c.Block(x, y, z), c.Data(x, y, z), true
	}
	if e.nb == nil {
		return 0, 0, false
	}
	return e.nb.Neighbor(c, x, y, z)
}

func (e *Engine) across(c *chunk.Chunk, cell chunk.Cell, f blocks.Face) (id, data int, ok bool) {
	dx, dy, dz := f.Offset()
	return e.neighbor(c, cell.X+dx, cell.Y+dy, cell.Z+dz)
}

// solidAcross reports whether the neighbor across f is known and opaque.
func (e *Engine) solidAcross(c *chunk.Chunk, cell chunk.Cell, f blocks.Face) bool {
	id, _, ok := e.across(c, cell, f)
	return ok && e.reg.IsSolid(id)
}

// hidden reports whether face f of a full cube is covered. Unknown neighbors
// never cover. Edge cubes are only covered by the same id, glass also by its
// own kind.
func (e *Engine) hidden(c *chunk.Chunk, cell chunk.Cell, bt *blocks.BlockType, f blocks.Face) bool {
	id, _, ok := e.across(c, cell, f)
	if !ok {
		return false
	}
	if cube, isCube := bt.Shape.(blocks.Cube); isCube && cube.Edge {
		return id == bt.ID
	}
	if e.reg.IsSolid(id) {
		return true
	}
	return bt.Glass && id == bt.ID
}

// decoration returns the covered area of a texture, looking each texture up
// once.
func (e *Engine) decoration(tex int) blocks.Bounds {
	if b, ok := e.decorations[tex]; ok {
		return b
	}
	b := e.reg.DecorationBounds(tex)
	e.decorations[tex] = b
	return b
}
