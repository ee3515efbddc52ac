package mesh

import (
	"strings"

	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/chunk"
)

// Motive places a painting picture on the painting sheet. U and V are the
// texel position of its top-left corner, W and H its size in texels.
type Motive struct {
	U, V, W, H int
}

var motives = map[string]Motive{
	"kebab":         {0, 0, 16, 16},
	"aztec":         {16, 0, 16, 16},
	"alban":         {32, 0, 16, 16},
	"aztec2":        {48, 0, 16, 16},
	"bomb":          {64, 0, 16, 16},
	"plant":         {80, 0, 16, 16},
	"wasteland":     {96, 0, 16, 16},
	"pool":          {0, 32, 32, 16},
	"courbet":       {32, 32, 32, 16},
	"sea":           {64, 32, 32, 16},
	"sunset":        {96, 32, 32, 16},
	"creebet":       {128, 32, 32, 16},
	"wanderer":      {0, 64, 16, 32},
	"graham":        {16, 64, 16, 32},
	"match":         {0, 128, 32, 32},
	"bust":          {32, 128, 32, 32},
	"stage":         {64, 128, 32, 32},
	"void":          {96, 128, 32, 32},
	"skullandroses": {128, 128, 32, 32},
	"wither":        {160, 128, 32, 32},
	"fighters":      {0, 96, 64, 32},
	"pointer":       {0, 192, 64, 64},
	"pigscene":      {64, 192, 64, 64},
	"burningskull":  {128, 192, 64, 64},
	"skeleton":      {192, 64, 64, 48},
	"donkeykong":    {192, 112, 64, 48},
}

// LookupMotive finds a motive by name, ignoring case and namespace.
func LookupMotive(name string) (Motive, bool) {
	name = strings.TrimPrefix(strings.ToLower(name), "minecraft:")
	m, ok := motives[strings.ReplaceAll(name, "_", "")]
	return m, ok
}

// paintings emits one quad per painting of c with a known motive. The quad
// hangs 1/16 off the wall behind the painting's tile and spans the motive's
// size, centred on the tile.
func (e *Engine) paintings(b *builder, c *chunk.Chunk) {
	for _, p := range c.Paintings {
		m, ok := LookupMotive(p.Motive)
		if !ok {
			continue
		}
		w, h := float32(m.W)/16, float32(m.H)/16
		// Tiles to the left of and below the anchor tile.
		left := float32((m.W/16 - 1) / 2)
		down := float32((m.H/16 - 1) / 2)
		x, y, z := float32(p.X), float32(p.Y)-down, float32(p.Z)
		tex := (m.V/16)*16 + m.U/16
		uv := blocks.Bounds{Width: m.W, Height: m.H}

		const gap = 1.0 / 16
		// The picture's left edge is where a viewer facing the wall sees it.
		switch p.Dir {
		case 0: // faces south, hung on the wall to the north
			b.plane(x-left, z+gap, x-left+w, z+gap, y, y+h, tex, uv)
		case 1: // faces west
			b.plane(x+1-gap, z-left, x+1-gap, z-left+w, y, y+h, tex, uv)
		case 2: // faces north
			b.plane(x+1+left, z+1-gap, x+1+left-w, z+1-gap, y, y+h, tex, uv)
		case 3: // faces east
			b.plane(x+gap, z+1+left, x+gap, z+1+left-w, y, y+h, tex, uv)
		}
	}
}
