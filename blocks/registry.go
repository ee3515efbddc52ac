// Package blocks is the block-type registry: an immutable table, loaded from a
// declarative source, that answers what a block id looks like.
package blocks

import (
	"image/color"
)

// MaxID bounds block ids: eight stored bits plus a four-bit Add nibble.
const MaxID = 1 << 12

// Bounds is the part of a 16x16 texture cell a decoration actually covers.
type Bounds struct {
	Left, Top, Width, Height int
}

// FullBounds covers the whole texture cell.
var FullBounds = Bounds{Width: 16, Height: 16}

// BlockType describes one block id.
type BlockType struct {
	ID   int
	Name string
	// Solid blocks are opaque full cubes that hide their neighbours' faces.
	Solid bool
	// Glass blocks are drawn in the glass pass.
	Glass bool
	// Half blocks are half a cell high; liquids shrink faces against them.
	Half  bool
	Sheet int
	Shape Shape

	Texture    int
	ByData     []int
	DataMask   int
	Faces      map[Face]int
	Directions []Face
	Extra      map[string]int

	// Highlight marks blocks that light up their surroundings in the
	// explored overlay.
	Highlight bool
	Family    string
	Color     color.RGBA
}

// Registry answers block-type questions for meshing and map sampling. It is
// never mutated after loading and is safe to share.
type Registry struct {
	types       [MaxID]*BlockType
	byName      map[string]*BlockType
	air         *BlockType
	placeholder *BlockType
	decorations map[int]Bounds

	sheets          int
	paintingSheet   int
	highlightStride int
}

// Type returns the block type for id. Air has a nil Shape; ids the registry
// does not know get the placeholder type.
func (r *Registry) Type(id int) *BlockType {
	if id == 0 {
		return r.air
	}
	if id < 0 || id >= MaxID || r.types[id] == nil {
		return r.placeholder
	}
	return r.types[id]
}

// Known reports whether id is air or a registered block.
func (r *Registry) Known(id int) bool {
	return id == 0 || (id > 0 && id < MaxID && r.types[id] != nil)
}

// ByName returns the block type registered under name.
func (r *Registry) ByName(name string) (*BlockType, bool) {
	bt, ok := r.byName[name]
	return bt, ok
}

func (r *Registry) IsSolid(id int) bool {
	return r.Type(id).Solid
}

// Shape returns the render variant of id.
func (r *Registry) Shape(id int) Shape {
	return r.Type(id).Shape
}

// Texture resolves the texture of a face of block id carrying data value data.
// Direction-keyed faces win, then explicit per-face textures, then textures
// keyed by data, then the block's base texture.
func (r *Registry) Texture(id, data int, face Face) int {
	return r.Type(id).TextureFor(data, face)
}

// TextureFor is Texture for an already resolved block type.
func (bt *BlockType) TextureFor(data int, face Face) int {
	if len(bt.Directions) > 0 && data >= 0 {
		front := bt.Directions[bt.masked(data)%len(bt.Directions)]
		if tex, ok := bt.Extra[Relative(face, front)]; ok {
			return tex
		}
	}
	if tex, ok := bt.Faces[face]; ok {
		return tex
	}
	if len(bt.ByData) > 0 && data >= 0 {
		if i := bt.masked(data); i < len(bt.ByData) {
			return bt.ByData[i]
		}
	}
	return bt.Texture
}

// Front returns the absolute face a directional block looks out of.
func (bt *BlockType) Front(data int) (Face, bool) {
	if len(bt.Directions) == 0 || data < 0 {
		return 0, false
	}
	return bt.Directions[bt.masked(data)%len(bt.Directions)], true
}

func (bt *BlockType) masked(data int) int {
	if bt.DataMask == 0 {
		return data
	}
	return data & bt.DataMask
}

// ExtraTexture returns a named auxiliary texture of id, such as "front" or
// "head_top".
func (r *Registry) ExtraTexture(id int, name string) (int, bool) {
	tex, ok := r.Type(id).Extra[name]
	return tex, ok
}

// DecorationBounds returns the covered area of a texture cell.
func (r *Registry) DecorationBounds(texture int) Bounds {
	if b, ok := r.decorations[texture]; ok {
		return b
	}
	return FullBounds
}

// Sheets is the number of texture sheets block types draw from.
func (r *Registry) Sheets() int {
	return r.sheets
}

// PaintingSheet is the sheet painting motives are drawn from.
func (r *Registry) PaintingSheet() int {
	return r.paintingSheet
}

// HighlightStride is the texture offset of the highlighted texture bank.
func (r *Registry) HighlightStride() int {
	return r.highlightStride
}

// Each calls fn for every registered block type in id order.
func (r *Registry) Each(fn func(*BlockType)) {
	for _, bt := range r.types {
		if bt != nil {
			fn(bt)
		}
	}
}
