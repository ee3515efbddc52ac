// Package chunk holds decoded world columns. A Chunk hides which of the two
// stored layouts it came from behind uniform block and data accessors.
package chunk

import (
	"github.com/willf/bitset"
)

const (
	// Width is the size of a chunk along x and z.
	Width = 16
	// FlatHeight is the fixed height of a flat chunk.
	FlatHeight = 128
	// FlatCells is the number of cells in a flat chunk.
	FlatCells = Width * Width * FlatHeight

	SectionHeight = 16
	SectionCells  = Width * Width * SectionHeight
	MaxSections   = 16
	// SectionedHeight is the vertical bound of a sectioned chunk.
	SectionedHeight = MaxSections * SectionHeight

	// MaxSheets bounds the number of texture sheets tracked by dirty flags.
	MaxSheets = 8
)

// Format names the stored layout a chunk was decoded from.
type Format int

const (
	FormatFlat Format = iota
	FormatSectioned
)

func (f Format) String() string {
	if f == FormatSectioned {
		return "sectioned"
	}
	return "flat"
}

// Pass is one of the geometry passes built per chunk and texture sheet.
type Pass int

const (
	PassSolid Pass = iota
	PassNonstandard
	PassGlass
	PassSelected
	NumPasses
)

func (p Pass) String() string {
	switch p {
	case PassSolid:
		return "solid"
	case PassNonstandard:
		return "nonstandard"
	case PassGlass:
		return "glass"
	case PassSelected:
		return "selected"
	}
	return "unknown"
}

// Painting is a decorative entity hung on a block face.
type Painting struct {
	X, Y, Z int
	// Dir is the facing as stored, 0..3.
	Dir    int
	Motive string
}

// Cell is one position yielded by the block cursor, in chunk-local
// coordinates.
type Cell struct {
	X, Y, Z int
	ID      int
}

// storage is implemented by the flat and sectioned layouts.
type storage interface {
	format() Format
	height() int
	maxHeight() int
	block(x, y, z int) int
	data(x, y, z int) int
	setData(x, y, z, v int)
	// cell returns the cell at cursor position pos, or false past the end.
	cell(pos int) (Cell, int, bool)
}

// Chunk is one decoded 16x16xH column.
type Chunk struct {
	X, Z int

	Paintings []Painting
	// SlimeChunk is derived from the world seed and the chunk coordinate.
	SlimeChunk bool

	store  storage
	cursor int
	dirty  *bitset.BitSet
}

func newChunk(x, z int, s storage) *Chunk {
	c := &Chunk{X: x, Z: z, store: s, dirty: bitset.New(MaxSheets * uint(NumPasses))}
	c.MarkAllDirty()
	return c
}

// NewFlat builds a flat chunk around blocks and packed data. Missing data is
// zero-filled. It is meant for fixtures; Decode is the normal entry point.
func NewFlat(x, z int, blocks, data []byte) *Chunk {
	if data == nil {
		data = make([]byte, FlatCells/2)
	}
	return newChunk(x, z, &flatStorage{blocks: blocks, packed: data})
}

func (c *Chunk) Format() Format {
	return c.store.format()
}

// Height is the vertical bound of the chunk's layout: 128 for flat chunks, 256
// for sectioned ones.
func (c *Chunk) Height() int {
	return c.store.height()
}

// MaxHeight is the highest y that can hold a non-air block.
func (c *Chunk) MaxHeight() int {
	return c.store.maxHeight()
}

func (c *Chunk) inRange(x, y, z int) bool {
	return x >= 0 && x < Width && z >= 0 && z < Width && y >= 0 && y < c.store.height()
}

// Block returns the block id at local x, y, z, or -1 outside the chunk.
func (c *Chunk) Block(x, y, z int) int {
	if !c.inRange(x, y, z) {
		return -1
	}
	return c.store.block(x, y, z)
}

// Data returns the 4-bit data value at local x, y, z, or -1 outside the chunk.
func (c *Chunk) Data(x, y, z int) int {
	if !c.inRange(x, y, z) {
		return -1
	}
	return c.store.data(x, y, z)
}

// SetData stores a 4-bit data value. Writes outside the chunk or into an
// absent section are dropped.
func (c *Chunk) SetData(x, y, z, v int) {
	if c.inRange(x, y, z) {
		c.store.setData(x, y, z, v&0xf)
	}
}

// Rewind resets the block cursor.
func (c *Chunk) Rewind() {
	c.cursor = 0
}

// Next returns the next cell of the chunk and false once every cell has been
// visited. Order is the layout's storage order.
func (c *Chunk) Next() (Cell, bool) {
	cell, next, ok := c.store.cell(c.cursor)
	if !ok {
		return Cell{}, false
	}
	c.cursor = next
	return cell, true
}

func dirtyBit(sheet int, pass Pass) uint {
	return uint(sheet)*uint(NumPasses) + uint(pass)
}

// IsDirty reports whether the batch for sheet and pass needs a rebuild.
func (c *Chunk) IsDirty(sheet int, pass Pass) bool {
	if sheet < 0 || sheet >= MaxSheets {
		return false
	}
	return c.dirty.Test(dirtyBit(sheet, pass))
}

// MarkDirty flags pass for rebuild on every sheet.
func (c *Chunk) MarkDirty(pass Pass) {
	for sheet := 0; sheet < MaxSheets; sheet++ {
		c.dirty.Set(dirtyBit(sheet, pass))
	}
}

// MarkAllDirty flags every batch of the chunk for rebuild.
func (c *Chunk) MarkAllDirty() {
	for i := uint(0); i < MaxSheets*uint(NumPasses); i++ {
		c.dirty.Set(i)
	}
}

// ClearDirty marks the batch for sheet and pass as built.
func (c *Chunk) ClearDirty(sheet int, pass Pass) {
	if sheet >= 0 && sheet < MaxSheets {
		c.dirty.Clear(dirtyBit(sheet, pass))
	}
}
