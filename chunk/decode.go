package chunk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/astei/chunkscope/nbt"
)

var ErrMissingTag = errors.New("chunk: missing required tag")
var ErrBadArray = errors.New("chunk: array has the wrong size")

// Decode builds a Chunk from a parsed chunk tree. A tree carrying Sections is
// decoded as sectioned, one carrying Blocks as flat.
func Decode(root *nbt.ChunkRoot, seed int64) (*Chunk, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: Level", ErrMissingTag)
	}
	level := &root.Level

	var (
		s   storage
		err error
	)
	switch {
	case level.Sections != nil:
		s, err = decodeSections(level.Sections)
	case level.Blocks != nil:
		s, err = decodeFlat(level.Blocks, level.Data)
	default:
		err = fmt.Errorf("%w: Blocks or Sections", ErrMissingTag)
	}
	if err != nil {
		return nil, fmt.Errorf("chunk %d,%d: %w", level.X, level.Z, err)
	}

	c := newChunk(int(level.X), int(level.Z), s)
	c.SlimeChunk = SlimeChunk(seed, level.X, level.Z)
	c.Paintings = paintings(level.Entities)
	return c, nil
}

func decodeFlat(blocks, data []byte) (storage, error) {
	if len(blocks) != FlatCells {
		return nil, fmt.Errorf("%w: Blocks has %d entries", ErrBadArray, len(blocks))
	}
	switch len(data) {
	case 0:
		data = make([]byte, FlatCells/2)
	case FlatCells / 2:
	default:
		return nil, fmt.Errorf("%w: Data has %d entries", ErrBadArray, len(data))
	}
	return &flatStorage{blocks: blocks, packed: data}, nil
}

func decodeSections(tags []nbt.ChunkSection) (storage, error) {
	s := &sectionedStorage{}
	for _, tag := range tags {
		// Lighting-only sections outside the block range carry no ids.
		if tag.Y < 0 || int(tag.Y) >= MaxSections || tag.Blocks == nil {
			continue
		}
		sec, err := decodeSection(tag)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", tag.Y, err)
		}
		s.sections[tag.Y] = sec
	}
	for i, sec := range s.sections {
		if sec != nil {
			s.present = append(s.present, i)
		}
	}
	return s, nil
}

func decodeSection(tag nbt.ChunkSection) (*section, error) {
	if len(tag.Blocks) != SectionCells {
		return nil, fmt.Errorf("%w: Blocks has %d entries", ErrBadArray, len(tag.Blocks))
	}
	sec := &section{packed: tag.Data}
	switch len(tag.Data) {
	case 0:
		sec.packed = make([]byte, SectionCells/2)
	case SectionCells / 2:
	default:
		return nil, fmt.Errorf("%w: Data has %d entries", ErrBadArray, len(tag.Data))
	}
	if tag.Add != nil && len(tag.Add) != SectionCells/2 {
		return nil, fmt.Errorf("%w: Add has %d entries", ErrBadArray, len(tag.Add))
	}

	for i, id := range tag.Blocks {
		sec.blocks[i] = uint16(id)
		if tag.Add != nil {
			sec.blocks[i] |= uint16(nibble(tag.Add, i)) << 8
		}
	}
	return sec, nil
}

// IsPainting reports whether an entity id names a painting, with or without a
// namespace.
func IsPainting(id string) bool {
	return strings.EqualFold(strings.TrimPrefix(strings.ToLower(id), "minecraft:"), "painting")
}

func paintings(entities []nbt.Entity) []Painting {
	var out []Painting
	for _, e := range entities {
		if !IsPainting(e.ID) {
			continue
		}
		dir := int(e.Dir)
		if e.Facing != 0 {
			dir = int(e.Facing)
		}
		out = append(out, Painting{
			X:      int(e.TileX),
			Y:      int(e.TileY),
			Z:      int(e.TileZ),
			Dir:    dir & 3,
			Motive: e.Motive,
		})
	}
	return out
}
