package chunk

// nibble reads the 4-bit value at index i of a packed array: even indices in
// the low nibble, odd ones in the high nibble.
func nibble(packed []byte, i int) int {
	b := packed[i>>1]
	if i&1 == 0 {
		return int(b & 0x0f)
	}
	return int(b >> 4)
}

func setNibble(packed []byte, i, v int) {
	b := &packed[i>>1]
	if i&1 == 0 {
		*b = *b&0xf0 | byte(v&0x0f)
	} else {
		*b = *b&0x0f | byte(v&0x0f)<<4
	}
}

// flatStorage is the dense 16x16x128 layout, y fastest.
type flatStorage struct {
	blocks []byte
	packed []byte
}

func flatOffset(x, y, z int) int {
	return y + z*FlatHeight + x*FlatHeight*Width
}

func (s *flatStorage) format() Format { return FormatFlat }
func (s *flatStorage) height() int    { return FlatHeight }
func (s *flatStorage) maxHeight() int { return FlatHeight - 1 }

func (s *flatStorage) block(x, y, z int) int {
	return int(s.blocks[flatOffset(x, y, z)])
}

func (s *flatStorage) data(x, y, z int) int {
	return nibble(s.packed, flatOffset(x, y, z))
}

func (s *flatStorage) setData(x, y, z, v int) {
	setNibble(s.packed, flatOffset(x, y, z), v)
}

func (s *flatStorage) cell(pos int) (Cell, int, bool) {
	if pos >= FlatCells {
		return Cell{}, pos, false
	}
	return Cell{
		X:  pos / (FlatHeight * Width),
		Y:  pos % FlatHeight,
		Z:  (pos / FlatHeight) % Width,
		ID: int(s.blocks[pos]),
	}, pos + 1, true
}

// section is one 16x16x16 sub-volume; ids already carry any Add nibble.
type section struct {
	blocks [SectionCells]uint16
	packed []byte
}

// sectionedStorage keeps up to sixteen optional sections. present lists the
// indices of resident sections in ascending order.
type sectionedStorage struct {
	sections [MaxSections]*section
	present  []int
}

func sectionOffset(x, y, z int) int {
	return (y&(SectionHeight-1))*Width*Width + z*Width + x
}

func (s *sectionedStorage) format() Format { return FormatSectioned }
func (s *sectionedStorage) height() int    { return SectionedHeight }

func (s *sectionedStorage) maxHeight() int {
	if len(s.present) == 0 {
		return -1
	}
	return (s.present[len(s.present)-1]+1)*SectionHeight - 1
}

func (s *sectionedStorage) block(x, y, z int) int {
	sec := s.sections[y/SectionHeight]
	if sec == nil {
		return 0
	}
	return int(sec.blocks[sectionOffset(x, y, z)])
}

func (s *sectionedStorage) data(x, y, z int) int {
	sec := s.sections[y/SectionHeight]
	if sec == nil {
		return 0
	}
	return nibble(sec.packed, sectionOffset(x, y, z))
}

func (s *sectionedStorage) setData(x, y, z, v int) {
	if sec := s.sections[y/SectionHeight]; sec != nil {
		setNibble(sec.packed, sectionOffset(x, y, z), v)
	}
}

// cell positions are section*SectionCells + offset; absent sections are
// skipped and the cursor stops after the highest resident one.
func (s *sectionedStorage) cell(pos int) (Cell, int, bool) {
	idx := pos / SectionCells
	for idx < MaxSections && s.sections[idx] == nil {
		idx++
		pos = idx * SectionCells
	}
	if idx >= MaxSections {
		return Cell{}, pos, false
	}
	off := pos % SectionCells
	return Cell{
		X:  off % Width,
		Y:  idx*SectionHeight + off/(Width*Width),
		Z:  (off / Width) % Width,
		ID: int(s.sections[idx].blocks[off]),
	}, pos + 1, true
}
