package region

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/willf/bitset"
)

const (
	// Slots is the number of chunk slots per region (32x32).
	Slots      = 1024
	SectorSize = 4096
	// Edge is the width of a region in chunks.
	Edge = 32
)

var ErrNoChunk = errors.New("region: chunk not found")
var ErrPayloadCorrupt = errors.New("region: chunk payload corrupt")
var ErrContainerCorrupt = errors.New("region: container corrupt")

type Compression byte

const (
	CompressionGzip Compression = 1
	CompressionZlib Compression = 2
)

// Handle reads chunk payloads from a single region container. The handle is
// not safe for concurrent access; usage should be protected by a mutex if
// concurrent access is desired.
type Handle struct {
	source      io.ReadSeeker
	sectorTable [Slots]uint32
	present     *bitset.BitSet
	Name        string
}

// NewHandle creates a Handle. The ownership of the source is transferred to
// the handle.
func NewHandle(source io.ReadSeeker) (*Handle, error) {
	h := &Handle{
		source:  source,
		present: bitset.New(Slots),
	}
	if file, ok := source.(*os.File); ok {
		h.Name = file.Name()
	}
	if err := h.readSectorTable(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Handle) readSectorTable() error {
	if _, err := h.source.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Read(h.source, binary.BigEndian, &h.sectorTable); err != nil {
		return fmt.Errorf("%w: short sector table: %v", ErrContainerCorrupt, err)
	}
	for i, entry := range h.sectorTable {
		if entry>>8 != 0 && entry&0xff != 0 {
			h.present.Set(uint(i))
		}
	}
	return nil
}

// Slot returns the directory index of the chunk at local coordinates x, z.
func Slot(x, z int) int {
	return (x & (Edge - 1)) + (z&(Edge-1))*Edge
}

// Exists reports whether the slot for local coordinates x, z holds a payload.
func (h *Handle) Exists(x, z int) bool {
	return h.present.Test(uint(Slot(x, z)))
}

// Present calls fn with the local coordinates of every non-empty slot.
func (h *Handle) Present(fn func(x, z int)) {
	for i, ok := h.present.NextSet(0); ok; i, ok = h.present.NextSet(i + 1) {
		fn(int(i)%Edge, int(i)/Edge)
	}
}

// Count returns the number of non-empty slots.
func (h *Handle) Count() int {
	return int(h.present.Count())
}

// Payload reads and decompresses the chunk payload at local coordinates x, z.
// An empty slot yields ErrNoChunk; anything that cannot be read back as a
// complete compressed stream yields an error wrapping ErrPayloadCorrupt.
func (h *Handle) Payload(x, z int) (*bytes.Reader, error) {
	entry := h.sectorTable[Slot(x, z)]
	sectorNumber := int64(entry >> 8)
	occupiedSectors := int64(entry & 0xff)
	if sectorNumber == 0 || occupiedSectors == 0 {
		return nil, ErrNoChunk
	}

	if _, err := h.source.Seek(sectorNumber*SectorSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek: %v", ErrPayloadCorrupt, err)
	}
	sectorData := make([]byte, occupiedSectors*SectorSize)
	if _, err := io.ReadFull(h.source, sectorData); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadCorrupt, err)
	}

	sectorReader := bytes.NewReader(sectorData)
	var header struct {
		Length      int32
		Compression Compression
	}
	if err := binary.Read(sectorReader, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadCorrupt, err)
	}
	// The length counts the compression byte.
	if header.Length <= 1 || header.Length > int32(len(sectorData)-4) {
		return nil, fmt.Errorf("%w: invalid length %d", ErrPayloadCorrupt, header.Length)
	}

	stream := io.LimitReader(sectorReader, int64(header.Length-1))
	var (
		decompressed io.ReadCloser
		err          error
	)
	switch header.Compression {
	case CompressionGzip:
		decompressed, err = gzip.NewReader(stream)
	case CompressionZlib:
		decompressed, err = zlib.NewReader(stream)
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrPayloadCorrupt, header.Compression)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadCorrupt, err)
	}
	defer decompressed.Close()

	data, err := io.ReadAll(decompressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadCorrupt, err)
	}
	return bytes.NewReader(data), nil
}

func (h *Handle) Close() error {
	if closer, ok := h.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
