package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/astei/chunkscope/chunk"
	"github.com/astei/chunkscope/mesh"
	"github.com/astei/chunkscope/nbt"
	"github.com/klauspost/compress/zstd"
	"github.com/willf/bitset"
)

const (
	dumpMagic   = 0xC56D
	dumpVersion = 1
)

// Extension is the file extension of geometry dumps.
const Extension = ".csg"

var ErrNotDump = errors.New("export: not a geometry dump")

// ErrCorrupt is returned for a dump whose sizes do not match its contents.
var ErrCorrupt = errors.New("export: dump corrupt")

// maxSection bounds the decompressed size of one dump section.
const maxSection = 1 << 30

// ChunkKey addresses a chunk in a dump.
type ChunkKey struct {
	X, Z int
}

// PassBatch is one recorded batch of a chunk.
type PassBatch struct {
	Sheet int
	Pass  chunk.Pass
	Quads []mesh.Quad
}

// Dump collects the geometry of a set of chunks. The file layout is a header
// with the chunk bounds and a bitmap of present chunks, then two
// length-prefixed zstd sections: the geometry in bitmap order, and a tag tree
// describing the world.
type Dump struct {
	Name   string
	Seed   int64
	chunks map[ChunkKey][]PassBatch
}

func NewDump(name string, seed int64) *Dump {
	return &Dump{Name: name, Seed: seed, chunks: make(map[ChunkKey][]PassBatch)}
}

// Add records a batch built by a Recorder. Empty batches and handles from
// other sinks are skipped.
func (d *Dump) Add(x, z, sheet int, pass chunk.Pass, h mesh.BatchHandle) {
	b, ok := h.(*Batch)
	if !ok || len(b.Quads) == 0 {
		return
	}
	k := ChunkKey{x, z}
	d.chunks[k] = append(d.chunks[k], PassBatch{Sheet: sheet, Pass: pass, Quads: b.Quads})
}

// Chunks returns the recorded chunk coordinates, row by row.
func (d *Dump) Chunks() []ChunkKey {
	keys := make([]ChunkKey, 0, len(d.chunks))
	for k := range d.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Z != keys[j].Z {
			return keys[i].Z < keys[j].Z
		}
		return keys[i].X < keys[j].X
	})
	return keys
}

// Batches returns the batches recorded for chunk x, z.
func (d *Dump) Batches(x, z int) []PassBatch {
	return d.chunks[ChunkKey{x, z}]
}

// Quads is the total number of recorded quads.
func (d *Dump) Quads() int {
	n := 0
	for _, batches := range d.chunks {
		for _, b := range batches {
			n += len(b.Quads)
		}
	}
	return n
}

func (d *Dump) bounds() (lo ChunkKey, width, depth int) {
	keys := d.Chunks()
	if len(keys) == 0 {
		return ChunkKey{}, 0, 0
	}
	// Keys are sorted by z, so only x needs a scan.
	lo, hi := keys[0], keys[len(keys)-1]
	for _, k := range keys {
		if k.X < lo.X {
			lo.X = k.X
		}
		if k.X > hi.X {
			hi.X = k.X
		}
	}
	return lo, hi.X - lo.X + 1, hi.Z - lo.Z + 1
}

type dumpHeader struct {
	Magic   uint16
	Version uint8
	MinX    int32
	MinZ    int32
	Width   uint16
	Depth   uint16
}

type dumpInfo struct {
	Name   string `nbt:"name"`
	Seed   int64  `nbt:"seed"`
	Chunks int32  `nbt:"chunks"`
	Quads  int64  `nbt:"quads"`
}

// Write writes the dump to w.
func (d *Dump) Write(w io.Writer) (err error) {
	lo, width, depth := d.bounds()
	if width > math.MaxUint16 || depth > math.MaxUint16 {
		return fmt.Errorf("export: %dx%d chunks do not fit a dump", width, depth)
	}
	header := dumpHeader{
		Magic:   dumpMagic,
		Version: dumpVersion,
		MinX:    int32(lo.X),
		MinZ:    int32(lo.Z),
		Width:   uint16(width),
		Depth:   uint16(depth),
	}
	if err = binary.Write(w, binary.BigEndian, header); err != nil {
		return
	}

	present := bitset.New(uint(width * depth))
	for k := range d.chunks {
		present.Set(uint((k.Z-lo.Z)*width + (k.X - lo.X)))
	}
	if _, err = w.Write(bitmapBytes(present, width*depth)); err != nil {
		return
	}

	var geometry bytes.Buffer
	for _, k := range d.Chunks() {
		if err = writeChunk(&geometry, d.chunks[k]); err != nil {
			return
		}
	}
	if err = writeZstdCompressed(w, &geometry); err != nil {
		return
	}

	var extra bytes.Buffer
	info := dumpInfo{Name: d.Name, Seed: d.Seed, Chunks: int32(len(d.chunks)), Quads: int64(d.Quads())}
	if err = nbt.Marshal(&extra, info); err != nil {
		return
	}
	return writeZstdCompressed(w, &extra)
}

// bitmapBytes packs the first n bits of set, lowest bit first.
func bitmapBytes(set *bitset.BitSet, n int) []byte {
	out := make([]byte, (n+7)/8)
	for i, ok := set.NextSet(0); ok && int(i) < n; i, ok = set.NextSet(i + 1) {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

func writeChunk(out *bytes.Buffer, batches []PassBatch) (err error) {
	if err = binary.Write(out, binary.BigEndian, uint16(len(batches))); err != nil {
		return
	}
	for _, b := range batches {
		if err = binary.Write(out, binary.BigEndian, [2]uint8{uint8(b.Sheet), uint8(b.Pass)}); err != nil {
			return
		}
		if err = binary.Write(out, binary.BigEndian, uint32(len(b.Quads))); err != nil {
			return
		}
		for _, q := range b.Quads {
			if err = binary.Write(out, binary.BigEndian, wireQuadOf(q)); err != nil {
				return
			}
		}
	}
	return
}

// wireQuad is the fixed-size encoding of a quad.
type wireQuad struct {
	Texture  int32
	Color    [3]float32
	Vertices [4][5]float32
}

func wireQuadOf(q mesh.Quad) wireQuad {
	w := wireQuad{Texture: int32(q.Texture), Color: q.Color}
	for i, v := range q.Vertices {
		w.Vertices[i] = [5]float32{v.X, v.Y, v.Z, v.U, v.V}
	}
	return w
}

func (w wireQuad) quad() mesh.Quad {
	q := mesh.Quad{Texture: int(w.Texture), Color: w.Color}
	for i, v := range w.Vertices {
		q.Vertices[i] = mesh.Vertex{X: v[0], Y: v[1], Z: v[2], U: v[3], V: v[4]}
	}
	return q
}

func writeZstdCompressed(w io.Writer, buf *bytes.Buffer) (err error) {
	uncompressedSize := buf.Len()

	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed)
	if err != nil {
		return
	}
	if _, err = buf.WriteTo(zw); err != nil {
		return
	}
	if err = zw.Close(); err != nil {
		return
	}

	if err = binary.Write(w, binary.BigEndian, uint32(compressed.Len())); err != nil {
		return
	}
	if err = binary.Write(w, binary.BigEndian, uint32(uncompressedSize)); err != nil {
		return
	}
	_, err = compressed.WriteTo(w)
	return
}

func readZstdCompressed(r io.Reader, dec *zstd.Decoder) ([]byte, error) {
	var sizes [2]uint32
	if err := binary.Read(r, binary.BigEndian, &sizes); err != nil {
		return nil, err
	}
	if sizes[1] > maxSection {
		return nil, fmt.Errorf("%w: section of %d bytes", ErrCorrupt, sizes[1])
	}
	compressed, err := readFull(r, int64(sizes[0]))
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, err
	}
	if len(out) != int(sizes[1]) {
		return nil, fmt.Errorf("%w: section is %d bytes, header says %d", ErrCorrupt, len(out), sizes[1])
	}
	return out, nil
}

// readFull reads exactly n bytes. Memory grows with what r actually holds,
// not with n.
func readFull(r io.Reader, n int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) != n {
		return nil, fmt.Errorf("%w: wanted %d bytes, got %d", ErrCorrupt, n, len(b))
	}
	return b, nil
}

// Read parses a dump written by Write.
func Read(r io.Reader) (*Dump, error) {
	var header dumpHeader
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, err
	}
	if header.Magic != dumpMagic {
		return nil, ErrNotDump
	}
	if header.Version != dumpVersion {
		return nil, fmt.Errorf("%w: version %d", ErrNotDump, header.Version)
	}
	width, depth := int(header.Width), int(header.Depth)
	bitmap, err := readFull(r, int64((width*depth+7)/8))
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxSection))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	geometry, err := readZstdCompressed(r, dec)
	if err != nil {
		return nil, fmt.Errorf("export: geometry: %w", err)
	}
	extra, err := readZstdCompressed(r, dec)
	if err != nil {
		return nil, fmt.Errorf("export: world info: %w", err)
	}
	var info dumpInfo
	if err = nbt.Read(bytes.NewReader(extra), &info); err != nil {
		return nil, err
	}

	d := NewDump(info.Name, info.Seed)
	body := bytes.NewReader(geometry)
	for i := 0; i < width*depth; i++ {
		if bitmap[i/8]&(1<<(i%8)) == 0 {
			continue
		}
		k := ChunkKey{X: int(header.MinX) + i%width, Z: int(header.MinZ) + i/width}
		batches, err := readChunk(body)
		if err != nil {
			return nil, fmt.Errorf("export: chunk %d,%d: %w", k.X, k.Z, err)
		}
		d.chunks[k] = batches
	}
	return d, nil
}

func readChunk(r *bytes.Reader) ([]PassBatch, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	batches := make([]PassBatch, n)
	for i := range batches {
		var head struct {
			Sheet, Pass uint8
			Quads       uint32
		}
		if err := binary.Read(r, binary.BigEndian, &head); err != nil {
			return nil, err
		}
		if int64(head.Quads) > int64(r.Len()/binary.Size(wireQuad{})) {
			return nil, fmt.Errorf("%w: %d quads in %d bytes", ErrCorrupt, head.Quads, r.Len())
		}
		wire := make([]wireQuad, head.Quads)
		if err := binary.Read(r, binary.BigEndian, wire); err != nil {
			return nil, err
		}
		b := PassBatch{Sheet: int(head.Sheet), Pass: chunk.Pass(head.Pass), Quads: make([]mesh.Quad, len(wire))}
		for j, w := range wire {
			b.Quads[j] = w.quad()
		}
		batches[i] = b
	}
	return batches, nil
}
