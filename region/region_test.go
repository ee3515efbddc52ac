package region

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/astei/chunkscope/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureChunk struct {
	x, z        int
	compression Compression
	raw         []byte
}

func chunkTree(t *testing.T, cx, cz int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, nbt.Marshal(&buf, nbt.ChunkRoot{Level: nbt.ChunkLevel{
		X:      int32(cx),
		Z:      int32(cz),
		Blocks: make([]byte, 32768),
		Data:   make([]byte, 16384),
	}}))
	return buf.Bytes()
}

func compress(t *testing.T, c Compression, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch c {
	case CompressionGzip:
		w := gzip.NewWriter(&buf)
		_, err := w.Write(raw)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case CompressionZlib:
		w := zlib.NewWriter(&buf)
		_, err := w.Write(raw)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		buf.Write(raw)
	}
	return buf.Bytes()
}

// writeRegion lays chunks out one after another starting at sector 2.
func writeRegion(t *testing.T, path string, chunks ...fixtureChunk) {
	t.Helper()
	var table [Slots]uint32
	var body bytes.Buffer
	sector := 2
	for _, c := range chunks {
		data := compress(t, c.compression, c.raw)
		var payload bytes.Buffer
		require.NoError(t, binary.Write(&payload, binary.BigEndian, int32(len(data)+1)))
		payload.WriteByte(byte(c.compression))
		payload.Write(data)
		sectors := (payload.Len() + SectorSize - 1) / SectorSize
		payload.Write(make([]byte, sectors*SectorSize-payload.Len()))

		table[Slot(c.x, c.z)] = uint32(sector)<<8 | uint32(sectors)
		body.Write(payload.Bytes())
		sector += sectors
	}

	var out bytes.Buffer
	require.NoError(t, binary.Write(&out, binary.BigEndian, table))
	out.Write(make([]byte, SectorSize)) // timestamps
	out.Write(body.Bytes())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0644))
}

func writeLegacy(t *testing.T, base string, cx, cz int) {
	t.Helper()
	path := LegacyPath(base, cx, cz)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, compress(t, CompressionGzip, chunkTree(t, cx, cz)), 0644))
}

func readCoords(t *testing.T, s *Store, cx, cz int) (int32, int32) {
	t.Helper()
	r, err := s.Chunk(cx, cz)
	require.NoError(t, err)
	root, err := nbt.ReadChunk(r)
	require.NoError(t, err)
	return root.Level.X, root.Level.Z
}

func TestRegionAddressing(t *testing.T) {
	assert.Equal(t, Coord{X: 2, Z: -1}, CoordOf(67, -5))
	x, z := Local(67, -5)
	assert.Equal(t, 3, x)
	assert.Equal(t, 27, z)
	assert.Equal(t, 3+27*32, Slot(x, z))
}

func TestLocate(t *testing.T) {
	base := t.TempDir()
	writeRegion(t, filepath.Join(base, "region", "r.2.-1.mca"),
		fixtureChunk{x: 3, z: 27, compression: CompressionZlib, raw: chunkTree(t, 67, -5)},
		fixtureChunk{x: 4, z: 27, compression: CompressionGzip, raw: chunkTree(t, 68, -5)},
	)
	s := NewStore(base, Options{})
	defer s.Close()

	x, z := readCoords(t, s, 67, -5)
	assert.Equal(t, int32(67), x)
	assert.Equal(t, int32(-5), z)
	x, _ = readCoords(t, s, 68, -5)
	assert.Equal(t, int32(68), x)

	_, err := s.Locate(69, -5)
	assert.True(t, errors.Is(err, ErrNoChunk))
	_, err = s.Locate(500, 500)
	assert.True(t, errors.Is(err, ErrNoChunk))

	h, err := s.Open(Coord{X: 2, Z: -1})
	require.NoError(t, err)
	assert.Equal(t, 2, h.Count())
	assert.True(t, h.Exists(3, 27))
	assert.False(t, h.Exists(5, 27))
}

func TestMcRegionExtension(t *testing.T) {
	base := t.TempDir()
	writeRegion(t, filepath.Join(base, "region", "r.0.0.mcr"),
		fixtureChunk{x: 1, z: 2, compression: CompressionZlib, raw: chunkTree(t, 1, 2)})
	s := NewStore(base, Options{})
	defer s.Close()

	x, z := readCoords(t, s, 1, 2)
	assert.Equal(t, int32(1), x)
	assert.Equal(t, int32(2), z)
}

func TestCorruptPayloadFallsBackToLegacy(t *testing.T) {
	base := t.TempDir()
	writeRegion(t, filepath.Join(base, "region", "r.0.0.mca"),
		fixtureChunk{x: 1, z: 1, compression: Compression(9), raw: []byte("garbage")})
	s := NewStore(base, Options{})
	defer s.Close()

	_, err := s.Locate(1, 1)
	assert.True(t, errors.Is(err, ErrPayloadCorrupt))

	_, err = s.Chunk(1, 1)
	assert.True(t, errors.Is(err, ErrNoChunk), "no legacy copy is a plain miss")

	writeLegacy(t, base, 1, 1)
	x, z := readCoords(t, s, 1, 1)
	assert.Equal(t, int32(1), x)
	assert.Equal(t, int32(1), z)
}

func TestTruncatedContainerIsAbsent(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "region", "r.0.0.mca")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	header := make([]byte, 2*SectorSize)
	binary.BigEndian.PutUint32(header, 2<<8|1)
	require.NoError(t, os.WriteFile(path, header, 0644))

	s := NewStore(base, Options{})
	_, err := s.Locate(0, 0)
	assert.True(t, errors.Is(err, ErrNoChunk))
	assert.Equal(t, 0, s.OpenHandles())
}

func TestTruncatedAnvilFallsBackToMcRegion(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "region"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "region", "r.0.0.mca"), make([]byte, SectorSize), 0644))
	writeRegion(t, filepath.Join(base, "region", "r.0.0.mcr"),
		fixtureChunk{x: 4, z: 5, compression: CompressionZlib, raw: chunkTree(t, 4, 5)})

	s := NewStore(base, Options{})
	defer s.Close()
	x, z := readCoords(t, s, 4, 5)
	assert.Equal(t, int32(4), x)
	assert.Equal(t, int32(5), z)
	assert.Equal(t, 1, s.OpenHandles())

	stats, err := s.Census()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Chunks)
	assert.Equal(t, filepath.Join(base, "region", "r.0.0.mcr"), stats[0].Path)
}

func TestLegacyPath(t *testing.T) {
	assert.Equal(t, filepath.Join("w", "3", "1n", "c.1v.-5.dat"), LegacyPath("w", 67, -5))
	assert.Equal(t, filepath.Join("w", "0", "0", "c.0.0.dat"), LegacyPath("w", 0, 0))

	cx, cz, ok := parseLegacyName("c.1v.-5.dat")
	require.True(t, ok)
	assert.Equal(t, 67, cx)
	assert.Equal(t, -5, cz)
	_, _, ok = parseLegacyName("r.0.0.mca")
	assert.False(t, ok)
}

func TestLegacyOnlyWorld(t *testing.T) {
	base := t.TempDir()
	writeLegacy(t, base, -40, 7)
	s := NewStore(base, Options{})

	x, z := readCoords(t, s, -40, 7)
	assert.Equal(t, int32(-40), x)
	assert.Equal(t, int32(7), z)

	_, err := s.Chunk(0, 0)
	assert.True(t, errors.Is(err, ErrNoChunk))
}

func TestPoolClearsWhenFull(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"r.0.0.mca", "r.1.0.mca", "r.2.0.mca"} {
		writeRegion(t, filepath.Join(base, "region", name),
			fixtureChunk{x: 0, z: 0, compression: CompressionZlib, raw: chunkTree(t, 0, 0)})
	}
	s := NewStore(base, Options{PoolSize: 2})
	defer s.Close()

	_, err := s.Locate(0, 0)
	require.NoError(t, err)
	_, err = s.Locate(32, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, s.OpenHandles())

	_, err = s.Locate(64, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.OpenHandles())
}

func TestRegions(t *testing.T) {
	base := t.TempDir()
	raw := chunkTree(t, 0, 0)
	writeRegion(t, filepath.Join(base, "region", "r.1.-2.mca"), fixtureChunk{compression: CompressionZlib, raw: raw})
	writeRegion(t, filepath.Join(base, "region", "r.1.-2.mcr"), fixtureChunk{compression: CompressionZlib, raw: raw})
	writeRegion(t, filepath.Join(base, "region", "r.-3.0.mca"), fixtureChunk{compression: CompressionZlib, raw: raw})
	require.NoError(t, os.WriteFile(filepath.Join(base, "region", "notes.txt"), nil, 0644))

	regions, err := NewStore(base, Options{}).Regions()
	require.NoError(t, err)
	assert.Equal(t, []Coord{{X: -3, Z: 0}, {X: 1, Z: -2}}, regions)
}

func TestNearestResident(t *testing.T) {
	base := t.TempDir()
	raw := chunkTree(t, 0, 0)
	writeRegion(t, filepath.Join(base, "region", "r.0.0.mca"),
		fixtureChunk{x: 6, z: 5, compression: CompressionZlib, raw: raw},
		fixtureChunk{x: 20, z: 20, compression: CompressionZlib, raw: raw},
		fixtureChunk{x: 0, z: 31, compression: CompressionZlib, raw: raw},
	)
	writeRegion(t, filepath.Join(base, "region", "r.1.0.mca"),
		fixtureChunk{x: 1, z: 0, compression: CompressionZlib, raw: raw})
	s := NewStore(base, Options{})
	defer s.Close()

	x, z, ok := s.NearestResident(5, 5)
	require.True(t, ok)
	assert.Equal(t, [2]int{6, 5}, [2]int{x, z})

	x, z, ok = s.NearestResident(31, 0)
	require.True(t, ok)
	assert.Equal(t, [2]int{33, 0}, [2]int{x, z})

	x, z, ok = s.NearestResident(-100, 40)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 31}, [2]int{x, z})
}

func TestNearestResidentLegacy(t *testing.T) {
	base := t.TempDir()
	writeLegacy(t, base, 10, 10)
	writeLegacy(t, base, -3, 2)

	x, z, ok := NewStore(base, Options{}).NearestResident(0, 0)
	require.True(t, ok)
	assert.Equal(t, [2]int{-3, 2}, [2]int{x, z})
}

func TestNearestResidentEmptyWorld(t *testing.T) {
	_, _, ok := NewStore(t.TempDir(), Options{}).NearestResident(0, 0)
	assert.False(t, ok)
}

func TestCensus(t *testing.T) {
	base := t.TempDir()
	writeRegion(t, filepath.Join(base, "region", "r.0.0.mca"),
		fixtureChunk{x: 0, z: 0, compression: CompressionZlib, raw: chunkTree(t, 0, 0)},
		fixtureChunk{x: 1, z: 0, compression: CompressionZlib, raw: chunkTree(t, 1, 0)},
	)
	writeRegion(t, filepath.Join(base, "region", "r.-1.0.mca"),
		fixtureChunk{x: 31, z: 0, compression: CompressionGzip, raw: chunkTree(t, -1, 0)})
	require.NoError(t, os.WriteFile(filepath.Join(base, "region", "r.2.2.mca"), make([]byte, 100), 0644))

	s := NewStore(base, Options{})
	defer s.Close()
	stats, err := s.Census()
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, Coord{X: -1, Z: 0}, stats[0].Coord)
	assert.Equal(t, 1, stats[0].Chunks)
	assert.Equal(t, 2, stats[1].Chunks)
	assert.Greater(t, stats[1].Bytes, int64(2*SectorSize))
	assert.Equal(t, Coord{X: 2, Z: 2}, stats[2].Coord)
	assert.Equal(t, 0, stats[2].Chunks)
	assert.Equal(t, int64(100), stats[2].Bytes)
	assert.Equal(t, 0, s.OpenHandles())
}
