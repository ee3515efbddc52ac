package stream

import (
	"bytes"
	"io"
	"log"
	"testing"
	"time"

	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/chunk"
	"github.com/astei/chunkscope/metrics"
	"github.com/astei/chunkscope/nbt"
	"github.com/astei/chunkscope/region"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource serves encoded flat chunks from memory and counts every
// request made to it.
type countingSource struct {
	chunks map[ColumnKey][]byte
	calls  int
}

func newCountingSource() *countingSource {
	return &countingSource{chunks: make(map[ColumnKey][]byte)}
}

func (s *countingSource) Chunk(x, z int) (io.Reader, error) {
	s.calls++
	b, ok := s.chunks[ColumnKey{x, z}]
	if !ok {
		return nil, region.ErrNoChunk
	}
	return bytes.NewReader(b), nil
}

// add stores a flat chunk with a stone floor at y=0, recorded under the
// stored coordinate sx, sz.
func (s *countingSource) add(t *testing.T, x, z, sx, sz int) {
	t.Helper()
	blockArr := make([]byte, chunk.FlatCells)
	for bx := 0; bx < chunk.Width; bx++ {
		for bz := 0; bz < chunk.Width; bz++ {
			blockArr[bz*chunk.FlatHeight+bx*chunk.FlatHeight*chunk.Width] = 1
		}
	}
	var buf bytes.Buffer
	require.NoError(t, nbt.Marshal(&buf, nbt.ChunkRoot{Level: nbt.ChunkLevel{
		X:      int32(sx),
		Z:      int32(sz),
		Blocks: blockArr,
		Data:   make([]byte, chunk.FlatCells/2),
	}}))
	s.chunks[ColumnKey{x, z}] = buf.Bytes()
}

func (s *countingSource) fill(t *testing.T, x0, z0, x1, z1 int) {
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			s.add(t, x, z, x, z)
		}
	}
}

func emptyChunk(x, z int) *chunk.Chunk {
	return chunk.NewFlat(x, z, make([]byte, chunk.FlatCells), nil)
}

func TestCacheIndex(t *testing.T) {
	c := NewCache(4, nil)
	ix, iz := c.Index(-1, -4)
	assert.Equal(t, 3, ix)
	assert.Equal(t, 0, iz)
	ix, iz = c.Index(5, 2)
	assert.Equal(t, 1, ix)
	assert.Equal(t, 2, iz)

	assert.Equal(t, DefaultSize, NewCache(0, nil).Size())
}

func TestCacheToroidalEviction(t *testing.T) {
	m := metrics.New(nil)
	c := NewCache(4, m)
	var evicted []*chunk.Chunk
	c.OnEvict = func(ch *chunk.Chunk) { evicted = append(evicted, ch) }

	first := emptyChunk(1, 2)
	assert.Nil(t, c.Put(first))
	assert.Same(t, first, c.Peek(1, 2))

	second := emptyChunk(5, 2)
	assert.Same(t, first, c.Put(second))
	assert.Nil(t, c.Peek(1, 2))
	assert.Same(t, second, c.Peek(5, 2))
	assert.Equal(t, []*chunk.Chunk{first}, evicted)

	state, ox, oz := c.Slot(1, 2)
	assert.Equal(t, SlotResident, state)
	assert.Equal(t, 5, ox)
	assert.Equal(t, 2, oz)

	var seen []*chunk.Chunk
	c.Each(func(ch *chunk.Chunk) { seen = append(seen, ch) })
	assert.Equal(t, []*chunk.Chunk{second}, seen)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resident))
}

func TestCacheSlotStates(t *testing.T) {
	c := NewCache(4, nil)
	state, _, _ := c.Slot(0, 0)
	assert.Equal(t, SlotEmpty, state)

	c.Reserve(0, 0)
	state, _, _ = c.Slot(0, 0)
	assert.Equal(t, SlotLoading, state)
	assert.Nil(t, c.Peek(0, 0))

	// Evicting another coordinate that maps to the same slot is a no-op.
	c.Evict(4, 0)
	state, _, _ = c.Slot(0, 0)
	assert.Equal(t, SlotLoading, state)

	c.Evict(0, 0)
	state, _, _ = c.Slot(0, 0)
	assert.Equal(t, SlotEmpty, state)

	c.Put(emptyChunk(0, 0))
	c.Put(emptyChunk(1, 1))
	evicted := 0
	c.OnEvict = func(*chunk.Chunk) { evicted++ }
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, evicted)
}

func TestResolverNeverLoads(t *testing.T) {
	src := newCountingSource()
	src.fill(t, -2, -2, 2, 2)
	cache := NewCache(8, nil)
	r := NewResolver(cache)

	c := emptyChunk(0, 0)
	n := r.Adjacent(c, 15, 10, 0, blocks.FaceEast)
	assert.Equal(t, Unresolved, n.Kind)
	n = r.BlockAt(c, -1, 10, -1)
	assert.False(t, n.Resolved())
	_, _, ok := r.Neighbor(c, 3, 10, 16)
	assert.False(t, ok)
	assert.Zero(t, src.calls)
}

func TestResolverKinds(t *testing.T) {
	cache := NewCache(8, nil)
	r := NewResolver(cache)

	blockArr := make([]byte, chunk.FlatCells)
	blockArr[10+0*chunk.FlatHeight+0*chunk.FlatHeight*chunk.Width] = 4
	east := chunk.NewFlat(1, 0, blockArr, nil)
	east.SetData(0, 10, 0, 9)
	cache.Put(east)

	self := emptyChunk(0, 0)
	cache.Put(self)

	n := r.Adjacent(self, 15, 10, 0, blocks.FaceEast)
	assert.Equal(t, Neighbor{Kind: OtherChunk, ID: 4, Data: 9}, n)

	n = r.Adjacent(self, 3, 10, 3, blocks.FaceNorth)
	assert.Equal(t, Neighbor{Kind: SameChunk}, n)

	n = r.Adjacent(self, 3, chunk.FlatHeight-1, 3, blocks.FaceTop)
	assert.Equal(t, Unresolved, n.Kind)
	n = r.Adjacent(self, 3, 0, 3, blocks.FaceBottom)
	assert.Equal(t, Unresolved, n.Kind)

	// Negative offsets land in the chunk to the west.
	west := chunk.NewFlat(-1, -1, blockArr, nil)
	cache.Put(west)
	n = r.BlockAt(self, -16, 10, -16)
	assert.Equal(t, OtherChunk, n.Kind)
	assert.Equal(t, 4, n.ID)
	n = r.BlockAt(self, -1, 10, -1)
	assert.Equal(t, Neighbor{Kind: OtherChunk}, n)
}

func TestLoaderInit(t *testing.T) {
	src := newCountingSource()
	src.fill(t, -1, -1, 1, 1)
	cache := NewCache(8, nil)
	mm := NewMinimap(4, false)
	l := NewLoader(cache, src, LoaderOptions{Radius: 1, Minimap: mm})

	var calls []int
	loaded := l.Init(0, 0, func(done, total int) {
		assert.Equal(t, 9, total)
		calls = append(calls, done)
	})
	assert.Equal(t, 9, loaded)
	assert.Len(t, calls, 9)
	assert.Equal(t, 9, cache.Len())
	assert.Equal(t, 9, src.calls)
	assert.Equal(t, 9, mm.Len())

	top, ok := mm.Column(1, -1)
	require.True(t, ok)
	assert.Equal(t, 1, top[0])
}

func TestLoaderRadiusClamp(t *testing.T) {
	l := NewLoader(NewCache(8, nil), newCountingSource(), LoaderOptions{Radius: 10})
	assert.Equal(t, 3, l.Radius())
}

func TestLoaderMoveQueuesOneStrip(t *testing.T) {
	src := newCountingSource()
	src.fill(t, -3, -3, 4, 3)
	cache := NewCache(8, nil)
	l := NewLoader(cache, src, LoaderOptions{Radius: 2})
	require.Equal(t, 25, l.Init(0, 0, nil))
	cache.Each(func(c *chunk.Chunk) { c.ClearDirty(0, chunk.PassSolid) })

	assert.Equal(t, 5, l.Move(1, 0))
	assert.Equal(t, 5, l.Pending())
	for _, req := range l.queue {
		assert.Equal(t, 3, req.x)
	}

	assert.Equal(t, 5, l.Pump(time.Hour))
	assert.Zero(t, l.Pending())
	for z := -2; z <= 2; z++ {
		require.NotNil(t, cache.Peek(3, z))
		assert.True(t, cache.Peek(2, z).IsDirty(0, chunk.PassSolid))
		assert.False(t, cache.Peek(1, z).IsDirty(0, chunk.PassSolid))
	}

	// A diagonal step queues one column and one row.
	assert.Equal(t, 10, l.Move(2, 1))
	assert.Zero(t, l.Move(2, 1))
}

func TestLoaderMarksFourNeighbors(t *testing.T) {
	src := newCountingSource()
	src.fill(t, -1, -1, 1, 1)
	delete(src.chunks, ColumnKey{0, 0})
	cache := NewCache(8, nil)
	l := NewLoader(cache, src, LoaderOptions{Radius: 1})
	require.Equal(t, 8, l.Init(0, 0, nil))
	cache.Each(func(c *chunk.Chunk) { c.ClearDirty(0, chunk.PassSolid) })

	src.add(t, 0, 0, 0, 0)
	require.True(t, l.load(0, 0))

	var dirty []ColumnKey
	cache.Each(func(c *chunk.Chunk) {
		if c.X == 0 && c.Z == 0 {
			return
		}
		if c.IsDirty(0, chunk.PassSolid) {
			dirty = append(dirty, ColumnKey{c.X, c.Z})
		}
	})
	assert.ElementsMatch(t, []ColumnKey{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}, dirty)
}

func TestLoaderSkipsResident(t *testing.T) {
	src := newCountingSource()
	src.fill(t, 0, 0, 0, 0)
	l := NewLoader(NewCache(4, nil), src, LoaderOptions{Radius: 1})
	l.Init(0, 0, nil)
	calls := src.calls
	assert.False(t, l.load(0, 0))
	assert.Equal(t, calls, src.calls)
}

func TestLoaderPumpBudget(t *testing.T) {
	src := newCountingSource()
	src.fill(t, 0, -3, 8, 3)
	l := NewLoader(NewCache(8, nil), src, LoaderOptions{Radius: 1})
	l.Init(0, 0, nil)
	require.Equal(t, 3, l.Move(1, 0))

	clock := time.Unix(0, 0)
	l.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}
	assert.Equal(t, 2, l.Pump(2*time.Millisecond))
	assert.Equal(t, 1, l.Pending())
	// A zero budget still starts one request.
	assert.Equal(t, 1, l.Pump(0))
}

func TestLoaderDropsStaleRequests(t *testing.T) {
	src := newCountingSource()
	src.fill(t, -20, -1, 20, 1)
	cache := NewCache(8, nil)
	l := NewLoader(cache, src, LoaderOptions{Radius: 1})
	l.Init(0, 0, nil)

	l.Move(10, 0)
	l.Move(0, 0)
	calls := src.calls
	l.Pump(time.Hour)
	assert.Equal(t, calls, src.calls)
	assert.NotNil(t, cache.Peek(0, 0))
}

func TestLoaderFailures(t *testing.T) {
	var logs bytes.Buffer
	m := metrics.New(nil)
	src := newCountingSource()
	src.chunks[ColumnKey{0, 0}] = []byte{0xff, 0x00}
	src.add(t, 1, 0, 7, 7)
	cache := NewCache(8, nil)
	l := NewLoader(cache, src, LoaderOptions{
		Radius:  1,
		Logger:  log.New(&logs, "", 0),
		Metrics: m,
	})
	assert.Zero(t, l.Init(0, 0, nil))

	state, _, _ := cache.Slot(0, 0)
	assert.Equal(t, SlotEmpty, state)
	assert.Contains(t, logs.String(), "chunk 0,0 not loaded")
	assert.Contains(t, logs.String(), ErrMisplaced.Error())
	// Seven absent chunks are not failures.
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoadFailures))

	// A failed decode is retried on the next request.
	src.add(t, 0, 0, 0, 0)
	assert.True(t, l.load(0, 0))
	assert.NotNil(t, cache.Peek(0, 0))
}

func TestMinimapTrim(t *testing.T) {
	mm := NewMinimap(4, false)
	for x := 0; x < 10; x++ {
		for z := 0; z < 2; z++ {
			mm.Add(emptyChunk(x, z))
		}
	}
	assert.Equal(t, 20, mm.Len())

	assert.Zero(t, mm.Moved(3, 0))
	assert.Equal(t, 8, mm.Moved(1, 0))
	_, ok := mm.Column(3, 0)
	assert.False(t, ok)
	_, ok = mm.Column(4, 0)
	assert.True(t, ok)

	assert.Zero(t, mm.Moved(-3, 0))
	assert.Equal(t, 8, mm.Moved(-1, 0))
	lo, hi, ok := mm.Bounds()
	require.True(t, ok)
	assert.Equal(t, ColumnKey{4, 0}, lo)
	assert.Equal(t, ColumnKey{5, 1}, hi)

	assert.Equal(t, 4, mm.Moved(0, 4))
	assert.Zero(t, mm.Len())
	assert.Zero(t, mm.Moved(0, -8))
}
