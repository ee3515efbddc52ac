package stream

import (
	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/chunk"
)

// NeighborKind tells where a neighbor lookup was answered.
type NeighborKind int

const (
	// Unresolved means the cell is above or below the world, or its chunk is
	// not resident. Callers treat it as absent.
	Unresolved NeighborKind = iota
	SameChunk
	OtherChunk
)

func (k NeighborKind) String() string {
	switch k {
	case SameChunk:
		return "same"
	case OtherChunk:
		return "other"
	}
	return "unresolved"
}

// Neighbor is the result of a resolver lookup.
type Neighbor struct {
	Kind NeighborKind
	ID   int
	Data int
}

// Resolved reports whether the lookup found a cell.
func (n Neighbor) Resolved() bool {
	return n.Kind != Unresolved
}

// Resolver answers block queries that may cross chunk boundaries. It only
// ever consults chunks that are already resident: looking at a neighbor never
// starts a load.
type Resolver struct {
	cache *Cache
}

func NewResolver(cache *Cache) *Resolver {
	return &Resolver{cache: cache}
}

// Adjacent returns the cell next to local x, y, z of c in direction face.
func (r *Resolver) Adjacent(c *chunk.Chunk, x, y, z int, face blocks.Face) Neighbor {
	dx, dy, dz := face.Offset()
	return r.BlockAt(c, x+dx, y+dy, z+dz)
}

// BlockAt resolves a position given relative to c's origin. x and z may lie
// outside 0..15, in which case the owning chunk is looked up in the cache.
func (r *Resolver) BlockAt(c *chunk.Chunk, x, y, z int) Neighbor {
	if y < 0 || y >= c.Height() {
		return Neighbor{}
	}
	if x >= 0 && x < chunk.Width && z >= 0 && z < chunk.Width {
		return Neighbor{Kind: SameChunk, ID: c.Block(x, y, z), Data: c.Data(x, y, z)}
	}
	cx, lx := split(c.X, x)
	cz, lz := split(c.Z, z)
	other := r.cache.Peek(cx, cz)
	if other == nil {
		return Neighbor{}
	}
	id := other.Block(lx, y, lz)
	if id < 0 {
		// A flat neighbor is shorter than a sectioned chunk.
		return Neighbor{}
	}
	return Neighbor{Kind: OtherChunk, ID: id, Data: other.Data(lx, y, lz)}
}

// Neighbor is the plain form of BlockAt used by the mesher.
func (r *Resolver) Neighbor(c *chunk.Chunk, x, y, z int) (id, data int, ok bool) {
	n := r.BlockAt(c, x, y, z)
	return n.ID, n.Data, n.Resolved()
}

// split turns a chunk coordinate plus an out-of-range local offset into the
// owning chunk and the local coordinate inside it.
func split(base, local int) (owner, rest int) {
	owner = base + (local >> 4)
	rest = local & (chunk.Width - 1)
	return owner, rest
}
