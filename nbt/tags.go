// Package nbt holds the tag trees chunkscope consumes. Parsing is delegated to
// go-mc; this package only fixes the shape of the trees we extract values from
// and provides an encoder for writing them back out.
package nbt

// Tag type identifiers as they appear on the wire.
const (
	TagEnd byte = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

// ChunkRoot is the root compound of a stored chunk, shared by the legacy
// per-chunk files and region payloads.
type ChunkRoot struct {
	Level ChunkLevel `nbt:"Level"`
}

// ChunkLevel carries both historical layouts. A flat chunk fills Blocks and
// Data; a sectioned chunk fills Sections. Fields that were not present in the
// tree stay nil, and the encoder skips nil slices so they round trip.
type ChunkLevel struct {
	X int32 `nbt:"xPos"`
	Z int32 `nbt:"zPos"`

	Blocks []byte `nbt:"Blocks"`
	Data   []byte `nbt:"Data"`

	Sections []ChunkSection `nbt:"Sections"`
	Entities []Entity       `nbt:"Entities"`
}

// ChunkSection is one 16x16x16 sub-volume of a sectioned chunk.
type ChunkSection struct {
	Y      int8   `nbt:"Y"`
	Blocks []byte `nbt:"Blocks"`
	Data   []byte `nbt:"Data"`
	Add    []byte `nbt:"Add"`
}

// Entity keeps the handful of entity fields the decoder looks at. Everything
// else in an entity compound is skipped by the parser.
type Entity struct {
	ID     string `nbt:"id"`
	TileX  int32  `nbt:"TileX"`
	TileY  int32  `nbt:"TileY"`
	TileZ  int32  `nbt:"TileZ"`
	Dir    int8   `nbt:"Dir"`
	Facing int8   `nbt:"Facing"`
	Motive string `nbt:"Motive"`
}

// LevelRoot is the root compound of level.dat.
type LevelRoot struct {
	Data LevelData `nbt:"Data"`
}

type LevelData struct {
	RandomSeed int64       `nbt:"RandomSeed"`
	LevelName  string      `nbt:"LevelName"`
	Version    int32       `nbt:"version"`
	SpawnX     int32       `nbt:"SpawnX"`
	SpawnY     int32       `nbt:"SpawnY"`
	SpawnZ     int32       `nbt:"SpawnZ"`
	Player     LevelPlayer `nbt:"Player"`
}

type LevelPlayer struct {
	Pos       []float64 `nbt:"Pos"`
	Dimension int32     `nbt:"Dimension"`
}
