// Package level reads world metadata from level.dat and resolves the
// directories of a world's dimensions.
package level

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/astei/chunkscope/nbt"
	"github.com/klauspost/compress/gzip"
)

// ErrNoLevel is returned when a world directory has no level.dat.
var ErrNoLevel = errors.New("level: level.dat not found")

// FileName is the metadata file inside a world directory.
const FileName = "level.dat"

// Storage version numbers stored in level.dat.
const (
	VersionMcRegion = 19132
	VersionAnvil    = 19133
)

type Dimension int

const (
	Overworld Dimension = iota
	Nether
	End
)

func (d Dimension) String() string {
	switch d {
	case Nether:
		return "nether"
	case End:
		return "end"
	}
	return "overworld"
}

// Dir is the dimension's directory relative to the world directory.
func (d Dimension) Dir() string {
	switch d {
	case Nether:
		return "DIM-1"
	case End:
		return "DIM1"
	}
	return ""
}

// ParseDimension accepts a dimension name or its stored number.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(s) {
	case "", "overworld", "0":
		return Overworld, nil
	case "nether", "-1":
		return Nether, nil
	case "end", "1":
		return End, nil
	}
	return Overworld, fmt.Errorf("level: unknown dimension %q", s)
}

func dimensionOf(stored int32) Dimension {
	switch stored {
	case -1:
		return Nether
	case 1:
		return End
	}
	return Overworld
}

// Path returns the directory holding the chunks of dimension d.
func Path(world string, d Dimension) string {
	if d == Overworld {
		return world
	}
	return filepath.Join(world, d.Dir())
}

// Info is the part of level.dat the viewer uses.
type Info struct {
	Name    string
	Seed    int64
	Version int32

	SpawnX, SpawnY, SpawnZ int

	// HasPlayer is false for worlds saved without a single-player entry.
	HasPlayer       bool
	PlayerX         float64
	PlayerY         float64
	PlayerZ         float64
	PlayerDimension Dimension
}

// Format names the storage layout Version implies.
func (i *Info) Format() string {
	switch i.Version {
	case VersionAnvil:
		return "anvil"
	case VersionMcRegion:
		return "mcregion"
	case 0:
		return "alpha"
	}
	return fmt.Sprintf("unknown (%d)", i.Version)
}

// SpawnChunk is the chunk holding the spawn point.
func (i *Info) SpawnChunk() (x, z int) {
	return i.SpawnX >> 4, i.SpawnZ >> 4
}

// StartChunk is where a viewer starts: the player's chunk if there is one,
// otherwise the spawn chunk.
func (i *Info) StartChunk() (x, z int) {
	if i.HasPlayer {
		return int(math.Floor(i.PlayerX / 16)), int(math.Floor(i.PlayerZ / 16))
	}
	return i.SpawnChunk()
}

// Read parses a gzip-compressed level.dat.
func Read(r io.Reader) (*Info, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("level: not gzip: %w", err)
	}
	defer zr.Close()
	root, err := nbt.ReadLevel(zr)
	if err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}

	d := root.Data
	info := &Info{
		Name:    d.LevelName,
		Seed:    d.RandomSeed,
		Version: d.Version,
		SpawnX:  int(d.SpawnX),
		SpawnY:  int(d.SpawnY),
		SpawnZ:  int(d.SpawnZ),
	}
	if len(d.Player.Pos) == 3 {
		info.HasPlayer = true
		info.PlayerX, info.PlayerY, info.PlayerZ = d.Player.Pos[0], d.Player.Pos[1], d.Player.Pos[2]
		info.PlayerDimension = dimensionOf(d.Player.Dimension)
	}
	return info, nil
}

// Load reads level.dat from a world directory.
func Load(world string) (*Info, error) {
	f, err := os.Open(filepath.Join(world, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNoLevel, world)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
