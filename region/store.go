package region

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// DefaultPoolSize bounds the number of region handles kept open at once.
const DefaultPoolSize = 64

// minContainerSize is the size at or below which a container cannot hold a
// single payload: twice the 4 KiB offset table. Some writers leave files of
// exactly this size behind as placeholders.
const minContainerSize = 2 * SectorSize

// Coord identifies a region by its region-space coordinates.
type Coord struct {
	X int
	Z int
}

// CoordOf returns the region containing the chunk at cx, cz.
func CoordOf(cx, cz int) Coord {
	return Coord{X: cx >> 5, Z: cz >> 5}
}

// Local returns the in-region slot coordinates of the chunk at cx, cz.
func Local(cx, cz int) (x, z int) {
	return cx & (Edge - 1), cz & (Edge - 1)
}

type Options struct {
	// PoolSize is the handle pool capacity; zero means DefaultPoolSize.
	PoolSize int
	Logger   *log.Logger
}

// Store locates chunk payloads under a dimension directory, either in region
// containers below region/ or as legacy per-chunk files. A Store is not safe
// for concurrent use.
type Store struct {
	base     string
	poolSize int
	logger   *log.Logger

	handles map[Coord]*Handle
	absent  map[Coord]bool
	warned  map[string]bool
}

func NewStore(base string, opts Options) *Store {
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		base:     base,
		poolSize: opts.PoolSize,
		logger:   opts.Logger,
		handles:  make(map[Coord]*Handle),
		absent:   make(map[Coord]bool),
		warned:   make(map[string]bool),
	}
}

// Base returns the dimension directory the store reads from.
func (s *Store) Base() string {
	return s.base
}

func (s *Store) regionDir() string {
	return filepath.Join(s.base, "region")
}

func (s *Store) regionPaths(rc Coord) []string {
	name := fmt.Sprintf("r.%d.%d", rc.X, rc.Z)
	return []string{
		filepath.Join(s.regionDir(), name+".mca"),
		filepath.Join(s.regionDir(), name+".mcr"),
	}
}

// Open returns the handle for region rc, opening it if needed. A container
// that cannot be opened is skipped in favour of the next extension; when
// none opens the result is ErrNoChunk.
func (s *Store) Open(rc Coord) (*Handle, error) {
	if h, ok := s.handles[rc]; ok {
		return h, nil
	}
	if s.absent[rc] {
		return nil, ErrNoChunk
	}

	for _, path := range s.regionPaths(rc) {
		h, err := s.openFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			s.warnOnce(path, err)
			continue
		}
		if len(s.handles) >= s.poolSize {
			s.closeAll()
		}
		s.handles[rc] = h
		return h, nil
	}
	s.absent[rc] = true
	return nil, ErrNoChunk
}

func (s *Store) openFile(path string) (*Handle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() <= minContainerSize {
		file.Close()
		return nil, fmt.Errorf("%w: %d bytes", ErrContainerCorrupt, info.Size())
	}
	h, err := NewHandle(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return h, nil
}

func (s *Store) warnOnce(path string, err error) {
	if s.warned[path] {
		return
	}
	s.warned[path] = true
	s.logger.Printf("ignoring region %s: %v", path, err)
}

// Locate returns the decompressed payload of chunk cx, cz from its region
// container. Absent regions and slots yield ErrNoChunk; a damaged payload
// yields an error wrapping ErrPayloadCorrupt.
func (s *Store) Locate(cx, cz int) (io.Reader, error) {
	h, err := s.Open(CoordOf(cx, cz))
	if err != nil {
		return nil, err
	}
	x, z := Local(cx, cz)
	payload, err := h.Payload(x, z)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Chunk returns the payload of chunk cx, cz, falling back to the legacy
// per-chunk layout when the region copy is corrupt or there is no region
// directory at all.
func (s *Store) Chunk(cx, cz int) (io.Reader, error) {
	r, err := s.Locate(cx, cz)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, ErrPayloadCorrupt):
		s.warnOnce(fmt.Sprintf("chunk %d,%d", cx, cz), err)
		return s.LegacyLocate(cx, cz)
	case errors.Is(err, ErrNoChunk) && !s.hasRegionDir():
		return s.LegacyLocate(cx, cz)
	}
	return nil, err
}

func (s *Store) hasRegionDir() bool {
	info, err := os.Stat(s.regionDir())
	return err == nil && info.IsDir()
}

// Regions lists the regions present on disk, sorted by X then Z.
func (s *Store) Regions() ([]Coord, error) {
	entries, err := os.ReadDir(s.regionDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[Coord]bool)
	var regions []Coord
	for _, entry := range entries {
		var rc Coord
		var ext string
		if _, err := fmt.Sscanf(entry.Name(), "r.%d.%d.%s", &rc.X, &rc.Z, &ext); err != nil {
			continue
		}
		if (ext != "mca" && ext != "mcr") || seen[rc] {
			continue
		}
		seen[rc] = true
		regions = append(regions, rc)
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].X != regions[j].X {
			return regions[i].X < regions[j].X
		}
		return regions[i].Z < regions[j].Z
	})
	return regions, nil
}

// OpenHandles returns the number of handles currently pooled.
func (s *Store) OpenHandles() int {
	return len(s.handles)
}

func (s *Store) closeAll() {
	for rc, h := range s.handles {
		if err := h.Close(); err != nil {
			s.logger.Printf("closing region %d,%d: %v", rc.X, rc.Z, err)
		}
	}
	s.handles = make(map[Coord]*Handle)
	s.absent = make(map[Coord]bool)
}

// Close closes every pooled handle.
func (s *Store) Close() error {
	s.closeAll()
	return nil
}
