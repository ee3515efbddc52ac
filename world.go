package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/astei/chunkscope/level"
	"github.com/astei/chunkscope/region"
)

// world is an opened save directory: its level.dat, if any, and a store over
// the selected dimension.
type world struct {
	path  string
	name  string
	dim   level.Dimension
	info  *level.Info
	store *region.Store
}

func openWorld(path string, e *env) (*world, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a world directory", path)
	}
	dim, err := e.cfg.DimensionValue()
	if err != nil {
		return nil, err
	}

	w := &world{path: path, name: filepath.Base(filepath.Clean(path)), dim: dim}
	info, err := level.Load(path)
	switch {
	case err == nil:
		w.info = info
		if info.Name != "" {
			w.name = info.Name
		}
	case errors.Is(err, level.ErrNoLevel):
		logger.Printf("%s has no %s, continuing without seed or spawn", path, level.FileName)
	default:
		return nil, err
	}

	w.store = region.NewStore(level.Path(path, dim), region.Options{
		PoolSize: e.cfg.Region.PoolSize,
		Logger:   logger,
	})
	return w, nil
}

func (w *world) seed() int64 {
	if w.info == nil {
		return 0
	}
	return w.info.Seed
}

// start picks the chunk a viewer opens at. The player's chunk is used when
// the player is in the selected dimension, then the spawn chunk. When that
// chunk is not stored the closest stored chunk is used instead.
func (w *world) start() (x, z int, err error) {
	if w.info != nil {
		if w.info.HasPlayer && w.info.PlayerDimension == w.dim {
			x, z = w.info.StartChunk()
		} else {
			x, z = w.info.SpawnChunk()
		}
	}
	if _, err := w.store.Chunk(x, z); err == nil {
		return x, z, nil
	} else if !errors.Is(err, region.ErrNoChunk) {
		logger.Printf("start chunk %d,%d unreadable: %v", x, z, err)
	}
	nx, nz, ok := w.store.NearestResident(x, z)
	if !ok {
		return 0, 0, fmt.Errorf("no chunks stored in %s", w.store.Base())
	}
	return nx, nz, nil
}

func (w *world) Close() error {
	return w.store.Close()
}
