package region

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// RegionStats summarises one region container on disk.
type RegionStats struct {
	Coord  Coord
	Path   string
	Bytes  int64
	Chunks int
}

// Census reads the sector table of every region container below the store
// and counts the chunks each holds. Containers are read concurrently with
// their own file handles; the store's pool is not touched. As in Open, a
// container that cannot be read gives way to the next extension; regions
// with no readable container are reported with zero chunks and logged.
func (s *Store) Census() ([]RegionStats, error) {
	regions, err := s.Regions()
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(len(regions))
	results := make(chan RegionStats, len(regions))
	failures := make(chan error, len(regions))
	for _, rc := range regions {
		go func(rc Coord) {
			defer wg.Done()
			st, err := s.census(rc)
			if err != nil {
				failures <- err
			}
			results <- st
		}(rc)
	}
	wg.Wait()
	close(results)
	close(failures)

	for err := range failures {
		s.logger.Print(err)
	}
	var out []RegionStats
	for st := range results {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coord.X != out[j].Coord.X {
			return out[i].Coord.X < out[j].Coord.X
		}
		return out[i].Coord.Z < out[j].Coord.Z
	})
	return out, nil
}

func (s *Store) census(rc Coord) (RegionStats, error) {
	st := RegionStats{Coord: rc}
	var failed error
	for _, path := range s.regionPaths(rc) {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		st.Path, st.Bytes = path, info.Size()
		chunks, err := countChunks(path, st.Bytes)
		if err != nil {
			failed = err
			continue
		}
		st.Chunks = chunks
		return st, nil
	}
	return st, failed
}

func countChunks(path string, size int64) (int, error) {
	if size <= minContainerSize {
		return 0, fmt.Errorf("%w: %s is only %d bytes", ErrContainerCorrupt, path, size)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	h, err := NewHandle(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("could not read %s: %w", path, err)
	}
	n := h.Count()
	return n, h.Close()
}
