package region

import (
	"errors"
	"sort"
)

// NearestResident returns the stored chunk closest to cx, cz by Euclidean
// chunk-space distance. The query's own region is searched first and wins
// ties; other regions come from the region directory listing, or from the
// legacy layout when the world has no region directory.
func (s *Store) NearestResident(cx, cz int) (x, z int, ok bool) {
	best := -1
	consider := func(px, pz int) {
		dx, dz := px-cx, pz-cz
		if d := dx*dx + dz*dz; best < 0 || d < best {
			best, x, z, ok = d, px, pz, true
		}
	}

	if !s.hasRegionDir() {
		if err := s.legacyChunks(consider); err != nil {
			s.logger.Printf("scanning legacy chunks: %v", err)
		}
		return
	}

	home := CoordOf(cx, cz)
	s.scanRegion(home, consider)

	regions, err := s.Regions()
	if err != nil {
		s.logger.Printf("listing regions: %v", err)
		return
	}
	// Closest regions first so far ones can be skipped by bound.
	sort.Slice(regions, func(i, j int) bool {
		return regionDistance(regions[i], cx, cz) < regionDistance(regions[j], cx, cz)
	})
	for _, rc := range regions {
		if rc == home {
			continue
		}
		if ok && regionDistance(rc, cx, cz) > best {
			break
		}
		s.scanRegion(rc, consider)
	}
	return
}

func (s *Store) scanRegion(rc Coord, fn func(cx, cz int)) {
	h, err := s.Open(rc)
	if err != nil {
		if !errors.Is(err, ErrNoChunk) {
			s.logger.Printf("opening region %d,%d: %v", rc.X, rc.Z, err)
		}
		return
	}
	h.Present(func(x, z int) {
		fn(rc.X*Edge+x, rc.Z*Edge+z)
	})
}

// regionDistance is the squared distance from cx, cz to the nearest chunk a
// region could contain.
func regionDistance(rc Coord, cx, cz int) int {
	dx := axisDistance(cx, rc.X*Edge, rc.X*Edge+Edge-1)
	dz := axisDistance(cz, rc.Z*Edge, rc.Z*Edge+Edge-1)
	return dx*dx + dz*dz
}

func axisDistance(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	}
	return 0
}
