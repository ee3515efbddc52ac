package region

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// LegacyPath returns the path of the pre-region file holding chunk cx, cz:
// two directory levels keyed by the coordinates modulo 64 and a file name
// carrying both coordinates, everything in base 36.
func LegacyPath(base string, cx, cz int) string {
	return filepath.Join(
		base,
		base36(cx&63),
		base36(cz&63),
		"c."+base36(cx)+"."+base36(cz)+".dat")
}

func base36(n int) string {
	return strconv.FormatInt(int64(n), 36)
}

// LegacyLocate returns the decompressed contents of the legacy chunk file for
// cx, cz, or ErrNoChunk when there is none.
func (s *Store) LegacyLocate(cx, cz int) (io.Reader, error) {
	file, err := os.Open(LegacyPath(s.base, cx, cz))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoChunk
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadCorrupt, err)
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadCorrupt, err)
	}
	return bytes.NewReader(data), nil
}

// parseLegacyName extracts chunk coordinates from a c.<x>.<z>.dat file name.
func parseLegacyName(name string) (cx, cz int, ok bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 4 || parts[0] != "c" || parts[3] != "dat" {
		return 0, 0, false
	}
	x, err := strconv.ParseInt(parts[1], 36, 32)
	if err != nil {
		return 0, 0, false
	}
	z, err := strconv.ParseInt(parts[2], 36, 32)
	if err != nil {
		return 0, 0, false
	}
	return int(x), int(z), true
}

// legacyChunks walks the legacy layout and calls fn for every chunk file.
func (s *Store) legacyChunks(fn func(cx, cz int)) error {
	return filepath.Walk(s.base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == s.base {
				return err
			}
			return nil
		}
		if info.IsDir() {
			if path != s.base && filepath.Dir(filepath.Dir(path)) != s.base && filepath.Dir(path) != s.base {
				return filepath.SkipDir
			}
			return nil
		}
		if cx, cz, ok := parseLegacyName(info.Name()); ok {
			fn(cx, cz)
		}
		return nil
	})
}
