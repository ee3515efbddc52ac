package nbt

import (
	"fmt"
	"io"

	mcnbt "github.com/Tnze/go-mc/nbt"
)

// ReadChunk parses an uncompressed chunk tree.
func ReadChunk(r io.Reader) (*ChunkRoot, error) {
	var root ChunkRoot
	if err := unmarshal(r, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// ReadLevel parses an uncompressed level.dat tree.
func ReadLevel(r io.Reader) (*LevelRoot, error) {
	var root LevelRoot
	if err := unmarshal(r, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// Read parses an uncompressed tree into v, which must point to a struct
// shaped like the tree.
func Read(r io.Reader, v interface{}) error {
	return unmarshal(r, v)
}

func unmarshal(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("nbt: could not read tree: %w", err)
	}
	if err = mcnbt.Unmarshal(data, v); err != nil {
		return fmt.Errorf("nbt: could not parse tree: %w", err)
	}
	return nil
}
