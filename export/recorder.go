// Package export records the batches the mesh engine builds and writes them
// out as a compressed geometry dump.
package export

import (
	"github.com/astei/chunkscope/mesh"
)

// Batch is the handle a Recorder returns: the quads it was built from.
type Batch struct {
	Quads []mesh.Quad
}

// Recorder is a mesh.Sink that keeps every batch in memory.
type Recorder struct {
	Batches int
	Quads   int
}

func (r *Recorder) Build(quads []mesh.Quad) mesh.BatchHandle {
	r.Batches++
	r.Quads += len(quads)
	return &Batch{Quads: append([]mesh.Quad(nil), quads...)}
}
