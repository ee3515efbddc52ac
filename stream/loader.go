package stream

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/astei/chunkscope/chunk"
	"github.com/astei/chunkscope/metrics"
	"github.com/astei/chunkscope/nbt"
	"github.com/astei/chunkscope/region"
)

// ErrMisplaced is returned when a stored chunk names a different coordinate
// than the one it was read from.
var ErrMisplaced = errors.New("stream: chunk stored under another coordinate")

// Source hands out decompressed chunk payloads. *region.Store implements it.
// A missing chunk is reported as region.ErrNoChunk.
type Source interface {
	Chunk(x, z int) (io.Reader, error)
}

type LoaderOptions struct {
	// Radius is the half edge of the visible square, in chunks. It is
	// clamped so the square fits in the cache.
	Radius  int
	Seed    int64
	Logger  *log.Logger
	Metrics *metrics.Metrics
	// Minimap, when set, receives a top-down sample of every loaded chunk and
	// is trimmed as the observer moves.
	Minimap *Minimap
}

type request struct {
	x, z int
}

// Loader fills the cache around the observer. Moving the observer queues only
// the strips that became visible; Pump works the queue off under a time
// budget. A Loader is not safe for concurrent use.
type Loader struct {
	cache   *Cache
	src     Source
	radius  int
	seed    int64
	logger  *log.Logger
	metrics *metrics.Metrics
	minimap *Minimap

	queue  []request
	cx, cz int

	now func() time.Time
}

func NewLoader(cache *Cache, src Source, opts LoaderOptions) *Loader {
	radius := opts.Radius
	if limit := (cache.Size() - 1) / 2; radius > limit || radius < 0 {
		radius = limit
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Loader{
		cache:   cache,
		src:     src,
		radius:  radius,
		seed:    opts.Seed,
		logger:  logger,
		metrics: opts.Metrics,
		minimap: opts.Minimap,
		now:     time.Now,
	}
}

// Radius is the effective visible radius after clamping.
func (l *Loader) Radius() int {
	return l.radius
}

// Center is the chunk the observer is in.
func (l *Loader) Center() (x, z int) {
	return l.cx, l.cz
}

// Pending is the number of queued requests.
func (l *Loader) Pending() int {
	return len(l.queue)
}

// Visible reports whether chunk x, z lies inside the current visible square.
func (l *Loader) Visible(x, z int) bool {
	return abs(x-l.cx) <= l.radius && abs(z-l.cz) <= l.radius
}

// Init loads the whole visible square around x, z and blocks until it is done.
// progress, if not nil, is called after every request. It returns the number
// of chunks loaded.
func (l *Loader) Init(x, z int, progress func(done, total int)) int {
	l.cx, l.cz = x, z
	l.queue = l.queue[:0]
	l.enqueueRect(x-l.radius, z-l.radius, x+l.radius, z+l.radius)

	total := len(l.queue)
	loaded := 0
	for i := 0; len(l.queue) > 0; i++ {
		if l.step() {
			loaded++
		}
		if progress != nil {
			progress(i+1, total)
		}
	}
	return loaded
}

// Move recenters the observer on chunk x, z and queues the strips that became
// visible. It returns the number of requests queued.
func (l *Loader) Move(x, z int) int {
	dx, dz := x-l.cx, z-l.cz
	if dx == 0 && dz == 0 {
		return 0
	}
	before := len(l.queue)
	r := l.radius
	edge := 2*r + 1
	if abs(dx) >= edge || abs(dz) >= edge {
		l.enqueueRect(x-r, z-r, x+r, z+r)
	} else {
		if dx > 0 {
			l.enqueueRect(l.cx+r+1, z-r, x+r, z+r)
		} else if dx < 0 {
			l.enqueueRect(x-r, z-r, l.cx-r-1, z+r)
		}
		if dz > 0 {
			l.enqueueRect(x-r, l.cz+r+1, x+r, z+r)
		} else if dz < 0 {
			l.enqueueRect(x-r, z-r, x+r, l.cz-r-1)
		}
	}
	l.cx, l.cz = x, z
	if l.minimap != nil {
		l.minimap.Moved(dx, dz)
	}
	return len(l.queue) - before
}

func (l *Loader) enqueueRect(x0, z0, x1, z1 int) {
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			l.queue = append(l.queue, request{x, z})
		}
	}
}

// Pump works off queued requests in order until the queue is empty or budget
// has elapsed. The budget only limits how many requests start: at least one
// runs per call, and a started request always completes. It returns the
// number of chunks loaded.
func (l *Loader) Pump(budget time.Duration) int {
	start := l.now()
	loaded := 0
	for started := 0; len(l.queue) > 0; started++ {
		if started > 0 && l.now().Sub(start) >= budget {
			break
		}
		if l.step() {
			loaded++
		}
	}
	return loaded
}

func (l *Loader) step() bool {
	req := l.queue[0]
	l.queue = l.queue[1:]
	if len(l.queue) == 0 {
		l.queue = nil
	}
	return l.load(req.x, req.z)
}

// load runs one request. Requests that left the visible square while queued
// are dropped so they cannot evict a visible chunk.
func (l *Loader) load(x, z int) bool {
	if !l.Visible(x, z) || l.cache.Peek(x, z) != nil {
		return false
	}
	l.cache.Reserve(x, z)
	c, err := l.read(x, z)
	if err != nil {
		l.cache.Evict(x, z)
		if !errors.Is(err, region.ErrNoChunk) {
			l.metrics.Failed()
			l.logger.Printf("chunk %d,%d not loaded: %v", x, z, err)
		}
		return false
	}
	l.cache.Put(c)
	l.touchNeighbors(x, z)
	if l.minimap != nil {
		l.minimap.Add(c)
	}
	return true
}

func (l *Loader) read(x, z int) (*chunk.Chunk, error) {
	r, err := l.src.Chunk(x, z)
	if err != nil {
		return nil, err
	}
	root, err := nbt.ReadChunk(r)
	if err != nil {
		return nil, err
	}
	c, err := chunk.Decode(root, l.seed)
	if err != nil {
		return nil, err
	}
	if c.X != x || c.Z != z {
		return nil, fmt.Errorf("%w: %d,%d", ErrMisplaced, c.X, c.Z)
	}
	return c, nil
}

// touchNeighbors flags the solid pass of the four axis neighbors of x, z so
// their shared faces are rebuilt against the new chunk.
func (l *Loader) touchNeighbors(x, z int) int {
	n := 0
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if c := l.cache.Peek(x+d[0], z+d[1]); c != nil {
			c.MarkDirty(chunk.PassSolid)
			n++
		}
	}
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
