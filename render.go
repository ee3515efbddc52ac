package main

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/chunk"
	"github.com/astei/chunkscope/export"
	"github.com/astei/chunkscope/level"
	"github.com/astei/chunkscope/mesh"
	"github.com/astei/chunkscope/stream"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func viewFlags(dimension cli.Flag) []cli.Flag {
	return []cli.Flag{
		dimension,
		&cli.IntFlag{Name: "x", Usage: "start chunk x (default: player or spawn)"},
		&cli.IntFlag{Name: "z", Usage: "start chunk z (default: player or spawn)"},
		&cli.IntFlag{Name: "distance", Usage: "render distance in chunks (default from config)"},
		&cli.IntFlag{Name: "steps", Usage: "walk this many chunks before rendering"},
		&cli.IntFlag{Name: "step-x", Value: 1, Usage: "chunks moved along x per step"},
		&cli.IntFlag{Name: "step-z", Usage: "chunks moved along z per step"},
	}
}

// view is a world with a streaming cache in front of it.
type view struct {
	*world
	cache   *stream.Cache
	loader  *stream.Loader
	minimap *stream.Minimap
}

func openView(c *cli.Context) (*view, *env, error) {
	e, err := setup(c)
	if err != nil {
		return nil, nil, err
	}
	path, err := worldArg(c, e)
	if err != nil {
		return nil, nil, err
	}
	w, err := openWorld(path, e)
	if err != nil {
		return nil, nil, err
	}

	radius := e.cfg.Stream.RenderDistance
	if c.IsSet("distance") {
		radius = c.Int("distance")
	}
	v := &view{
		world:   w,
		cache:   stream.NewCache(e.cfg.Stream.CacheSize, e.metrics),
		minimap: stream.NewMinimap(e.cfg.Minimap.TrimThreshold, w.dim == level.Nether),
	}
	v.loader = stream.NewLoader(v.cache, w.store, stream.LoaderOptions{
		Radius:  radius,
		Seed:    w.seed(),
		Logger:  logger,
		Metrics: e.metrics,
		Minimap: v.minimap,
	})
	return v, e, nil
}

// walk loads the start square and then moves the view step by step, draining
// the queue within the frame budget after each move.
func (v *view) walk(c *cli.Context, e *env) error {
	x, z, err := v.start()
	if err != nil {
		return err
	}
	if c.IsSet("x") {
		x = c.Int("x")
	}
	if c.IsSet("z") {
		z = c.Int("z")
	}

	logger.Printf("loading %s around chunk %d,%d (radius %d)", v.name, x, z, v.loader.Radius())
	total := (2*v.loader.Radius() + 1) * (2*v.loader.Radius() + 1)
	tenth := total/10 + 1
	v.loader.Init(x, z, func(done, total int) {
		if done%tenth == 0 || done == total {
			logger.Printf("loaded %d/%d", done, total)
		}
	})

	budget := e.cfg.LoadBudget()
	frames := 0
	for i := 0; i < c.Int("steps"); i++ {
		x += c.Int("step-x")
		z += c.Int("step-z")
		v.loader.Move(x, z)
		for v.loader.Pending() > 0 {
			v.loader.Pump(budget)
			frames++
		}
	}
	if frames > 0 {
		logger.Printf("walked to %d,%d over %d frames", x, z, frames)
	}
	logger.Printf("%d chunks resident, %d regions open", v.cache.Len(), v.store.OpenHandles())
	return nil
}

func loadRegistry(e *env) (*blocks.Registry, error) {
	if e.cfg.Render.Registry != "" {
		return blocks.LoadFile(e.cfg.Render.Registry)
	}
	return blocks.Default()
}

func renderCommand(c *cli.Context) error {
	v, e, err := openView(c)
	if err != nil {
		return err
	}
	defer v.Close()

	reg, err := loadRegistry(e)
	if err != nil {
		return err
	}
	rec := &export.Recorder{}
	engine := mesh.NewEngine(reg, stream.NewResolver(v.cache), rec, mesh.Options{
		ExploredHighlight: e.cfg.Render.ExploredHighlight,
		HighlightRadius:   e.cfg.Render.HighlightRadius,
		OreHighlight:      e.cfg.Render.OreHighlight,
		Selected:          e.cfg.Render.Selected,
		Metrics:           e.metrics,
	})
	v.cache.OnEvict = engine.Forget

	if err := v.walk(c, e); err != nil {
		return err
	}

	dump := export.NewDump(v.name, v.seed())
	v.cache.Each(func(ch *chunk.Chunk) {
		engine.Frame(ch, func(sheet int, pass chunk.Pass, h mesh.BatchHandle) {
			dump.Add(ch.X, ch.Z, sheet, pass, h)
		})
	})

	out := c.String("out")
	if out == "" {
		out = v.name + export.Extension
	}
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := dump.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Printf("wrote %s: %d chunks, %s batches, %s quads", out, len(dump.Chunks()),
		humanize.Comma(int64(rec.Batches)), humanize.Comma(int64(dump.Quads())))
	return nil
}

func minimapCommand(c *cli.Context) error {
	v, e, err := openView(c)
	if err != nil {
		return err
	}
	defer v.Close()

	reg, err := loadRegistry(e)
	if err != nil {
		return err
	}
	if err := v.walk(c, e); err != nil {
		return err
	}

	img, err := drawMinimap(v.minimap, reg)
	if err != nil {
		return err
	}
	out := c.String("out")
	if out == "" {
		out = v.name + ".png"
	}
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	b := img.Bounds()
	logger.Printf("wrote %s: %dx%d from %d columns", out, b.Dx(), b.Dy(), v.minimap.Len())
	return nil
}

// drawMinimap paints one pixel per block column, north up. Empty columns are
// left transparent; unknown ids show the placeholder color.
func drawMinimap(m *stream.Minimap, reg *blocks.Registry) (*image.RGBA, error) {
	lo, hi, ok := m.Bounds()
	if !ok {
		return nil, errors.New("minimap is empty")
	}
	w := (hi.X - lo.X + 1) * chunk.Width
	h := (hi.Z - lo.Z + 1) * chunk.Width
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	m.Each(func(key stream.ColumnKey, top *[chunk.Width * chunk.Width]int) {
		ox := (key.X - lo.X) * chunk.Width
		oz := (key.Z - lo.Z) * chunk.Width
		for z := 0; z < chunk.Width; z++ {
			for x := 0; x < chunk.Width; x++ {
				img.SetRGBA(ox+x, oz+z, columnColor(reg, top[x+z*chunk.Width]))
			}
		}
	})
	return img, nil
}

func columnColor(reg *blocks.Registry, id int) color.RGBA {
	if id <= 0 {
		return color.RGBA{}
	}
	return reg.Type(id).Color
}
