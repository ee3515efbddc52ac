package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/astei/chunkscope/config"
	"github.com/astei/chunkscope/metrics"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

var logger = log.New(os.Stderr, "[chunkscope] ", log.LstdFlags)

// env is what every command shares once the global flags are parsed.
type env struct {
	cfg     config.Config
	metrics *metrics.Metrics
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if addr := c.String("metrics-addr"); addr != "" {
		cfg.Metrics.Addr = addr
	}
	if c.IsSet("dimension") {
		cfg.Dimension = c.String("dimension")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	e := &env{cfg: cfg}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		e.metrics = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Printf("metrics listener on %s stopped: %v", cfg.Metrics.Addr, err)
			}
		}()
		logger.Printf("serving metrics on %s", cfg.Metrics.Addr)
	}
	return e, nil
}

// worldArg returns the world directory from the first argument, falling back
// to the configured one.
func worldArg(c *cli.Context, e *env) (string, error) {
	if c.NArg() > 0 {
		return c.Args().Get(0), nil
	}
	if e.cfg.World != "" {
		return e.cfg.World, nil
	}
	return "", errors.New("need a world to work with")
}

func infoCommand(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	path, err := worldArg(c, e)
	if err != nil {
		return err
	}
	w, err := openWorld(path, e)
	if err != nil {
		return err
	}
	defer w.Close()

	if w.info != nil {
		fmt.Printf("name:      %s\n", w.info.Name)
		fmt.Printf("format:    %s\n", w.info.Format())
		fmt.Printf("seed:      %d\n", w.info.Seed)
		sx, sz := w.info.SpawnChunk()
		fmt.Printf("spawn:     %d,%d,%d (chunk %d,%d)\n", w.info.SpawnX, w.info.SpawnY, w.info.SpawnZ, sx, sz)
		if w.info.HasPlayer {
			px, pz := w.info.StartChunk()
			fmt.Printf("player:    %.1f,%.1f,%.1f in %s (chunk %d,%d)\n",
				w.info.PlayerX, w.info.PlayerY, w.info.PlayerZ, w.info.PlayerDimension, px, pz)
		}
	}
	fmt.Printf("dimension: %s\n", w.dim)

	stats, err := w.store.Census()
	if err != nil {
		return err
	}
	var chunks int
	var bytes int64
	for _, st := range stats {
		chunks += st.Chunks
		bytes += st.Bytes
		if c.Bool("verbose") {
			fmt.Printf("  r.%d.%d  %6s chunks  %s\n", st.Coord.X, st.Coord.Z,
				humanize.Comma(int64(st.Chunks)), humanize.Bytes(uint64(st.Bytes)))
		}
	}
	fmt.Printf("regions:   %s\n", humanize.Comma(int64(len(stats))))
	fmt.Printf("chunks:    %s (%s on disk)\n", humanize.Comma(int64(chunks)), humanize.Bytes(uint64(bytes)))
	return nil
}

func nearestCommand(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	if c.NArg() != 3 {
		return errors.New("usage: nearest <world> <chunk x> <chunk z>")
	}
	cx, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("chunk x: %w", err)
	}
	cz, err := strconv.Atoi(c.Args().Get(2))
	if err != nil {
		return fmt.Errorf("chunk z: %w", err)
	}
	w, err := openWorld(c.Args().Get(0), e)
	if err != nil {
		return err
	}
	defer w.Close()

	x, z, ok := w.store.NearestResident(cx, cz)
	if !ok {
		return fmt.Errorf("no chunks stored in %s", w.store.Base())
	}
	fmt.Printf("%d,%d\n", x, z)
	return nil
}

func main() {
	dimensionFlag := &cli.StringFlag{
		Name:  "dimension",
		Usage: "overworld, nether or end",
	}
	app := &cli.App{
		Name:  "chunkscope",
		Usage: "streams and meshes block worlds stored as region or legacy chunk files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{config.EnvPath},
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print level.dat details and count stored chunks",
				ArgsUsage: "<world>",
				Flags: []cli.Flag{
					dimensionFlag,
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "list every region"},
				},
				Action: infoCommand,
			},
			{
				Name:      "nearest",
				Usage:     "find the stored chunk closest to a chunk coordinate",
				ArgsUsage: "<world> <chunk x> <chunk z>",
				Flags:     []cli.Flag{dimensionFlag},
				Action:    nearestCommand,
			},
			{
				Name:      "render",
				Usage:     "stream the chunks around the start position and dump their geometry",
				ArgsUsage: "<world>",
				Flags: append(viewFlags(dimensionFlag),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default <world name>.csg)"},
				),
				Action: renderCommand,
			},
			{
				Name:      "minimap",
				Usage:     "stream the chunks around the start position and draw their top blocks",
				ArgsUsage: "<world>",
				Flags: append(viewFlags(dimensionFlag),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output PNG (default <world name>.png)"},
				),
				Action: minimapCommand,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
