// Package config holds the viewer settings. Values come from defaults, then an
// optional YAML file, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/astei/chunkscope/blocks"
	"github.com/astei/chunkscope/level"
	"github.com/astei/chunkscope/mesh"
	"github.com/astei/chunkscope/region"
	"github.com/astei/chunkscope/stream"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when no config path is
// given.
const EnvPath = "CHUNKSCOPE_CONFIG"

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	World     string `yaml:"world"`
	Dimension string `yaml:"dimension"`

	Stream  StreamConfig  `yaml:"stream"`
	Region  RegionConfig  `yaml:"region"`
	Render  RenderConfig  `yaml:"render"`
	Minimap MinimapConfig `yaml:"minimap"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type StreamConfig struct {
	CacheSize      int `yaml:"cache_size"`
	RenderDistance int `yaml:"render_distance"`
	LoadBudgetMS   int `yaml:"load_budget_ms"`
}

type RegionConfig struct {
	PoolSize int `yaml:"pool_size"`
}

type RenderConfig struct {
	// Registry is a block registry file; empty means the built-in one.
	Registry          string `yaml:"registry"`
	ExploredHighlight bool   `yaml:"explored_highlight"`
	HighlightRadius   int    `yaml:"highlight_radius"`
	OreHighlight      []int  `yaml:"ore_highlight"`
	Selected          []int  `yaml:"selected"`
}

type MinimapConfig struct {
	TrimThreshold int `yaml:"trim_threshold"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Dimension: "overworld",
		Stream: StreamConfig{
			CacheSize:      stream.DefaultSize,
			RenderDistance: 10,
			LoadBudgetMS:   8,
		},
		Region: RegionConfig{PoolSize: region.DefaultPoolSize},
		Render: RenderConfig{
			HighlightRadius: mesh.DefaultHighlightRadius,
			OreHighlight:    []int{14, 15, 16, 21, 56, 73, 74},
		},
		Minimap: MinimapConfig{TrimThreshold: stream.DefaultTrimThreshold},
	}
}

// Load reads path over the defaults. An empty path falls back to EnvPath; if
// that is unset too the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(EnvPath)
	}
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadBudget is the per-frame chunk loading budget.
func (c Config) LoadBudget() time.Duration {
	return time.Duration(c.Stream.LoadBudgetMS) * time.Millisecond
}

// DimensionValue parses Dimension.
func (c Config) DimensionValue() (level.Dimension, error) {
	return level.ParseDimension(c.Dimension)
}

func (c Config) Validate() error {
	if _, err := c.DimensionValue(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	s := c.Stream
	if s.CacheSize < 3 {
		return fmt.Errorf("%w: stream.cache_size %d is below 3", ErrInvalid, s.CacheSize)
	}
	if s.RenderDistance < 1 || 2*s.RenderDistance+1 > s.CacheSize {
		return fmt.Errorf("%w: stream.render_distance %d does not fit a cache of %d", ErrInvalid, s.RenderDistance, s.CacheSize)
	}
	if s.LoadBudgetMS < 0 {
		return fmt.Errorf("%w: stream.load_budget_ms is negative", ErrInvalid)
	}
	if c.Region.PoolSize < 1 {
		return fmt.Errorf("%w: region.pool_size must be positive", ErrInvalid)
	}
	if c.Render.HighlightRadius < 1 {
		return fmt.Errorf("%w: render.highlight_radius must be positive", ErrInvalid)
	}
	for _, ids := range [][]int{c.Render.OreHighlight, c.Render.Selected} {
		for _, id := range ids {
			if id <= 0 || id >= blocks.MaxID {
				return fmt.Errorf("%w: block id %d", ErrInvalid, id)
			}
		}
	}
	if c.Minimap.TrimThreshold < 1 {
		return fmt.Errorf("%w: minimap.trim_threshold must be positive", ErrInvalid)
	}
	return nil
}
