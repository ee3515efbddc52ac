package blocks

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultRegistry []byte

//go:embed schema.json
var registrySchema string

const schemaURL = "https://chunkscope.invalid/registry.schema.json"

type document struct {
	PlaceholderTexture *int            `yaml:"placeholder_texture"`
	HighlightStride    *int            `yaml:"highlight_stride"`
	Sheets             int             `yaml:"sheets"`
	PaintingSheet      int             `yaml:"painting_sheet"`
	Decorations        []decorationDoc `yaml:"decorations"`
	Blocks             []blockDoc      `yaml:"blocks"`
}

type decorationDoc struct {
	Texture int   `yaml:"texture"`
	Bounds  []int `yaml:"bounds"`
}

type blockDoc struct {
	ID         int            `yaml:"id"`
	Name       string         `yaml:"name"`
	Solid      bool           `yaml:"solid"`
	Glass      bool           `yaml:"glass"`
	Half       bool           `yaml:"half"`
	Sheet      int            `yaml:"sheet"`
	Shape      string         `yaml:"shape"`
	Texture    int            `yaml:"texture"`
	ByData     []int          `yaml:"by_data"`
	DataMask   int            `yaml:"data_mask"`
	Faces      map[string]int `yaml:"faces"`
	Directions []string       `yaml:"directions"`
	Extra      map[string]int `yaml:"extra"`
	Highlight  bool           `yaml:"highlight"`
	Family     string         `yaml:"family"`
	Fruit      string         `yaml:"fruit"`
	Color      string         `yaml:"color"`
}

// Default returns the registry built from the embedded block table.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultRegistry))
}

// LoadFile reads a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Load reads a registry from YAML. The document is checked against the
// registry schema before any block type is built.
func Load(r io.Reader) (*Registry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err = validate(raw); err != nil {
		return nil, err
	}

	var doc document
	if err = yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("blocks: %w", err)
	}
	return build(&doc)
}

func validate(raw []byte) error {
	var tree interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("blocks: %w", err)
	}
	// The validator wants JSON values; a JSON round trip normalises numbers
	// and maps.
	js, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("blocks: %w", err)
	}
	var doc interface{}
	if err = json.Unmarshal(js, &doc); err != nil {
		return fmt.Errorf("blocks: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err = compiler.AddResource(schemaURL, strings.NewReader(registrySchema)); err != nil {
		return err
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return err
	}
	if err = schema.Validate(doc); err != nil {
		return fmt.Errorf("blocks: invalid registry: %w", err)
	}
	return nil
}

func build(doc *document) (*Registry, error) {
	reg := &Registry{
		byName:          make(map[string]*BlockType),
		decorations:     make(map[int]Bounds),
		sheets:          doc.Sheets,
		paintingSheet:   doc.PaintingSheet,
		highlightStride: 256,
		air:             &BlockType{Name: "air"},
	}
	if reg.sheets == 0 {
		reg.sheets = 1
	}
	if doc.HighlightStride != nil {
		reg.highlightStride = *doc.HighlightStride
	}
	placeholderTexture := 255
	if doc.PlaceholderTexture != nil {
		placeholderTexture = *doc.PlaceholderTexture
	}
	reg.placeholder = &BlockType{
		ID:      -1,
		Name:    "unknown",
		Shape:   Placeholder{},
		Texture: placeholderTexture,
		Color:   color.RGBA{R: 0xff, B: 0xff, A: 0xff},
	}

	for _, d := range doc.Decorations {
		reg.decorations[d.Texture] = Bounds{Left: d.Bounds[0], Top: d.Bounds[1], Width: d.Bounds[2], Height: d.Bounds[3]}
	}

	for i := range doc.Blocks {
		bt, err := buildType(&doc.Blocks[i])
		if err != nil {
			return nil, err
		}
		if bt.Sheet >= reg.sheets {
			return nil, fmt.Errorf("blocks: %s uses sheet %d of %d", bt.Name, bt.Sheet, reg.sheets)
		}
		if reg.types[bt.ID] != nil {
			return nil, fmt.Errorf("blocks: id %d registered twice (%s, %s)", bt.ID, reg.types[bt.ID].Name, bt.Name)
		}
		if _, dup := reg.byName[bt.Name]; dup {
			return nil, fmt.Errorf("blocks: name %s registered twice", bt.Name)
		}
		reg.types[bt.ID] = bt
		reg.byName[bt.Name] = bt
	}
	return reg, nil
}

func buildType(d *blockDoc) (*BlockType, error) {
	bt := &BlockType{
		ID:        d.ID,
		Name:      d.Name,
		Solid:     d.Solid,
		Glass:     d.Glass,
		Half:      d.Half,
		Sheet:     d.Sheet,
		Texture:   d.Texture,
		ByData:    d.ByData,
		DataMask:  d.DataMask,
		Extra:     d.Extra,
		Highlight: d.Highlight,
		Family:    d.Family,
		Color:     color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	}

	shapeName := d.Shape
	if shapeName == "" {
		shapeName = "cube"
	}
	shape, ok := shapesByName[shapeName]
	if !ok {
		return nil, fmt.Errorf("blocks: %s has unknown shape %q", d.Name, d.Shape)
	}
	switch s := shape.(type) {
	case Connector:
		s.Fruit = d.Fruit
		if s.Kind == ConnStem && s.Fruit == "" {
			return nil, fmt.Errorf("blocks: stem %s needs a fruit", d.Name)
		}
		shape = s
	case Liquid:
		s.Family = d.Family
		if s.Family == "" {
			s.Family = d.Name
		}
		bt.Family = s.Family
		shape = s
	}
	bt.Shape = shape
	if _, isCube := shape.(Cube); !isCube {
		// Only full cubes may hide their neighbours.
		bt.Solid = false
	}

	if len(d.Faces) > 0 {
		bt.Faces = make(map[Face]int, len(d.Faces))
		for name, tex := range d.Faces {
			if name == "side" {
				for f := FaceNorth; f < NumFaces; f++ {
					bt.Faces[f] = tex
				}
				continue
			}
			face, ok := ParseFace(name)
			if !ok {
				return nil, fmt.Errorf("blocks: %s has unknown face %q", d.Name, name)
			}
			bt.Faces[face] = tex
		}
		// Explicit faces override the "side" shorthand regardless of map order.
		for name, tex := range d.Faces {
			if face, ok := ParseFace(name); ok {
				bt.Faces[face] = tex
			}
		}
	}

	for _, name := range d.Directions {
		face, ok := ParseFace(name)
		if !ok {
			return nil, fmt.Errorf("blocks: %s has unknown direction %q", d.Name, name)
		}
		bt.Directions = append(bt.Directions, face)
	}

	if d.Color != "" {
		rgb, err := hex.DecodeString(d.Color)
		if err != nil || len(rgb) != 3 {
			return nil, fmt.Errorf("blocks: %s has bad color %q", d.Name, d.Color)
		}
		bt.Color = color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff}
	}
	return bt, nil
}
