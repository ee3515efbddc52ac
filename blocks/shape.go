package blocks

// Shape describes how a block type is turned into geometry. Each concrete
// shape carries only the parameters its mesher needs.
type Shape interface {
	shapeName() string
}

// Cube is a full unit cube culled against opaque neighbours. An Edge cube only
// hides faces shared with the same block id.
type Cube struct {
	Edge bool
}

// RotatedKind selects the shape table of a Rotated block.
type RotatedKind int

const (
	RotStairs RotatedKind = iota
	RotBed
	RotDoor
	RotTrapdoor
	RotSign
	RotWallSign
	RotPiston
	RotLever
	RotButton
	RotSlab
)

// Rotated covers the partial blocks whose geometry comes from a small table
// keyed by the low bits of the data value.
type Rotated struct {
	Kind RotatedKind
}

// ConnectorKind selects the connection rule of a Connector block.
type ConnectorKind int

const (
	ConnFence ConnectorKind = iota
	ConnPane
	ConnVine
	ConnFenceGate
	ConnStem
)

// Connector blocks emit arms towards neighbours they connect to. Fruit names
// the block a stem bends towards.
type Connector struct {
	Kind  ConnectorKind
	Fruit string
}

// BillboardKind selects the billboard layout.
type BillboardKind int

const (
	BillboardCross BillboardKind = iota
	BillboardTorch
	// BillboardFlat lies on the floor, like rails or lily pads.
	BillboardFlat
)

// Billboard blocks are sized from the decoration bounds of their texture
// rather than the unit cube.
type Billboard struct {
	Kind BillboardKind
}

// Liquid blocks share faces with blocks of the same Family.
type Liquid struct {
	Family string
}

// Placeholder renders ids the registry does not know.
type Placeholder struct{}

func (Cube) shapeName() string        { return "cube" }
func (Rotated) shapeName() string     { return "rotated" }
func (Connector) shapeName() string   { return "connector" }
func (Billboard) shapeName() string   { return "billboard" }
func (Liquid) shapeName() string      { return "liquid" }
func (Placeholder) shapeName() string { return "placeholder" }

// ShapeName returns a short name for a shape, for logs and summaries.
func ShapeName(s Shape) string {
	if s == nil {
		return "none"
	}
	return s.shapeName()
}

var shapesByName = map[string]Shape{
	"cube":       Cube{},
	"edge":       Cube{Edge: true},
	"stairs":     Rotated{Kind: RotStairs},
	"bed":        Rotated{Kind: RotBed},
	"door":       Rotated{Kind: RotDoor},
	"trapdoor":   Rotated{Kind: RotTrapdoor},
	"sign":       Rotated{Kind: RotSign},
	"wall_sign":  Rotated{Kind: RotWallSign},
	"piston":     Rotated{Kind: RotPiston},
	"lever":      Rotated{Kind: RotLever},
	"button":     Rotated{Kind: RotButton},
	"slab":       Rotated{Kind: RotSlab},
	"fence":      Connector{Kind: ConnFence},
	"pane":       Connector{Kind: ConnPane},
	"vine":       Connector{Kind: ConnVine},
	"fence_gate": Connector{Kind: ConnFenceGate},
	"stem":       Connector{Kind: ConnStem},
	"cross":      Billboard{Kind: BillboardCross},
	"torch":      Billboard{Kind: BillboardTorch},
	"flat":       Billboard{Kind: BillboardFlat},
	"liquid":     Liquid{},
}
