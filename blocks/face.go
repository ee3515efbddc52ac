package blocks

// Face is one side of a block cell. North is -z and east is +x.
type Face int

const (
	FaceTop Face = iota
	FaceBottom
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
	NumFaces
)

var faceNames = [NumFaces]string{"top", "bottom", "north", "south", "west", "east"}

func (f Face) String() string {
	if f < 0 || f >= NumFaces {
		return "unknown"
	}
	return faceNames[f]
}

// Offset returns the unit step from a cell to its neighbour across f.
func (f Face) Offset() (dx, dy, dz int) {
	switch f {
	case FaceTop:
		return 0, 1, 0
	case FaceBottom:
		return 0, -1, 0
	case FaceNorth:
		return 0, 0, -1
	case FaceSouth:
		return 0, 0, 1
	case FaceWest:
		return -1, 0, 0
	case FaceEast:
		return 1, 0, 0
	}
	return 0, 0, 0
}

// Opposite returns the face on the other side of the cell.
func (f Face) Opposite() Face {
	switch f {
	case FaceTop:
		return FaceBottom
	case FaceBottom:
		return FaceTop
	case FaceNorth:
		return FaceSouth
	case FaceSouth:
		return FaceNorth
	case FaceWest:
		return FaceEast
	case FaceEast:
		return FaceWest
	}
	return f
}

// Horizontal reports whether f is one of the four side faces.
func (f Face) Horizontal() bool {
	return f >= FaceNorth && f < NumFaces
}

// ParseFace maps a face name to a Face.
func ParseFace(name string) (Face, bool) {
	for i, n := range faceNames {
		if n == name {
			return Face(i), true
		}
	}
	return 0, false
}

// Relative names a face in terms of a block's front: "front", "back", "top",
// "bottom" or "side".
func Relative(face, front Face) string {
	switch {
	case face == FaceTop:
		return "top"
	case face == FaceBottom:
		return "bottom"
	case face == front:
		return "front"
	case face == front.Opposite():
		return "back"
	}
	return "side"
}
