package voxmesh

import "github.com/go-gl/mathgl/mgl32"

// Coord is an integer grid position. Cells are keyed by Coord in a sparse
// map; the coordinate is never stored inside the cell itself.
type Coord struct {
	X, Y, Z int32
}

func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

func (c Coord) Axis(a int) int32 {
	switch a {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

func (c Coord) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}
}

func axisCoord(a int, v int32) Coord {
	var c Coord
	switch a {
	case 0:
		c.X = v
	case 1:
		c.Y = v
	default:
		c.Z = v
	}
	return c
}

// FaceIndex addresses one of the six faces of a voxel, axis*2+side:
// 0=-X 1=+X 2=-Y 3=+Y 4=-Z 5=+Z.
type FaceIndex int

const (
	FaceNegX FaceIndex = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

const NumFaces = 6

func FaceOf(axis, side int) FaceIndex { return FaceIndex(axis*2 + side) }

func (f FaceIndex) Axis() int { return int(f) / 2 }
func (f FaceIndex) Side() int { return int(f) % 2 }

// Odd reports the face parity that decides the inner quad winding.
func (f FaceIndex) Odd() bool { return f%2 == 1 }

func (f FaceIndex) Opposite() FaceIndex { return f ^ 1 }

func (f FaceIndex) Valid() bool { return f >= 0 && f < NumFaces }

// Offset is the grid step to the neighbour across this face.
func (f FaceIndex) Offset() Coord {
	if f.Side() == 1 {
		return axisCoord(f.Axis(), 1)
	}
	return axisCoord(f.Axis(), -1)
}

func (f FaceIndex) Normal() mgl32.Vec3 {
	return f.Offset().Vec3()
}

func (f FaceIndex) String() string {
	return [...]string{"-X", "+X", "-Y", "+Y", "-Z", "+Z"}[f]
}

// EdgeIndex addresses one of the twelve edges of a voxel,
// axis*4 + s1 + 2*s2, where axis is the direction the edge runs along and
// s1/s2 are the sides on the two remaining axes in increasing axis order.
// Edge 0 runs along X at y=0,z=0.
type EdgeIndex int

const NumEdges = 12

func (e EdgeIndex) Valid() bool { return e >= 0 && e < NumEdges }

func (e EdgeIndex) Axis() int { return int(e) / 4 }

// Faces returns the two voxel faces whose planes contain the edge.
func (e EdgeIndex) Faces() (FaceIndex, FaceIndex) {
	a1, a2 := otherAxes(e.Axis())
	s1 := int(e) % 4 % 2
	s2 := int(e) % 4 / 2
	return FaceOf(a1, s1), FaceOf(a2, s2)
}

// Parallel lists the other three edges running along the same axis.
func (e EdgeIndex) Parallel() [3]EdgeIndex {
	var out [3]EdgeIndex
	n := 0
	base := EdgeIndex(e.Axis() * 4)
	for i := EdgeIndex(0); i < 4; i++ {
		if base+i != e {
			out[n] = base + i
			n++
		}
	}
	return out
}

// adjacent reports whether o meets e at a voxel corner.
func (e EdgeIndex) adjacent(o EdgeIndex) bool {
	if e.Axis() == o.Axis() {
		return false
	}
	f1, f2 := e.Faces()
	g1, g2 := o.Faces()
	return f1 == g1 || f1 == g2 || f2 == g1 || f2 == g2
}

// EdgeBetween returns the edge shared by two perpendicular faces.
func EdgeBetween(f, g FaceIndex) EdgeIndex {
	af, ag := f.Axis(), g.Axis()
	axis := 3 - af - ag
	sf, sg := f.Side(), g.Side()
	if af > ag {
		sf, sg = sg, sf
	}
	return EdgeIndex(axis*4 + sf + 2*sg)
}

func otherAxes(a int) (int, int) {
	switch a {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}
