package voxmesh

import "github.com/google/uuid"

// Material names a render material. The empty string is the null material:
// faces that resolve to it contribute no triangles.
type Material string

const NoMaterial Material = ""

// Orientation packs the UV rotation (bits 0-1, quarter turns) and the
// mirror flag (bit 2) of a face.
type Orientation uint8

func NewOrientation(rotation int, mirrored bool) Orientation {
	o := Orientation(rotation & 3)
	if mirrored {
		o |= 4
	}
	return o
}

func (o Orientation) Rotation() int { return int(o & 3) }
func (o Orientation) Mirrored() bool { return o&4 != 0 }

// Face describes one painted voxel face.
type Face struct {
	Material    Material
	Overlay     Material
	Orientation Orientation
}

func (f Face) Empty() bool { return f.Material == NoMaterial && f.Overlay == NoMaterial }

type BevelType uint8

const (
	BevelNone BevelType = iota
	BevelSquare
	BevelFlat
	BevelCurve
	BevelStair2
	BevelStair4
)

func (t BevelType) String() string {
	switch t {
	case BevelNone:
		return "none"
	case BevelSquare:
		return "square"
	case BevelFlat:
		return "flat"
	case BevelCurve:
		return "curve"
	case BevelStair2:
		return "stair2"
	case BevelStair4:
		return "stair4"
	}
	return "unknown"
}

type BevelSize uint8

const (
	SizeQuarter BevelSize = iota
	SizeHalf
	SizeFull
)

// Scale is the profile scale factor for the size.
func (s BevelSize) Scale() float32 {
	switch s {
	case SizeQuarter:
		return 0.25
	case SizeHalf:
		return 0.5
	case SizeFull:
		return 1
	}
	return 0
}

// Bevel is the per-edge descriptor. Unknown types behave as BevelNone.
type Bevel struct {
	Type BevelType
	Size BevelSize
}

func (b Bevel) Active() bool {
	return b.Type >= BevelSquare && b.Type <= BevelStair4 && b.Size <= SizeFull
}

// Pack folds the bevel into one byte, type in the high bits.
func (b Bevel) Pack() uint8 { return uint8(b.Type)<<2 | uint8(b.Size)&3 }

func UnpackBevel(v uint8) Bevel { return Bevel{Type: BevelType(v >> 2), Size: BevelSize(v & 3)} }

// Cell is the per-voxel record. Substance uuid.Nil marks static voxels;
// any other id ties the voxel to a movable substance.
type Cell struct {
	Faces     [NumFaces]Face
	Edges     [NumEdges]Bevel
	Substance uuid.UUID
}

// Removable reports a voxel that holds no geometry and no substance.
func (c *Cell) Removable() bool {
	if c.Substance != uuid.Nil {
		return false
	}
	for _, f := range c.Faces {
		if !f.Empty() {
			return false
		}
	}
	return true
}

func (c *Cell) HasBevels() bool {
	for _, e := range c.Edges {
		if e.Active() {
			return true
		}
	}
	return false
}

// Neighborhood resolves cells around the voxel being meshed. A nil
// Neighborhood treats every neighbour as absent.
type Neighborhood interface {
	CellAt(Coord) *Cell
}

func lookup(nb Neighborhood, c Coord) *Cell {
	if nb == nil {
		return nil
	}
	return nb.CellAt(c)
}
