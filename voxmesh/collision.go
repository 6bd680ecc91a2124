package voxmesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeConvex
	ShapeTriMesh
)

func (k ShapeKind) String() string {
	return [...]string{"box", "convex", "trimesh"}[k]
}

// Shape is a collision primitive. Static geometry of a chunk forms one
// triangle mesh; every substance voxel gets its own shape.
type Shape struct {
	Kind      ShapeKind
	Substance uuid.UUID
	Voxel     Coord

	Center      mgl32.Vec3 // box
	HalfExtents mgl32.Vec3 // box
	Points      []mgl32.Vec3
	Indices     []uint32 // trimesh

	solid bool
}

// Solid reports whether the shape blocks movement. Shapes start non-solid.
func (s *Shape) Solid() bool { return s.solid }
func (s *Shape) SetSolid(on bool) { s.solid = on }

// BuildShapes derives collision shapes for a meshed chunk.
func (b Builder) BuildShapes(voxels []VoxelRef, mesh *ChunkMesh) ([]*Shape, error) {
	var shapes []*Shape
	if mesh != nil && len(mesh.StaticSolid) > 0 {
		shapes = append(shapes, trimesh(mesh.Positions, mesh.StaticSolid))
	}
	for _, vr := range voxels {
		if vr.Cell.Substance == uuid.Nil {
			continue
		}
		if !vr.Cell.HasBevels() {
			shapes = append(shapes, &Shape{
				Kind:        ShapeBox,
				Substance:   vr.Cell.Substance,
				Voxel:       vr.Pos,
				Center:      vr.Pos.Vec3().Add(mgl32.Vec3{0.5, 0.5, 0.5}),
				HalfExtents: mgl32.Vec3{0.5, 0.5, 0.5},
			})
			continue
		}
		m, err := BuildVoxel(vr.Pos, solidHull(vr.Cell), b.extent())
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, &Shape{
			Kind:      ShapeConvex,
			Substance: vr.Cell.Substance,
			Voxel:     vr.Pos,
			Points:    dedupePoints(m.Positions),
		})
	}
	return shapes, nil
}

// hullMaterial stands in for empty faces when a substance voxel is meshed
// for its hull. It never reaches a render mesh.
const hullMaterial Material = "\x00hull"

// solidHull copies the cell with every face painted, so the hull of a
// substance voxel is closed whatever its visible faces are.
func solidHull(c *Cell) *Cell {
	h := *c
	for f := range h.Faces {
		if h.Faces[f].Empty() {
			h.Faces[f] = Face{Material: hullMaterial}
		}
	}
	return &h
}

// trimesh compacts the referenced vertices of a triangle list.
func trimesh(positions []mgl32.Vec3, tris []uint32) *Shape {
	remap := make(map[uint32]uint32)
	s := &Shape{Kind: ShapeTriMesh}
	for _, i := range tris {
		j, ok := remap[i]
		if !ok {
			j = uint32(len(s.Points))
			remap[i] = j
			s.Points = append(s.Points, positions[i])
		}
		s.Indices = append(s.Indices, j)
	}
	return s
}

const pointQuantum = 1 << 12

type quantPoint [3]int32

func dedupePoints(ps []mgl32.Vec3) []mgl32.Vec3 {
	seen := make(map[quantPoint]struct{}, len(ps))
	out := make([]mgl32.Vec3, 0, len(ps))
	for _, p := range ps {
		var q quantPoint
		for i := range q {
			q[i] = int32(math.Round(float64(p[i]) * pointQuantum))
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, p)
	}
	return out
}
