package voxmesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ChunkMesh holds the render buffers of one chunk. Positions are in world
// grid units.
type ChunkMesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Tangents  []mgl32.Vec4
	UVs       []mgl32.Vec2
	Submeshes []Submesh
	// Solid lists every emitted triangle once, whatever its materials.
	Solid []uint32
	// StaticSolid is the subset of Solid owned by static voxels.
	StaticSolid []uint32
}

func (m *ChunkMesh) appendVertex(pos, normal mgl32.Vec3, tangent mgl32.Vec4, uv mgl32.Vec2) {
	m.Positions = append(m.Positions, pos)
	m.Normals = append(m.Normals, normal)
	m.Tangents = append(m.Tangents, tangent)
	m.UVs = append(m.UVs, uv)
}

func (m *ChunkMesh) VertexCount() int { return len(m.Positions) }
func (m *ChunkMesh) TriangleCount() int { return len(m.Solid) / 3 }

// Digest hashes every buffer. Two builds of the same voxels produce the same
// digest.
func (m *ChunkMesh) Digest() uint64 {
	d := xxhash.New()
	var buf [4]byte
	f := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		_, _ = d.Write(buf[:])
	}
	u := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	for i := range m.Positions {
		for _, v := range m.Positions[i] {
			f(v)
		}
		for _, v := range m.Normals[i] {
			f(v)
		}
		for _, v := range m.Tangents[i] {
			f(v)
		}
		for _, v := range m.UVs[i] {
			f(v)
		}
	}
	for _, s := range m.Submeshes {
		u(uint32(s.Tier))
		_, _ = d.WriteString(string(s.Material))
		u(uint32(len(s.Indices)))
		for _, i := range s.Indices {
			u(i)
		}
	}
	return d.Sum64()
}

// VoxelRef pairs a cell with its grid position.
type VoxelRef struct {
	Pos  Coord
	Cell *Cell
}

// Builder turns voxels into chunk meshes.
type Builder struct {
	Neighborhood Neighborhood
	Editor       *EditorState
	SphereExtent float32
}

func (b Builder) extent() float32 {
	if b.SphereExtent <= 0 {
		return DefaultSphereExtent
	}
	return b.SphereExtent
}

// BuildChunk meshes the given voxels in order. Any layout mismatch aborts the
// whole chunk.
func (b Builder) BuildChunk(voxels []VoxelRef) (*ChunkMesh, error) {
	mesh := &ChunkMesh{}
	grouper := NewMaterialGrouper(b.Editor)
	planner := Planner{Neighborhood: b.Neighborhood, SphereExtent: b.extent()}

	for _, vr := range voxels {
		for f := FaceIndex(0); f < NumFaces; f++ {
			if vr.Cell.Faces[f].Empty() {
				continue
			}
			tris, err := b.buildFace(mesh, planner, vr, f)
			if err != nil {
				return nil, err
			}
			grouper.AddFace(vr.Pos, vr.Cell, f, tris)
			mesh.Solid = append(mesh.Solid, tris...)
			if vr.Cell.Substance == uuid.Nil {
				mesh.StaticSolid = append(mesh.StaticSolid, tris...)
			}
		}
	}
	mesh.Submeshes = grouper.Submeshes()
	return mesh, nil
}

func (b Builder) buildFace(mesh *ChunkMesh, planner Planner, vr VoxelRef, f FaceIndex) ([]uint32, error) {
	plan := planner.PlanFace(vr.Pos, vr.Cell, f)
	base := len(mesh.Positions)
	newFaceEmitter(mesh, &plan, vr.Cell.Faces[f].Orientation, planner.SphereExtent).emitFace(&plan)
	if got := len(mesh.Positions) - base; got != plan.VertexCount {
		return nil, fmt.Errorf("%w: face %s at %v: %d vertices, planned %d",
			ErrLayoutMismatch, f, vr.Pos, got, plan.VertexCount)
	}
	return triangulateFace(&plan, mesh, uint32(base))
}

// BuildVoxel meshes a single voxel at pos with no neighbours.
func BuildVoxel(pos Coord, c *Cell, extent float32) (*ChunkMesh, error) {
	return Builder{SphereExtent: extent}.BuildChunk([]VoxelRef{{Pos: pos, Cell: c}})
}
