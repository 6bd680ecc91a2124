package voxmesh

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFaceLayout(t *testing.T) {
	c := painted("stone")
	p := Planner{}
	for f := FaceIndex(0); f < NumFaces; f++ {
		plan := p.PlanFace(Coord{}, c, f)
		assert.Equal(t, 4, plan.VertexCount, f.String())
		assert.Equal(t, 6, plan.IndexCount, f.String())
		for _, cp := range plan.Corners {
			assert.Equal(t, CornerPlain, cp.Kind)
		}
	}
}

func TestEdgeScalesClampParallelPairs(t *testing.T) {
	c := &Cell{}
	c.Edges[0] = Bevel{Type: BevelCurve, Size: SizeFull}
	c.Edges[3] = Bevel{Type: BevelFlat, Size: SizeHalf}
	c.Edges[5] = Bevel{Type: BevelFlat, Size: SizeQuarter}
	s := EdgeScales(c)
	assert.InDelta(t, 1/1.5, s[0], 1e-6)
	assert.InDelta(t, 0.5/1.5, s[3], 1e-6)
	assert.InDelta(t, 0.25, s[5], 1e-6)
	assert.Zero(t, s[1])
}

// Edge 0 (y=0, z=0) and edge 7 (x=1, z=1) never meet, so a full and a
// half bevel on them are shrunk like a parallel pair.
func TestEdgeScalesClampSkewPairs(t *testing.T) {
	c := &Cell{}
	c.Edges[0] = Bevel{Type: BevelFlat, Size: SizeFull}
	c.Edges[7] = Bevel{Type: BevelFlat, Size: SizeHalf}
	c.Edges[9] = Bevel{Type: BevelFlat, Size: SizeFull}
	require.False(t, EdgeIndex(0).adjacent(7))
	require.True(t, EdgeIndex(9).adjacent(0))
	require.True(t, EdgeIndex(9).adjacent(7))

	s := EdgeScales(c)
	assert.InDelta(t, 1/1.5, s[0], 1e-6)
	assert.InDelta(t, 0.5/1.5, s[7], 1e-6, "skew partner of edge 0")
	assert.InDelta(t, 1, s[9], 1e-6, "edge 9 meets both")
}

// A square half bevel on edge 0 notches the -X face at its (y=0, z=0)
// corner.
func TestDepthFanCorner(t *testing.T) {
	c := painted("stone")
	c.Edges[0] = Bevel{Type: BevelSquare, Size: SizeHalf}
	p := Planner{}

	plan := p.PlanFace(Coord{}, c, FaceNegX)
	require.True(t, plan.Cut)
	cp := plan.Corners[0]
	require.Equal(t, CornerDepthFan, cp.Kind)
	assert.InDelta(t, 0.5, cp.Depth.Profile.Scale, 1e-6)

	side := p.PlanFace(Coord{}, c, FaceNegY)
	assert.Equal(t, ModeConvex, side.Edges[3].Mode)
	assert.InDelta(t, 0.5, side.Edges[3].inset(), 1e-6)

	top := p.PlanFace(Coord{}, c, FacePosY)
	assert.Equal(t, 4, top.VertexCount)
	assert.Equal(t, 6, top.IndexCount)

	mesh, spans := buildSpans(t, nil, []VoxelRef{{Cell: c}})
	s := spanFor(t, spans, Coord{}, FaceNegX)
	assert.InDelta(t, 0.75, faceArea(mesh, trianglesIn(mesh.Solid, s)), 1e-5)
	assert.InDelta(t, 0.75, closedVolume(t, mesh, mesh.Solid), 1e-4)
}

// planeArea sums the triangles of span s lying in the plane y = 1.
func planeArea(m *ChunkMesh, s faceSpan) float32 {
	var a float32
	for _, tr := range trianglesIn(m.Solid, s) {
		if m.Positions[tr[0]].Y() > 1-1e-5 && m.Positions[tr[1]].Y() > 1-1e-5 && m.Positions[tr[2]].Y() > 1-1e-5 {
			a += triangleArea(m.Positions[tr[0]], m.Positions[tr[1]], m.Positions[tr[2]])
		}
	}
	return a
}

func TestPlaneCollapse(t *testing.T) {
	c := painted("stone")
	for _, g := range frameOf(FacePosY).neighbors() {
		c.Edges[EdgeBetween(FacePosY, g)] = Bevel{Type: BevelStair2, Size: SizeHalf}
	}
	plan := Planner{}.PlanFace(Coord{}, c, FacePosY)
	require.True(t, plan.Collapsed)

	mesh, spans := buildSpans(t, nil, []VoxelRef{{Cell: c}})
	assert.InDelta(t, 0, planeArea(mesh, spanFor(t, spans, Coord{}, FacePosY)), 1e-6, "no ledge left at the top")
	closedVolume(t, mesh, mesh.Solid)

	// Square and stair halves collapse together.
	c.Edges[EdgeBetween(FacePosY, FaceNegX)] = Bevel{Type: BevelSquare, Size: SizeHalf}
	c.Edges[EdgeBetween(FacePosY, FacePosX)] = Bevel{Type: BevelStair4, Size: SizeHalf}
	require.True(t, Planner{}.PlanFace(Coord{}, c, FacePosY).Collapsed)
	mesh, spans = buildSpans(t, nil, []VoxelRef{{Cell: c}})
	assert.InDelta(t, 0, planeArea(mesh, spanFor(t, spans, Coord{}, FacePosY)), 1e-6)
	closedVolume(t, mesh, mesh.Solid)

	c.Edges[EdgeBetween(FacePosY, FaceNegX)] = Bevel{Type: BevelStair2, Size: SizeQuarter}
	assert.False(t, Planner{}.PlanFace(Coord{}, c, FacePosY).Collapsed)
	c.Edges[EdgeBetween(FacePosY, FaceNegX)] = Bevel{Type: BevelCurve, Size: SizeHalf}
	assert.False(t, Planner{}.PlanFace(Coord{}, c, FacePosY).Collapsed, "curves leave the face plane")
}

func TestCornerKinds(t *testing.T) {
	curveHalf := Bevel{Type: BevelCurve, Size: SizeHalf}
	flatHalf := Bevel{Type: BevelFlat, Size: SizeHalf}
	// On +Y, corner 1 sits between E0 (towards -X) and E1 (towards +Z).
	e0 := EdgeBetween(FacePosY, FaceNegX)
	e1 := EdgeBetween(FacePosY, FacePosZ)
	d := EdgeBetween(FaceNegX, FacePosZ)

	tests := []struct {
		name  string
		edges map[EdgeIndex]Bevel
		want  CornerKind
	}{
		{"single", map[EdgeIndex]Bevel{e0: curveHalf}, CornerSingle},
		{"mitre", map[EdgeIndex]Bevel{e0: curveHalf, e1: curveHalf}, CornerMitre},
		{"sphere", map[EdgeIndex]Bevel{e0: curveHalf, e1: curveHalf, d: curveHalf}, CornerSphere},
		{"notch", map[EdgeIndex]Bevel{e0: curveHalf, e1: flatHalf}, CornerNotch},
		{"depth", map[EdgeIndex]Bevel{d: flatHalf}, CornerDepthFan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := painted("stone")
			for e, b := range tt.edges {
				c.Edges[e] = b
			}
			plan := Planner{}.PlanFace(Coord{}, c, FacePosY)
			assert.Equal(t, tt.want, plan.Corners[1].Kind)
			_, err := BuildVoxel(Coord{}, c, 0)
			require.NoError(t, err)
		})
	}
}

// A concave fillet keeps the face off the cut path, so two different convex
// bevels meet in a reversed patch.
func TestPatchBetweenConvexEdgesIsReversed(t *testing.T) {
	nb, floor := floorWithWall()
	floor.Faces[FaceNegX] = Face{Material: "stone"}
	floor.Edges[EdgeBetween(FacePosY, FacePosX)] = Bevel{Type: BevelCurve, Size: SizeHalf}
	floor.Edges[EdgeBetween(FacePosY, FaceNegX)] = Bevel{Type: BevelCurve, Size: SizeHalf}
	floor.Edges[EdgeBetween(FacePosY, FacePosZ)] = Bevel{Type: BevelStair4, Size: SizeQuarter}

	plan := Planner{Neighborhood: nb}.PlanFace(Coord{}, floor, FacePosY)
	require.False(t, plan.Cut)
	require.Equal(t, CornerPatch, plan.Corners[1].Kind)
	assert.True(t, plan.Corners[1].Reversed)
}

// floorWithWall is a floor voxel whose +X face is open and whose +Y face
// meets the wall rising one step over.
func floorWithWall() (cellMap, *Cell) {
	floor := painted("stone", FacePosY, FacePosZ, FaceNegY)
	wall := painted("stone", FaceNegX)
	return cellMap{{}: floor, {X: 1, Y: 1}: wall}, floor
}

func TestConcaveEdge(t *testing.T) {
	nb, floor := floorWithWall()
	e := EdgeBetween(FacePosY, FacePosX)
	floor.Edges[e] = Bevel{Type: BevelCurve, Size: SizeHalf}

	p := Planner{Neighborhood: nb}
	plan := p.PlanFace(Coord{}, floor, FacePosY)
	// +Y: E2 points towards +X.
	assert.Equal(t, ModeConcave, plan.Edges[2].Mode)

	assert.Equal(t, ModeSharp, Planner{}.PlanFace(Coord{}, floor, FacePosY).Edges[2].Mode,
		"no wall, no fillet")

	nb[Coord{X: 1}] = &Cell{Substance: [16]byte{1}}
	assert.Equal(t, ModeSharp, p.PlanFace(Coord{}, floor, FacePosY).Edges[2].Mode,
		"foreign side voxel")
}

func TestTabCorner(t *testing.T) {
	nb, floor := floorWithWall()
	floor.Edges[EdgeBetween(FacePosY, FacePosX)] = Bevel{Type: BevelCurve, Size: SizeHalf}
	floor.Edges[EdgeBetween(FacePosY, FacePosZ)] = Bevel{Type: BevelCurve, Size: SizeHalf}

	plan := Planner{Neighborhood: nb}.PlanFace(Coord{}, floor, FacePosY)
	cp := plan.Corners[2]
	require.Equal(t, CornerTab, cp.Kind)
	assert.True(t, cp.PrevCap.Needed)
	assert.True(t, cp.NextCap.Needed)

	_, spans := buildSpans(t, nb, []VoxelRef{{Pos: Coord{}, Cell: floor}})
	assert.NotEmpty(t, spans)
}

func TestCapsAcrossNeighbours(t *testing.T) {
	strip := EdgeBetween(FacePosY, FaceNegZ)
	a := painted("stone", FacePosY, FaceNegZ, FaceNegX)
	b := painted("stone", FacePosY, FaceNegZ, FacePosX)
	a.Edges[strip] = Bevel{Type: BevelCurve, Size: SizeHalf}
	b.Edges[strip] = Bevel{Type: BevelCurve, Size: SizeHalf}
	nb := cellMap{{}: a, {X: 1}: b}
	p := Planner{Neighborhood: nb}

	// On +Y the strip is E3; A closes it at corner 3, B at corner 0.
	endA := func() capPlan { return p.PlanFace(Coord{}, a, FacePosY).Corners[3].NextCap }
	endB := func() capPlan { return p.PlanFace(Coord{X: 1}, b, FacePosY).Corners[0].PrevCap }
	assert.False(t, endA().Needed)
	assert.False(t, endB().Needed)

	// The flat bevel removes more, so only its side closes the seam.
	b.Edges[strip] = Bevel{Type: BevelFlat, Size: SizeHalf}
	assert.False(t, endA().Needed)
	capB := endB()
	assert.True(t, capB.Needed)
	assert.True(t, capB.Reversed)

	delete(nb, Coord{X: 1})
	assert.True(t, endA().Needed, "open end without neighbour")
}

func TestRandomCellsKeepLayout(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	nb := cellMap{}
	var voxels []VoxelRef
	for x := int32(0); x < 4; x++ {
		for y := int32(0); y < 4; y++ {
			for z := int32(0); z < 4; z++ {
				c := &Cell{}
				for f := range c.Faces {
					if rng.Intn(4) > 0 {
						c.Faces[f] = Face{Material: "stone", Orientation: Orientation(rng.Intn(8))}
					}
				}
				for e := range c.Edges {
					if rng.Intn(3) == 0 {
						c.Edges[e] = Bevel{Type: BevelType(1 + rng.Intn(5)), Size: BevelSize(rng.Intn(3))}
					}
				}
				pos := Coord{x, y, z}
				nb[pos] = c
				voxels = append(voxels, VoxelRef{Pos: pos, Cell: c})
			}
		}
	}
	mesh, err := Builder{Neighborhood: nb}.BuildChunk(voxels)
	require.NoError(t, err)
	assert.Equal(t, 3*mesh.TriangleCount(), len(mesh.Solid))
	for i, n := range mesh.Normals {
		p := mesh.Positions[i]
		require.False(t, isNaN(p.X()) || isNaN(p.Y()) || isNaN(p.Z()), "position %d", i)
		require.InDelta(t, 1, n.Len(), 1e-3, "normal %d", i)
	}
}

func isNaN(f float32) bool { return f != f }

func TestBevelSizeKeepsTopology(t *testing.T) {
	for _, bt := range bevelTypes {
		var verts, tris []int
		for _, size := range []BevelSize{SizeQuarter, SizeHalf} {
			// Only the faces around the two edges, so no other notch reaches
			// the strips.
			c := painted("stone", FacePosY, FaceNegX, FacePosZ)
			c.Edges[EdgeBetween(FacePosY, FaceNegX)] = Bevel{Type: bt, Size: size}
			c.Edges[EdgeBetween(FacePosY, FacePosZ)] = Bevel{Type: bt, Size: size}
			mesh, err := BuildVoxel(Coord{}, c, 0)
			require.NoError(t, err)
			verts = append(verts, mesh.VertexCount())
			tris = append(tris, mesh.TriangleCount())
		}
		assert.Equal(t, verts[0], verts[1], bt.String())
		assert.Equal(t, tris[0], tris[1], bt.String())
	}
}
