package voxmesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

type cellMap map[Coord]*Cell

func (m cellMap) CellAt(c Coord) *Cell { return m[c] }

// painted returns a cell with the given faces painted in material m, all
// faces when none are listed.
func painted(m Material, faces ...FaceIndex) *Cell {
	c := &Cell{}
	if len(faces) == 0 {
		for f := FaceIndex(0); f < NumFaces; f++ {
			faces = append(faces, f)
		}
	}
	for _, f := range faces {
		c.Faces[f] = Face{Material: m}
	}
	return c
}

// faceSpan is the vertex range and triangle list of one face in a built
// chunk.
type faceSpan struct {
	plan  FacePlan
	base  int
	count int
}

// buildSpans meshes voxels and returns the vertex span of every face in
// build order.
func buildSpans(t *testing.T, nb Neighborhood, voxels []VoxelRef) (*ChunkMesh, []faceSpan) {
	t.Helper()
	b := Builder{Neighborhood: nb}
	mesh, err := b.BuildChunk(voxels)
	require.NoError(t, err)

	planner := Planner{Neighborhood: nb, SphereExtent: DefaultSphereExtent}
	var spans []faceSpan
	base := 0
	for _, vr := range voxels {
		for f := FaceIndex(0); f < NumFaces; f++ {
			if vr.Cell.Faces[f].Empty() {
				continue
			}
			plan := planner.PlanFace(vr.Pos, vr.Cell, f)
			spans = append(spans, faceSpan{plan: plan, base: base, count: plan.VertexCount})
			base += plan.VertexCount
		}
	}
	require.Equal(t, base, mesh.VertexCount())
	return mesh, spans
}

func spanFor(t *testing.T, spans []faceSpan, pos Coord, f FaceIndex) faceSpan {
	t.Helper()
	for _, s := range spans {
		if s.plan.Pos == pos && s.plan.Face == f {
			return s
		}
	}
	t.Fatalf("no face %s at %v", f, pos)
	return faceSpan{}
}

// trianglesIn returns the triangles of tris whose vertices all lie in span.
func trianglesIn(tris []uint32, s faceSpan) [][3]uint32 {
	var out [][3]uint32
	lo, hi := uint32(s.base), uint32(s.base+s.count)
	for i := 0; i+2 < len(tris); i += 3 {
		if tris[i] >= lo && tris[i] < hi {
			out = append(out, [3]uint32{tris[i], tris[i+1], tris[i+2]})
		}
	}
	return out
}

func faceArea(m *ChunkMesh, tris [][3]uint32) float32 {
	var a float32
	for _, tr := range tris {
		a += triangleArea(m.Positions[tr[0]], m.Positions[tr[1]], m.Positions[tr[2]])
	}
	return a
}

// closedVolume welds positions that agree within 1e-4 and requires every
// directed edge to be matched by its reverse as often as it occurs. It
// returns the signed volume the triangles enclose.
func closedVolume(t *testing.T, m *ChunkMesh, tris []uint32) float64 {
	t.Helper()
	var reps []mgl32.Vec3
	id := make([]int, len(m.Positions))
	for i, p := range m.Positions {
		id[i] = -1
		for j, r := range reps {
			if vecNear(p, r) {
				id[i] = j
				break
			}
		}
		if id[i] < 0 {
			id[i] = len(reps)
			reps = append(reps, p)
		}
	}

	edges := map[[2]int]int{}
	vol := 0.0
	for i := 0; i+2 < len(tris); i += 3 {
		v := [3]int{id[tris[i]], id[tris[i+1]], id[tris[i+2]]}
		for k := range v {
			edges[[2]int{v[k], v[(k+1)%3]}]++
		}
		a, b, c := m.Positions[tris[i]], m.Positions[tris[i+1]], m.Positions[tris[i+2]]
		vol += float64(a.Dot(b.Cross(c))) / 6
	}
	for e, n := range edges {
		require.Equal(t, n, edges[[2]int{e[1], e[0]}], "open edge %v to %v", reps[e[0]], reps[e[1]])
	}
	return vol
}

// sampledVolume estimates the solid left of a voxel at the origin by
// testing n^3 cell centres against every convex notch.
func sampledVolume(c *Cell, n int) float64 {
	ns := newNotchSet(c, EdgeScales(c))
	depth := func(f FaceIndex, p [3]float64) float64 {
		if f.Side() == 0 {
			return p[f.Axis()]
		}
		return 1 - p[f.Axis()]
	}
	inside := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for l := 0; l < n; l++ {
				p := [3]float64{(float64(i) + .5) / float64(n), (float64(j) + .5) / float64(n), (float64(l) + .5) / float64(n)}
				solid := true
				for e := EdgeIndex(0); e < NumEdges && solid; e++ {
					f, g := e.Faces()
					solid = depth(g, p) >= ns.curves[e].reach(depth(f, p), 1)
				}
				if solid {
					inside++
				}
			}
		}
	}
	return float64(inside) / float64(n*n*n)
}

func vecNear(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-4)
}
