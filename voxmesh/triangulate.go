package voxmesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrLayoutMismatch reports a face whose emitted geometry disagrees with the
// planned vertex or index counts.
var ErrLayoutMismatch = errors.New("voxmesh: face layout mismatch")

type triangulator struct {
	mesh *ChunkMesh
	base uint32
	out  []uint32
}

// poly emits the triangles of a surface polygon, already wound outward.
func (t *triangulator) poly(sp surfacePoly) {
	for _, tr := range sp.Tris {
		t.out = append(t.out, t.base+uint32(sp.Off+tr[0]), t.base+uint32(sp.Off+tr[1]), t.base+uint32(sp.Off+tr[2]))
	}
}

// oriented emits a triangle facing the sum of its vertex normals.
func (t *triangulator) oriented(a, b, c int) {
	ia, ib, ic := t.base+uint32(a), t.base+uint32(b), t.base+uint32(c)
	p := t.mesh.Positions
	n := t.mesh.Normals
	cross := p[ib].Sub(p[ia]).Cross(p[ic].Sub(p[ia]))
	ref := n[ia].Add(n[ib]).Add(n[ic])
	if cross.Dot(ref) < 0 {
		ib, ic = ic, ib
	}
	t.out = append(t.out, ia, ib, ic)
}

func (t *triangulator) quad(a, b, c, d int) {
	t.oriented(a, b, c)
	t.oriented(a, c, d)
}

// triangulateFace builds the index list of a face whose vertices start at
// base in mesh. The result is checked against the planned index count.
func triangulateFace(plan *FacePlan, mesh *ChunkMesh, base uint32) ([]uint32, error) {
	t := &triangulator{mesh: mesh, base: base, out: make([]uint32, 0, plan.IndexCount)}
	cs := &plan.Corners

	for k := range cs {
		cp := &cs[k]
		rows, cols := cp.patchSize()
		for i := 0; i < rows-1; i++ {
			for j := 0; j < cols-1; j++ {
				v := func(r, c int) int { return cp.PatchOff + r*cols + c }
				t.quad(v(i, j), v(i+1, j), v(i+1, j+1), v(i, j+1))
			}
		}

		t.cap(cp.PrevCap, cp.Prev.Profile)
		t.cap(cp.NextCap, cp.Next.Profile)
	}

	for _, sp := range plan.Polys {
		t.poly(sp)
	}

	for k := range plan.Edges {
		if plan.stripped(k) {
			for j := 0; j < plan.Edges[k].Profile.Segments(); j++ {
				v := plan.StripOff[k] + 4*j
				t.quad(v, v+1, v+2, v+3)
			}
		}
	}

	if len(t.out) != plan.IndexCount {
		return nil, fmt.Errorf("%w: face %s at %v: %d indices, planned %d",
			ErrLayoutMismatch, plan.Face, plan.Pos, len(t.out), plan.IndexCount)
	}
	return t.out, nil
}

func (t *triangulator) cap(c capPlan, p Profile) {
	if !c.Needed {
		return
	}
	if !c.Reversed {
		for j := 0; j < p.Len()-1; j++ {
			t.oriented(c.Off, c.Off+1+j, c.Off+2+j)
		}
		return
	}
	m := c.Samples
	for i := 0; i < m-1; i++ {
		t.quad(c.Off+i, c.Off+i+1, c.Off+m+i+1, c.Off+m+i)
	}
}

// triangleArea is half the cross product length.
func triangleArea(a, b, c mgl32.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Len() / 2
}
