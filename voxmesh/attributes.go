package voxmesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FaceBasis returns the texture axes of a face after applying its
// orientation, and the handedness sign stored in the tangent's w.
// Positive faces start from (U, V) = (e_u, e_v), negative faces from
// (e_v, e_u); each quarter turn maps (U, V) to (V, -U).
func FaceBasis(f FaceIndex, o Orientation) (u, v mgl32.Vec3, w float32) {
	fr := frameOf(f)
	u[fr.u], v[fr.v] = 1, 1
	if f.Side() == 0 {
		u, v = v, u
	}
	for i := 0; i < o.Rotation(); i++ {
		u, v = v, u.Mul(-1)
	}
	w = 1
	if o.Mirrored() {
		u, w = u.Mul(-1), -1
	}
	return u, v, w
}

// faceEmitter appends vertices of one face to a chunk buffer. Local points
// are (x, y, depth) in the face frame.
type faceEmitter struct {
	mesh    *ChunkMesh
	fr      faceFrame
	origin  mgl32.Vec3
	u, v    mgl32.Vec3
	tangent mgl32.Vec4
	extent  float32
}

func newFaceEmitter(mesh *ChunkMesh, plan *FacePlan, o Orientation, extent float32) *faceEmitter {
	u, v, w := FaceBasis(plan.Face, o)
	return &faceEmitter{
		mesh:    mesh,
		fr:      frameOf(plan.Face),
		origin:  plan.Pos.Vec3(),
		u:       u,
		v:       v,
		tangent: u.Vec4(w),
		extent:  extent,
	}
}

func (e *faceEmitter) emit(p mgl32.Vec2, depth float32, n mgl32.Vec3) {
	pos := e.origin.Add(e.fr.point(p.X(), p.Y(), depth))
	nrm := e.fr.dir(n.X(), n.Y(), n.Z())
	if l := nrm.Len(); l > 0 {
		nrm = nrm.Mul(1 / l)
	}
	e.mesh.appendVertex(pos, nrm, e.tangent, mgl32.Vec2{pos.Dot(e.u), pos.Dot(e.v)})
}

// emitCorner emits a point given in the (s, t, depth) frame of corner k
// with a normal in the same frame.
func (e *faceEmitter) emitCorner(k int, s, t, depth float32, n mgl32.Vec3) {
	e.emit(cornerPoint(k, s, t), depth, cornerDir(k, n.X(), n.Y()).Vec3(n.Z()))
}

var flatNormal = mgl32.Vec3{0, 0, -1}

// emitFace writes every vertex of a planned face in allocation order.
func (e *faceEmitter) emitFace(plan *FacePlan) {
	for k := range plan.Corners {
		cp := &plan.Corners[k]
		switch cp.Kind {
		case CornerPatch:
			e.emitPatch(k, cp)
		case CornerSphere:
			e.emitSphere(k, cp)
		}

		e.emitPrevCap(k, cp)
		e.emitNextCap(k, cp)
	}
	for _, sp := range plan.Polys {
		for i, p := range sp.Points {
			e.emit(p.Vec2(), p.Z(), sp.Normals[i])
		}
	}
	for k := range plan.Edges {
		if plan.stripped(k) {
			e.emitStrip(k, plan)
		}
	}
}

// profileNormal maps a profile normal onto the face: along the in-plane
// direction away from the edge and along depth. Concave fillets mirror the
// in-plane component.
func profileNormal(st edgeState, n mgl32.Vec2) (float32, float32) {
	if st.Mode == ModeConcave {
		return -n.X(), n.Y()
	}
	return n.X(), n.Y()
}

func (e *faceEmitter) emitPatch(k int, cp *CornerPlan) {
	a, b := cp.Prev, cp.Next
	for i := 0; i < a.Profile.Len(); i++ {
		pa := a.Profile.At(i)
		ax, ad := profileNormal(a, a.Profile.PointNormal(i))
		na := mgl32.Vec3{ax, 0, ad}
		for j := 0; j < b.Profile.Len(); j++ {
			pb := b.Profile.At(j)
			bx, bd := profileNormal(b, b.Profile.PointNormal(j))
			nb := mgl32.Vec3{0, bx, bd}

			n := na.Add(nb)
			switch {
			case pa.Y() > pb.Y()+epsilon:
				n = na
			case pb.Y() > pa.Y()+epsilon:
				n = nb
			}
			depth := max(pa.Y(), pb.Y()) * a.sign()
			e.emitCorner(k, pa.X(), pb.X(), depth, n)
		}
	}
}

// emitSphere samples the octant of a sphere centred r inside the corner.
// Directions come from the curve slopes of both edges; the body diagonal
// sample uses the configured extent.
func (e *faceEmitter) emitSphere(k int, cp *CornerPlan) {
	a, b := cp.Prev, cp.Next
	r := a.Profile.Scale
	la, lb := a.Profile.Len(), b.Profile.Len()
	for i := 0; i < la; i++ {
		for j := 0; j < lb; j++ {
			d := mgl32.Vec3{-a.Profile.Slope(i), -b.Profile.Slope(j), -1}.Normalize()
			if i == la-1 && j == lb-1 {
				d = mgl32.Vec3{-e.extent, -e.extent, -e.extent}
			}
			p := mgl32.Vec3{r, r, r}.Add(d.Mul(r))
			e.emitCorner(k, p.X(), p.Y(), p.Z(), d)
		}
	}
}

// emitPrevCap closes the previous edge's strip in the plane t = At.
func (e *faceEmitter) emitPrevCap(k int, cp *CornerPlan) {
	c := cp.PrevCap
	if !c.Needed {
		return
	}
	st := cp.Prev
	n := mgl32.Vec3{0, st.sign(), 0}
	if !c.Reversed {
		e.emitCorner(k, 0, c.At, 0, n)
		for j := 0; j < st.Profile.Len(); j++ {
			p := st.Profile.At(j)
			e.emitCorner(k, p.X(), c.At, p.Y()*st.sign(), n)
		}
		return
	}
	for _, p := range st.Profile.Resample(c.Samples) {
		e.emitCorner(k, p.X(), c.At, p.Y()*st.sign(), n)
	}
	for _, p := range c.Other.Resample(c.Samples) {
		e.emitCorner(k, p.X(), c.At, p.Y()*st.sign(), n)
	}
}

// emitNextCap closes the next edge's strip in the plane s = At.
func (e *faceEmitter) emitNextCap(k int, cp *CornerPlan) {
	c := cp.NextCap
	if !c.Needed {
		return
	}
	st := cp.Next
	n := mgl32.Vec3{st.sign(), 0, 0}
	if !c.Reversed {
		e.emitCorner(k, c.At, 0, 0, n)
		for j := 0; j < st.Profile.Len(); j++ {
			p := st.Profile.At(j)
			e.emitCorner(k, c.At, p.X(), p.Y()*st.sign(), n)
		}
		return
	}
	for _, p := range st.Profile.Resample(c.Samples) {
		e.emitCorner(k, c.At, p.X(), p.Y()*st.sign(), n)
	}
	for _, p := range c.Other.Resample(c.Samples) {
		e.emitCorner(k, c.At, p.X(), p.Y()*st.sign(), n)
	}
}

// emitStrip writes the bevel strip along edge k, four vertices per profile
// segment: two at corner k, two at corner k+1.
func (e *faceEmitter) emitStrip(k int, plan *FacePlan) {
	st := plan.Edges[k]
	c0, c1 := &plan.Corners[k], &plan.Corners[(k+1)%4]
	k1 := (k + 1) % 4
	sign := st.sign()
	for j := 0; j < st.Profile.Segments(); j++ {
		p0, p1 := st.Profile.At(j), st.Profile.At(j+1)
		n0x, n0d := profileNormal(st, st.Profile.Normals[j][0])
		n1x, n1d := profileNormal(st, st.Profile.Normals[j][1])

		e.emitCorner(k, c0.nextAlong(p0.X()), p0.X(), p0.Y()*sign, mgl32.Vec3{0, n0x, n0d})
		e.emitCorner(k, c0.nextAlong(p1.X()), p1.X(), p1.Y()*sign, mgl32.Vec3{0, n1x, n1d})
		e.emitCorner(k1, p1.X(), c1.prevAlong(p1.X()), p1.Y()*sign, mgl32.Vec3{n1x, 0, n1d})
		e.emitCorner(k1, p0.X(), c1.prevAlong(p0.X()), p0.Y()*sign, mgl32.Vec3{n0x, 0, n0d})
	}
}
