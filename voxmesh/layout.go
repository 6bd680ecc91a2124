package voxmesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// CornerKind selects how a face corner is tessellated.
type CornerKind uint8

const (
	CornerPlain    CornerKind = iota // both in-plane edges sharp, no depth cut
	CornerDepthFan                   // only the edge through the face normal is beveled
	CornerSingle                     // one in-plane edge beveled, strip runs to the corner
	CornerMitre                      // both beveled alike, strips meet on the diagonal
	CornerSphere                     // three matching curves, spherical patch
	CornerPatch                      // both beveled in the same mode with different bevels
	CornerTab                        // one convex and one concave edge
	CornerNotch                      // different convex bevels cut each other
)

func (k CornerKind) String() string {
	return [...]string{"plain", "depthfan", "single", "mitre", "sphere", "patch", "tab", "notch"}[k]
}

const epsilon = 1e-5

// DefaultSphereExtent is the per-axis extent of the body diagonal sample of a
// sphere corner patch, close to 1/sqrt(3).
const DefaultSphereExtent float32 = 0.5772

// edgeState is one in-plane edge of a face as the planner resolved it.
type edgeState struct {
	EdgeFacts
	Edge    EdgeIndex
	Across  FaceIndex
	Profile Profile
}

func (e edgeState) inset() float32 {
	if !e.Beveled() {
		return 0
	}
	return e.Profile.Inset()
}

func (e edgeState) sign() float32 {
	if e.Mode == ModeConcave {
		return -1
	}
	return 1
}

func (e edgeState) sameShape(o edgeState) bool {
	return e.Matches(o.EdgeFacts) && mgl32.FloatEqualThreshold(e.Profile.Scale, o.Profile.Scale, epsilon)
}

// capPlan closes one strip end. At is the corner-frame coordinate of the end
// plane measured along the strip.
type capPlan struct {
	Needed   bool
	Reversed bool
	At       float32
	Other    Profile
	Samples  int
	Off      int
}

func (c capPlan) vertices(p Profile) int {
	switch {
	case !c.Needed:
		return 0
	case c.Reversed:
		return 2 * c.Samples
	default:
		return p.Len() + 1
	}
}

func (c capPlan) triangles(p Profile) int {
	switch {
	case !c.Needed:
		return 0
	case c.Reversed:
		return 2 * (c.Samples - 1)
	default:
		return p.Len() - 1
	}
}

// CornerPlan is the resolved layout of one face corner. Corner k sits
// between the previous in-plane edge E(k-1) and the next edge E(k); its
// local frame measures s from the previous edge line and t from the next.
type CornerPlan struct {
	Kind     CornerKind
	Prev     edgeState
	Next     edgeState
	Depth    edgeState
	Q        mgl32.Vec2
	Reversed bool
	PrevCap  capPlan
	NextCap  capPlan

	PatchOff int
}

// prevAlong is where the previous edge's strip ends, measured along t.
func (c CornerPlan) prevAlong(x float32) float32 {
	switch c.Kind {
	case CornerMitre:
		return x
	case CornerSingle:
		return 0
	}
	return c.Q.Y()
}

// nextAlong is where the next edge's strip ends, measured along s.
func (c CornerPlan) nextAlong(x float32) float32 {
	switch c.Kind {
	case CornerMitre:
		return x
	case CornerSingle:
		return 0
	}
	return c.Q.X()
}

func (c CornerPlan) patchSize() (int, int) {
	if c.Kind != CornerPatch && c.Kind != CornerSphere {
		return 0, 0
	}
	return c.Prev.Profile.Len(), c.Next.Profile.Len()
}

// FacePlan is the complete vertex and index layout of one face. Vertex
// offsets are relative to the first vertex of the face.
//
// A face without concave edges is cut: its flat part and its strips are
// carved out of the notches of every convex bevel of the voxel. Faces with
// a concave fillet keep profile strips that run corner to corner.
type FacePlan struct {
	Pos       Coord
	Face      FaceIndex
	Edges     [4]edgeState
	Corners   [4]CornerPlan
	Cut       bool
	Collapsed bool
	// Polys are the flat part of the face, tabs, and on cut faces the strips.
	Polys    []surfacePoly
	StripOff [4]int

	VertexCount int
	IndexCount  int
}

// Planner resolves face layouts against a neighbourhood.
type Planner struct {
	Neighborhood Neighborhood
	SphereExtent float32
}

// faceFrame describes a face in local (x, y, depth) coordinates. x runs along
// axis U, y along axis V, depth points into the voxel.
type faceFrame struct {
	face FaceIndex
	a    int
	u, v int
}

func frameOf(f FaceIndex) faceFrame {
	a := f.Axis()
	return faceFrame{face: f, a: a, u: (a + 1) % 3, v: (a + 2) % 3}
}

// neighbors lists the faces across the in-plane edges E0..E3
// (y=0, x=1, y=1, x=0).
func (fr faceFrame) neighbors() [4]FaceIndex {
	return [4]FaceIndex{FaceOf(fr.v, 0), FaceOf(fr.u, 1), FaceOf(fr.v, 1), FaceOf(fr.u, 0)}
}

func (fr faceFrame) point(x, y, depth float32) mgl32.Vec3 {
	var p mgl32.Vec3
	p[fr.u] = x
	p[fr.v] = y
	if fr.face.Side() == 1 {
		p[fr.a] = 1 - depth
	} else {
		p[fr.a] = depth
	}
	return p
}

func (fr faceFrame) dir(x, y, depth float32) mgl32.Vec3 {
	var d mgl32.Vec3
	d[fr.u] = x
	d[fr.v] = y
	if fr.face.Side() == 1 {
		d[fr.a] = -depth
	} else {
		d[fr.a] = depth
	}
	return d
}

var cornerOrigins = [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// cornerAxes returns the s and t directions of corner k in face-local
// coordinates. Every corner frame keeps the handedness of the face frame.
func cornerAxes(k int) (mgl32.Vec2, mgl32.Vec2) {
	s := [4]mgl32.Vec2{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}[k]
	return s, mgl32.Vec2{-s.Y(), s.X()}
}

func cornerPoint(k int, s, t float32) mgl32.Vec2 {
	sd, td := cornerAxes(k)
	return cornerOrigins[k].Add(sd.Mul(s)).Add(td.Mul(t))
}

func cornerDir(k int, s, t float32) mgl32.Vec2 {
	sd, td := cornerAxes(k)
	return sd.Mul(s).Add(td.Mul(t))
}

// EdgeScales returns the effective profile scale of every edge. Two bevels
// that do not meet at a corner, parallel or skew, never sum past the unit:
// oversized pairs are shrunk proportionally.
func EdgeScales(c *Cell) [NumEdges]float32 {
	var raw, out [NumEdges]float32
	for e, b := range c.Edges {
		if b.Active() {
			raw[e] = b.Size.Scale()
		}
	}
	for e := EdgeIndex(0); e < NumEdges; e++ {
		f := float32(1)
		for o := EdgeIndex(0); o < NumEdges; o++ {
			if o == e || e.adjacent(o) {
				continue
			}
			if sum := raw[e] + raw[o]; sum > 1 && 1/sum < f {
				f = 1 / sum
			}
		}
		out[e] = raw[e] * f
	}
	return out
}

// edgeMode classifies edge e of face f on the voxel at pos, where g is the
// other face sharing the edge.
func edgeMode(nb Neighborhood, pos Coord, c *Cell, f, g FaceIndex) EdgeMode {
	e := EdgeBetween(f, g)
	if !c.Edges[e].Active() || c.Faces[f].Empty() {
		return ModeSharp
	}
	if !c.Faces[g].Empty() {
		return ModeConvex
	}
	// The voxel beside the edge may be an unstored interior voxel; only the
	// wall rising above it is required.
	wall := lookup(nb, pos.Add(g.Offset()).Add(f.Offset()))
	if wall == nil || wall.Substance != c.Substance || wall.Faces[g.Opposite()].Empty() {
		return ModeSharp
	}
	if side := lookup(nb, pos.Add(g.Offset())); side != nil && side.Substance != c.Substance {
		return ModeSharp
	}
	return ModeConcave
}

// PlanFace lays out face f of the voxel at pos.
func (p Planner) PlanFace(pos Coord, c *Cell, f FaceIndex) FacePlan {
	fr := frameOf(f)
	nbrs := fr.neighbors()
	scales := EdgeScales(c)
	plan := FacePlan{Pos: pos, Face: f}

	for i, g := range nbrs {
		e := EdgeBetween(f, g)
		st := edgeState{Edge: e, Across: g}
		st.Bevel = c.Edges[e]
		if scales[e] > 0 {
			st.Mode = edgeMode(p.Neighborhood, pos, c, f, g)
		}
		if st.Beveled() {
			st.Profile = UnitProfile(st.Bevel.Type).Scaled(scales[e])
		}
		plan.Edges[i] = st
	}

	plan.Cut = true
	for _, e := range plan.Edges {
		if e.Mode == ModeConcave {
			plan.Cut = false
		}
	}

	if plan.Cut {
		ns := newNotchSet(c, scales)
		for k := range plan.Corners {
			plan.Corners[k] = p.planCutCorner(pos, c, &plan, ns, k)
		}
		fc := newFaceCut(ns, &plan)
		plan.Collapsed = collapses(&plan)
		if !plan.Collapsed {
			plan.Polys = fc.fr.flatSurface(fc.flatLoops())
		}
		plan.Polys = append(plan.Polys, fc.strips()...)
	} else {
		for k := range plan.Corners {
			plan.Corners[k] = p.planCorner(pos, c, &plan, scales, k)
		}
		plan.Polys = fr.flatSurface(plan.flatLoops())
		plan.Polys = append(plan.Polys, fr.flatSurface(plan.tabLoops())...)
	}
	plan.allocate()
	return plan
}

// collapses reports a face whose four edges carry convex half-size square
// or stair bevels, in any mix. Their notches meet in the middle, so no
// ledge of the face plane is left.
func collapses(plan *FacePlan) bool {
	for _, e := range plan.Edges {
		if e.Mode != ModeConvex || !mgl32.FloatEqualThreshold(e.Profile.Scale, 0.5, epsilon) {
			return false
		}
		switch e.Bevel.Type {
		case BevelSquare, BevelStair2, BevelStair4:
		default:
			return false
		}
	}
	return true
}

// planCutCorner classifies a corner of a cut face. Strips end on the
// notches of the bevels around the corner, so only sphere patches and caps
// on exposed strip ends need geometry of their own.
func (p Planner) planCutCorner(pos Coord, c *Cell, plan *FacePlan, ns *notchSet, k int) CornerPlan {
	a, b := plan.Edges[(k+3)%4], plan.Edges[k]
	cp := CornerPlan{Prev: a, Next: b, Q: mgl32.Vec2{a.inset(), b.inset()}}

	d := edgeState{Edge: EdgeBetween(a.Across, b.Across)}
	d.Bevel = c.Edges[d.Edge]
	if ns.curves[d.Edge] != nil {
		d.Mode = ModeConvex
		d.Profile = ns.profiles[d.Edge]
	}
	cp.Depth = d

	switch {
	case !a.Beveled() && !b.Beveled():
		cp.Kind = CornerPlain
		if d.Beveled() {
			cp.Kind = CornerDepthFan
		}
	case a.Beveled() != b.Beveled():
		cp.Kind = CornerSingle
		if a.Beveled() {
			cp.PrevCap = p.stripEndCap(pos, c, plan.Face, a, b.Across)
		} else {
			cp.NextCap = p.stripEndCap(pos, c, plan.Face, b, a.Across)
		}
	case a.sameShape(b):
		cp.Kind = CornerMitre
		if ns.sphere(a.Edge, b.Edge, d.Edge) {
			cp.Kind = CornerSphere
		}
	default:
		cp.Kind = CornerNotch
	}
	return cp
}

func (p Planner) planCorner(pos Coord, c *Cell, plan *FacePlan, scales [NumEdges]float32, k int) CornerPlan {
	a, b := plan.Edges[(k+3)%4], plan.Edges[k]
	cp := CornerPlan{Prev: a, Next: b}

	d := edgeState{Edge: EdgeBetween(a.Across, b.Across)}
	d.Bevel = c.Edges[d.Edge]
	if scales[d.Edge] > 0 && !c.Faces[a.Across].Empty() && !c.Faces[b.Across].Empty() {
		d.Mode = ModeConvex
		d.Profile = UnitProfile(d.Bevel.Type).Scaled(scales[d.Edge])
	}
	cp.Depth = d

	switch {
	case !a.Beveled() && !b.Beveled():
		if !d.Beveled() {
			cp.Kind = CornerPlain
			break
		}
		// The cut may not reach past the far edges of the face.
		far := max(plan.Edges[(k+1)%4].inset(), plan.Edges[(k+2)%4].inset())
		rd := min(d.Profile.Scale, 1-far)
		if rd <= epsilon {
			cp.Kind = CornerPlain
			break
		}
		cp.Depth.Profile = cp.Depth.Profile.Scaled(rd)
		cp.Kind = CornerDepthFan
		cp.Q = mgl32.Vec2{rd, rd}
	case a.Beveled() != b.Beveled():
		cp.Kind = CornerSingle
		cp.Q = mgl32.Vec2{a.inset(), b.inset()}
		if a.Beveled() {
			cp.PrevCap = p.stripEndCap(pos, c, plan.Face, a, b.Across)
		} else {
			cp.NextCap = p.stripEndCap(pos, c, plan.Face, b, a.Across)
		}
	default:
		cp.Q = mgl32.Vec2{a.inset(), b.inset()}
		switch {
		case a.sameShape(b):
			cp.Kind = CornerMitre
			if a.Mode == ModeConvex && a.Bevel.Type == BevelCurve && d.Beveled() &&
				d.Bevel.Type == BevelCurve && mgl32.FloatEqualThreshold(d.Profile.Scale, a.Profile.Scale, epsilon) {
				cp.Kind = CornerSphere
			}
		case a.Mode == b.Mode:
			cp.Kind = CornerPatch
			cp.Reversed = DecideCap(CapFacts{This: b.EdgeFacts, Perp: a.EdgeFacts}).Reversed
		default:
			cp.Kind = CornerTab
			cp.PrevCap = capPlan{Needed: true, At: cp.Q.Y()}
			cp.NextCap = capPlan{Needed: true, At: cp.Q.X()}
		}
	}
	return cp
}

// stripEndCap resolves the end of strip e where it meets the corner line;
// across is the face beyond the sharp edge at that corner.
func (p Planner) stripEndCap(pos Coord, c *Cell, f FaceIndex, e edgeState, across FaceIndex) capPlan {
	facts := CapFacts{
		This:    e.EdgeFacts,
		Exposed: c.Faces[across].Empty(),
	}
	npos := pos.Add(across.Offset())
	n := lookup(p.Neighborhood, npos)
	var nscale float32
	if n != nil {
		facts.SameSubstance = n.Substance == c.Substance
		nf := EdgeFacts{Bevel: n.Edges[e.Edge]}
		nscale = EdgeScales(n)[e.Edge]
		if nscale > 0 {
			nf.Mode = edgeMode(p.Neighborhood, npos, n, f, e.Across)
		}
		facts.Neighbor = &nf
	}
	dec := DecideCap(facts)
	cp := capPlan{Needed: dec.Needed, Reversed: dec.Reversed}
	if !dec.Reversed {
		return cp
	}
	cp.Other = UnitProfile(dec.Other.Type).Scaled(nscale)
	// Only the side that removed more material sees the closing wall.
	if e.Profile.RemovedArea() <= cp.Other.RemovedArea()+epsilon {
		return capPlan{}
	}
	cp.Samples = max(e.Profile.Len(), cp.Other.Len())
	return cp
}

// flatLoops outlines the flat part of a face with profile strips. Each
// corner contributes its inner point, or the traced depth cut.
func (plan *FacePlan) flatLoops() [][]mgl64.Vec2 {
	var outline []mgl64.Vec2
	for k, cp := range plan.Corners {
		if cp.Kind != CornerDepthFan {
			outline = append(outline, cornerPoint64(k, float64(cp.Q.X()), float64(cp.Q.Y())))
			continue
		}
		p := cp.Depth.Profile
		for i := 0; i < p.Len(); i++ {
			pt := p.At(i)
			outline = append(outline, cornerPoint64(k, float64(pt.Y()), float64(pt.X())))
		}
		for i := p.Len() - 2; i >= 0; i-- {
			pt := p.At(i)
			outline = append(outline, cornerPoint64(k, float64(pt.X()), float64(pt.Y())))
		}
	}
	return cleanLoops(outline)
}

// tabLoops fills the corner rectangle of every tab.
func (plan *FacePlan) tabLoops() [][]mgl64.Vec2 {
	var out [][]mgl64.Vec2
	for k, cp := range plan.Corners {
		if cp.Kind != CornerTab {
			continue
		}
		qx, qy := float64(cp.Q.X()), float64(cp.Q.Y())
		out = append(out, cleanLoops([]mgl64.Vec2{
			cornerPoint64(k, qx, qy),
			cornerPoint64(k, 0, qy),
			cornerPoint64(k, 0, 0),
			cornerPoint64(k, qx, 0),
		})...)
	}
	return out
}

// allocate assigns vertex offsets in a single pass over the corners, the
// surface polygons and then the strips, and predicts the index count.
func (plan *FacePlan) allocate() {
	off, tris := 0, 0
	for k := range plan.Corners {
		cp := &plan.Corners[k]
		cp.PatchOff = off
		rows, cols := cp.patchSize()
		off += rows * cols
		if rows > 0 {
			tris += 2 * (rows - 1) * (cols - 1)
		}

		cp.PrevCap.Off = off
		off += cp.PrevCap.vertices(cp.Prev.Profile)
		tris += cp.PrevCap.triangles(cp.Prev.Profile)
		cp.NextCap.Off = off
		off += cp.NextCap.vertices(cp.Next.Profile)
		tris += cp.NextCap.triangles(cp.Next.Profile)
	}

	for i := range plan.Polys {
		sp := &plan.Polys[i]
		sp.Off = off
		off += len(sp.Points)
		tris += len(sp.Tris)
	}

	for k := range plan.Edges {
		plan.StripOff[k] = off
		if plan.stripped(k) {
			segs := plan.Edges[k].Profile.Segments()
			off += 4 * segs
			tris += 2 * segs
		}
	}
	plan.VertexCount = off
	plan.IndexCount = 3 * tris
}

// stripped reports a profile strip along edge k.
func (plan *FacePlan) stripped(k int) bool {
	return !plan.Cut && plan.Edges[k].Beveled()
}
