package voxmesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// surfacePoly is a planar piece of a face with its triangles. Points and
// normals are face-local (x, y, depth). Triangles are wound to face out of
// the voxel.
type surfacePoly struct {
	Points  []mgl32.Vec3
	Normals []mgl32.Vec3
	Tris    [][3]int
	Off     int
}

// notchSet holds the notch of every convex bevel of one voxel. A bevel is
// convex when both faces along its edge are painted.
type notchSet struct {
	curves   [NumEdges]*notch
	profiles [NumEdges]Profile
}

func newNotchSet(c *Cell, scales [NumEdges]float32) *notchSet {
	ns := &notchSet{}
	for e := range c.Edges {
		if scales[e] <= 0 {
			continue
		}
		f, g := EdgeIndex(e).Faces()
		if c.Faces[f].Empty() || c.Faces[g].Empty() {
			continue
		}
		ns.profiles[e] = UnitProfile(c.Edges[e].Type).Scaled(scales[e])
		ns.curves[e] = newNotch(ns.profiles[e])
	}
	return ns
}

func (ns *notchSet) inset(e EdgeIndex) float64 {
	if ns.curves[e] == nil {
		return 0
	}
	return float64(ns.profiles[e].Inset())
}

// sphere reports three curves of one radius meeting at a corner that no
// other bevel reaches. A parallel or skew bevel touching one of them must
// be a curve of the same radius.
func (ns *notchSet) sphere(edges ...EdgeIndex) bool {
	r := ns.profiles[edges[0]].Scale
	for _, e := range edges {
		p := ns.profiles[e]
		if ns.curves[e] == nil || p.Type != BevelCurve || !mgl32.FloatEqualThreshold(p.Scale, r, epsilon) {
			return false
		}
		for o := EdgeIndex(0); o < NumEdges; o++ {
			if o == e || e.adjacent(o) || ns.curves[o] == nil {
				continue
			}
			q := ns.profiles[o]
			if q.Scale+p.Scale < 1-epsilon {
				continue
			}
			if q.Type != BevelCurve || !mgl32.FloatEqualThreshold(q.Scale, r, epsilon) {
				return false
			}
		}
	}
	return true
}

var cornerAxes64 = [4]mgl64.Vec2{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

func cornerPoint64(k int, s, t float64) mgl64.Vec2 {
	sd := cornerAxes64[k]
	td := mgl64.Vec2{-sd[1], sd[0]}
	o := cornerOrigins[k]
	return mgl64.Vec2{float64(o.X()), float64(o.Y())}.Add(sd.Mul(s)).Add(td.Mul(t))
}

// faceCut carves one face out of the voxel's notches. Around face f, E(k) is
// the in-plane edge towards neighbour k, D(k) the edge through corner k
// between neighbours k-1 and k, and Far(k) the edge the opposite face
// shares with neighbour k.
type faceCut struct {
	fr   faceFrame
	ns   *notchSet
	plan *FacePlan

	e, d, far [4]EdgeIndex
	// Cutters of the strip ends at corner k (cutU, cutV) and corner k+1
	// (cutU2, cutV2), reading the strip's depth and its distance from the
	// edge.
	cutU, cutV, cutU2, cutV2 [4]*notch
}

func newFaceCut(ns *notchSet, plan *FacePlan) *faceCut {
	fc := &faceCut{fr: frameOf(plan.Face), ns: ns, plan: plan}
	nb := fc.fr.neighbors()
	for k, g := range nb {
		fc.e[k] = EdgeBetween(plan.Face, g)
		fc.d[k] = EdgeBetween(nb[(k+3)%4], g)
		fc.far[k] = EdgeBetween(plan.Face.Opposite(), g)
	}
	c := &ns.curves
	for k := range nb {
		km, kp, k2 := (k+3)%4, (k+1)%4, (k+2)%4
		fc.cutU[k] = combine(c[fc.e[km]], c[fc.far[km]])
		fc.cutV[k] = combine(c[fc.d[k]], c[fc.d[km]])
		fc.cutU2[k] = combine(c[fc.e[kp]], c[fc.far[kp]])
		fc.cutV2[k] = combine(c[fc.d[kp]], c[fc.d[k2]])
	}
	return fc
}

type startCutter struct {
	edge   EdgeIndex
	cu, cv *notch
	near   bool
}

// flatLoops outlines what is left of the face plane.
func (fc *faceCut) flatLoops() [][]mgl64.Vec2 {
	c := &fc.ns.curves
	var r [4]float64
	for k := range r {
		r[k] = math.Max(fc.ns.inset(fc.e[k]), c[fc.far[k]].band())
	}

	var outline []mgl64.Vec2
	for k := 0; k < 4; k++ {
		ka := (k + 3) % 4
		a, b := fc.e[ka], fc.e[k]
		rA, rB := r[ka], r[k]
		cd := c[fc.d[k]]

		var pts []mgl64.Vec2
		// Where the previous side's surface leaves the face plane.
		for _, sc := range [2]startCutter{{a, c[b], cd, true}, {fc.far[ka], cd, c[fc.far[k]], false}} {
			if j := c[sc.edge].firstLiveFrom(sc.near); j >= 0 {
				pts = append(pts, mgl64.Vec2{rA, c[sc.edge].startCut(j, sc.cu, sc.cv)})
			}
		}
		pts = append(pts, mgl64.Vec2{rA, math.Max(rB, cd.reach(rA, 1))})
		if cd != nil {
			for _, p := range cd.pts {
				if p[0] > rA+cutEps && p[1] > rB+cutEps {
					pts = append(pts, p)
				}
			}
		}
		pts = append(pts, mgl64.Vec2{math.Max(rA, cd.reach(rB, 1)), rB})
		for _, sc := range [2]startCutter{{b, c[a], cd, true}, {fc.far[k], cd, c[fc.far[ka]], false}} {
			if j := c[sc.edge].firstLiveFrom(sc.near); j >= 0 {
				pts = append(pts, mgl64.Vec2{c[sc.edge].startCut(j, sc.cu, sc.cv), rB})
			}
		}

		for _, p := range pts {
			if p[0] <= 1+cutEps && p[1] <= 1+cutEps {
				outline = append(outline, cornerPoint64(k, p[0], p[1]))
			}
		}
	}
	return cleanLoops(outline)
}

// firstLiveFrom returns the first facet not on the far face, when it is
// the notch's first facet (near) or a later one (far).
func (n *notch) firstLiveFrom(near bool) int {
	if n == nil {
		return -1
	}
	j := n.firstLive()
	if j < 0 || (j == 0) != near {
		return -1
	}
	return j
}

// partnerCut resolves the partner facet of a strip end trimmed by a
// parallel bevel: its notch, x mapped into it, and the cutters that end it
// at both corners.
func (fc *faceCut) partnerCut(k int, who partner, x mgl64.Vec2) (*notch, mgl64.Vec2, [2]*notch, [2]*notch) {
	c := &fc.ns.curves
	km, kp, k2 := (k+3)%4, (k+1)%4, (k+2)%4
	if who == partnerAcross {
		return c[fc.e[k2]], mgl64.Vec2{x[0], 1 - x[1]},
			[2]*notch{fc.cutU[k], combine(c[fc.d[km]], c[fc.d[k]])},
			[2]*notch{fc.cutU2[k], combine(c[fc.d[k2]], c[fc.d[kp]])}
	}
	return c[fc.far[k]], mgl64.Vec2{1 - x[0], x[1]},
		[2]*notch{combine(c[fc.far[km]], c[fc.e[km]]), fc.cutV[k]},
		[2]*notch{combine(c[fc.far[kp]], c[fc.e[kp]]), fc.cutV2[k]}
}

// endLimits replaces the limits of a strip end whose neighbouring facet is
// gone, for the cutters at both corners.
type endLimits struct {
	lo, hi *[2]float64
}

// stripLoops returns the live outline of facet j of the strip along E(k),
// as (distance along the facet, w) loops, together with the facet ends
// after trimming.
func (fc *faceCut) stripLoops(k, j int) ([][]mgl64.Vec2, segment) {
	c := &fc.ns.curves
	C := c[fc.e[k]]
	k2 := (k + 2) % 4
	across, back := c[fc.e[k2]], c[fc.far[k]]

	p0, p1 := C.pts[j], C.pts[j+1]
	if farSide(p0, p1) {
		return nil, segment{}
	}
	var pm, pn *mgl64.Vec2
	if j > 0 && !farSide(C.pts[j-1], p0) {
		pm = &C.pts[j-1]
	}
	if j+2 < len(C.pts) && !farSide(p1, C.pts[j+2]) {
		pn = &C.pts[j+2]
	}
	lo, hi := liveRange(p0, p1, across, back)
	if hi.lam-lo.lam < 1e-9 {
		return nil, segment{}
	}
	cc := 1
	if math.Abs(p0[0]-p1[0]) < cutEps {
		cc = 0
	}
	orig := segment{p0, p1}

	var ends [2]*endLimits
	for key, le := range [2]liveEnd{lo, hi} {
		if le.who == partnerNone {
			continue
		}
		c2, xp, cl, ch := fc.partnerCut(k, le.who, orig.at(le.lam))
		ends[key] = &endLimits{partnerLimit(c2, xp, cc, cl[0], cl[1]), partnerLimit(c2, xp, cc, ch[0], ch[1])}
	}

	// A cancelled neighbour facet hands its end over to the partner facet
	// that replaced it.
	for key := 0; key < 2; key++ {
		pz, pe := pm, p0
		if key == 1 {
			pz, pe = pn, p1
		}
		if pz == nil || ends[key] != nil {
			continue
		}
		s0, s1 := *pz, pe
		if key == 1 {
			s0, s1 = pe, *pz
		}
		na, nb := liveRange(s0, s1, across, back)
		who := partnerNone
		if key == 0 {
			switch {
			case nb.lam < 1-1e-9:
				who = nb.who
			case na.lam > 1-1e-9:
				who = na.who
			}
		} else {
			switch {
			case na.lam > 1e-9:
				who = na.who
			case nb.lam < 1e-9:
				who = nb.who
			}
		}
		if who == partnerNone {
			continue
		}
		ncc := 1
		if math.Abs(s0[0]-s1[0]) < cutEps {
			ncc = 0
		}
		d := pe[1-ncc] - (*pz)[1-ncc]
		if key == 1 {
			d = -d
		}
		c2, xp, cl, ch := fc.partnerCut(k, who, pe)
		dp := d
		if (who == partnerAcross) != (ncc == 1) {
			dp = -d
		}
		if key == 0 {
			pm = nil
		} else {
			pn = nil
		}
		if pl := partnerLimit(c2, xp, ncc, cl[0], cl[1]); pl != nil {
			ends[key] = &endLimits{pl, partnerLimit(c2, xp, ncc, ch[0], ch[1])}
		} else {
			ends[key] = &endLimits{partnerEval(c2, xp, ncc, dp, cl[0], cl[1]), partnerEval(c2, xp, ncc, dp, ch[0], ch[1])}
		}
	}

	if lo.lam > 1e-9 {
		p0, pm = orig.at(lo.lam), nil
	}
	if hi.lam < 1-1e-9 {
		p1, pn = orig.at(hi.lam), nil
	}

	var lleft, hleft, lright, hright *[2]float64
	if j == 0 && pm == nil && math.Abs(p0[0]) < cutEps {
		c2 := c[fc.e[k2]]
		if c2 != nil && fc.ns.inset(fc.e[k2])+p0[1] >= 1-cutEps {
			// The bevel across the face meets this one on the face plane.
			s := segment{c2.pts[0], c2.pts[1]}
			lleft = &[2]float64{fc.cutU2[k2].cut(s, 0, 0, 1, nil), fc.cutV2[k2].cut(s, 1, 0, 1, nil)}
			hleft = &[2]float64{fc.cutU[k2].cut(s, 0, 0, 1, nil), fc.cutV[k2].cut(s, 1, 0, 1, nil)}
		} else {
			lleft = &[2]float64{fc.cutU[k].reach(0, 1), fc.cutV[k].reach(p0[1], 1)}
			hleft = &[2]float64{fc.cutU2[k].reach(0, 1), fc.cutV2[k].reach(p0[1], 1)}
		}
	}
	if ends[0] != nil {
		lleft, hleft = ends[0].lo, ends[0].hi
	}
	if ends[1] != nil {
		lright, hright = ends[1].lo, ends[1].hi
	}

	loEv := cutEvents(p0, p1, pm, pn, fc.cutU[k], fc.cutV[k], lleft, lright, &orig)
	hiEv := cutEvents(p0, p1, pm, pn, fc.cutU2[k], fc.cutV2[k], hleft, hright, &orig)
	for i := range hiEv {
		hiEv[i].left, hiEv[i].right = 1-hiEv[i].left, 1-hiEv[i].right
	}
	// A sphere patch fills the corner up to the inset of both curves.
	if cp := fc.plan.Corners[k]; cp.Kind == CornerSphere {
		w := float64(cp.Q.X())
		loEv = []cutEvent{{0, w, w}, {1, w, w}}
	}
	if cp := fc.plan.Corners[(k+1)%4]; cp.Kind == CornerSphere {
		w := 1 - float64(cp.Q.Y())
		hiEv = []cutEvent{{0, w, w}, {1, w, w}}
	}

	seglen := p1.Sub(p0).Len()
	var loops [][]mgl64.Vec2
	for _, poly := range facetPolys(loEv, hiEv) {
		for i := range poly {
			poly[i][0] *= seglen
		}
		loops = append(loops, cleanLoops(poly)...)
	}
	return loops, segment{p0, p1}
}

// strips carves the bevel strips of every convex in-plane edge.
func (fc *faceCut) strips() []surfacePoly {
	var out []surfacePoly
	for k := 0; k < 4; k++ {
		e := fc.e[k]
		C := fc.ns.curves[e]
		if C == nil {
			continue
		}
		prof := fc.ns.profiles[e]
		for j := 0; j < prof.Segments(); j++ {
			loops, seg := fc.stripLoops(k, j)
			if len(loops) == 0 {
				continue
			}
			out = append(out, fc.stripSurface(k, prof.Normals[j], segment{C.pts[j], C.pts[j+1]}, seg, loops)...)
		}
	}
	return out
}

// stripSurface places facet loops on the face. orig is the untrimmed facet
// the profile normals span, seg the trimmed one the loops are measured on.
func (fc *faceCut) stripSurface(k int, normals [2]mgl32.Vec2, orig, seg segment, loops [][]mgl64.Vec2) []surfacePoly {
	seglen := seg[1].Sub(seg[0]).Len()
	du, dv := (seg[1][0]-seg[0][0])/seglen, (seg[1][1]-seg[0][1])/seglen
	span := orig[1].Sub(orig[0])

	profileDir := func(n mgl32.Vec2) mgl32.Vec3 {
		return cornerDir(k, 0, n.X()).Vec3(n.Y())
	}
	ds := cornerDir(k, 0, float32(dv)).Vec3(float32(du))
	dt := cornerDir(k, 1, 0).Vec3(0)

	place := func(p mgl64.Vec2) (mgl32.Vec3, mgl32.Vec3) {
		uv := seg.at(p[0] / seglen)
		xy := cornerPoint64(k, p[1], uv[1])
		t := uv.Sub(orig[0]).Dot(span) / span.Dot(span)
		t = math.Min(1, math.Max(0, t))
		n := normals[0].Mul(float32(1 - t)).Add(normals[1].Mul(float32(t)))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		return mgl32.Vec3{float32(xy[0]), float32(xy[1]), float32(uv[0])}, profileDir(n)
	}
	return fc.fr.surface(loops, ds, dt, profileDir(normals[0]), place)
}

// surface triangulates loops and places them on the face. ds and dt are the
// face-local images of the loops' two axes and facing points out of the
// voxel.
func (fr faceFrame) surface(loops [][]mgl64.Vec2, ds, dt, facing mgl32.Vec3,
	place func(mgl64.Vec2) (mgl32.Vec3, mgl32.Vec3)) []surfacePoly {
	wd := func(v mgl32.Vec3) mgl32.Vec3 { return fr.dir(v.X(), v.Y(), v.Z()) }
	flip := wd(ds).Cross(wd(dt)).Dot(wd(facing)) < 0

	out := make([]surfacePoly, 0, len(loops))
	for _, loop := range loops {
		sp := surfacePoly{Tris: earClip(loop)}
		for _, p := range loop {
			pos, n := place(p)
			sp.Points = append(sp.Points, pos)
			sp.Normals = append(sp.Normals, n)
		}
		if flip {
			for i, tr := range sp.Tris {
				sp.Tris[i] = [3]int{tr[0], tr[2], tr[1]}
			}
		}
		out = append(out, sp)
	}
	return out
}

// flatSurface places loops of face-local (x, y) points on the face plane.
func (fr faceFrame) flatSurface(loops [][]mgl64.Vec2) []surfacePoly {
	return fr.surface(loops, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, flatNormal,
		func(p mgl64.Vec2) (mgl32.Vec3, mgl32.Vec3) {
			return mgl32.Vec3{float32(p[0]), float32(p[1]), 0}, flatNormal
		})
}
