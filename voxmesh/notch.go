package voxmesh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// cutEps is the tolerance of the notch arithmetic, in voxel units.
const cutEps = 1e-7

// notch is the cross-section of the cut a convex bevel makes along its edge,
// seen from one of the two faces it touches. u is the depth below that face
// and v the distance from the edge along it. The first half of the points
// lies on this face's side of the diagonal, the rest on the other face's.
//
// A combined notch appends the bevel parallel to this one on the far side of
// the voxel, mirrored in u. Points from split on belong to it.
type notch struct {
	pts   []mgl64.Vec2
	split int
}

func newNotch(p Profile) *notch {
	n := &notch{}
	for i := 0; i < p.Len(); i++ {
		q := p.At(i)
		n.pts = append(n.pts, mgl64.Vec2{float64(q.Y()), float64(q.X())})
	}
	for i := p.Len() - 2; i >= 0; i-- {
		q := p.At(i)
		n.pts = append(n.pts, mgl64.Vec2{float64(q.X()), float64(q.Y())})
	}
	n.split = len(n.pts)
	return n
}

// combine joins a notch with the one cut from the opposite face.
func combine(near, far *notch) *notch {
	if far == nil {
		return near
	}
	out := &notch{}
	if near != nil {
		out.pts = append(out.pts, near.pts...)
	}
	out.split = len(out.pts)
	for i := len(far.pts) - 1; i >= 0; i-- {
		p := far.pts[i]
		out.pts = append(out.pts, mgl64.Vec2{1 - p[0], p[1]})
	}
	return out
}

func (n *notch) mirrored(i int) bool { return i >= n.split }

// reach is how far the notch extends along v at depth c. side picks the
// limit approached from below (-1) or above (+1) where the outline has a
// step in u.
func (n *notch) reach(c float64, side int) float64 {
	if n == nil {
		return 0
	}
	pts := n.pts
	if side < 0 {
		if c <= pts[0][0]+cutEps {
			return pts[0][1]
		}
		for i := 0; i+1 < len(pts); i++ {
			u0, v0, u1, v1 := pts[i][0], pts[i][1], pts[i+1][0], pts[i+1][1]
			if u1 > u0+cutEps && u0+cutEps < c && c <= u1+cutEps {
				f := math.Min(1, (c-u0)/(u1-u0))
				return v0 + (v1-v0)*f
			}
		}
		return 0
	}
	for i := 0; i+1 < len(pts); i++ {
		u0, v0, u1, v1 := pts[i][0], pts[i][1], pts[i+1][0], pts[i+1][1]
		if u1 > u0+cutEps && u0-cutEps <= c && c < u1-cutEps {
			f := math.Max(0, (c-u0)/(u1-u0))
			return v0 + (v1-v0)*f
		}
	}
	if c < pts[0][0] {
		return pts[0][1]
	}
	return 0
}

type constSeg struct {
	lo, hi   float64
	mirrored bool
}

// constSegs lists the outline segments lying at depth c.
func (n *notch) constSegs(c float64) []constSeg {
	if n == nil {
		return nil
	}
	var out []constSeg
	for i := 0; i+1 < len(n.pts); i++ {
		a, b := n.pts[i], n.pts[i+1]
		if math.Abs(a[0]-c) < cutEps && math.Abs(b[0]-c) < cutEps {
			out = append(out, constSeg{math.Min(a[1], b[1]), math.Max(a[1], b[1]), n.mirrored(i)})
		}
	}
	return out
}

// flatSeg finds the segment of constant v spanning depth a strictly and
// returns its depth range, oriented away from the segment's own face.
func (n *notch) flatSeg(a float64) (float64, float64, bool) {
	if n == nil {
		return 0, 0, false
	}
	for i := 0; i+1 < len(n.pts); i++ {
		p, q := n.pts[i], n.pts[i+1]
		if p[0]+cutEps < a && a < q[0]-cutEps && math.Abs(p[1]-q[1]) < cutEps {
			if n.mirrored(i) {
				return q[0], p[0], true
			}
			return p[0], q[0], true
		}
	}
	return 0, 0, false
}

type segment [2]mgl64.Vec2

func (s segment) at(lam float64) mgl64.Vec2 {
	return s[0].Add(s[1].Sub(s[0]).Mul(lam))
}

// cut is the reach of notch n over the point at lam along s, where coord
// selects the coordinate of s the notch reads as its depth. A segment lying
// in the notch's own boundary plane takes the diagonal between both
// notches; orig is the untrimmed segment that diagonal spans.
func (n *notch) cut(s segment, coord int, lam float64, side int, orig *segment) float64 {
	if n == nil {
		return 0
	}
	oc := 1 - coord
	a0, a1 := s[0][coord], s[1][coord]
	o0, o1 := s[0][oc], s[1][oc]
	if math.Abs(a1-a0) < cutEps {
		segs := n.constSegs(a0)
		if len(segs) == 0 {
			return n.reach(a0, 1)
		}
		best := 0.0
		for _, cs := range segs {
			if cs.mirrored {
				best = math.Max(best, n.reach(a0, 1))
				continue
			}
			src := s
			if orig != nil {
				src = *orig
			}
			olo, ohi := math.Min(src[0][oc], src[1][oc]), math.Max(src[0][oc], src[1][oc])
			o := o0 + (o1-o0)*lam
			best = math.Max(best, cs.lo+(cs.hi-cs.lo)*(o-olo)/(ohi-olo))
		}
		return best
	}
	a := a0 + (a1-a0)*lam
	inc := a1 > a0
	if (side < 0) == inc {
		return n.reach(a, -1)
	}
	return n.reach(a, 1)
}

// cutEvent is the strip end at lam along a facet, approached from both
// sides.
type cutEvent struct {
	lam, left, right float64
}

const (
	tagEnd uint8 = 1 << iota
	tagCross
	tagU
	tagV
)

type cutRow struct {
	lam  float64
	lims [2][2]float64
	tags uint8
}

// cutEvents traces where the strip facet p0-p1 ends against two cutters, cu
// reading the facet's depth and cv its distance from the edge. pm and pn
// are the neighbouring facets that fix the limits at both ends; left and
// right stand in for them when they are gone.
func cutEvents(p0, p1 mgl64.Vec2, pm, pn *mgl64.Vec2, cu, cv *notch, left, right *[2]float64, orig *segment) []cutEvent {
	seg := segment{p0, p1}
	cutters := [2]*notch{cu, cv}

	var rows []cutRow
	add := func(lam float64, tag uint8) {
		for i := range rows {
			if math.Abs(rows[i].lam-lam) < 1e-6 {
				rows[i].tags |= tag
				return
			}
		}
		rows = append(rows, cutRow{lam: lam, tags: tag})
	}
	add(0, tagEnd)
	add(1, tagEnd)
	for coord, n := range cutters {
		if n == nil {
			continue
		}
		tag := tagU << coord
		a0, a1 := p0[coord], p1[coord]
		if math.Abs(a1-a0) >= cutEps {
			for _, pt := range n.pts {
				if lam := (pt[0] - a0) / (a1 - a0); lam > 1e-6 && lam < 1-1e-6 {
					add(lam, tag)
				}
			}
			continue
		}
		// The diagonal shared with the notch across the plane meets a
		// mirrored band at the band's reach.
		segs := n.constSegs(a0)
		hasMirror := false
		for _, cs := range segs {
			hasMirror = hasMirror || cs.mirrored
		}
		if !hasMirror {
			continue
		}
		val := n.reach(a0, 1)
		src := seg
		if orig != nil {
			src = *orig
		}
		oc := 1 - coord
		olo, ohi := math.Min(src[0][oc], src[1][oc]), math.Max(src[0][oc], src[1][oc])
		o0, o1 := p0[oc], p1[oc]
		for _, cs := range segs {
			if cs.mirrored || cs.hi-cs.lo < cutEps || math.Abs(o1-o0) < cutEps {
				continue
			}
			o := olo + (val-cs.lo)/(cs.hi-cs.lo)*(ohi-olo)
			if lam := (o - o0) / (o1 - o0); lam > 1e-6 && lam < 1-1e-6 {
				add(lam, tag)
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].lam < rows[j].lam })

	for i := range rows {
		lam := rows[i].lam
		for coord, n := range cutters {
			var l, r float64
			switch {
			case lam < 1e-6:
				r = n.cut(seg, coord, 0, 1, orig)
				switch {
				case pm != nil:
					l = n.cut(segment{*pm, p0}, coord, 1, -1, nil)
				case left != nil:
					l = left[coord]
				default:
					l = r
				}
			case lam > 1-1e-6:
				l = n.cut(seg, coord, 1, -1, orig)
				switch {
				case pn != nil:
					r = n.cut(segment{p1, *pn}, coord, 0, 1, nil)
				case right != nil:
					r = right[coord]
				default:
					r = l
				}
			default:
				l = n.cut(seg, coord, lam, -1, orig)
				r = n.cut(seg, coord, lam, 1, orig)
			}
			rows[i].lims[coord] = [2]float64{l, r}
		}
	}

	var extra []cutRow
	for i := 0; i+1 < len(rows); i++ {
		a, b := rows[i], rows[i+1]
		// Where the two cutters swap, the strip end has a kink.
		da := a.lims[0][1] - a.lims[1][1]
		db := b.lims[0][0] - b.lims[1][0]
		if (da > cutEps && db < -cutEps) || (da < -cutEps && db > cutEps) {
			lam := a.lam + (b.lam-a.lam)*da/(da-db)
			u := a.lims[0][1] + (b.lims[0][0]-a.lims[0][1])*(lam-a.lam)/(b.lam-a.lam)
			extra = append(extra, cutRow{lam: lam, lims: [2][2]float64{{u, u}, {u, u}}, tags: tagCross})
		}

		// Coplanar cutters split their common plane on a diagonal.
		if cu == nil || cv == nil {
			continue
		}
		ua, va := a.lims[0][1], a.lims[1][1]
		ub, vb := b.lims[0][0], b.lims[1][0]
		if math.Abs(ua-va) > cutEps || math.Abs(ub-vb) > cutEps || math.Abs(ua-ub) > cutEps || ua < cutEps {
			continue
		}
		du, dv := p1[0]-p0[0], p1[1]-p0[1]
		mid := (a.lam + b.lam) / 2
		a0, a1, okU := cu.flatSeg(p0[0] + du*mid)
		x0, x1, okV := cv.flatSeg(p0[1] + dv*mid)
		if !okU || !okV {
			continue
		}
		den := du*(x1-x0) - dv*(a1-a0)
		if math.Abs(den) < cutEps {
			continue
		}
		lam := ((p0[1]-x0)*(a1-a0) - (p0[0]-a0)*(x1-x0)) / den
		if a.lam+1e-6 < lam && lam < b.lam-1e-6 {
			extra = append(extra, cutRow{lam: lam, lims: [2][2]float64{{ua, ua}, {ua, ua}}, tags: tagCross})
		}
	}
	rows = append(rows, extra...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].lam < rows[j].lam })

	du, dv := p1[0]-p0[0], p1[1]-p0[1]
	// owns reports whether the cutter on coord shapes the strip end next to
	// lam, given both cutters' values there.
	owns := func(coord int, lam, u, v float64) bool {
		mine, other := u, v
		if coord == 1 {
			mine, other = v, u
		}
		if mine > other+cutEps {
			return true
		}
		if mine < other-cutEps {
			return false
		}
		if cu == nil || cv == nil {
			return true
		}
		pu, pv := p0[0]+du*lam, p0[1]+dv*lam
		su0, su1, okU := cu.flatSeg(pu)
		sv0, sv1, okV := cv.flatSeg(pv)
		if !okU || !okV {
			return true
		}
		tu := (pu - su0) / (su1 - su0)
		tv := (pv - sv0) / (sv1 - sv0)
		if math.Abs(tu-tv) < 1e-9 {
			return true
		}
		return (tu < tv) == (coord == 0)
	}

	out := make([]cutEvent, 0, len(rows))
	for i, r := range rows {
		ul, ur := r.lims[0][0], r.lims[0][1]
		vl, vr := r.lims[1][0], r.lims[1][1]
		keep := r.tags&(tagEnd|tagCross) != 0
		lm, rm := r.lam, r.lam
		if i > 0 {
			lm = (r.lam + rows[i-1].lam) / 2
		}
		if i+1 < len(rows) {
			rm = (r.lam + rows[i+1].lam) / 2
		}
		for coord := 0; coord < 2; coord++ {
			if r.tags&(tagU<<coord) != 0 && (owns(coord, lm, ul, vl) || owns(coord, rm, ur, vr)) {
				keep = true
			}
		}
		if keep {
			out = append(out, cutEvent{r.lam, math.Max(ul, vl), math.Max(ur, vr)})
		}
	}
	return out
}

// interpEvents reads the strip end at lam, both one-sided limits at an event
// and the straight run between events elsewhere.
func interpEvents(ev []cutEvent, lam float64) (float64, float64) {
	for _, e := range ev {
		if math.Abs(e.lam-lam) < 1e-6 {
			return e.left, e.right
		}
	}
	for i := 0; i+1 < len(ev); i++ {
		a, b := ev[i], ev[i+1]
		if a.lam < lam && lam < b.lam {
			v := a.right + (b.left-a.right)*(lam-a.lam)/(b.lam-a.lam)
			return v, v
		}
	}
	return 0, 0
}

func hasEvent(ev []cutEvent, lam float64) bool {
	for _, e := range ev {
		if math.Abs(e.lam-lam) < 1e-6 {
			return true
		}
	}
	return false
}

type facetRow struct {
	lam                float64
	loL, loR, hiL, hiR float64
	isLo, isHi         bool
}

// facetPolys outlines the live part of a facet between the strip end cut at
// its low corner and the one at its high corner. Points are (lam, w), where
// w runs along the edge. Runs where both ends meet split the facet.
func facetPolys(lo, hi []cutEvent) [][]mgl64.Vec2 {
	var lams []float64
	for _, ev := range [2][]cutEvent{lo, hi} {
	next:
		for _, e := range ev {
			for _, l := range lams {
				if math.Abs(l-e.lam) < 1e-6 {
					continue next
				}
			}
			lams = append(lams, e.lam)
		}
	}
	sort.Float64s(lams)

	rows := make([]facetRow, len(lams))
	for i, lam := range lams {
		r := facetRow{lam: lam, isLo: hasEvent(lo, lam), isHi: hasEvent(hi, lam)}
		r.loL, r.loR = interpEvents(lo, lam)
		r.hiL, r.hiR = interpEvents(hi, lam)
		rows[i] = r
	}

	var groups [][]int
	var group []int
	for i := 0; i+1 < len(rows); i++ {
		a, b := rows[i], rows[i+1]
		if a.hiR-a.loR <= cutEps && b.hiL-b.loL <= cutEps {
			if group != nil {
				groups = append(groups, group)
				group = nil
			}
			continue
		}
		if group != nil {
			if math.Max(a.loL, a.loR) < math.Min(a.hiL, a.hiR)-cutEps {
				group = append(group, i+1)
				continue
			}
			groups = append(groups, group)
		}
		group = []int{i, i + 1}
	}
	if group != nil {
		groups = append(groups, group)
	}

	out := make([][]mgl64.Vec2, 0, len(groups))
	for _, g := range groups {
		s, e := rows[g[0]], rows[g[len(g)-1]]
		inner := g[1 : len(g)-1]
		pts := []mgl64.Vec2{{s.lam, s.loR}}
		for _, idx := range inner {
			if r := rows[idx]; r.isLo {
				pts = append(pts, mgl64.Vec2{r.lam, r.loL}, mgl64.Vec2{r.lam, r.loR})
			}
		}
		pts = append(pts, mgl64.Vec2{e.lam, e.loL})
		for _, v := range between(e.loL, e.hiL, true, e.loR, e.hiR) {
			pts = append(pts, mgl64.Vec2{e.lam, v})
		}
		pts = append(pts, mgl64.Vec2{e.lam, e.hiL})
		for i := len(inner) - 1; i >= 0; i-- {
			if r := rows[inner[i]]; r.isHi {
				pts = append(pts, mgl64.Vec2{r.lam, r.hiR}, mgl64.Vec2{r.lam, r.hiL})
			}
		}
		pts = append(pts, mgl64.Vec2{s.lam, s.hiR})
		for _, v := range between(s.loR, s.hiR, false, s.loL, s.hiL) {
			pts = append(pts, mgl64.Vec2{s.lam, v})
		}
		out = append(out, pts)
	}
	return out
}

// between returns the values strictly inside (lo, hi), sorted ascending or
// descending.
func between(lo, hi float64, asc bool, vals ...float64) []float64 {
	var out []float64
	for _, v := range vals {
		if lo+cutEps < v && v < hi-cutEps {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	if !asc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// partner names the parallel bevel a strip facet can touch.
type partner uint8

const (
	partnerNone   partner = iota
	partnerAcross         // across the owning face
	partnerBack           // across the neighbour face
)

type liveEnd struct {
	lam float64
	who partner
}

// liveRange trims an axis aligned facet to the part not swallowed by the
// notch of a parallel bevel, the one across the face (reading 1-v) or the
// one across the neighbour face (reading 1-u). The partner that did the
// trimming is reported with each end.
func liveRange(p0, p1 mgl64.Vec2, across, back *notch) (liveEnd, liveEnd) {
	lo, hi := liveEnd{0, partnerNone}, liveEnd{1, partnerNone}
	var a, b, a0, a1 float64
	switch {
	case math.Abs(p0[1]-p1[1]) < cutEps && math.Abs(p0[0]-p1[0]) > cutEps:
		c := p0[1]
		a = across.reach(1-c, -1)
		b = 1 - back.reach(c, 1)
		a0, a1 = p0[0], p1[0]
	case math.Abs(p0[0]-p1[0]) < cutEps && math.Abs(p0[1]-p1[1]) > cutEps:
		c := p0[0]
		a = back.reach(1-c, -1)
		b = 1 - across.reach(c, 1)
		a0, a1 = p0[1], p1[1]
	default:
		return lo, hi
	}
	vert := math.Abs(p0[0]-p1[0]) < cutEps
	for _, bd := range [2]struct {
		at    float64
		below bool
	}{{a, true}, {b, false}} {
		if (bd.below && bd.at <= cutEps) || (!bd.below && bd.at >= 1-cutEps) {
			continue
		}
		who := partnerAcross
		if bd.below == vert {
			who = partnerBack
		}
		lam := (bd.at - a0) / (a1 - a0)
		if bd.below == (a1 > a0) {
			if lam > lo.lam+1e-9 {
				lo = liveEnd{lam, who}
			}
		} else if lam < hi.lam-1e-9 {
			hi = liveEnd{lam, who}
		}
	}
	return lo, hi
}

// partnerLimit evaluates both cutters at x on the partner facet that leaves
// x across coordinate cc.
func partnerLimit(c2 *notch, x mgl64.Vec2, cc int, cu, cv *notch) *[2]float64 {
	if c2 == nil {
		return nil
	}
	i := -1
	for k, p := range c2.pts {
		if math.Abs(p[0]-x[0]) < 1e-6 && math.Abs(p[1]-x[1]) < 1e-6 {
			i = k
			break
		}
	}
	if i < 0 {
		return nil
	}
	pts := c2.pts
	switch {
	case i+1 < len(pts) && math.Abs(pts[i+1][cc]-pts[i][cc]) > cutEps:
		s := segment{pts[i], pts[i+1]}
		return &[2]float64{cu.cut(s, 0, 0, 1, nil), cv.cut(s, 1, 0, 1, nil)}
	case i > 0 && math.Abs(pts[i-1][cc]-pts[i][cc]) > cutEps:
		s := segment{pts[i-1], pts[i]}
		return &[2]float64{cu.cut(s, 0, 1, -1, nil), cv.cut(s, 1, 1, -1, nil)}
	}
	return nil
}

// partnerEval evaluates both cutters at x on the partner facet lying in
// the plane of coordinate cc, read on the side direction d points to.
func partnerEval(c2 *notch, x mgl64.Vec2, cc int, d float64, cu, cv *notch) *[2]float64 {
	if c2 == nil {
		return nil
	}
	oc := 1 - cc
	for i := 0; i+1 < len(c2.pts); i++ {
		a, b := c2.pts[i], c2.pts[i+1]
		if math.Abs(a[cc]-x[cc]) > 1e-6 || math.Abs(b[cc]-x[cc]) > 1e-6 {
			continue
		}
		lo, hi := math.Min(a[oc], b[oc]), math.Max(a[oc], b[oc])
		if x[oc] < lo-1e-6 || x[oc] > hi+1e-6 {
			continue
		}
		lam := (x[oc] - a[oc]) / (b[oc] - a[oc])
		side := -1
		if (b[oc]-a[oc])*d > 0 {
			side = 1
		}
		if (side > 0 && lam > 1-1e-6) || (side < 0 && lam < 1e-6) {
			continue
		}
		lam = math.Min(1, math.Max(0, lam))
		s := segment{a, b}
		return &[2]float64{cu.cut(s, 0, lam, side, nil), cv.cut(s, 1, lam, side, nil)}
	}
	return nil
}

// farSide reports a facet lying on the far face of the voxel, which the
// parallel bevel there owns.
func farSide(p0, p1 mgl64.Vec2) bool {
	return (math.Abs(p0[0]-1) < cutEps && math.Abs(p1[0]-1) < cutEps) ||
		(math.Abs(p0[1]-1) < cutEps && math.Abs(p1[1]-1) < cutEps)
}

// band is the depth a notch spans across the whole voxel.
func (n *notch) band() float64 {
	if n == nil {
		return 0
	}
	b := 0.0
	for _, p := range n.pts {
		if p[1] >= 1-cutEps {
			b = math.Max(b, p[0])
		}
	}
	return b
}

func (n *notch) firstLive() int {
	for j := 0; j+1 < len(n.pts); j++ {
		if !farSide(n.pts[j], n.pts[j+1]) {
			return j
		}
	}
	return -1
}

// startCut is where the cutters end facet j at its start.
func (n *notch) startCut(j int, cu, cv *notch) float64 {
	s := segment{n.pts[j], n.pts[j+1]}
	return math.Max(cu.cut(s, 0, 0, 1, nil), cv.cut(s, 1, 0, 1, nil))
}
