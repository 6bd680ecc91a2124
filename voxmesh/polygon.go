package voxmesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const polyEps = 1e-7

func samePoint(a, b mgl64.Vec2) bool {
	return math.Abs(a[0]-b[0]) < polyEps && math.Abs(a[1]-b[1]) < polyEps
}

// dedupe drops consecutive repeats, the closing point included.
func dedupe(pts []mgl64.Vec2) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && samePoint(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// signedArea is positive for counter-clockwise loops.
func signedArea(pts []mgl64.Vec2) float64 {
	a := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}

// despike removes vertices where the outline folds straight back on itself.
func despike(pts []mgl64.Vec2) []mgl64.Vec2 {
	for changed := true; changed && len(pts) >= 3; {
		changed = false
		n := len(pts)
		for i := range pts {
			a, b, c := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
			d1, d2 := b.Sub(a), c.Sub(b)
			if math.Abs(d1[0]*d2[1]-d1[1]*d2[0]) < 1e-9 && d1.Dot(d2) < 0 {
				next := make([]mgl64.Vec2, 0, n-1)
				next = append(next, pts[:i]...)
				next = append(next, pts[i+1:]...)
				pts = dedupe(next)
				changed = true
				break
			}
		}
	}
	return pts
}

// splitPinches cuts a loop that touches itself into simple loops.
func splitPinches(pts []mgl64.Vec2) [][]mgl64.Vec2 {
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if samePoint(pts[i], pts[j]) {
				a := append([]mgl64.Vec2(nil), pts[i:j]...)
				b := append(append([]mgl64.Vec2(nil), pts[j:]...), pts[:i]...)
				return append(splitPinches(a), splitPinches(b)...)
			}
		}
	}
	return [][]mgl64.Vec2{pts}
}

// cleanLoops turns a raw outline into simple counter-clockwise loops with
// area. Clockwise or empty leftovers are dropped.
func cleanLoops(pts []mgl64.Vec2) [][]mgl64.Vec2 {
	pts = despike(dedupe(pts))
	if len(pts) < 3 {
		return nil
	}
	var out [][]mgl64.Vec2
	for _, loop := range splitPinches(pts) {
		loop = dedupe(loop)
		if len(loop) >= 3 && signedArea(loop) > 1e-9 {
			out = append(out, loop)
		}
	}
	return out
}

func cross2d(o, a, b mgl64.Vec2) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func inTriangle(p, a, b, c mgl64.Vec2) bool {
	return cross2d(a, b, p) >= -1e-9 && cross2d(b, c, p) >= -1e-9 && cross2d(c, a, p) >= -1e-9
}

// earClip triangulates a simple counter-clockwise loop. Triangles keep the
// loop's winding.
func earClip(pts []mgl64.Vec2) [][3]int {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	tris := make([][3]int, 0, len(pts)-2)
	for len(idx) > 3 {
		n := len(idx)
		best := -1
		for i := 0; i < n && best < 0; i++ {
			a, b, c := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
			if cross2d(pts[a], pts[b], pts[c]) <= 1e-10 {
				continue
			}
			ear := true
			for _, j := range idx {
				if j != a && j != b && j != c && inTriangle(pts[j], pts[a], pts[b], pts[c]) {
					ear = false
					break
				}
			}
			if ear {
				best = i
			}
		}
		if best < 0 {
			// No clean ear in a nearly degenerate loop: take the most convex.
			bestCross := math.Inf(-1)
			for i := 0; i < n; i++ {
				cr := cross2d(pts[idx[(i+n-1)%n]], pts[idx[i]], pts[idx[(i+1)%n]])
				if cr > bestCross {
					best, bestCross = i, cr
				}
			}
		}
		tris = append(tris, [3]int{idx[(best+n-1)%n], idx[best], idx[(best+1)%n]})
		idx = append(idx[:best], idx[best+1:]...)
	}
	return append(tris, [3]int{idx[0], idx[1], idx[2]})
}
