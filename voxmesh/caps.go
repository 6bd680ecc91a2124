package voxmesh

// EdgeMode is how a beveled edge renders on one face.
type EdgeMode uint8

const (
	ModeSharp   EdgeMode = iota // no bevel geometry on this face
	ModeConvex                  // material removed along an outer edge
	ModeConcave                 // fillet added in an inner corner
)

func (m EdgeMode) String() string {
	switch m {
	case ModeConvex:
		return "convex"
	case ModeConcave:
		return "concave"
	}
	return "sharp"
}

// EdgeFacts is what the cap decision needs to know about one edge.
type EdgeFacts struct {
	Mode  EdgeMode
	Bevel Bevel
}

func (e EdgeFacts) Beveled() bool { return e.Mode != ModeSharp }

func (e EdgeFacts) Matches(o EdgeFacts) bool {
	return e.Mode == o.Mode && e.Bevel.Matches(o.Bevel)
}

// CapFacts gathers everything that decides whether the end of a bevel strip
// must be closed.
type CapFacts struct {
	This EdgeFacts
	// Perp is the perpendicular in-plane edge meeting the strip end.
	Perp EdgeFacts
	// Exposed is true when the voxel's own face across the strip end is empty.
	Exposed bool
	// Neighbor is the same edge as seen from the voxel across the strip end,
	// nil when that voxel is absent.
	Neighbor      *EdgeFacts
	SameSubstance bool
}

// CapDecision is the result of DecideCap. Other is the bevel whose profile
// shapes the opposite side of a reversed cap.
type CapDecision struct {
	Needed   bool
	Reversed bool
	Other    Bevel
}

// DecideCap resolves one strip end. The rules run in order:
//
//  1. a beveled perpendicular edge that does not match caps the strip,
//     reversed only when both edges are convex;
//  2. a convex strip whose own adjacent face is painted is closed by that
//     face and needs no cap;
//  3. an absent, unbeveled or foreign-substance neighbour caps the strip;
//  4. a neighbour with the same mode and bevel continues the strip; a
//     convex neighbour with a different bevel gets a reversed cap shaped by
//     both profiles; any other combination gets a plain cap.
func DecideCap(f CapFacts) CapDecision {
	if f.Perp.Beveled() && !f.Perp.Matches(f.This) {
		both := f.This.Mode == ModeConvex && f.Perp.Mode == ModeConvex
		return CapDecision{Needed: true, Reversed: both, Other: f.Perp.Bevel}
	}
	if !f.This.Beveled() {
		return CapDecision{}
	}
	if f.This.Mode == ModeConvex && !f.Exposed {
		return CapDecision{}
	}
	n := f.Neighbor
	if n == nil || !n.Beveled() || !f.SameSubstance {
		return CapDecision{Needed: true}
	}
	if n.Matches(f.This) {
		return CapDecision{}
	}
	if f.This.Mode == ModeConvex && n.Mode == ModeConvex {
		return CapDecision{Needed: true, Reversed: true, Other: n.Bevel}
	}
	return CapDecision{Needed: true}
}
