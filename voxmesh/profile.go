package voxmesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Profile is the half cross-section of a bevel, running from the face plane
// (1,0) to the 45 degree diagonal where the two faces' halves meet.
// x is the distance from the edge along the owning face, y the depth into
// the solid. Points are unit sized; Scale multiplies them.
type Profile struct {
	Type    BevelType
	Scale   float32
	Points  []mgl32.Vec2
	Normals [][2]mgl32.Vec2 // per segment: normal at start, normal at end
}

const curveSegments = 4

var unitProfiles = buildUnitProfiles()

func buildUnitProfiles() map[BevelType]Profile {
	m := map[BevelType]Profile{
		BevelNone: {Type: BevelNone, Points: []mgl32.Vec2{{1, 0}}},
		BevelSquare: {
			Type:    BevelSquare,
			Points:  []mgl32.Vec2{{1, 0}, {1, 1}},
			Normals: [][2]mgl32.Vec2{pair(-1, 0)},
		},
		BevelFlat: {
			Type:    BevelFlat,
			Points:  []mgl32.Vec2{{1, 0}, {0.5, 0.5}},
			Normals: [][2]mgl32.Vec2{pair(-math.Sqrt2/2, -math.Sqrt2/2)},
		},
		BevelStair2: {
			Type:    BevelStair2,
			Points:  []mgl32.Vec2{{1, 0}, {1, 0.5}, {0.5, 0.5}},
			Normals: [][2]mgl32.Vec2{pair(-1, 0), pair(0, -1)},
		},
		BevelStair4: {
			Type:    BevelStair4,
			Points:  []mgl32.Vec2{{1, 0}, {1, 0.25}, {0.75, 0.25}, {0.75, 0.5}, {0.5, 0.5}},
			Normals: [][2]mgl32.Vec2{pair(-1, 0), pair(0, -1), pair(-1, 0), pair(0, -1)},
		},
	}

	curve := Profile{Type: BevelCurve}
	for i := 0; i <= curveSegments; i++ {
		phi := float64(i) * math.Pi / 4 / curveSegments
		s, c := math.Sincos(phi)
		curve.Points = append(curve.Points, mgl32.Vec2{float32(1 - s), float32(1 - c)})
		if i > 0 {
			ps, pc := math.Sincos(float64(i-1) * math.Pi / 4 / curveSegments)
			curve.Normals = append(curve.Normals, [2]mgl32.Vec2{
				{float32(-ps), float32(-pc)},
				{float32(-s), float32(-c)},
			})
		}
	}
	m[BevelCurve] = curve
	return m
}

func pair(x, y float32) [2]mgl32.Vec2 {
	n := mgl32.Vec2{x, y}
	return [2]mgl32.Vec2{n, n}
}

// UnitProfile returns the unscaled profile for a type. Unknown types get the
// degenerate single point profile of BevelNone.
func UnitProfile(t BevelType) Profile {
	p, ok := unitProfiles[t]
	if !ok {
		p = unitProfiles[BevelNone]
	}
	p.Scale = 1
	return p
}

// ProfileFor returns the profile for a bevel type scaled by its size.
func ProfileFor(t BevelType, s BevelSize) Profile {
	return UnitProfile(t).Scaled(s.Scale())
}

func (p Profile) Scaled(r float32) Profile {
	p.Scale = r
	return p
}

func (p Profile) Len() int { return len(p.Points) }
func (p Profile) Segments() int { return len(p.Normals) }

// At returns the scaled profile point i.
func (p Profile) At(i int) mgl32.Vec2 { return p.Points[i].Mul(p.Scale) }

// Inset is the distance the bevel eats into the owning face.
func (p Profile) Inset() float32 {
	var m float32
	for i := range p.Points {
		if x := p.At(i).X(); x > m {
			m = x
		}
	}
	return m
}

// PointNormal is the profile normal at point i.
func (p Profile) PointNormal(i int) mgl32.Vec2 {
	switch {
	case len(p.Normals) == 0:
		return mgl32.Vec2{0, -1}
	case i < len(p.Normals):
		return p.Normals[i][0]
	default:
		return p.Normals[len(p.Normals)-1][1]
	}
}

// Slope is tan(phi) of point i for curve profiles, the in-plane component
// of the sphere direction used at corners.
func (p Profile) Slope(i int) float32 {
	u := p.Points[i]
	return (1 - u.X()) / (1 - u.Y())
}

// RemovedArea is the cross-section area cut from the solid by this half,
// the polygon between the sharp corner and the profile.
func (p Profile) RemovedArea() float32 {
	poly := make([]mgl32.Vec2, 0, len(p.Points)+1)
	poly = append(poly, mgl32.Vec2{})
	for i := range p.Points {
		poly = append(poly, p.At(i))
	}
	var a float32
	for i := range poly {
		j := (i + 1) % len(poly)
		a += poly[i].X()*poly[j].Y() - poly[j].X()*poly[i].Y()
	}
	return mgl32.Abs(a) / 2
}

// Resample returns n scaled points spread evenly over the point index range.
func (p Profile) Resample(n int) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, n)
	last := len(p.Points) - 1
	for i := range out {
		if n == 1 || last == 0 {
			out[i] = p.At(0)
			continue
		}
		t := float32(i) * float32(last) / float32(n-1)
		k := int(t)
		if k >= last {
			out[i] = p.At(last)
			continue
		}
		f := t - float32(k)
		out[i] = p.At(k).Mul(1 - f).Add(p.At(k + 1).Mul(f))
	}
	return out
}

// Matches reports whether two bevels share type and size.
func (b Bevel) Matches(o Bevel) bool { return b.Type == o.Type && b.Size == o.Size }
