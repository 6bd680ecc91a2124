package voxmesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bevelTypes = []BevelType{BevelSquare, BevelFlat, BevelCurve, BevelStair2, BevelStair4}

func TestUnitProfilesRunFromFaceToDiagonal(t *testing.T) {
	for _, bt := range bevelTypes {
		t.Run(bt.String(), func(t *testing.T) {
			p := UnitProfile(bt)
			require.GreaterOrEqual(t, p.Len(), 2)
			assert.Equal(t, p.Len()-1, p.Segments())
			assert.True(t, p.At(0).ApproxEqual(mgl32.Vec2{1, 0}))

			last := p.At(p.Len() - 1)
			assert.InDelta(t, last.X(), last.Y(), 1e-5, "last point on the diagonal")

			for j := 0; j < p.Segments(); j++ {
				for _, n := range p.Normals[j] {
					assert.InDelta(t, 1, n.Len(), 1e-5)
				}
				// Segment normals are perpendicular to the chord.
				chord := p.At(j + 1).Sub(p.At(j))
				avg := p.Normals[j][0].Add(p.Normals[j][1])
				assert.InDelta(t, 0, chord.Dot(avg), 1e-5)
			}
		})
	}
}

func TestProfileForScalesBySize(t *testing.T) {
	for _, bt := range bevelTypes {
		q := ProfileFor(bt, SizeQuarter)
		h := ProfileFor(bt, SizeHalf)
		f := ProfileFor(bt, SizeFull)
		assert.Less(t, q.Inset(), h.Inset(), bt.String())
		assert.Less(t, h.Inset(), f.Inset(), bt.String())
		assert.InDelta(t, 0.5, h.At(0).X(), 1e-6)
		assert.InDelta(t, 0, h.At(0).Y(), 1e-6)
	}
}

func TestUnknownTypeIsDegenerate(t *testing.T) {
	p := UnitProfile(BevelType(42))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 0, p.Segments())
	assert.False(t, Bevel{Type: BevelType(42), Size: SizeHalf}.Active())
	assert.False(t, Bevel{Type: BevelCurve, Size: BevelSize(3)}.Active())
}

func TestRemovedArea(t *testing.T) {
	assert.InDelta(t, 0.5, UnitProfile(BevelSquare).RemovedArea(), 1e-6)
	assert.InDelta(t, 0.25, UnitProfile(BevelFlat).RemovedArea(), 1e-6)
	assert.InDelta(t, 0.375, UnitProfile(BevelStair2).RemovedArea(), 1e-6)
	assert.InDelta(t, 0.125, ProfileFor(BevelSquare, SizeHalf).RemovedArea(), 1e-6)

	curve := UnitProfile(BevelCurve).RemovedArea()
	assert.Less(t, curve, UnitProfile(BevelFlat).RemovedArea())
	assert.Greater(t, curve, float32(0.1))
}

func TestResampleKeepsEndpoints(t *testing.T) {
	p := ProfileFor(BevelStair4, SizeHalf)
	pts := p.Resample(7)
	require.Len(t, pts, 7)
	assert.True(t, pts[0].ApproxEqual(p.At(0)))
	assert.True(t, pts[6].ApproxEqual(p.At(p.Len()-1)))

	same := p.Resample(p.Len())
	for i := range same {
		assert.True(t, same[i].ApproxEqual(p.At(i)))
	}
}

func TestBevelPackRoundTrip(t *testing.T) {
	b := Bevel{Type: BevelStair4, Size: SizeFull}
	assert.Equal(t, b, UnpackBevel(b.Pack()))
	assert.Less(t, int(b.Pack()), 32, "fits in five bits")
}
