package world

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/bevelmesh/voxmesh"
)

func TestEditStreamRoundTrip(t *testing.T) {
	id := uuid.New()
	edits := []Edit{
		{Op: OpSetFace, Pos: voxmesh.Coord{X: -4, Y: 2, Z: 100}, Face: voxmesh.FacePosZ,
			Desc: voxmesh.Face{Material: "brick", Overlay: "ivy", Orientation: voxmesh.NewOrientation(1, true)}},
		{Op: OpSetEdge, Pos: voxmesh.Coord{X: -4, Y: 2, Z: 100}, Edge: 11,
			Bevel: voxmesh.Bevel{Type: voxmesh.BevelStair2, Size: voxmesh.SizeQuarter}},
		{Op: OpSetSubstance, Pos: voxmesh.Coord{X: -4, Y: 2, Z: 100}, Substance: id},
		{Op: OpClear, Pos: voxmesh.Coord{Y: -7}},
	}
	got, err := DecodeEdits(EncodeEdits(edits))
	require.NoError(t, err)
	assert.Equal(t, edits, got)
}

func TestDecodeEditsErrors(t *testing.T) {
	_, err := DecodeEdits([]byte("BVMW\x01\x00"))
	assert.Error(t, err)

	_, err = DecodeEdits([]byte("BVME\x02\x00"))
	assert.Error(t, err)

	data := EncodeEdits([]Edit{{Op: OpClear}})
	data[6] = 42
	_, err = DecodeEdits(data)
	assert.ErrorIs(t, err, ErrUnknownOp)

	data = EncodeEdits([]Edit{{Op: OpSetFace, Desc: voxmesh.Face{Material: "stone"}}})
	_, err = DecodeEdits(data[:len(data)-3])
	assert.Error(t, err)
}

func TestDecodeEditsRejectsOversizedCount(t *testing.T) {
	data := binary.AppendUvarint([]byte("BVME\x01"), 0xFFFFFFFF)
	_, err := DecodeEdits(data)
	assert.ErrorIs(t, err, ErrTruncated)

	// Two clears need eight bytes, only four follow the count.
	data = EncodeEdits([]Edit{{Op: OpClear}})
	data[5] = 2
	_, err = DecodeEdits(data)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestApplyEdits(t *testing.T) {
	w := New(Options{})
	p := voxmesh.Coord{X: 2}
	id := uuid.New()
	err := w.Apply([]Edit{
		{Op: OpSetFace, Pos: p, Face: voxmesh.FacePosY, Desc: stone},
		{Op: OpSetEdge, Pos: p, Edge: 1, Bevel: voxmesh.Bevel{Type: voxmesh.BevelFlat, Size: voxmesh.SizeHalf}},
		{Op: OpSetSubstance, Pos: p, Substance: id},
		{Op: OpSetFace, Pos: voxmesh.Coord{X: 9}, Face: voxmesh.FaceNegX, Desc: stone},
		{Op: OpClear, Pos: voxmesh.Coord{X: 9}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, w.Len())
	c := w.CellAt(p)
	assert.Equal(t, stone, c.Faces[voxmesh.FacePosY])
	assert.Equal(t, voxmesh.BevelFlat, c.Edges[1].Type)
	assert.Equal(t, id, c.Substance)
	require.NoError(t, w.Flush())

	err = w.Apply([]Edit{
		{Op: OpClear, Pos: p},
		{Op: EditOp(99), Pos: p},
		{Op: OpSetFace, Pos: p, Face: voxmesh.FacePosY, Desc: stone},
	})
	assert.ErrorIs(t, err, ErrUnknownOp)
	assert.Zero(t, w.Len(), "edits after the failing one are not applied")
}
