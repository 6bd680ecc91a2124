package world

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/voxelsplace/bevelmesh/voxmesh"
)

// EditOp is the kind of a single voxel edit.
type EditOp uint8

const (
	OpSetFace EditOp = iota + 1
	OpSetEdge
	OpSetSubstance
	OpClear
)

func (o EditOp) String() string {
	switch o {
	case OpSetFace:
		return "face"
	case OpSetEdge:
		return "edge"
	case OpSetSubstance:
		return "substance"
	case OpClear:
		return "clear"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

var ErrUnknownOp = errors.New("world: unknown edit op")

// Edit is one voxel mutation. Only the fields of its op are meaningful.
type Edit struct {
	Op        EditOp
	Pos       voxmesh.Coord
	Face      voxmesh.FaceIndex
	Desc      voxmesh.Face
	Edge      voxmesh.EdgeIndex
	Bevel     voxmesh.Bevel
	Substance uuid.UUID
}

const (
	editsMagic   = "BVME"
	editsVersion = 1
)

// EncodeEdits serializes an edit stream: magic, version, count, then one
// record per edit with varint coordinates.
func EncodeEdits(edits []Edit) []byte {
	out := []byte(editsMagic)
	out = append(out, editsVersion)
	out = writeUVarint(out, uint32(len(edits)))
	for _, e := range edits {
		out = append(out, byte(e.Op))
		out = writeVarint(out, e.Pos.X)
		out = writeVarint(out, e.Pos.Y)
		out = writeVarint(out, e.Pos.Z)
		switch e.Op {
		case OpSetFace:
			out = append(out, byte(e.Face))
			out = writeString(out, string(e.Desc.Material))
			out = writeString(out, string(e.Desc.Overlay))
			out = append(out, byte(e.Desc.Orientation))
		case OpSetEdge:
			out = append(out, byte(e.Edge), e.Bevel.Pack())
		case OpSetSubstance:
			out = append(out, e.Substance[:]...)
		}
	}
	return out
}

// minEditSize is an op byte plus three one-byte coordinates.
const minEditSize = 4

// DecodeEdits parses a stream written by EncodeEdits.
func DecodeEdits(data []byte) ([]Edit, error) {
	if len(data) < 5 || string(data[:4]) != editsMagic {
		return nil, fmt.Errorf("not an edit stream")
	}
	if data[4] != editsVersion {
		return nil, fmt.Errorf("edit stream version %d not supported", data[4])
	}
	pos := 5
	n, err := readCount(data, &pos, minEditSize)
	if err != nil {
		return nil, err
	}
	edits := make([]Edit, 0, n)
	for i := uint32(0); i < n; i++ {
		e, err := decodeEdit(data, &pos)
		if err != nil {
			return nil, fmt.Errorf("edit %d: %w", i, err)
		}
		edits = append(edits, e)
	}
	return edits, nil
}

func decodeEdit(data []byte, pos *int) (Edit, error) {
	var e Edit
	op, err := readByte(data, pos)
	if err != nil {
		return e, err
	}
	e.Op = EditOp(op)
	if e.Pos.X, err = readVarint(data, pos); err != nil {
		return e, err
	}
	if e.Pos.Y, err = readVarint(data, pos); err != nil {
		return e, err
	}
	if e.Pos.Z, err = readVarint(data, pos); err != nil {
		return e, err
	}
	switch e.Op {
	case OpSetFace:
		f, err := readByte(data, pos)
		if err != nil {
			return e, err
		}
		e.Face = voxmesh.FaceIndex(f)
		m, err := readString(data, pos)
		if err != nil {
			return e, err
		}
		o, err := readString(data, pos)
		if err != nil {
			return e, err
		}
		r, err := readByte(data, pos)
		if err != nil {
			return e, err
		}
		e.Desc = voxmesh.Face{Material: voxmesh.Material(m), Overlay: voxmesh.Material(o), Orientation: voxmesh.Orientation(r)}
	case OpSetEdge:
		b, err := readBytes(data, pos, 2)
		if err != nil {
			return e, err
		}
		e.Edge = voxmesh.EdgeIndex(b[0])
		e.Bevel = voxmesh.UnpackBevel(b[1])
	case OpSetSubstance:
		b, err := readBytes(data, pos, 16)
		if err != nil {
			return e, err
		}
		copy(e.Substance[:], b)
	case OpClear:
	default:
		return e, fmt.Errorf("%w: %d", ErrUnknownOp, op)
	}
	return e, nil
}

// Apply runs edits in order and stops at the first invalid one. Edits are
// only queued; call Flush to rebuild.
func (w *World) Apply(edits []Edit) error {
	for i, e := range edits {
		var err error
		switch e.Op {
		case OpSetFace:
			err = w.SetFace(e.Pos, e.Face, e.Desc)
		case OpSetEdge:
			err = w.SetEdge(e.Pos, e.Edge, e.Bevel)
		case OpSetSubstance:
			w.SetSubstance(e.Pos, e.Substance)
		case OpClear:
			w.Clear(e.Pos)
		default:
			err = fmt.Errorf("%w: %d", ErrUnknownOp, e.Op)
		}
		if err != nil {
			return fmt.Errorf("edit %d (%s at %v): %w", i, e.Op, e.Pos, err)
		}
	}
	return nil
}
