package world

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/voxelsplace/bevelmesh/voxmesh"
)

// Compression selects how the snapshot body is stored.
type Compression uint8

const (
	CompNone Compression = 0
	CompZlib Compression = 1
	CompZstd Compression = 2
)

func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompNone, nil
	case "zlib":
		return CompZlib, nil
	case "zstd":
		return CompZstd, nil
	}
	return 0, fmt.Errorf("unknown compression %q", s)
}

const (
	snapshotMagic   = "BVMW"
	snapshotVersion = 1
	// magic, version, compression, chunk size, checksum
	snapshotHeaderLen = 4 + 1 + 1 + 2 + 8
)

var (
	ErrBadMagic = errors.New("world: not a voxel world snapshot")
	ErrVersion  = errors.New("world: unsupported snapshot version")
	ErrChecksum = errors.New("world: snapshot checksum mismatch")
)

const (
	recHasSubstance = 1 << 6
	recHasEdges     = 1 << 7
)

// MarshalSnapshot serializes every voxel. Voxels are written chunk by chunk
// in Morton order and materials go through a shared dictionary. The
// checksum covers the uncompressed body.
func (w *World) MarshalSnapshot(comp Compression) ([]byte, error) {
	dict := map[voxmesh.Material]uint32{}
	var names []string
	intern := func(m voxmesh.Material) uint32 {
		if m == voxmesh.NoMaterial {
			return 0
		}
		if i, ok := dict[m]; ok {
			return i
		}
		names = append(names, string(m))
		dict[m] = uint32(len(names))
		return dict[m]
	}

	var recs []byte
	count := 0
	for _, ch := range w.Chunks() {
		for _, v := range w.Voxels(ch) {
			recs = appendRecord(recs, v, intern)
			count++
		}
	}

	body := make([]byte, 0, len(recs)+64)
	body = writeUVarint(body, uint32(len(names)))
	for _, n := range names {
		body = writeString(body, n)
	}
	body = writeUVarint(body, uint32(count))
	body = append(body, recs...)
	sum := xxhash.Sum64(body)

	packed, err := compress(body, comp)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(snapshotMagic)
	_ = binary.Write(&out, binary.LittleEndian, uint8(snapshotVersion))
	_ = binary.Write(&out, binary.LittleEndian, uint8(comp))
	_ = binary.Write(&out, binary.LittleEndian, uint16(w.size))
	_ = binary.Write(&out, binary.LittleEndian, sum)
	_, _ = out.Write(packed)
	return out.Bytes(), nil
}

func appendRecord(dst []byte, v voxmesh.VoxelRef, intern func(voxmesh.Material) uint32) []byte {
	dst = writeVarint(dst, v.Pos.X)
	dst = writeVarint(dst, v.Pos.Y)
	dst = writeVarint(dst, v.Pos.Z)

	c := v.Cell
	var flags byte
	for f, face := range c.Faces {
		if !face.Empty() {
			flags |= 1 << f
		}
	}
	if c.Substance != uuid.Nil {
		flags |= recHasSubstance
	}
	if c.HasBevels() {
		flags |= recHasEdges
	}
	dst = append(dst, flags)

	for f, face := range c.Faces {
		if flags&(1<<f) == 0 {
			continue
		}
		dst = writeUVarint(dst, intern(face.Material))
		dst = writeUVarint(dst, intern(face.Overlay))
		dst = append(dst, byte(face.Orientation))
	}
	if flags&recHasSubstance != 0 {
		dst = append(dst, c.Substance[:]...)
	}
	if flags&recHasEdges != 0 {
		bw := newBitWriter()
		for _, e := range c.Edges {
			if !e.Active() {
				e = voxmesh.Bevel{}
			}
			bw.writeBits(uint64(e.Type), 3)
			bw.writeBits(uint64(e.Size), 2)
		}
		dst = append(dst, bw.bytes()...)
	}
	return dst
}

// minRecordSize is three one-byte coordinates and the flags byte.
const minRecordSize = 4

// edgeBytes is 12 edges of 5 bits, byte aligned.
const edgeBytes = (voxmesh.NumEdges*5 + 7) / 8

// LoadSnapshot builds a world from a snapshot. The snapshot's chunk size
// overrides opts.ChunkSize. Every chunk of the result is queued for rebuild.
func LoadSnapshot(data []byte, opts Options) (*World, error) {
	if len(data) < snapshotHeaderLen || string(data[:4]) != snapshotMagic {
		return nil, ErrBadMagic
	}
	if data[4] != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, data[4])
	}
	comp := Compression(data[5])
	opts.ChunkSize = int(binary.LittleEndian.Uint16(data[6:8]))
	sum := binary.LittleEndian.Uint64(data[8:16])

	body, err := decompress(data[snapshotHeaderLen:], comp)
	if err != nil {
		return nil, err
	}
	if xxhash.Sum64(body) != sum {
		return nil, ErrChecksum
	}

	w := New(opts)
	pos := 0
	n, err := readCount(body, &pos, 1)
	if err != nil {
		return nil, fmt.Errorf("material dictionary: %w", err)
	}
	names := make([]voxmesh.Material, n+1)
	for i := uint32(1); i <= n; i++ {
		s, err := readString(body, &pos)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		names[i] = voxmesh.Material(s)
	}
	material := func() (voxmesh.Material, error) {
		i, err := readUVarint(body, &pos)
		if err != nil {
			return "", err
		}
		if int(i) >= len(names) {
			return "", fmt.Errorf("material index %d out of range", i)
		}
		return names[i], nil
	}

	count, err := readCount(body, &pos, minRecordSize)
	if err != nil {
		return nil, fmt.Errorf("voxel count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		p, c, err := readRecord(body, &pos, material)
		if err != nil {
			return nil, fmt.Errorf("voxel %d: %w", i, err)
		}
		if c.Removable() {
			continue
		}
		*w.cell(p, true) = c
		w.dirty.push(w.KeyOf(p))
	}
	if pos != len(body) {
		return nil, fmt.Errorf("%d trailing bytes after voxel records", len(body)-pos)
	}
	return w, nil
}

func readRecord(body []byte, pos *int, material func() (voxmesh.Material, error)) (voxmesh.Coord, voxmesh.Cell, error) {
	var p voxmesh.Coord
	var c voxmesh.Cell
	var err error
	if p.X, err = readVarint(body, pos); err != nil {
		return p, c, err
	}
	if p.Y, err = readVarint(body, pos); err != nil {
		return p, c, err
	}
	if p.Z, err = readVarint(body, pos); err != nil {
		return p, c, err
	}
	flags, err := readByte(body, pos)
	if err != nil {
		return p, c, err
	}
	for f := range c.Faces {
		if flags&(1<<f) == 0 {
			continue
		}
		if c.Faces[f].Material, err = material(); err != nil {
			return p, c, err
		}
		if c.Faces[f].Overlay, err = material(); err != nil {
			return p, c, err
		}
		o, err := readByte(body, pos)
		if err != nil {
			return p, c, err
		}
		c.Faces[f].Orientation = voxmesh.Orientation(o)
	}
	if flags&recHasSubstance != 0 {
		b, err := readBytes(body, pos, 16)
		if err != nil {
			return p, c, err
		}
		copy(c.Substance[:], b)
	}
	if flags&recHasEdges != 0 {
		b, err := readBytes(body, pos, edgeBytes)
		if err != nil {
			return p, c, err
		}
		br := newBitReader(b)
		for e := range c.Edges {
			t, err := br.readBits(3)
			if err != nil {
				return p, c, err
			}
			s, err := br.readBits(2)
			if err != nil {
				return p, c, err
			}
			c.Edges[e] = voxmesh.Bevel{Type: voxmesh.BevelType(t), Size: voxmesh.BevelSize(s)}
		}
	}
	return p, c, nil
}

func compress(b []byte, comp Compression) ([]byte, error) {
	switch comp {
	case CompNone:
		return b, nil
	case CompZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(b); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(b, nil), nil
	}
	return nil, fmt.Errorf("unsupported compression: %d", comp)
}

func decompress(b []byte, comp Compression) ([]byte, error) {
	switch comp {
	case CompNone:
		return b, nil
	case CompZlib:
		zr, err := zlib.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case CompZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(b, nil)
	}
	return nil, fmt.Errorf("unsupported compression: %d", comp)
}
