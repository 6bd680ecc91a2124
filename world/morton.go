package world

import "github.com/voxelsplace/bevelmesh/voxmesh"

// MaxChunkSize keeps every local axis within the 10 bits expand3 spreads.
const MaxChunkSize = 1024

func expand3(v uint32) uint32 {
	v = (v | (v << 16)) & 0x030000FF
	v = (v | (v << 8)) & 0x0300F00F
	v = (v | (v << 4)) & 0x030C30C3
	v = (v | (v << 2)) & 0x09249249
	return v
}

func morton3D(x, y, z uint32) uint32 {
	return expand3(x) | (expand3(y) << 1) | (expand3(z) << 2)
}

// mortonKey orders a voxel inside its chunk. Rebuilds walk voxels in this
// order so repeated builds produce identical buffers.
func (w *World) mortonKey(p voxmesh.Coord) uint32 {
	k := w.KeyOf(p)
	return morton3D(
		uint32(p.X-k.X*w.size),
		uint32(p.Y-k.Y*w.size),
		uint32(p.Z-k.Z*w.size),
	)
}
