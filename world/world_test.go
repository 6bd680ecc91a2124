package world

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/bevelmesh/voxmesh"
)

var stone = voxmesh.Face{Material: "stone"}

// paintCube paints every face of the voxel at p.
func paintCube(t *testing.T, w *World, p voxmesh.Coord) {
	t.Helper()
	for f := voxmesh.FaceIndex(0); f < voxmesh.NumFaces; f++ {
		require.NoError(t, w.SetFace(p, f, stone))
	}
}

func TestFloorDiv(t *testing.T) {
	w := New(Options{})
	tests := []struct {
		in   int32
		want int32
	}{
		{0, 0}, {15, 0}, {16, 1}, {-1, -1}, {-16, -1}, {-17, -2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.KeyOf(voxmesh.Coord{X: tt.in}).X, "x=%d", tt.in)
	}
}

func TestNewClampsOptions(t *testing.T) {
	w := New(Options{ChunkSize: MaxChunkSize + 1})
	assert.Equal(t, DefaultChunkSize, w.ChunkSize())
	assert.Equal(t, 8, New(Options{ChunkSize: 8}).ChunkSize())
}

func TestFaceEditQueuesNeighbourChunk(t *testing.T) {
	w := New(Options{})
	paintCube(t, w, voxmesh.Coord{X: -1})
	paintCube(t, w, voxmesh.Coord{})
	require.NoError(t, w.Flush())
	assert.Empty(t, w.Pending())

	require.NoError(t, w.SetFace(voxmesh.Coord{X: 5}, voxmesh.FacePosX, stone))
	assert.Equal(t, []ChunkKey{{}}, w.Pending())
	require.NoError(t, w.Flush())

	require.NoError(t, w.SetFace(voxmesh.Coord{}, voxmesh.FaceNegX, voxmesh.Face{Material: "grass"}))
	assert.ElementsMatch(t, []ChunkKey{{}, {X: -1}}, w.Pending())
}

func TestEdgeEditQueuesFourChunks(t *testing.T) {
	w := New(Options{})
	for _, p := range []voxmesh.Coord{{}, {Y: -1}, {Z: -1}, {Y: -1, Z: -1}} {
		paintCube(t, w, p)
	}
	require.NoError(t, w.Flush())

	require.NoError(t, w.SetEdge(voxmesh.Coord{}, 0, voxmesh.Bevel{Type: voxmesh.BevelCurve, Size: voxmesh.SizeHalf}))
	assert.ElementsMatch(t, []ChunkKey{{}, {Y: -1}, {Z: -1}, {Y: -1, Z: -1}}, w.Pending())

	require.NoError(t, w.Flush())
	require.NoError(t, w.SetEdge(voxmesh.Coord{X: 40}, 0, voxmesh.Bevel{Type: voxmesh.BevelCurve}))
	assert.Empty(t, w.Pending(), "bevel on an absent voxel")
	assert.Equal(t, 4, w.Len())
}

func TestSubstanceKeepsVoxelAlive(t *testing.T) {
	w := New(Options{})
	p := voxmesh.Coord{X: 3, Y: 3, Z: 3}
	id := uuid.New()
	w.SetSubstance(p, id)
	require.Equal(t, 1, w.Len())
	assert.Equal(t, id, w.CellAt(p).Substance)

	w.SetSubstance(p, uuid.Nil)
	assert.Zero(t, w.Len())
	assert.Empty(t, w.Chunks())
}

func TestClearingLastFaceReleasesChunk(t *testing.T) {
	w := New(Options{})
	p := voxmesh.Coord{X: 20}
	require.NoError(t, w.SetFace(p, voxmesh.FacePosY, stone))
	require.NoError(t, w.Flush())
	_, ok := w.Chunk(ChunkKey{X: 1})
	require.True(t, ok)

	require.NoError(t, w.SetFace(p, voxmesh.FacePosY, voxmesh.Face{}))
	assert.Zero(t, w.Len())
	_, ok = w.Chunk(ChunkKey{X: 1})
	assert.False(t, ok)
	assert.NoError(t, w.Flush())

	require.NoError(t, w.SetFace(p, voxmesh.FacePosY, voxmesh.Face{}))
	assert.Zero(t, w.Len(), "empty face on an absent voxel")
}

func TestClear(t *testing.T) {
	w := New(Options{})
	paintCube(t, w, voxmesh.Coord{})
	paintCube(t, w, voxmesh.Coord{X: 1})
	require.NoError(t, w.Flush())

	w.Clear(voxmesh.Coord{X: 1})
	assert.Equal(t, 1, w.Len())
	assert.Nil(t, w.CellAt(voxmesh.Coord{X: 1}))
	assert.Equal(t, []ChunkKey{{}}, w.Pending())
}

func TestInvalidIndices(t *testing.T) {
	w := New(Options{})
	assert.ErrorIs(t, w.SetFace(voxmesh.Coord{}, 6, stone), ErrBadFace)
	paintCube(t, w, voxmesh.Coord{})
	assert.ErrorIs(t, w.SetEdge(voxmesh.Coord{}, 12, voxmesh.Bevel{}), ErrBadEdge)
}

type recordingObserver struct {
	rebuilds []RebuildStats
	depths   []int
}

func (r *recordingObserver) ObserveRebuild(s RebuildStats) { r.rebuilds = append(r.rebuilds, s) }
func (r *recordingObserver) ObserveQueue(d int)            { r.depths = append(r.depths, d) }

func TestFlushRebuildsEachChunkOnce(t *testing.T) {
	obs := &recordingObserver{}
	w := New(Options{Observer: obs})
	paintCube(t, w, voxmesh.Coord{})
	paintCube(t, w, voxmesh.Coord{X: 1})
	paintCube(t, w, voxmesh.Coord{X: 16})
	require.Len(t, w.Pending(), 2)

	require.NoError(t, w.Flush())
	require.Len(t, obs.rebuilds, 2)
	assert.Equal(t, []int{2, 0}, obs.depths)

	ch, ok := w.Chunk(ChunkKey{})
	require.True(t, ok)
	assert.Equal(t, 1, ch.Builds)
	assert.Equal(t, 2, ch.Len())
	assert.Equal(t, 48, ch.Mesh.VertexCount())
	assert.Equal(t, ch.Mesh.Digest(), ch.Digest)
	require.Len(t, ch.Shapes, 1)
	assert.Equal(t, voxmesh.ShapeTriMesh, ch.Shapes[0].Kind)

	assert.Equal(t, 2, obs.rebuilds[0].Voxels)
	assert.Equal(t, 24, obs.rebuilds[0].Triangles)
	assert.NoError(t, obs.rebuilds[0].Err)
}

func TestVoxelsInMortonOrder(t *testing.T) {
	w := New(Options{})
	for _, p := range []voxmesh.Coord{{Z: 1}, {X: 1, Y: 1}, {Y: 1}, {X: 1}, {}} {
		require.NoError(t, w.SetFace(p, voxmesh.FacePosY, stone))
	}
	ch, ok := w.Chunk(ChunkKey{})
	require.True(t, ok)
	var got []voxmesh.Coord
	for _, v := range w.Voxels(ch) {
		got = append(got, v.Pos)
	}
	assert.Equal(t, []voxmesh.Coord{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}, {Z: 1}}, got)
}

func TestEditOrderDoesNotChangeDigest(t *testing.T) {
	bevel := voxmesh.Bevel{Type: voxmesh.BevelStair2, Size: voxmesh.SizeQuarter}
	build := func(order []voxmesh.Coord) uint64 {
		w := New(Options{})
		for _, p := range order {
			paintCube(t, w, p)
			require.NoError(t, w.SetEdge(p, 1, bevel))
		}
		require.NoError(t, w.Flush())
		ch, ok := w.Chunk(ChunkKey{})
		require.True(t, ok)
		return ch.Digest
	}
	a := build([]voxmesh.Coord{{}, {X: 1}, {X: 2, Y: 1}})
	b := build([]voxmesh.Coord{{X: 2, Y: 1}, {}, {X: 1}})
	assert.Equal(t, a, b)
}

func TestEditorStateQueuesEverything(t *testing.T) {
	w := New(Options{})
	paintCube(t, w, voxmesh.Coord{})
	paintCube(t, w, voxmesh.Coord{Y: 40})
	require.NoError(t, w.Flush())

	w.SetEditorState(voxmesh.EditorState{XRay: "editor_xray"})
	assert.Len(t, w.Pending(), 2)
	require.NoError(t, w.Flush())
	for _, ch := range w.Chunks() {
		require.Len(t, ch.Mesh.Submeshes, 1)
		assert.Equal(t, voxmesh.Material("editor_xray"), ch.Mesh.Submeshes[0].Material)
	}
}

func TestMortonInterleave(t *testing.T) {
	for c, want := range map[[3]uint32]uint32{
		{1, 0, 0}:          1,
		{0, 1, 0}:          2,
		{0, 0, 1}:          4,
		{3, 0, 0}:          9,
		{1, 2, 3}:          0b110101,
		{1023, 1023, 1023}: 1<<30 - 1,
	} {
		assert.Equal(t, want, morton3D(c[0], c[1], c[2]), "%v", c)
	}
	assert.Less(t, morton3D(1, 0, 0), morton3D(0, 1, 0))
	assert.Less(t, morton3D(1, 1, 0), morton3D(0, 0, 1))
}
