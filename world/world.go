package world

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/voxelsplace/bevelmesh/voxmesh"
)

const DefaultChunkSize = 16

var (
	ErrBadFace = errors.New("world: face index out of range")
	ErrBadEdge = errors.New("world: edge index out of range")
)

// ChunkKey is the integer chunk coordinate, floor(pos / chunk size).
type ChunkKey struct {
	X, Y, Z int32
}

func (k ChunkKey) less(o ChunkKey) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	return k.Z < o.Z
}

// Chunk owns the render buffers and collision shapes of its voxels. Mesh is
// nil until the first successful rebuild.
type Chunk struct {
	Key    ChunkKey
	Mesh   *voxmesh.ChunkMesh
	Shapes []*voxmesh.Shape
	Digest uint64
	Builds int

	voxels map[voxmesh.Coord]struct{}
}

func (c *Chunk) Len() int { return len(c.voxels) }

type Options struct {
	ChunkSize    int
	SphereExtent float32
	Logger       *log.Logger
	Observer     RebuildObserver
}

// World is the sparse voxel grid with its chunk index and dirty queue.
// It is not safe for concurrent use.
type World struct {
	size   int32
	extent float32
	cells  map[voxmesh.Coord]*voxmesh.Cell
	chunks map[ChunkKey]*Chunk
	dirty  dirtyQueue
	editor voxmesh.EditorState
	log    *log.Logger
	obs    RebuildObserver
}

func New(opts Options) *World {
	if opts.ChunkSize <= 0 || opts.ChunkSize > MaxChunkSize {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.SphereExtent <= 0 {
		opts.SphereExtent = voxmesh.DefaultSphereExtent
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &World{
		size:   int32(opts.ChunkSize),
		extent: opts.SphereExtent,
		cells:  make(map[voxmesh.Coord]*voxmesh.Cell),
		chunks: make(map[ChunkKey]*Chunk),
		log:    opts.Logger,
		obs:    opts.Observer,
	}
}

func (w *World) ChunkSize() int { return int(w.size) }

// Len is the number of stored voxels.
func (w *World) Len() int { return len(w.cells) }

// CellAt implements voxmesh.Neighborhood. Callers must not modify the cell.
func (w *World) CellAt(p voxmesh.Coord) *voxmesh.Cell { return w.cells[p] }

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (w *World) KeyOf(p voxmesh.Coord) ChunkKey {
	return ChunkKey{floorDiv(p.X, w.size), floorDiv(p.Y, w.size), floorDiv(p.Z, w.size)}
}

func (w *World) markDirty(p voxmesh.Coord) {
	k := w.KeyOf(p)
	if _, ok := w.chunks[k]; !ok {
		return
	}
	w.dirty.push(k)
}

// cell returns the voxel at p, creating it when create is set.
func (w *World) cell(p voxmesh.Coord, create bool) *voxmesh.Cell {
	c := w.cells[p]
	if c != nil || !create {
		return c
	}
	c = &voxmesh.Cell{}
	w.cells[p] = c
	k := w.KeyOf(p)
	ch := w.chunks[k]
	if ch == nil {
		ch = &Chunk{Key: k, voxels: make(map[voxmesh.Coord]struct{})}
		w.chunks[k] = ch
	}
	ch.voxels[p] = struct{}{}
	return c
}

// settle drops a voxel that no longer holds anything, and its chunk with it
// once the chunk is empty.
func (w *World) settle(p voxmesh.Coord, c *voxmesh.Cell) {
	if !c.Removable() {
		return
	}
	delete(w.cells, p)
	k := w.KeyOf(p)
	ch := w.chunks[k]
	if ch == nil {
		return
	}
	delete(ch.voxels, p)
	if len(ch.voxels) == 0 {
		delete(w.chunks, k)
		w.log.Printf("chunk %v released", k)
	}
}

// SetFace paints face f of the voxel at p. Painting an empty face on an
// absent voxel is a no-op.
func (w *World) SetFace(p voxmesh.Coord, f voxmesh.FaceIndex, face voxmesh.Face) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %d", ErrBadFace, f)
	}
	c := w.cell(p, !face.Empty())
	if c == nil {
		return nil
	}
	c.Faces[f] = face
	w.markDirty(p)
	w.markDirty(p.Add(f.Offset()))
	w.settle(p, c)
	return nil
}

// SetEdge sets the bevel of edge e. Every voxel sharing the edge line may
// change, so up to four chunks are queued.
func (w *World) SetEdge(p voxmesh.Coord, e voxmesh.EdgeIndex, b voxmesh.Bevel) error {
	if !e.Valid() {
		return fmt.Errorf("%w: %d", ErrBadEdge, e)
	}
	c := w.cell(p, false)
	if c == nil {
		return nil
	}
	c.Edges[e] = b
	f1, f2 := e.Faces()
	w.markDirty(p)
	w.markDirty(p.Add(f1.Offset()))
	w.markDirty(p.Add(f2.Offset()))
	w.markDirty(p.Add(f1.Offset()).Add(f2.Offset()))
	return nil
}

// SetSubstance ties the voxel to a movable substance, uuid.Nil makes it
// static again.
func (w *World) SetSubstance(p voxmesh.Coord, id uuid.UUID) {
	c := w.cell(p, id != uuid.Nil)
	if c == nil {
		return
	}
	c.Substance = id
	w.markDirty(p)
	for f := voxmesh.FaceIndex(0); f < voxmesh.NumFaces; f++ {
		w.markDirty(p.Add(f.Offset()))
	}
	w.settle(p, c)
}

// Clear removes the voxel at p.
func (w *World) Clear(p voxmesh.Coord) {
	c := w.cells[p]
	if c == nil {
		return
	}
	w.markDirty(p)
	for f := voxmesh.FaceIndex(0); f < voxmesh.NumFaces; f++ {
		w.markDirty(p.Add(f.Offset()))
	}
	*c = voxmesh.Cell{}
	w.settle(p, c)
}

// SetEditorState swaps the selection state and queues every chunk.
func (w *World) SetEditorState(st voxmesh.EditorState) {
	w.editor = st
	for _, k := range w.chunkKeys() {
		w.dirty.push(k)
	}
}

// Pending returns the queued chunk keys in queue order.
func (w *World) Pending() []ChunkKey {
	return append([]ChunkKey(nil), w.dirty.order...)
}

func (w *World) Chunk(k ChunkKey) (*Chunk, bool) {
	ch, ok := w.chunks[k]
	return ch, ok
}

func (w *World) chunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(w.chunks))
	for k := range w.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// Chunks returns every chunk ordered by key.
func (w *World) Chunks() []*Chunk {
	keys := w.chunkKeys()
	out := make([]*Chunk, len(keys))
	for i, k := range keys {
		out[i] = w.chunks[k]
	}
	return out
}

// Voxels returns the voxels of a chunk in Morton order.
func (w *World) Voxels(ch *Chunk) []voxmesh.VoxelRef {
	out := make([]voxmesh.VoxelRef, 0, len(ch.voxels))
	for p := range ch.voxels {
		out = append(out, voxmesh.VoxelRef{Pos: p, Cell: w.cells[p]})
	}
	sort.Slice(out, func(i, j int) bool { return w.mortonKey(out[i].Pos) < w.mortonKey(out[j].Pos) })
	return out
}

// Flush rebuilds every queued chunk once. A chunk whose rebuild fails keeps
// its previous buffers; the failures are joined into the returned error.
func (w *World) Flush() error {
	keys := w.dirty.drain()
	w.obs.ObserveQueue(len(keys))
	var errs []error
	for _, k := range keys {
		ch, ok := w.chunks[k]
		if !ok {
			continue
		}
		if err := w.rebuild(ch); err != nil {
			errs = append(errs, err)
		}
	}
	w.obs.ObserveQueue(w.dirty.len())
	return errors.Join(errs...)
}

func (w *World) rebuild(ch *Chunk) error {
	start := time.Now()
	voxels := w.Voxels(ch)
	b := voxmesh.Builder{Neighborhood: w, Editor: &w.editor, SphereExtent: w.extent}
	stats := RebuildStats{Chunk: ch.Key, Voxels: len(voxels)}

	mesh, err := b.BuildChunk(voxels)
	var shapes []*voxmesh.Shape
	if err == nil {
		shapes, err = b.BuildShapes(voxels, mesh)
	}
	stats.Duration = time.Since(start)
	if err != nil {
		stats.Err = err
		w.obs.ObserveRebuild(stats)
		w.log.Printf("chunk %v rebuild failed: %v", ch.Key, err)
		return fmt.Errorf("rebuild chunk %v: %w", ch.Key, err)
	}

	ch.Mesh = mesh
	ch.Shapes = shapes
	ch.Digest = mesh.Digest()
	ch.Builds++

	stats.Vertices = mesh.VertexCount()
	stats.Triangles = mesh.TriangleCount()
	stats.Submeshes = len(mesh.Submeshes)
	stats.Shapes = len(shapes)
	w.obs.ObserveRebuild(stats)
	return nil
}
