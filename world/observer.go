package world

import "time"

// RebuildStats describes one chunk rebuild.
type RebuildStats struct {
	Chunk     ChunkKey
	Voxels    int
	Vertices  int
	Triangles int
	Submeshes int
	Shapes    int
	Duration  time.Duration
	Err       error
}

// RebuildObserver receives rebuild and queue events, typically to export
// metrics.
type RebuildObserver interface {
	ObserveRebuild(RebuildStats)
	ObserveQueue(depth int)
}

type nopObserver struct{}

func (nopObserver) ObserveRebuild(RebuildStats) {}
func (nopObserver) ObserveQueue(int)            {}
