package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/bevelmesh/voxmesh"
	"github.com/voxelsplace/bevelmesh/world"
)

func TestRecorderCountsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveRebuild(world.RebuildStats{Vertices: 24, Duration: time.Millisecond})
	r.ObserveRebuild(world.RebuildStats{Vertices: 48, Duration: time.Millisecond})
	r.ObserveRebuild(world.RebuildStats{Err: errors.New("boom")})
	r.ObserveQueue(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.rebuilds.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rebuilds.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.queue))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRecorderObservesWorldFlush(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	w := world.New(world.Options{Observer: r})
	require.NoError(t, w.SetFace(voxmesh.Coord{}, voxmesh.FacePosY, voxmesh.Face{Material: "stone"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, 1.0, testutil.ToFloat64(r.rebuilds.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.queue))
}
