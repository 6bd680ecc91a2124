package utils

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/voxelsplace/bevelmesh/api"
	"github.com/voxelsplace/bevelmesh/config"
	"github.com/voxelsplace/bevelmesh/metrics"
	"github.com/voxelsplace/bevelmesh/world"
)

// RunStats meshes a snapshot and prints per-chunk counts, digests and the
// rebuild metrics.
func RunStats(inPath string, cfg config.Config, logger *log.Logger, out io.Writer) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	w, err := world.LoadSnapshot(data, api.Options(cfg, logger, metrics.New(reg)))
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	var verts, tris int
	fmt.Fprintf(out, "voxels: %d  chunks: %d  chunk size: %d\n", w.Len(), len(w.Chunks()), w.ChunkSize())
	for _, ch := range w.Chunks() {
		if ch.Mesh == nil {
			continue
		}
		verts += ch.Mesh.VertexCount()
		tris += ch.Mesh.TriangleCount()
		fmt.Fprintf(out, "chunk %3d %3d %3d  voxels %5d  vertices %7d  triangles %7d  submeshes %2d  shapes %4d  digest %016x\n",
			ch.Key.X, ch.Key.Y, ch.Key.Z, ch.Len(), ch.Mesh.VertexCount(), ch.Mesh.TriangleCount(),
			len(ch.Mesh.Submeshes), len(ch.Shapes), ch.Digest)
	}
	fmt.Fprintf(out, "total vertices: %d  triangles: %d\n", verts, tris)

	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(out, "%s%s %g\n", mf.GetName(), labels(m.GetLabel()), m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(out, "%s %g\n", mf.GetName(), m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(out, "%s count=%d sum=%g\n", mf.GetName(), h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}

type labelPair interface {
	GetName() string
	GetValue() string
}

func labels[L labelPair](ls []L) string {
	if len(ls) == 0 {
		return ""
	}
	s := "{"
	for i, l := range ls {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return s + "}"
}
