package utils

import (
	"fmt"
	"math"
	"os"

	"github.com/aquilax/go-perlin"
	"github.com/voxelsplace/bevelmesh/voxmesh"
	"github.com/voxelsplace/bevelmesh/world"
)

const (
	terrainAlpha  = 2.0
	terrainBeta   = 2.0
	terrainOctave = int32(3)
	terrainScale  = 24.0
)

// terrainBevels cycles the top-edge bevel through every profile so one
// generated world exercises each corner kind.
var terrainBevels = []voxmesh.Bevel{
	{Type: voxmesh.BevelCurve, Size: voxmesh.SizeHalf},
	{Type: voxmesh.BevelFlat, Size: voxmesh.SizeQuarter},
	{Type: voxmesh.BevelStair2, Size: voxmesh.SizeHalf},
	{Type: voxmesh.BevelSquare, Size: voxmesh.SizeQuarter},
	{Type: voxmesh.BevelStair4, Size: voxmesh.SizeHalf},
	{Type: voxmesh.BevelCurve, Size: voxmesh.SizeFull},
}

// GenerateTerrain builds a size x size heightmap world from Perlin noise.
// Only exposed faces are painted; the edges of every top face get a bevel
// picked by a second noise sample.
func GenerateTerrain(w *world.World, size, height int, seed int64) error {
	p := perlin.NewPerlin(terrainAlpha, terrainBeta, terrainOctave, seed)
	heights := make([][]int, size)
	for x := range heights {
		heights[x] = make([]int, size)
		for z := range heights[x] {
			n := (p.Noise2D(float64(x)/terrainScale, float64(z)/terrainScale) + 1) / 2
			heights[x][z] = 1 + int(math.Floor(n*float64(height-1)))
		}
	}
	solid := func(x, y, z int) bool {
		if x < 0 || z < 0 || x >= size || z >= size || y < 0 {
			return false
		}
		return y < heights[x][z]
	}

	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			for y := 0; y < heights[x][z]; y++ {
				pos := voxmesh.Coord{X: int32(x), Y: int32(y), Z: int32(z)}
				for f := voxmesh.FaceIndex(0); f < voxmesh.NumFaces; f++ {
					o := f.Offset()
					if solid(x+int(o.X), y+int(o.Y), z+int(o.Z)) {
						continue
					}
					if err := w.SetFace(pos, f, voxmesh.Face{Material: terrainMaterial(f, y, heights[x][z])}); err != nil {
						return err
					}
				}
			}
			top := voxmesh.Coord{X: int32(x), Y: int32(heights[x][z] - 1), Z: int32(z)}
			pick := (p.Noise2D(float64(z)/7+100, float64(x)/7+100) + 1) / 2
			b := terrainBevels[int(pick*float64(len(terrainBevels)))%len(terrainBevels)]
			for _, g := range []voxmesh.FaceIndex{voxmesh.FaceNegX, voxmesh.FacePosX, voxmesh.FaceNegZ, voxmesh.FacePosZ} {
				if err := w.SetEdge(top, voxmesh.EdgeBetween(voxmesh.FacePosY, g), b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func terrainMaterial(f voxmesh.FaceIndex, y, h int) voxmesh.Material {
	switch {
	case f == voxmesh.FacePosY:
		return "grass"
	case y >= h-3:
		return "dirt"
	default:
		return "stone"
	}
}

// RunGenerateWorld writes a generated terrain snapshot.
func RunGenerateWorld(size, height int, seed int64, outPath string, opts world.Options, comp world.Compression) error {
	if size <= 0 || height <= 0 {
		return fmt.Errorf("size and height must be positive")
	}
	w := world.New(opts)
	if err := GenerateTerrain(w, size, height, seed); err != nil {
		return err
	}
	data, err := w.MarshalSnapshot(comp)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
