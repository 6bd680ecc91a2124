package utils

import (
	"log"
	"os"

	"github.com/voxelsplace/bevelmesh/api"
	"github.com/voxelsplace/bevelmesh/config"
)

// RunWorld2GLB meshes a snapshot and writes every chunk to a .glb file.
func RunWorld2GLB(inPath, outPath string, cfg config.Config, logger *log.Logger) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	glb, err := api.WorldToGLB(data, cfg, logger)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, glb, 0o644)
}
