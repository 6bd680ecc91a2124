package utils

import (
	"os"

	"github.com/voxelsplace/bevelmesh/api"
	"github.com/voxelsplace/bevelmesh/config"
)

// RunApplyEdits applies an edit stream file to a snapshot file.
func RunApplyEdits(inPath, editsPath, outPath string, cfg config.Config) error {
	snap, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	edits, err := os.ReadFile(editsPath)
	if err != nil {
		return err
	}
	out, err := api.ApplyEdits(snap, edits, cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}
