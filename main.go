//go:build !(js && wasm)

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/voxelsplace/bevelmesh/api"
	"github.com/voxelsplace/bevelmesh/config"
	"github.com/voxelsplace/bevelmesh/utils"
	"github.com/voxelsplace/bevelmesh/world"
)

func usage() {
	fmt.Println("Usage: bevelmesh <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  world2glb input.bvmw output.glb [--xray]         (mesh every chunk and export .glb)")
	fmt.Println("  applyedits input.bvmw edits.bvme output.bvmw     (apply an edit stream to a snapshot)")
	fmt.Println("  genworld <size> <height> <seed> output.bvmw      (generate a beveled Perlin terrain)")
	fmt.Println("  stats input.bvmw                                 (print chunk counts, digests and metrics)")
	fmt.Printf("Configuration is read from $%s when set.\n", config.EnvPath)
}

func fail(err error) {
	fmt.Println("Error:", err)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cfg, err := config.Load("")
	if err != nil {
		fail(err)
	}
	logger := log.New(os.Stderr, "[bevelmesh] ", log.LstdFlags|log.Lmicroseconds)

	switch os.Args[1] {
	case "world2glb":
		if len(os.Args) == 5 && os.Args[4] == "--xray" {
			cfg.Export.XRay = true
		} else if len(os.Args) != 4 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunWorld2GLB(os.Args[2], os.Args[3], cfg, logger); err != nil {
			fail(err)
		}
	case "applyedits":
		if len(os.Args) != 5 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunApplyEdits(os.Args[2], os.Args[3], os.Args[4], cfg); err != nil {
			fail(err)
		}
	case "genworld":
		if len(os.Args) != 6 {
			usage()
			os.Exit(1)
		}
		var size, height int
		var seed int64
		if _, err := fmt.Sscan(os.Args[2], &size); err != nil {
			fail(err)
		}
		if _, err := fmt.Sscan(os.Args[3], &height); err != nil {
			fail(err)
		}
		if _, err := fmt.Sscan(os.Args[4], &seed); err != nil {
			fail(err)
		}
		comp, err := world.ParseCompression(cfg.Export.Compression)
		if err != nil {
			fail(err)
		}
		if err := utils.RunGenerateWorld(size, height, seed, os.Args[5], api.Options(cfg, logger, nil), comp); err != nil {
			fail(err)
		}
	case "stats":
		if len(os.Args) != 3 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunStats(os.Args[2], cfg, logger, os.Stdout); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(1)
	}

	fmt.Println("Operation completed!")
}
