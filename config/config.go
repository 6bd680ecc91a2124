package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPath names the config file when no path is given.
const EnvPath = "BEVELMESH_CONFIG"

type Config struct {
	ChunkSize          int          `yaml:"chunk_size"`
	SphereCornerExtent float32      `yaml:"sphere_corner_extent"`
	Editor             EditorConfig `yaml:"editor"`
	Export             ExportConfig `yaml:"export"`
}

// EditorConfig names the materials used for editor feedback. An empty name
// disables that tier.
type EditorConfig struct {
	XRayMaterial        string `yaml:"xray_material"`
	HighlightMaterial   string `yaml:"highlight_material"`
	SelectionMaterial   string `yaml:"selection_material"`
	EdgeHighlightPrefix string `yaml:"edge_highlight_prefix"`
}

type ExportConfig struct {
	Generator   string `yaml:"generator"`
	Compression string `yaml:"compression"`
	// XRay renders exported chunks with the editor x-ray material.
	XRay bool `yaml:"xray"`
}

// Load reads path, falling back to $BEVELMESH_CONFIG and then to defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(EnvPath)
	}
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults.
func Parse(b []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		ChunkSize:          16,
		SphereCornerExtent: 0.5772,
		Editor: EditorConfig{
			XRayMaterial:        "editor_xray",
			HighlightMaterial:   "editor_highlight",
			SelectionMaterial:   "editor_selection",
			EdgeHighlightPrefix: "editor_edge_",
		},
		Export: ExportConfig{
			Generator:   "bevelmesh",
			Compression: "zstd",
		},
	}
}

func (c *Config) Normalize() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 16
	}
	if c.SphereCornerExtent <= 0 {
		c.SphereCornerExtent = 0.5772
	}
	c.Export.Compression = strings.ToLower(strings.TrimSpace(c.Export.Compression))
	if c.Export.Compression == "" {
		c.Export.Compression = "none"
	}
	if strings.TrimSpace(c.Export.Generator) == "" {
		c.Export.Generator = "bevelmesh"
	}
}

func (c Config) Validate() error {
	if c.ChunkSize > 1024 {
		return fmt.Errorf("chunk_size %d exceeds 1024", c.ChunkSize)
	}
	if c.SphereCornerExtent >= 1 {
		return fmt.Errorf("sphere_corner_extent %v must be below 1", c.SphereCornerExtent)
	}
	switch c.Export.Compression {
	case "none", "zlib", "zstd":
	default:
		return fmt.Errorf("export.compression %q: want none, zlib or zstd", c.Export.Compression)
	}
	if c.Export.XRay && strings.TrimSpace(c.Editor.XRayMaterial) == "" {
		return fmt.Errorf("export.xray needs editor.xray_material")
	}
	return nil
}

// EdgeHighlightMaterial names the variant for a 4-bit selected edge mask.
func (e EditorConfig) EdgeHighlightMaterial(mask uint8) string {
	if e.EdgeHighlightPrefix == "" || mask&0xF == 0 {
		return ""
	}
	return fmt.Sprintf("%s%02d", e.EdgeHighlightPrefix, mask&0xF)
}
