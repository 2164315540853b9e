// Package config holds the settings of a bake run.
package config

import (
	"math"
	"os"
	"strings"

	"github.com/automancy/gltfbake/bake"
	"github.com/automancy/gltfbake/converter"
	"github.com/automancy/gltfbake/gltfutil"
	"github.com/automancy/gltfbake/internal/logger"
	"github.com/automancy/gltfbake/scene"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Bake    BakeConfig    `yaml:"bake"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

type ImportConfig struct {
	KeepYUp      bool `yaml:"keep_y_up"`
	LoadTextures bool `yaml:"load_textures"`
}

type BakeConfig struct {
	// RotationZ is in degrees. nil keeps the default half turn.
	RotationZ   *float64 `yaml:"rotation_z"`
	ColorName   string   `yaml:"color_name"`
	ColorType   string   `yaml:"color_type"`   // byte, float
	ColorDomain string   `yaml:"color_domain"` // corner, point
	Exclude     []string `yaml:"exclude"`
	TextureTint bool     `yaml:"texture_tint"`
}

type ExportConfig struct {
	Format                 string  `yaml:"format"`
	YUp                    bool    `yaml:"y_up"`
	Normals                bool    `yaml:"normals"`
	Colors                 bool    `yaml:"colors"`
	TexCoords              bool    `yaml:"texcoords"`
	Materials              bool    `yaml:"materials"`
	Images                 bool    `yaml:"images"`
	SelectedOnly           bool    `yaml:"selected_only"`
	TextureResolutionLimit int     `yaml:"texture_resolution_limit"`
	Scale                  float32 `yaml:"scale"`
	Generator              string  `yaml:"generator"`
}

type LoggingConfig struct {
	Level    string          `yaml:"level"`
	File     string          `yaml:"file"`
	Rotation logger.Rotation `yaml:"rotation"`
}

func Default() *Config {
	exp := converter.DefaultExportOptions()
	return &Config{
		Bake: BakeConfig{
			ColorName:   "Col",
			ColorType:   "byte",
			ColorDomain: "corner",
		},
		Export: ExportConfig{
			Format:    gltfutil.FormatEmbedded.String(),
			Normals:   exp.Normals,
			Colors:    exp.Colors,
			Scale:     1,
			Generator: exp.Generator,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Rotation: logger.DefaultRotation(),
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.Bake.Options(); err != nil {
		return err
	}
	if _, err := gltfutil.ParseFormat(c.Export.Format); err != nil {
		return err
	}
	if c.Export.Scale <= 0 {
		return errors.Errorf("export scale must be positive: %v", c.Export.Scale)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// ImportOptions also loads textures when tinting or image export needs them.
func (c *Config) ImportOptions() *converter.GLTFToSceneOption {
	return &converter.GLTFToSceneOption{
		KeepYUp:      c.Import.KeepYUp,
		LoadTextures: c.Import.LoadTextures || c.Bake.TextureTint || c.Export.Materials && c.Export.Images,
	}
}

func (c *BakeConfig) Options() (*bake.Options, error) {
	opts := bake.DefaultOptions()
	if c.RotationZ != nil {
		opts.RotationZ = *c.RotationZ * math.Pi / 180
	}
	if c.ColorName != "" {
		opts.ColorName = c.ColorName
	}
	switch strings.ToLower(c.ColorType) {
	case "", "byte", "byte_color":
		opts.ColorType = scene.ByteColor
	case "float", "float_color":
		opts.ColorType = scene.FloatColor
	default:
		return nil, errors.Errorf("unknown color type %q", c.ColorType)
	}
	switch strings.ToLower(c.ColorDomain) {
	case "", "corner":
		opts.ColorDomain = scene.DomainCorner
	case "point":
		opts.ColorDomain = scene.DomainPoint
	default:
		return nil, errors.Errorf("unknown color domain %q", c.ColorDomain)
	}
	opts.Exclude = c.Exclude
	opts.TextureTint = c.TextureTint
	return opts, nil
}

func (c *ExportConfig) Options() *converter.ExportOptions {
	return &converter.ExportOptions{
		Images:                 c.Images,
		TexCoords:              c.TexCoords,
		Materials:              c.Materials,
		Normals:                c.Normals,
		Colors:                 c.Colors,
		YUp:                    c.YUp,
		SelectedOnly:           c.SelectedOnly,
		TextureResolutionLimit: c.TextureResolutionLimit,
		Generator:              c.Generator,
	}
}
