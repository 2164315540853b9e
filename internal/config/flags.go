package config

import (
	"flag"
	"strings"
)

// Flags are command line overrides. Zero values leave the config untouched.
type Flags struct {
	Config    string
	Format    string
	RotZ      float64
	ColorName string
	TexColor  bool
	YUp       bool
	Exclude   string
	Scale     float64
	LogLevel  string
	LogFile   string
	Dump      bool

	set map[string]bool
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "YAML config file")
	fs.StringVar(&f.Format, "format", "", "output layout: embedded, glb, separate (default embedded)")
	fs.Float64Var(&f.RotZ, "rotz", -180, "degrees added to each mesh object's Z rotation")
	fs.StringVar(&f.ColorName, "colorname", "", "name of the created color attribute (default Col)")
	fs.BoolVar(&f.TexColor, "texcolor", false, "tint the fill color by the base color texture")
	fs.BoolVar(&f.YUp, "yup", false, "write +Y up")
	fs.StringVar(&f.Exclude, "exclude", "", "comma separated object names left untouched")
	fs.Float64Var(&f.Scale, "scale", 0, "uniform scale applied to the output (default 1)")
	fs.StringVar(&f.LogLevel, "loglevel", "", "debug, info, warn, error (default info)")
	fs.StringVar(&f.LogFile, "logfile", "", "also log to this file")
	fs.BoolVar(&f.Dump, "dump", false, "dump the baked scene at debug level")
}

// Parsed records which flags were given on the command line.
func (f *Flags) Parsed(fs *flag.FlagSet) {
	f.set = map[string]bool{}
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
}

// ApplyFlags overrides cfg with the flags given on the command line.
func (c *Config) ApplyFlags(f *Flags) {
	if f.Format != "" {
		c.Export.Format = f.Format
	}
	if f.set["rotz"] {
		rot := f.RotZ
		c.Bake.RotationZ = &rot
	}
	if f.ColorName != "" {
		c.Bake.ColorName = f.ColorName
	}
	if f.TexColor {
		c.Bake.TextureTint = true
	}
	if f.YUp {
		c.Export.YUp = true
	}
	for _, name := range strings.Split(f.Exclude, ",") {
		if name = strings.TrimSpace(name); name != "" {
			c.Bake.Exclude = append(c.Bake.Exclude, name)
		}
	}
	if f.set["scale"] {
		c.Export.Scale = float32(f.Scale)
	}
	if f.LogLevel != "" {
		c.Logging.Level = f.LogLevel
	}
	if f.LogFile != "" {
		c.Logging.File = f.LogFile
	}
}
