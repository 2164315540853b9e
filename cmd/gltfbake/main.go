package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/automancy/gltfbake/internal/config"
	"github.com/automancy/gltfbake/internal/logger"
	"go.uber.org/zap"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + "_baked.gltf"
}

// splitArgs treats the last argument as the output. A single argument is an
// input with a derived output name.
func splitArgs(args []string) (inputs []string, output string) {
	if len(args) == 1 {
		return args, defaultOutputFile(args[0])
	}
	return args[:len(args)-1], args[len(args)-1]
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] input.gltf... output.gltf\n", os.Args[0])
		flag.PrintDefaults()
	}
	var flags config.Flags
	flags.Register(flag.CommandLine)
	flag.Parse()
	flags.Parsed(flag.CommandLine)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	inputs, output := splitArgs(flag.Args())

	cfg, err := config.Load(flags.Config)
	if err == nil {
		cfg.ApplyFlags(&flags)
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := logger.Init(logger.Options{
		Level:    cfg.Logging.Level,
		File:     cfg.Logging.File,
		Rotation: cfg.Logging.Rotation,
		Console:  os.Stderr,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	restore := zap.RedirectStdLog(logger.Log)

	logger.Log.Info("bake",
		zap.Strings("inputs", inputs),
		zap.String("output", output),
		zap.String("format", strings.ToLower(cfg.Export.Format)))
	err = run(cfg, inputs, output, flags.Dump)
	restore()
	if err != nil {
		logger.Log.Error("bake failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
