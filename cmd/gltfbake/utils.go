package main

import (
	"path/filepath"
	"time"

	"github.com/automancy/gltfbake/bake"
	"github.com/automancy/gltfbake/converter"
	"github.com/automancy/gltfbake/geom"
	"github.com/automancy/gltfbake/gltfutil"
	"github.com/automancy/gltfbake/internal/config"
	"github.com/automancy/gltfbake/internal/logger"
	"github.com/automancy/gltfbake/scene"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func loadScene(inputs []string, opts *converter.GLTFToSceneOption) (*scene.Scene, error) {
	s := scene.New()
	for _, input := range inputs {
		doc, err := gltfutil.Load(input)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", input)
		}
		imported, err := converter.NewGLTFToSceneConverter(opts).Convert(doc, filepath.Dir(input))
		if err != nil {
			return nil, errors.Wrapf(err, "import %s", input)
		}
		logger.Log.Debug("imported",
			zap.String("file", input),
			zap.Int("objects", len(imported.Objects)),
			zap.Int("materials", len(imported.Materials)))
		s.Merge(imported)
	}
	return s, nil
}

var dumpConfig = spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, DisableCapacities: true}

func run(cfg *config.Config, inputs []string, output string, dump bool) error {
	start := time.Now()
	bakeOpts, err := cfg.Bake.Options()
	if err != nil {
		return err
	}
	format, err := gltfutil.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}

	s, err := loadScene(inputs, cfg.ImportOptions())
	if err != nil {
		return err
	}

	report, err := bake.Run(s, bakeOpts)
	if err != nil {
		return err
	}
	for _, res := range report.Results {
		logger.Sugar.Debugf("bake %v", res)
	}
	baked, colored, skipped := report.Count()
	logger.Log.Info("baked", zap.Int("baked", baked), zap.Int("colored", colored), zap.Int("skipped", skipped))

	if dump {
		for _, obj := range s.MeshObjects() {
			if obj.Mesh == nil {
				continue
			}
			logger.Sugar.Debugf("object %s\n%s", obj.Name, dumpConfig.Sdump(obj.Location, obj.Rotation, obj.Scale, obj.Mesh.ColorAttributes))
		}
	}

	doc, err := converter.NewSceneToGLTFConverter(cfg.Export.Options()).Convert(s)
	if err != nil {
		return errors.Wrap(err, "export")
	}
	if cfg.Export.Scale != 1 {
		sc := cfg.Export.Scale
		if err := gltfutil.Transform(doc, &geom.Vector3{X: sc, Y: sc, Z: sc}, nil); err != nil {
			return errors.Wrap(err, "scale")
		}
	}
	if err := gltfutil.Save(doc, output, format); err != nil {
		return errors.Wrapf(err, "save %s", output)
	}
	logger.Log.Info("saved",
		zap.String("output", output),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
