package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/automancy/gltfbake/gltfutil"
	"github.com/automancy/gltfbake/internal/config"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func writeInput(t *testing.T, dir, name string) string {
	doc := gltf.NewDocument()
	green := [4]float32{0, 1, 0, 1}
	doc.Materials = []*gltf.Material{{
		Name:                 "Green",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &green},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "Triangle",
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(modeler.WriteIndices(doc, []uint32{0, 1, 2})),
			Attributes: map[string]uint32{
				"POSITION": modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
			},
			Material: gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "Triangle", Mesh: gltf.Index(0), Translation: [3]float32{0, 0, 1}}}
	doc.Scenes[0].Nodes = []uint32{0}
	doc.Buffers[0].ByteLength = uint32(len(doc.Buffers[0].Data))
	path := filepath.Join(dir, name)
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSplitArgs(t *testing.T) {
	inputs, output := splitArgs([]string{"a.glb", "b.glb", "out.gltf"})
	if len(inputs) != 2 || output != "out.gltf" {
		t.Error("unexpected split", inputs, output)
	}
	inputs, output = splitArgs([]string{"models/a.glb"})
	if len(inputs) != 1 || output != "models/a_baked.gltf" {
		t.Error("unexpected default output", inputs, output)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.glb")
	b := writeInput(t, dir, "b.glb")
	output := filepath.Join(dir, "out.gltf")

	if err := run(config.Default(), []string{a, b}, output, true); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "data:application/octet-stream;base64,") {
		t.Error("output is not embedded")
	}

	doc, err := gltfutil.Load(output)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 2 || doc.Nodes[1].Name != "Triangle.001" {
		t.Fatal("unexpected nodes", len(doc.Nodes))
	}
	if len(doc.Materials) != 0 {
		t.Error("materials should not be exported")
	}
	for _, n := range doc.Nodes {
		if n.Translation != [3]float32{} {
			t.Error("transform not baked:", n.Name, n.Translation)
		}
		if _, ok := doc.Meshes[*n.Mesh].Primitives[0].Attributes["COLOR_0"]; !ok {
			t.Error("missing COLOR_0 on", n.Name)
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	if err := run(config.Default(), []string{filepath.Join(dir, "missing.glb")}, filepath.Join(dir, "out.gltf"), false); err == nil {
		t.Error("expected error for missing input")
	}
	if _, err := os.Stat(filepath.Join(dir, "out.gltf")); err == nil {
		t.Error("no output should be written on failure")
	}

	cfg := config.Default()
	cfg.Export.Format = "obj"
	if err := run(cfg, []string{writeInput(t, dir, "a.glb")}, filepath.Join(dir, "out.gltf"), false); err == nil {
		t.Error("expected error for unknown format")
	}
}
