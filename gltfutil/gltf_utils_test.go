package gltfutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/automancy/gltfbake/geom"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func newTriangleDocument() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	indices := modeler.WriteIndices(doc, []uint32{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "Triangle",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(indices),
			Attributes: map[string]uint32{"POSITION": pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "Triangle", Mesh: gltf.Index(0), Translation: [3]float32{0, 0, 2}}}
	doc.Scenes[0].Nodes = []uint32{0}
	return doc
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatEmbedded, false},
		{"embedded", FormatEmbedded, false},
		{"GLTF_EMBEDDED", FormatEmbedded, false},
		{"glb", FormatBinary, false},
		{" separate ", FormatSeparate, false},
		{"fbx", FormatEmbedded, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr && errors.Cause(err) != ErrUnsupportedFormat {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func readPositions(t *testing.T, doc *gltf.Document) [][3]float32 {
	acr := doc.Accessors[doc.Meshes[0].Primitives[0].Attributes["POSITION"]]
	pos, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func TestSaveEmbedded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gltf")
	// existing output is replaced
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Save(newTriangleDocument(), path, FormatEmbedded); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Error("embedded output should be a single file, got", len(entries))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "data:application/octet-stream;base64,") {
		t.Error("buffer is not a data URI")
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range doc.Buffers {
		if !b.IsEmbeddedResource() {
			t.Error("buffer is not embedded:", b.URI)
		}
	}
	if pos := readPositions(t, doc); pos[1] != [3]float32{1, 0, 0} {
		t.Error("positions:", pos)
	}
}

func TestSaveBinaryAndSeparate(t *testing.T) {
	dir := t.TempDir()

	glb := filepath.Join(dir, "out.glb")
	if err := Save(newTriangleDocument(), glb, FormatBinary); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(glb)
	if err != nil {
		t.Fatal(err)
	}
	if pos := readPositions(t, doc); pos[2] != [3]float32{0, 1, 0} {
		t.Error("glb positions:", pos)
	}

	separate := filepath.Join(dir, "sep.gltf")
	if err := Save(newTriangleDocument(), separate, FormatSeparate); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sep.bin")); err != nil {
		t.Error("missing buffer file:", err)
	}
	doc, err = Load(separate)
	if err != nil {
		t.Fatal(err)
	}
	if pos := readPositions(t, doc); pos[1] != [3]float32{1, 0, 0} {
		t.Error("separate positions:", pos)
	}
}

func TestTransform(t *testing.T) {
	doc := newTriangleDocument()
	if err := Transform(doc, &geom.Vector3{X: 2, Y: 2, Z: 2}, nil); err != nil {
		t.Fatal(err)
	}
	pos := readPositions(t, doc)
	if pos[1] != [3]float32{2, 0, 0} {
		t.Error("scaled positions:", pos)
	}
	if doc.Nodes[0].Translation != [3]float32{0, 0, 4} {
		t.Error("scaled translation:", doc.Nodes[0].Translation)
	}
	acr := doc.Accessors[doc.Meshes[0].Primitives[0].Attributes["POSITION"]]
	if acr.Max[0] != 2 || acr.Min[0] != 0 {
		t.Error("bounds:", acr.Min, acr.Max)
	}

	if err := Transform(doc, nil, nil); err != nil {
		t.Error(err)
	}
}
