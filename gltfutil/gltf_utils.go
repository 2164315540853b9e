package gltfutil

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/automancy/gltfbake/geom"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/binary"
	"github.com/qmuntal/gltf/modeler"
)

var ErrUnsupportedFormat = errors.New("gltfutil: unsupported format")

type Format int

const (
	// FormatEmbedded writes a single .gltf with base64 data URI buffers.
	FormatEmbedded Format = iota
	// FormatBinary writes a single .glb.
	FormatBinary
	// FormatSeparate writes a .gltf next to a .bin buffer.
	FormatSeparate
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "glb"
	case FormatSeparate:
		return "separate"
	}
	return "embedded"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "embedded", "gltf_embedded":
		return FormatEmbedded, nil
	case "glb", "binary":
		return FormatBinary, nil
	case "separate", "gltf_separate":
		return FormatSeparate, nil
	}
	return FormatEmbedded, errors.Wrap(ErrUnsupportedFormat, s)
}

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes doc to path in the given layout, replacing any existing file.
func Save(doc *gltf.Document, path string, format Format) error {
	for _, b := range doc.Buffers {
		b.ByteLength = uint32(len(b.Data))
	}
	switch format {
	case FormatEmbedded:
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
		return gltf.Save(doc, path)
	case FormatBinary:
		if len(doc.Buffers) > 1 {
			return errors.Errorf("glb: %d buffers, only one can be stored", len(doc.Buffers))
		}
		for _, b := range doc.Buffers {
			b.URI = ""
		}
		return gltf.SaveBinary(doc, path)
	case FormatSeparate:
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i, b := range doc.Buffers {
			b.URI = base + ".bin"
			if i > 0 {
				b.URI = fmt.Sprintf("%s_%d.bin", base, i)
			}
		}
		return gltf.Save(doc, path)
	}
	return errors.Wrap(ErrUnsupportedFormat, format.String())
}

// Transform scales and offsets every mesh position and node translation.
// Accessor bounds are recomputed.
func Transform(doc *gltf.Document, scale *geom.Vector3, offset *geom.Vector3) error {
	if scale == nil && offset == nil {
		return nil
	}
	scaleMat := geom.NewMatrix4()
	if scale != nil {
		scaleMat = geom.NewScaleMatrix4(scale.X, scale.Y, scale.Z)
	}
	scaleOffsetMat := scaleMat
	if offset != nil {
		scaleOffsetMat = geom.NewTranslateMatrix4(offset.X, offset.Y, offset.Z).Mul(scaleMat)
	}

	accs := map[uint32]bool{}
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			if a, ok := p.Attributes["POSITION"]; ok {
				accs[a] = true
			}
		}
	}
	for a := range accs {
		acr := doc.Accessors[a]
		if acr.Sparse != nil || acr.BufferView == nil {
			return errors.Errorf("accessor %d: sparse or unbound positions are not supported", a)
		}
		pos, err := modeler.ReadPosition(doc, acr, [][3]float32{})
		if err != nil {
			return errors.Wrapf(err, "accessor %d", a)
		}

		acr.Min = []float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
		acr.Max = []float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
		for i := range pos {
			scaleOffsetMat.ApplyTo(geom.NewVector3FromArray(pos[i])).ToArray(pos[i][:])
			for t, v := range pos[i] {
				acr.Min[t] = float32(math.Min(float64(acr.Min[t]), float64(v)))
				acr.Max[t] = float32(math.Max(float64(acr.Max[t]), float64(v)))
			}
		}
		bufferView := doc.BufferViews[*acr.BufferView]
		buffer := doc.Buffers[bufferView.Buffer]
		err = binary.Write(buffer.Data[bufferView.ByteOffset+acr.ByteOffset:], bufferView.ByteStride, pos)
		if err != nil {
			return errors.Wrapf(err, "accessor %d", a)
		}
	}
	for _, node := range doc.Nodes {
		scaleMat.ApplyTo(geom.NewVector3FromArray(node.Translation)).ToArray(node.Translation[:])
	}
	return nil
}
