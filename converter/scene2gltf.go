package converter

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log"

	"github.com/automancy/gltfbake/geom"
	"github.com/automancy/gltfbake/scene"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"golang.org/x/image/draw"
)

type ExportOptions struct {
	// Images embeds material base color textures. Requires Materials.
	Images    bool
	TexCoords bool
	Materials bool
	Normals   bool
	Colors    bool
	// YUp converts the scene's +Z up to glTF's +Y up.
	YUp          bool
	SelectedOnly bool

	TextureResolutionLimit int // 0: unlimited
	Generator              string
}

// DefaultExportOptions matches the batch export: geometry, normals and
// vertex colors only, kept Z up.
func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		Normals:   true,
		Colors:    true,
		Generator: "gltfbake",
	}
}

type sceneToGltf struct {
	*ExportOptions
	*gltf.Document
	materials map[*scene.Material]uint32
}

func NewSceneToGLTFConverter(options *ExportOptions) *sceneToGltf {
	if options == nil {
		options = DefaultExportOptions()
	}
	return &sceneToGltf{ExportOptions: options}
}

func (m *sceneToGltf) vec(v *geom.Vector3) [3]float32 {
	if m.YUp {
		return [3]float32{v.X, v.Z, -v.Y}
	}
	return [3]float32{v.X, v.Y, v.Z}
}

func (m *sceneToGltf) quat(q *geom.Quaternion) [4]float32 {
	if m.YUp {
		return [4]float32{q.X, q.Z, -q.Y, q.W}
	}
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

func (m *sceneToGltf) scale(s *geom.Vector3) [3]float32 {
	if m.YUp {
		return [3]float32{s.X, s.Z, s.Y}
	}
	return [3]float32{s.X, s.Y, s.Z}
}

func encodeTexture(img image.Image, limit int) (io.Reader, error) {
	rect := img.Bounds()
	if limit > 0 && (rect.Dx() > limit || rect.Dy() > limit) {
		scale := float32(limit) / float32(rect.Dx())
		if rect.Dy() > rect.Dx() {
			scale = float32(limit) / float32(rect.Dy())
		}
		w, h := int(float32(rect.Dx())*scale), int(float32(rect.Dy())*scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
		img = dst
	}
	w := new(bytes.Buffer)
	if err := png.Encode(w, img); err != nil {
		return nil, err
	}
	return w, nil
}

func (m *sceneToGltf) addTexture(mat *scene.Material) (uint32, error) {
	r, err := encodeTexture(mat.BaseColorTexture, m.TextureResolutionLimit)
	if err != nil {
		return 0, err
	}
	img, err := modeler.WriteImage(m.Document, mat.Name+".png", "image/png", r)
	if err != nil {
		return 0, err
	}
	m.Buffers[0].ByteLength = uint32(len(m.Buffers[0].Data))
	if len(m.Samplers) == 0 {
		m.Samplers = []*gltf.Sampler{{}}
	}
	m.Textures = append(m.Textures, &gltf.Texture{Sampler: gltf.Index(0), Source: gltf.Index(img)})
	return uint32(len(m.Textures)) - 1, nil
}

func (m *sceneToGltf) convertMaterial(mat *scene.Material) uint32 {
	if id, ok := m.materials[mat]; ok {
		return id
	}
	color := mat.DiffuseColor
	mm := &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
		},
	}
	if color[3] < 0.99 {
		mm.AlphaMode = gltf.AlphaBlend
	}
	if m.ExportOptions.Images && mat.BaseColorTexture != nil {
		if tex, err := m.addTexture(mat); err == nil {
			mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
		} else {
			log.Print("Texture write error: ", err)
		}
	}
	m.Document.Materials = append(m.Document.Materials, mm)
	id := uint32(len(m.Document.Materials)) - 1
	m.materials[mat] = id
	return id
}

type exportVertex struct {
	index int
	color [4]float32
}

// ConvertObject writes the mesh of obj. Vertices are shared between faces
// unless a corner-domain color differs at that corner.
func (m *sceneToGltf) ConvertObject(obj *scene.Object) (*gltf.Mesh, error) {
	mesh := obj.Mesh
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	var color *scene.ColorAttribute
	if m.Colors {
		color = mesh.ActiveColorAttribute()
	}
	cornerColor := color != nil && color.Domain == scene.DomainCorner

	var vertexes [][3]float32
	var normals [][3]float32
	var texcoord0 [][2]float32
	var colors [][4]float32
	useNormals := m.Normals && len(mesh.Normals) == len(mesh.Positions)
	useTexcoord0 := m.TexCoords && len(mesh.UVs) == len(mesh.Positions)

	vertexMap := map[exportVertex]uint32{}
	var slots []int
	indices := map[int][]uint32{}
	for f := 0; f < mesh.FaceCount(); f++ {
		slot := mesh.FaceMaterials[f]
		if _, exists := indices[slot]; !exists {
			slots = append(slots, slot)
			indices[slot] = nil
		}
		for c := f * 3; c < f*3+3; c++ {
			key := exportVertex{index: mesh.Corners[c]}
			if cornerColor {
				key.color = color.Color(c)
			}
			vi, ok := vertexMap[key]
			if !ok {
				vi = uint32(len(vertexes))
				vertexMap[key] = vi
				vertexes = append(vertexes, m.vec(&mesh.Positions[key.index]))
				if useNormals {
					normals = append(normals, m.vec(&mesh.Normals[key.index]))
				}
				if useTexcoord0 {
					texcoord0 = append(texcoord0, mesh.UVs[key.index])
				}
				if cornerColor {
					colors = append(colors, key.color)
				} else if color != nil {
					colors = append(colors, color.Color(key.index))
				}
			}
			indices[slot] = append(indices[slot], vi)
		}
	}
	if len(vertexes) == 0 {
		return nil, nil
	}

	attributes := map[string]uint32{}
	attributes["POSITION"] = modeler.WritePosition(m.Document, vertexes)
	if useNormals {
		attributes["NORMAL"] = modeler.WriteNormal(m.Document, normals)
	}
	if useTexcoord0 {
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(m.Document, texcoord0)
	}
	if len(colors) > 0 {
		attributes["COLOR_0"] = modeler.WriteColor(m.Document, colors)
	}

	// make primitive for each materials
	var primitives []*gltf.Primitive
	for _, slot := range slots {
		p := &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(m.Document, indices[slot])),
			Attributes: attributes,
		}
		if m.ExportOptions.Materials && slot >= 0 && slot < len(obj.Materials) && obj.Materials[slot] != nil {
			p.Material = gltf.Index(m.convertMaterial(obj.Materials[slot]))
		}
		primitives = append(primitives, p)
	}
	name := mesh.Name
	if name == "" {
		name = obj.Name
	}
	return &gltf.Mesh{Name: name, Primitives: primitives}, nil
}

func (m *sceneToGltf) exported(obj *scene.Object) bool {
	return !m.SelectedOnly || obj.Selected
}

// Convert writes every object of s as a node. Objects whose parent is not
// exported become scene roots.
func (m *sceneToGltf) Convert(s *scene.Scene) (*gltf.Document, error) {
	m.Document = gltf.NewDocument()
	m.materials = map[*scene.Material]uint32{}
	if m.Generator != "" {
		m.Asset.Generator = m.Generator
	}

	nodeByObject := map[*scene.Object]uint32{}
	for _, obj := range s.Objects {
		if !m.exported(obj) {
			continue
		}
		if obj.Mode != scene.ModeObject {
			return nil, errors.Errorf("object %q: not in object mode", obj.Name)
		}
		t, r, sc := obj.Location, obj.Rotation.ToQuaternion(), obj.Scale
		node := &gltf.Node{
			Name:        obj.Name,
			Translation: m.vec(&t),
			Rotation:    m.quat(r),
			Scale:       m.scale(&sc),
		}
		if obj.Type == scene.TypeMesh && obj.Mesh != nil {
			mesh, err := m.ConvertObject(obj)
			if err != nil {
				return nil, errors.Wrapf(err, "object %q", obj.Name)
			}
			if mesh != nil {
				node.Mesh = gltf.Index(uint32(len(m.Meshes)))
				m.Meshes = append(m.Meshes, mesh)
			}
		}
		nodeByObject[obj] = uint32(len(m.Nodes))
		m.Nodes = append(m.Nodes, node)
	}

	for _, obj := range s.Objects {
		index, ok := nodeByObject[obj]
		if !ok {
			continue
		}
		if parent, ok := nodeByObject[obj.Parent]; ok && obj.Parent != nil {
			m.Nodes[parent].Children = append(m.Nodes[parent].Children, index)
		} else {
			m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, index)
		}
	}
	return m.Document, nil
}
