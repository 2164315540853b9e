package converter

import (
	"fmt"
	"log"

	"github.com/automancy/gltfbake/geom"
	"github.com/automancy/gltfbake/scene"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type GLTFToSceneOption struct {
	// KeepYUp disables the Y-up to Z-up conversion.
	KeepYUp bool
	// LoadTextures decodes base color textures into scene materials.
	LoadTextures bool
}

type gltfToScene struct {
	*GLTFToSceneOption
	src       *gltf.Document
	textures  *textureCache
	materials []*scene.Material
}

func NewGLTFToSceneConverter(options *GLTFToSceneOption) *gltfToScene {
	if options == nil {
		options = &GLTFToSceneOption{}
	}
	return &gltfToScene{GLTFToSceneOption: options}
}

// glTF is +Y up, the scene is +Z up.
func (c *gltfToScene) vec(v [3]float32) geom.Vector3 {
	if c.KeepYUp {
		return geom.Vector3{X: v[0], Y: v[1], Z: v[2]}
	}
	return geom.Vector3{X: v[0], Y: -v[2], Z: v[1]}
}

func (c *gltfToScene) quat(q [4]float32) *geom.Quaternion {
	if c.KeepYUp {
		return geom.NewQuaternionFromArray(q)
	}
	return geom.NewQuaternion(q[0], -q[2], q[1], q[3])
}

func (c *gltfToScene) scale(s [3]float32) geom.Vector3 {
	if c.KeepYUp {
		return geom.Vector3{X: s[0], Y: s[1], Z: s[2]}
	}
	return geom.Vector3{X: s[0], Y: s[2], Z: s[1]}
}

func (c *gltfToScene) convertMaterial(m *gltf.Material) *scene.Material {
	mat := scene.NewMaterial(m.Name)
	mat.DiffuseColor = [4]float32{1, 1, 1, 1}
	if m.PBRMetallicRoughness == nil {
		return mat
	}
	mat.DiffuseColor = m.PBRMetallicRoughness.BaseColorFactorOrDefault()
	if c.LoadTextures && m.PBRMetallicRoughness.BaseColorTexture != nil {
		img, err := c.textures.baseColor(m.PBRMetallicRoughness.BaseColorTexture.Index)
		if err != nil {
			log.Print("Texture read error: ", err)
		} else {
			mat.BaseColorTexture = img
		}
	}
	return mat
}

type primitiveData struct {
	positions [][3]float32
	normals   [][3]float32
	uvs       [][2]float32
	colors    [][][4]float32
	indices   []uint32
	slot      int
}

func (c *gltfToScene) accessor(index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(c.src.Accessors) {
		return nil, errors.Errorf("accessor %d: out of range", index)
	}
	return c.src.Accessors[index], nil
}

func (c *gltfToScene) readPrimitive(p *gltf.Primitive) (*primitiveData, error) {
	src := c.src
	d := &primitiveData{}
	a, ok := p.Attributes["POSITION"]
	if !ok {
		return nil, nil
	}
	acr, err := c.accessor(a)
	if err != nil {
		return nil, err
	}
	if d.positions, err = modeler.ReadPosition(src, acr, nil); err != nil {
		return nil, errors.Wrap(err, "POSITION")
	}
	if a, ok := p.Attributes["NORMAL"]; ok {
		if acr, err = c.accessor(a); err != nil {
			return nil, err
		}
		if d.normals, err = modeler.ReadNormal(src, acr, nil); err != nil {
			return nil, errors.Wrap(err, "NORMAL")
		}
	}
	if a, ok := p.Attributes["TEXCOORD_0"]; ok {
		if acr, err = c.accessor(a); err != nil {
			return nil, err
		}
		if d.uvs, err = modeler.ReadTextureCoord(src, acr, nil); err != nil {
			return nil, errors.Wrap(err, "TEXCOORD_0")
		}
	}
	for i := 0; ; i++ {
		a, ok := p.Attributes[fmt.Sprintf("COLOR_%d", i)]
		if !ok {
			break
		}
		if acr, err = c.accessor(a); err != nil {
			return nil, err
		}
		col, err := readColor(src, acr)
		if err != nil {
			return nil, errors.Wrapf(err, "COLOR_%d", i)
		}
		d.colors = append(d.colors, col)
	}
	if p.Indices != nil {
		if acr, err = c.accessor(*p.Indices); err != nil {
			return nil, err
		}
		if d.indices, err = modeler.ReadIndices(src, acr, nil); err != nil {
			return nil, errors.Wrap(err, "indices")
		}
	} else {
		d.indices = make([]uint32, len(d.positions))
		for i := range d.indices {
			d.indices[i] = uint32(i)
		}
	}
	return d, nil
}

// readColor returns COLOR_n values as stored, normalized to [0,1]. Missing
// alpha is 1.
func readColor(doc *gltf.Document, acr *gltf.Accessor) ([][4]float32, error) {
	if acr.Type != gltf.AccessorVec3 && acr.Type != gltf.AccessorVec4 {
		return nil, errors.Errorf("unsupported color type %v", acr.Type)
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	cols := make([][4]float32, 0, acr.Count)
	switch v := data.(type) {
	case nil:
	case [][4]float32:
		cols = append(cols, v...)
	case [][3]float32:
		for _, e := range v {
			cols = append(cols, [4]float32{e[0], e[1], e[2], 1})
		}
	case [][4]uint8:
		for _, e := range v {
			cols = append(cols, [4]float32{float32(e[0]) / 255, float32(e[1]) / 255, float32(e[2]) / 255, float32(e[3]) / 255})
		}
	case [][3]uint8:
		for _, e := range v {
			cols = append(cols, [4]float32{float32(e[0]) / 255, float32(e[1]) / 255, float32(e[2]) / 255, 1})
		}
	case [][4]uint16:
		for _, e := range v {
			cols = append(cols, [4]float32{float32(e[0]) / 65535, float32(e[1]) / 65535, float32(e[2]) / 65535, float32(e[3]) / 65535})
		}
	case [][3]uint16:
		for _, e := range v {
			cols = append(cols, [4]float32{float32(e[0]) / 65535, float32(e[1]) / 65535, float32(e[2]) / 65535, 1})
		}
	default:
		return nil, errors.Errorf("unsupported color component type %v", acr.ComponentType)
	}
	return cols, nil
}

// convertMesh merges all triangle primitives into one mesh. Each distinct
// primitive material becomes a slot.
func (c *gltfToScene) convertMesh(m *gltf.Mesh) (*scene.Mesh, []*scene.Material, error) {
	mesh := scene.NewMesh(m.Name)
	var slots []*scene.Material
	slotByMaterial := map[int]int{}

	var prims []*primitiveData
	hasNormals, hasUVs := true, false
	colorLayers := 0
	for i, p := range m.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			log.Printf("mesh %q: primitive %d: unsupported mode %v", m.Name, i, p.Mode)
			continue
		}
		d, err := c.readPrimitive(p)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "mesh %q primitive %d", m.Name, i)
		}
		if d == nil {
			continue
		}
		mat := -1
		if p.Material != nil {
			mat = int(*p.Material)
		}
		slot, ok := slotByMaterial[mat]
		if !ok {
			slot = len(slots)
			slotByMaterial[mat] = slot
			if mat >= 0 && mat < len(c.materials) {
				slots = append(slots, c.materials[mat])
			} else {
				slots = append(slots, nil)
			}
		}
		d.slot = slot
		hasNormals = hasNormals && len(d.normals) == len(d.positions)
		hasUVs = hasUVs || len(d.uvs) > 0
		if len(d.colors) > colorLayers {
			colorLayers = len(d.colors)
		}
		prims = append(prims, d)
	}

	var colors []*scene.ColorAttribute
	for i := 0; i < colorLayers; i++ {
		name := "Col"
		if i > 0 {
			name = fmt.Sprintf("Col.%03d", i)
		}
		attr, err := mesh.NewColorAttribute(name, scene.FloatColor, scene.DomainPoint)
		if err != nil {
			return nil, nil, err
		}
		colors = append(colors, attr)
	}
	if colorLayers > 0 {
		mesh.ActiveColor = 0
	}

	for _, d := range prims {
		base := len(mesh.Positions)
		for i, p := range d.positions {
			mesh.Positions = append(mesh.Positions, c.vec(p))
			if hasNormals {
				mesh.Normals = append(mesh.Normals, c.vec(d.normals[i]))
			}
			if hasUVs {
				var uv [2]float32
				if i < len(d.uvs) {
					uv = d.uvs[i]
				}
				mesh.UVs = append(mesh.UVs, uv)
			}
			for l, attr := range colors {
				col := [4]float32{1, 1, 1, 1}
				if l < len(d.colors) && i < len(d.colors[l]) {
					b := d.colors[l][i]
					col = [4]float32{float32(b[0]) / 255, float32(b[1]) / 255, float32(b[2]) / 255, float32(b[3]) / 255}
				}
				attr.Append(col)
			}
		}
		for i := 0; i+2 < len(d.indices); i += 3 {
			mesh.AddTriangle(base+int(d.indices[i]), base+int(d.indices[i+1]), base+int(d.indices[i+2]), d.slot)
		}
	}
	if !hasNormals {
		mesh.Normals = nil
	}
	if err := mesh.Validate(); err != nil {
		return nil, nil, err
	}
	if len(mesh.Normals) == 0 {
		mesh.ComputeNormals()
	}
	return mesh, slots, nil
}

func (c *gltfToScene) convertNode(s *scene.Scene, index uint32, parent *scene.Object, visited map[uint32]bool) error {
	if visited[index] {
		return errors.Errorf("node %d: cycle in node hierarchy", index)
	}
	visited[index] = true
	if int(index) >= len(c.src.Nodes) {
		return errors.Errorf("node %d: out of range", index)
	}
	n := c.src.Nodes[index]

	name := n.Name
	if name == "" {
		name = fmt.Sprintf("Node.%03d", index)
	}
	obj := scene.NewObject(name, scene.TypeEmpty)
	if n.Mesh != nil {
		if int(*n.Mesh) >= len(c.src.Meshes) {
			return errors.Errorf("node %q: mesh %d out of range", name, *n.Mesh)
		}
		mesh, slots, err := c.convertMesh(c.src.Meshes[*n.Mesh])
		if err != nil {
			return errors.Wrapf(err, "node %q", name)
		}
		obj.Type = scene.TypeMesh
		obj.Mesh = mesh
		obj.Materials = slots
	}

	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		pos, rot, scale := geom.NewMatrix4FromSlice(m[:]).Decompose()
		obj.Location = c.vec(pos.Array())
		obj.Rotation = *geom.NewEulerFromQuaternion(c.quat(rot.Array()), obj.Rotation.Order)
		obj.Scale = c.scale(scale.Array())
	} else {
		obj.Location = c.vec(n.Translation)
		obj.Rotation = *geom.NewEulerFromQuaternion(c.quat(n.RotationOrDefault()), obj.Rotation.Order)
		obj.Scale = c.scale(n.ScaleOrDefault())
	}
	obj.Selected = true
	s.AddObject(obj, parent)

	for _, child := range n.Children {
		if err := c.convertNode(s, child, obj, visited); err != nil {
			return err
		}
	}
	return nil
}

func (c *gltfToScene) rootNodes() []uint32 {
	if len(c.src.Scenes) > 0 {
		sc := 0
		if c.src.Scene != nil && int(*c.src.Scene) < len(c.src.Scenes) {
			sc = int(*c.src.Scene)
		}
		return c.src.Scenes[sc].Nodes
	}
	isChild := map[uint32]bool{}
	for _, n := range c.src.Nodes {
		for _, child := range n.Children {
			isChild[child] = true
		}
	}
	var roots []uint32
	for i := range c.src.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// Convert imports the default scene of src. The first root object becomes active.
func (c *gltfToScene) Convert(src *gltf.Document, srcDir string) (*scene.Scene, error) {
	c.src = src
	c.textures = newTextureCache(src, srcDir)
	c.materials = nil

	s := scene.New()
	for _, m := range src.Materials {
		mat := c.convertMaterial(m)
		c.materials = append(c.materials, mat)
		s.AddMaterial(mat)
	}

	visited := map[uint32]bool{}
	for _, root := range c.rootNodes() {
		if err := c.convertNode(s, root, nil, visited); err != nil {
			return nil, err
		}
	}
	if roots := s.Roots(); len(roots) > 0 {
		s.SetActive(roots[0])
	}
	return s, nil
}
