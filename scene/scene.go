// Package scene is an in-memory scene graph with object/edit modes, material
// slots and color attributes. Units are meters, +Z is up.
package scene

import (
	"fmt"
	"image"

	"github.com/automancy/gltfbake/geom"
	"github.com/pkg/errors"
)

var (
	ErrNoActiveObject     = errors.New("scene: no active object")
	ErrNotMesh            = errors.New("scene: object is not a mesh")
	ErrNotInEditMode      = errors.New("scene: object is not in edit mode")
	ErrDuplicateAttribute = errors.New("scene: attribute already exists")
)

type ObjectType int

const (
	TypeEmpty ObjectType = iota
	TypeMesh
)

func (t ObjectType) String() string {
	if t == TypeMesh {
		return "MESH"
	}
	return "EMPTY"
}

type Mode int

const (
	ModeObject Mode = iota
	ModeEdit
)

type Material struct {
	Name string
	// linear RGBA
	DiffuseColor [4]float32

	BaseColorTexture image.Image
}

func NewMaterial(name string) *Material {
	return &Material{Name: name, DiffuseColor: [4]float32{0.8, 0.8, 0.8, 1}}
}

type Object struct {
	Name     string
	Type     ObjectType
	Parent   *Object
	Children []*Object

	Location geom.Vector3
	Rotation geom.EulerAngles
	Scale    geom.Vector3

	Selected bool
	Mode     Mode

	Mesh                *Mesh
	Materials           []*Material
	ActiveMaterialIndex int

	edit *EditSession
}

func NewObject(name string, typ ObjectType) *Object {
	return &Object{
		Name:     name,
		Type:     typ,
		Rotation: geom.EulerAngles{Order: geom.RotationOrderZYX},
		Scale:    geom.Vector3{X: 1, Y: 1, Z: 1},
	}
}

func NewMeshObject(name string, mesh *Mesh) *Object {
	obj := NewObject(name, TypeMesh)
	obj.Mesh = mesh
	return obj
}

// MatrixBasis returns the local transform relative to the parent.
func (o *Object) MatrixBasis() *geom.Matrix4 {
	return geom.NewTRSMatrix4(&o.Location, o.Rotation.ToQuaternion(), &o.Scale)
}

func (o *Object) ResetTransform() {
	o.Location = geom.Vector3{}
	o.Rotation = geom.EulerAngles{Order: o.Rotation.Order}
	o.Scale = geom.Vector3{X: 1, Y: 1, Z: 1}
}

func (o *Object) MatrixWorld() *geom.Matrix4 {
	if o.Parent == nil {
		return o.MatrixBasis()
	}
	return o.Parent.MatrixWorld().Mul(o.MatrixBasis())
}

// ActiveMaterial returns nil when the object has no material in the active slot.
func (o *Object) ActiveMaterial() *Material {
	if o.ActiveMaterialIndex < 0 || o.ActiveMaterialIndex >= len(o.Materials) {
		return nil
	}
	return o.Materials[o.ActiveMaterialIndex]
}

func (o *Object) SetMode(mode Mode) error {
	if mode == o.Mode {
		return nil
	}
	switch mode {
	case ModeEdit:
		if o.Type != TypeMesh || o.Mesh == nil {
			return errors.Wrapf(ErrNotMesh, "edit mode %q", o.Name)
		}
		o.edit = newEditSession(o.Mesh)
	case ModeObject:
		if o.edit != nil {
			o.edit.Update()
			o.edit = nil
		}
	}
	o.Mode = mode
	return nil
}

func (o *Object) EditSession() (*EditSession, error) {
	if o.Mode != ModeEdit || o.edit == nil {
		return nil, errors.Wrapf(ErrNotInEditMode, "object %q", o.Name)
	}
	return o.edit, nil
}

type Scene struct {
	Objects   []*Object
	Materials []*Material
	Active    *Object
}

func New() *Scene {
	return &Scene{}
}

// AddObject links obj into the scene under parent (nil for a root object).
func (s *Scene) AddObject(obj *Object, parent *Object) {
	obj.Parent = parent
	if parent != nil {
		parent.Children = append(parent.Children, obj)
	}
	s.Objects = append(s.Objects, obj)
}

func (s *Scene) AddMaterial(mat *Material) {
	s.Materials = append(s.Materials, mat)
}

func (s *Scene) SetActive(obj *Object) {
	s.Active = obj
}

func (s *Scene) DeselectActive() error {
	if s.Active == nil {
		return ErrNoActiveObject
	}
	s.Active.Selected = false
	return nil
}

// SetMode switches the active object's mode.
func (s *Scene) SetMode(mode Mode) error {
	if s.Active == nil {
		return ErrNoActiveObject
	}
	return s.Active.SetMode(mode)
}

func (s *Scene) MeshObjects() []*Object {
	var objs []*Object
	for _, o := range s.Objects {
		if o.Type == TypeMesh {
			objs = append(objs, o)
		}
	}
	return objs
}

func (s *Scene) Roots() []*Object {
	var objs []*Object
	for _, o := range s.Objects {
		if o.Parent == nil {
			objs = append(objs, o)
		}
	}
	return objs
}

func (s *Scene) ObjectByName(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Merge appends all objects and materials of other. Clashing object names get
// a numeric suffix ("Cube.001"). The active object is kept unless s has none.
func (s *Scene) Merge(other *Scene) {
	names := map[string]bool{}
	for _, o := range s.Objects {
		names[o.Name] = true
	}
	for _, o := range other.Objects {
		if names[o.Name] {
			base := o.Name
			for n := 1; names[o.Name]; n++ {
				o.Name = fmt.Sprintf("%s.%03d", base, n)
			}
		}
		names[o.Name] = true
	}
	s.Objects = append(s.Objects, other.Objects...)
	s.Materials = append(s.Materials, other.Materials...)
	if s.Active == nil {
		s.Active = other.Active
	}
}
