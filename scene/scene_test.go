package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/automancy/gltfbake/geom"
)

func newQuad() *Mesh {
	m := NewMesh("Quad")
	m.Positions = []geom.Vector3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}}
	m.Normals = []geom.Vector3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}}
	m.AddTriangle(0, 1, 2, 0)
	m.AddTriangle(0, 2, 3, 0)
	return m
}

func TestDeselectActive(t *testing.T) {
	s := New()
	if err := s.DeselectActive(); !errors.Is(err, ErrNoActiveObject) {
		t.Error("expected ErrNoActiveObject, got", err)
	}

	obj := NewMeshObject("Quad", newQuad())
	obj.Selected = true
	s.AddObject(obj, nil)
	s.SetActive(obj)
	if err := s.DeselectActive(); err != nil {
		t.Fatal(err)
	}
	if obj.Selected {
		t.Error("object is still selected")
	}
	if s.Active != obj {
		t.Error("deselect must not change the active object")
	}
}

func TestMatrixBasis(t *testing.T) {
	const eps = 0.00001
	obj := NewObject("Empty", TypeEmpty)
	if !obj.MatrixBasis().IsIdentity() {
		t.Error("new object should have identity basis", obj.MatrixBasis())
	}

	obj.Location = geom.Vector3{X: 1, Y: 2, Z: 3}
	obj.Rotation.Z = math.Pi / 2
	obj.Scale = geom.Vector3{X: 2, Y: 2, Z: 2}
	p := obj.MatrixBasis().ApplyTo(geom.NewVector3(1, 0, 0))
	if !p.ApproxEqual(geom.NewVector3(1, 4, 3), eps) {
		t.Error("basis: ", p)
	}

	obj.ResetTransform()
	if !obj.MatrixBasis().IsIdentity() {
		t.Error("ResetTransform: ", obj.MatrixBasis())
	}
	if obj.Rotation.Order != geom.RotationOrderZYX {
		t.Error("ResetTransform changed rotation order")
	}
}

func TestMatrixWorld(t *testing.T) {
	const eps = 0.00001
	s := New()
	parent := NewObject("Parent", TypeEmpty)
	parent.Location = geom.Vector3{X: 10}
	child := NewMeshObject("Child", newQuad())
	child.Location = geom.Vector3{Y: 1}
	s.AddObject(parent, nil)
	s.AddObject(child, parent)

	p := child.MatrixWorld().ApplyTo(&geom.Vector3{})
	if !p.ApproxEqual(geom.NewVector3(10, 1, 0), eps) {
		t.Error("world: ", p)
	}
	if len(s.Roots()) != 1 || len(s.MeshObjects()) != 1 || s.ObjectByName("Child") != child {
		t.Error("scene queries")
	}
}

func TestEditMode(t *testing.T) {
	const eps = 0.00001
	empty := NewObject("Empty", TypeEmpty)
	if err := empty.SetMode(ModeEdit); !errors.Is(err, ErrNotMesh) {
		t.Error("expected ErrNotMesh, got", err)
	}

	obj := NewMeshObject("Quad", newQuad())
	if _, err := obj.EditSession(); !errors.Is(err, ErrNotInEditMode) {
		t.Error("expected ErrNotInEditMode, got", err)
	}
	if err := obj.SetMode(ModeEdit); err != nil {
		t.Fatal(err)
	}
	e, err := obj.EditSession()
	if err != nil {
		t.Fatal(err)
	}
	if len(e.SelectedVerts()) != 0 {
		t.Error("nothing should be selected yet")
	}
	e.SelectAll()
	if len(e.SelectedVerts()) != 4 || e.SelectedFaceCount() != 2 {
		t.Error("SelectAll: ", e.SelectedVerts(), e.SelectedFaceCount())
	}

	e.Transform(geom.NewTranslateMatrix4(0, 0, 5), e.SelectedVerts())
	if obj.Mesh.Positions[0].Z != 0 {
		t.Error("mesh must not change before leaving edit mode")
	}
	if err := obj.SetMode(ModeObject); err != nil {
		t.Fatal(err)
	}
	if !obj.Mesh.Positions[2].ApproxEqual(geom.NewVector3(1, 1, 5), eps) {
		t.Error("transform not written back: ", obj.Mesh.Positions[2])
	}
	if _, err := obj.EditSession(); !errors.Is(err, ErrNotInEditMode) {
		t.Error("session should be closed")
	}
}

func TestEditMirrorFlipsWinding(t *testing.T) {
	const eps = 0.00001
	mesh := newQuad()
	obj := NewMeshObject("Quad", mesh)
	col, err := mesh.NewColorAttribute("Col", FloatColor, DomainCorner)
	if err != nil {
		t.Fatal(err)
	}
	col.SetColor(1, [4]float32{1, 0, 0, 1})

	if err := obj.SetMode(ModeEdit); err != nil {
		t.Fatal(err)
	}
	e, _ := obj.EditSession()
	e.SelectAll()
	e.Transform(geom.NewScaleMatrix4(-1, 1, 1), e.SelectedVerts())
	if err := obj.SetMode(ModeObject); err != nil {
		t.Fatal(err)
	}

	if mesh.Corners[1] != 2 || mesh.Corners[2] != 1 {
		t.Error("winding not flipped: ", mesh.Corners)
	}
	if col.Color(2) != [4]float32{1, 0, 0, 1} {
		t.Error("corner color should follow its corner")
	}
	// face normal from winding must agree with the stored normal
	a, b, c := mesh.Positions[mesh.Corners[0]], mesh.Positions[mesh.Corners[1]], mesh.Positions[mesh.Corners[2]]
	n := b.Sub(&a).Cross(c.Sub(&a)).Normalize()
	if !n.ApproxEqual(&mesh.Normals[0], eps) {
		t.Error("normal: ", n, mesh.Normals[0])
	}
	if err := mesh.Validate(); err != nil {
		t.Error(err)
	}
}

func TestActiveMaterial(t *testing.T) {
	obj := NewMeshObject("Quad", newQuad())
	if obj.ActiveMaterial() != nil {
		t.Error("no material expected")
	}
	mat := NewMaterial("Red")
	obj.Materials = append(obj.Materials, mat)
	if obj.ActiveMaterial() != mat {
		t.Error("ActiveMaterial")
	}
	obj.ActiveMaterialIndex = 3
	if obj.ActiveMaterial() != nil {
		t.Error("out of range slot should return nil")
	}
}

func TestMerge(t *testing.T) {
	a := New()
	a.AddObject(NewMeshObject("Cube", newQuad()), nil)
	a.AddObject(NewMeshObject("Cube.001", newQuad()), nil)

	b := New()
	cube := NewMeshObject("Cube", newQuad())
	b.AddObject(cube, nil)
	b.AddObject(NewObject("Lamp", TypeEmpty), nil)
	b.SetActive(cube)

	a.Merge(b)
	if len(a.Objects) != 4 {
		t.Fatal("objects:", len(a.Objects))
	}
	if cube.Name != "Cube.002" {
		t.Error("clashing name not renamed:", cube.Name)
	}
	if a.ObjectByName("Lamp") == nil {
		t.Error("Lamp should keep its name")
	}
	if a.Active != cube {
		t.Error("active object should come from the merged scene when unset")
	}
}
