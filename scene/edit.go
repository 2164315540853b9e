package scene

import "github.com/automancy/gltfbake/geom"

// EditSession is a working copy of a mesh while its object is in edit mode.
// Changes reach the mesh on Update or when the object returns to object mode.
type EditSession struct {
	mesh      *Mesh
	positions []geom.Vector3
	normals   []geom.Vector3

	selectedVerts []bool
	selectedFaces []bool
	flipped       bool
}

func newEditSession(mesh *Mesh) *EditSession {
	e := &EditSession{
		mesh:          mesh,
		positions:     append([]geom.Vector3(nil), mesh.Positions...),
		normals:       append([]geom.Vector3(nil), mesh.Normals...),
		selectedVerts: make([]bool, len(mesh.Positions)),
		selectedFaces: make([]bool, mesh.FaceCount()),
	}
	return e
}

// SelectAll selects every face and vertex. Edges are implied by faces.
func (e *EditSession) SelectAll() {
	for i := range e.selectedFaces {
		e.selectedFaces[i] = true
	}
	for i := range e.selectedVerts {
		e.selectedVerts[i] = true
	}
}

func (e *EditSession) SelectedVerts() []int {
	var verts []int
	for i, s := range e.selectedVerts {
		if s {
			verts = append(verts, i)
		}
	}
	return verts
}

func (e *EditSession) SelectedFaceCount() int {
	n := 0
	for _, s := range e.selectedFaces {
		if s {
			n++
		}
	}
	return n
}

// Transform applies m to the given vertices. Normals follow the normal matrix.
// A mirroring matrix reverses face winding on write-back.
func (e *EditSession) Transform(m *geom.Matrix4, verts []int) {
	nm := m.NormalMatrix()
	for _, v := range verts {
		e.positions[v] = *m.ApplyTo(&e.positions[v])
		if len(e.normals) > v {
			e.normals[v] = *nm.ApplyToDirection(&e.normals[v]).Normalize()
		}
	}
	if m.Det() < 0 {
		e.flipped = !e.flipped
	}
}

func (e *EditSession) Position(v int) geom.Vector3 {
	return e.positions[v]
}

// Update writes the working copy back to the mesh.
func (e *EditSession) Update() {
	copy(e.mesh.Positions, e.positions)
	copy(e.mesh.Normals, e.normals)
	if e.flipped {
		e.mesh.FlipWinding()
		e.flipped = false
	}
}
