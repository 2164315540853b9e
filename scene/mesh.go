package scene

import (
	"github.com/automancy/gltfbake/geom"
	"github.com/pkg/errors"
)

// Mesh is a triangle mesh. Corners holds three vertex indices per face.
type Mesh struct {
	Name      string
	Positions []geom.Vector3
	Normals   []geom.Vector3
	UVs       [][2]float32
	Corners   []int
	// material slot per face
	FaceMaterials []int

	ColorAttributes []*ColorAttribute
	ActiveColor     int
}

func NewMesh(name string) *Mesh {
	return &Mesh{Name: name, ActiveColor: -1}
}

func (m *Mesh) FaceCount() int {
	return len(m.Corners) / 3
}

func (m *Mesh) AddTriangle(a, b, c, material int) {
	m.Corners = append(m.Corners, a, b, c)
	m.FaceMaterials = append(m.FaceMaterials, material)
}

func (m *Mesh) HasColorAttributes() bool {
	return len(m.ColorAttributes) > 0
}

func (m *Mesh) ColorAttribute(name string) *ColorAttribute {
	for _, a := range m.ColorAttributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (m *Mesh) ActiveColorAttribute() *ColorAttribute {
	if m.ActiveColor < 0 || m.ActiveColor >= len(m.ColorAttributes) {
		return nil
	}
	return m.ColorAttributes[m.ActiveColor]
}

// NewColorAttribute adds a zeroed color layer sized for domain and makes it active.
func (m *Mesh) NewColorAttribute(name string, typ ColorType, domain Domain) (*ColorAttribute, error) {
	if m.ColorAttribute(name) != nil {
		return nil, errors.Wrapf(ErrDuplicateAttribute, "color %q on mesh %q", name, m.Name)
	}
	n := len(m.Positions)
	if domain == DomainCorner {
		n = len(m.Corners)
	}
	attr := newColorAttribute(name, typ, domain, n)
	m.ColorAttributes = append(m.ColorAttributes, attr)
	m.ActiveColor = len(m.ColorAttributes) - 1
	return attr, nil
}

// FlipWinding reverses every triangle, keeping corner-domain data attached to its corner.
func (m *Mesh) FlipWinding() {
	for f := 0; f < m.FaceCount(); f++ {
		m.Corners[f*3+1], m.Corners[f*3+2] = m.Corners[f*3+2], m.Corners[f*3+1]
		for _, a := range m.ColorAttributes {
			if a.Domain == DomainCorner {
				a.swap(f*3+1, f*3+2)
			}
		}
	}
}

func (m *Mesh) Validate() error {
	if len(m.Corners)%3 != 0 {
		return errors.Errorf("mesh %q: %d corners is not a multiple of 3", m.Name, len(m.Corners))
	}
	if len(m.FaceMaterials) != m.FaceCount() {
		return errors.Errorf("mesh %q: %d face materials for %d faces", m.Name, len(m.FaceMaterials), m.FaceCount())
	}
	for _, c := range m.Corners {
		if c < 0 || c >= len(m.Positions) {
			return errors.Errorf("mesh %q: corner references vertex %d of %d", m.Name, c, len(m.Positions))
		}
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return errors.Errorf("mesh %q: %d normals for %d vertices", m.Name, len(m.Normals), len(m.Positions))
	}
	if len(m.UVs) != 0 && len(m.UVs) != len(m.Positions) {
		return errors.Errorf("mesh %q: %d uvs for %d vertices", m.Name, len(m.UVs), len(m.Positions))
	}
	for _, a := range m.ColorAttributes {
		want := len(m.Positions)
		if a.Domain == DomainCorner {
			want = len(m.Corners)
		}
		if a.Len() != want {
			return errors.Errorf("mesh %q: color %q has %d values, want %d", m.Name, a.Name, a.Len(), want)
		}
	}
	return nil
}

// ComputeNormals replaces Normals with smooth per-vertex normals.
func (m *Mesh) ComputeNormals() {
	normals := make([]geom.Vector3, len(m.Positions))
	for f := 0; f < m.FaceCount(); f++ {
		a, b, c := m.Corners[f*3], m.Corners[f*3+1], m.Corners[f*3+2]
		p0 := &m.Positions[a]
		n := m.Positions[b].Sub(p0).Cross(m.Positions[c].Sub(p0))
		for _, v := range []int{a, b, c} {
			normals[v] = *normals[v].Add(n)
		}
	}
	for i := range normals {
		normals[i].Normalize()
	}
	m.Normals = normals
}
