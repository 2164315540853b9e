package scene

import (
	"errors"
	"testing"
)

func TestSRGB(t *testing.T) {
	const eps = 0.0001
	for _, v := range []float32{0, 0.001, 0.0031308, 0.2, 0.5, 0.8, 1} {
		r := SRGBToLinear(LinearToSRGB(v))
		if r-v > eps || v-r > eps {
			t.Error("round trip: ", v, r)
		}
	}
	if LinearToSRGB(-1) != 0 || SRGBToLinear(-1) != 0 {
		t.Error("negative values should clamp to 0")
	}
}

func TestColorAttribute(t *testing.T) {
	mesh := newQuad()
	if mesh.HasColorAttributes() || mesh.ActiveColorAttribute() != nil {
		t.Error("fresh mesh has no colors")
	}

	corner, err := mesh.NewColorAttribute("Col", ByteColor, DomainCorner)
	if err != nil {
		t.Fatal(err)
	}
	if corner.Len() != 6 {
		t.Error("corner domain size: ", corner.Len())
	}
	if mesh.ActiveColorAttribute() != corner {
		t.Error("new attribute should be active")
	}
	if _, err := mesh.NewColorAttribute("Col", FloatColor, DomainPoint); !errors.Is(err, ErrDuplicateAttribute) {
		t.Error("expected ErrDuplicateAttribute, got", err)
	}

	point, err := mesh.NewColorAttribute("Point", FloatColor, DomainPoint)
	if err != nil {
		t.Fatal(err)
	}
	if point.Len() != 4 {
		t.Error("point domain size: ", point.Len())
	}

	diffuse := [4]float32{0.8, 0.2, 0.05, 0.5}
	corner.Fill(diffuse)
	for i := 0; i < corner.Len(); i++ {
		c := corner.Color(i)
		for j := range c {
			// 8-bit sRGB quantization
			if d := c[j] - diffuse[j]; d > 0.01 || d < -0.01 {
				t.Fatal("byte color: ", c, diffuse)
			}
		}
	}
	point.Fill(diffuse)
	if point.Color(3) != diffuse {
		t.Error("float color must be exact: ", point.Color(3))
	}
	if err := mesh.Validate(); err != nil {
		t.Error(err)
	}
}

func TestValidate(t *testing.T) {
	mesh := newQuad()
	mesh.Corners[0] = 9
	if mesh.Validate() == nil {
		t.Error("out of range corner should fail")
	}
	mesh = newQuad()
	mesh.Normals = mesh.Normals[:1]
	if mesh.Validate() == nil {
		t.Error("normal count mismatch should fail")
	}
}
