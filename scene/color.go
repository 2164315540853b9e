package scene

import "math"

type ColorType int

const (
	// ByteColor stores 8-bit sRGB encoded RGB and linear alpha.
	ByteColor ColorType = iota
	// FloatColor stores linear float RGBA.
	FloatColor
)

func (t ColorType) String() string {
	if t == FloatColor {
		return "FLOAT_COLOR"
	}
	return "BYTE_COLOR"
}

type Domain int

const (
	DomainPoint Domain = iota
	DomainCorner
)

func (d Domain) String() string {
	if d == DomainCorner {
		return "CORNER"
	}
	return "POINT"
}

type ColorAttribute struct {
	Name   string
	Type   ColorType
	Domain Domain

	bytes  [][4]uint8
	floats [][4]float32
}

func newColorAttribute(name string, typ ColorType, domain Domain, n int) *ColorAttribute {
	a := &ColorAttribute{Name: name, Type: typ, Domain: domain}
	if typ == ByteColor {
		a.bytes = make([][4]uint8, n)
	} else {
		a.floats = make([][4]float32, n)
	}
	return a
}

func (a *ColorAttribute) Len() int {
	if a.Type == ByteColor {
		return len(a.bytes)
	}
	return len(a.floats)
}

// Color returns the i-th value as linear RGBA.
func (a *ColorAttribute) Color(i int) [4]float32 {
	if a.Type == ByteColor {
		b := a.bytes[i]
		return [4]float32{
			SRGBToLinear(float32(b[0]) / 255),
			SRGBToLinear(float32(b[1]) / 255),
			SRGBToLinear(float32(b[2]) / 255),
			float32(b[3]) / 255,
		}
	}
	return a.floats[i]
}

// SetColor stores a linear RGBA value, encoding it for the attribute type.
func (a *ColorAttribute) SetColor(i int, c [4]float32) {
	if a.Type == ByteColor {
		a.bytes[i] = [4]uint8{
			unorm8(LinearToSRGB(c[0])),
			unorm8(LinearToSRGB(c[1])),
			unorm8(LinearToSRGB(c[2])),
			unorm8(c[3]),
		}
		return
	}
	a.floats[i] = c
}

func (a *ColorAttribute) Fill(c [4]float32) {
	for i := 0; i < a.Len(); i++ {
		a.SetColor(i, c)
	}
}

func (a *ColorAttribute) Append(c [4]float32) {
	if a.Type == ByteColor {
		a.bytes = append(a.bytes, [4]uint8{})
	} else {
		a.floats = append(a.floats, [4]float32{})
	}
	a.SetColor(a.Len()-1, c)
}

func (a *ColorAttribute) swap(i, j int) {
	if a.Type == ByteColor {
		a.bytes[i], a.bytes[j] = a.bytes[j], a.bytes[i]
	} else {
		a.floats[i], a.floats[j] = a.floats[j], a.floats[i]
	}
}

func LinearToSRGB(v float32) float32 {
	if v <= 0.0031308 {
		if v < 0 {
			return 0
		}
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

func SRGBToLinear(v float32) float32 {
	if v <= 0.04045 {
		if v < 0 {
			return 0
		}
		return v / 12.92
	}
	return float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
}

func unorm8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
