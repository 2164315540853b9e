// Package bake normalizes mesh objects for export: every mesh gets its object
// transform (plus a fixed turn around Z) applied to its vertices, and meshes
// without vertex colors get a flat color from their material.
package bake

import (
	"fmt"
	"image"
	"strings"

	"github.com/automancy/gltfbake/geom"
	"github.com/automancy/gltfbake/scene"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// DefaultRotationZ is the turn added to every mesh object's Z rotation.
const DefaultRotationZ = -3.1415926536

type Options struct {
	RotationZ   float64
	ColorName   string
	ColorType   scene.ColorType
	ColorDomain scene.Domain
	// Exclude lists object names left untouched.
	Exclude []string
	// TextureTint multiplies the fill color by the mean color of the
	// material's base color texture.
	TextureTint bool
}

func DefaultOptions() *Options {
	return &Options{
		RotationZ:   DefaultRotationZ,
		ColorName:   "Col",
		ColorType:   scene.ByteColor,
		ColorDomain: scene.DomainCorner,
	}
}

type Result struct {
	Object  string
	Baked   bool
	Colored bool
	Skipped string
}

func (r *Result) String() string {
	if r.Skipped != "" {
		return fmt.Sprintf("%s: skipped (%s)", r.Object, r.Skipped)
	}
	return fmt.Sprintf("%s: baked=%v colored=%v", r.Object, r.Baked, r.Colored)
}

type Report struct {
	Results []*Result
}

func (r *Report) Count() (baked, colored, skipped int) {
	for _, res := range r.Results {
		if res.Baked {
			baked++
		}
		if res.Colored {
			colored++
		}
		if res.Skipped != "" {
			skipped++
		}
	}
	return
}

type baker struct {
	*Options
	exclude map[string]bool
}

func newBaker(opts *Options) *baker {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.ColorName == "" {
		opts.ColorName = "Col"
	}
	b := &baker{Options: opts, exclude: map[string]bool{}}
	for _, name := range opts.Exclude {
		if name = strings.TrimSpace(name); name != "" {
			b.exclude[normalizeName(name)] = true
		}
	}
	return b
}

func normalizeName(name string) string {
	return norm.NFC.String(name)
}

// Run deselects the active object, then bakes transforms and colors into
// every mesh object in scene order. The scene's active object is left on the
// last processed mesh.
func Run(s *scene.Scene, opts *Options) (*Report, error) {
	b := newBaker(opts)
	if err := s.DeselectActive(); err != nil {
		return nil, errors.Wrap(err, "deselect active object")
	}

	report := &Report{}
	for _, obj := range s.MeshObjects() {
		res := &Result{Object: obj.Name}
		report.Results = append(report.Results, res)
		if b.exclude[normalizeName(obj.Name)] {
			res.Skipped = "excluded"
			continue
		}
		if obj.Mesh == nil {
			res.Skipped = "no mesh data"
			continue
		}

		if err := b.applyTransform(s, obj); err != nil {
			return report, errors.Wrapf(err, "bake %q", obj.Name)
		}
		res.Baked = true

		colored, err := b.assignColor(obj)
		if err != nil {
			return report, errors.Wrapf(err, "color %q", obj.Name)
		}
		res.Colored = colored
	}
	return report, nil
}

func (b *baker) applyTransform(s *scene.Scene, obj *scene.Object) error {
	obj.Rotation.Z += geom.Element(b.RotationZ)

	s.SetActive(obj)
	if err := s.SetMode(scene.ModeEdit); err != nil {
		return err
	}
	edit, err := obj.EditSession()
	if err != nil {
		return err
	}
	edit.SelectAll()

	matrix := obj.MatrixBasis().Clone()
	obj.ResetTransform()
	edit.Transform(matrix, edit.SelectedVerts())

	edit.Update()
	return s.SetMode(scene.ModeObject)
}

func (b *baker) assignColor(obj *scene.Object) (bool, error) {
	mat := obj.ActiveMaterial()
	if obj.Mesh.HasColorAttributes() || mat == nil {
		return false, nil
	}
	attr, err := obj.Mesh.NewColorAttribute(b.ColorName, b.ColorType, b.ColorDomain)
	if err != nil {
		return false, err
	}
	color := mat.DiffuseColor
	if b.TextureTint && mat.BaseColorTexture != nil {
		color = tint(color, MeanColor(mat.BaseColorTexture))
	}
	attr.Fill(color)
	return true, nil
}

func tint(c, t [4]float32) [4]float32 {
	return [4]float32{c[0] * t[0], c[1] * t[1], c[2] * t[2], c[3] * t[3]}
}

// MeanColor averages all pixels of img in linear space.
func MeanColor(img image.Image) [4]float32 {
	rect := img.Bounds()
	if rect.Empty() {
		return [4]float32{1, 1, 1, 1}
	}
	var sum [4]float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			// un-premultiply before leaving sRGB, then weight by alpha
			w := float64(a) / 0xffff
			sum[0] += float64(scene.SRGBToLinear(float32(r)/float32(a))) * w
			sum[1] += float64(scene.SRGBToLinear(float32(g)/float32(a))) * w
			sum[2] += float64(scene.SRGBToLinear(float32(b)/float32(a))) * w
			sum[3] += w
		}
	}
	n := float64(rect.Dx() * rect.Dy())
	opaque := sum[3]
	if opaque == 0 {
		return [4]float32{0, 0, 0, 0}
	}
	return [4]float32{
		float32(sum[0] / opaque),
		float32(sum[1] / opaque),
		float32(sum[2] / opaque),
		float32(sum[3] / n),
	}
}
