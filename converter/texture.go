package converter

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/blezek/tga"
	_ "github.com/oov/psd"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	_ "golang.org/x/image/bmp"
)

type textureCache struct {
	src    *gltf.Document
	srcDir string
	images map[uint32]*textureInfo
}

type textureInfo struct {
	img image.Image
	err error
}

func newTextureCache(src *gltf.Document, srcDir string) *textureCache {
	return &textureCache{src: src, srcDir: srcDir, images: map[uint32]*textureInfo{}}
}

// baseColor decodes the image behind texture texIndex. Results are cached per image.
func (c *textureCache) baseColor(texIndex uint32) (image.Image, error) {
	if int(texIndex) >= len(c.src.Textures) {
		return nil, errors.Errorf("texture %d: out of range", texIndex)
	}
	tex := c.src.Textures[texIndex]
	if tex.Source == nil {
		return nil, errors.Errorf("texture %d: no source image", texIndex)
	}
	return c.getImage(*tex.Source)
}

func (c *textureCache) getImage(index uint32) (image.Image, error) {
	if t, ok := c.images[index]; ok {
		return t.img, t.err
	}
	t := &textureInfo{}
	c.images[index] = t
	if int(index) >= len(c.src.Images) {
		t.err = errors.Errorf("image %d: out of range", index)
		return nil, t.err
	}
	img := c.src.Images[index]

	data, err := c.imageData(img)
	if err != nil {
		t.err = errors.Wrapf(err, "image %d", index)
		return nil, t.err
	}
	t.img, t.err = decodeImage(data, img.URI)
	if t.err != nil {
		t.err = errors.Wrapf(t.err, "image %d", index)
	}
	return t.img, t.err
}

func (c *textureCache) imageData(img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		if int(*img.BufferView) >= len(c.src.BufferViews) {
			return nil, errors.Errorf("buffer view %d: out of range", *img.BufferView)
		}
		bv := c.src.BufferViews[*img.BufferView]
		if int(bv.Buffer) >= len(c.src.Buffers) {
			return nil, errors.Errorf("buffer %d: out of range", bv.Buffer)
		}
		buf := c.src.Buffers[bv.Buffer].Data
		end := bv.ByteOffset + bv.ByteLength
		if int(end) > len(buf) {
			return nil, errors.Errorf("buffer view %d: exceeds buffer", *img.BufferView)
		}
		return buf[bv.ByteOffset:end], nil
	}
	if img.IsEmbeddedResource() {
		return img.MarshalData()
	}
	if img.URI == "" {
		return nil, errors.New("image has no data")
	}
	name, err := url.PathUnescape(img.URI)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(c.srcDir, filepath.FromSlash(name)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func decodeImage(data []byte, name string) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil && strings.ToLower(filepath.Ext(name)) == ".tga" {
		// retry
		img, err = tga.Decode(bytes.NewReader(data))
	}
	return img, err
}
