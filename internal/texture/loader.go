// Package texture resolves texture images out of an opened asset archive.
// Zone textures are stored as BMP files, character and effect textures
// occasionally as TGA or JPEG; all decode to NRGBA for the consumer.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"strings"
	"sync"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"

	"eq-zone-loader/internal/pfs"
)

// Resolver loads textures by the names mesh texture slots carry.
type Resolver interface {
	Resolve(name string) (*image.NRGBA, error)
}

// ArchiveResolver resolves textures from a single archive, caching decoded
// images. Safe for concurrent use.
type ArchiveResolver struct {
	archive *pfs.Archive

	mu    sync.Mutex
	cache map[string]*image.NRGBA
}

// NewArchiveResolver wraps an opened archive.
func NewArchiveResolver(a *pfs.Archive) *ArchiveResolver {
	return &ArchiveResolver{
		archive: a,
		cache:   make(map[string]*image.NRGBA),
	}
}

// Resolve returns the named texture. Names are matched case-insensitively,
// the way mesh texture slots reference them.
func (ar *ArchiveResolver) Resolve(name string) (*image.NRGBA, error) {
	key := strings.ToLower(name)

	ar.mu.Lock()
	img, ok := ar.cache[key]
	ar.mu.Unlock()
	if ok {
		return img, nil
	}

	raw, err := ar.archive.Get(key)
	if err != nil {
		return nil, err
	}
	img, err = Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", name, err)
	}

	ar.mu.Lock()
	ar.cache[key] = img
	ar.mu.Unlock()
	return img, nil
}

// Decode decodes an in-memory texture file (BMP, TGA or JPEG) to NRGBA.
func Decode(raw []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// No alpha channel in the source.
		draw.Draw(dst, b, src, b.Min, draw.Src)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Pix[dst.PixOffset(x, y)+3] = 255
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				i := dst.PixOffset(x, y)
				dst.Pix[i] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				dst.Pix[i+3] = c.A
			}
		}
	}
	return dst
}
