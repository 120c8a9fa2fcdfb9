package imaging

import (
	"bytes"
	"errors"
	"image"
	"io"

	// Decoders available to image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gen2brain/webp"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// ContentType is the MIME type of every stored asset.
	ContentType = "image/webp"
	// Extension is appended to every generated key.
	Extension = ".webp"
	// Quality is the lossy WebP quality on the encoder's 0-100 scale.
	Quality = 80
)

var errEmptyImage = errors.New("image has no pixels")

// Encoder writes img to w in the stored format.
type Encoder func(w io.Writer, img image.Image) error

// EncodeWebP is the production Encoder: lossy WebP at Quality.
func EncodeWebP(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, webp.Options{Quality: Quality, Method: 4})
}

func decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", errEmptyImage
	}
	return img, format, nil
}

// raster draws src at native size onto a fresh NRGBA surface whose origin is
// (0, 0). Paletted and YCbCr sources come out as plain RGBA pixels.
func raster(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
