package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support

	"gallery-streamer/internal/asset"
)

// DefaultJPEGQuality is used for generated thumbnails.
const DefaultJPEGQuality = 85

// Dimensions holds image width and height.
type Dimensions struct {
	Width  int
	Height int
}

// Decode decodes an encoded image, applying EXIF orientation. Failures are
// returned as *asset.DecodeError.
func Decode(data []byte, source string) (image.Image, error) {
	if len(data) == 0 {
		return nil, &asset.DecodeError{Source: source, Err: fmt.Errorf("empty payload")}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &asset.DecodeError{Source: source, Err: err}
	}
	return img, nil
}

// DecodeConfig returns the dimensions of an encoded image without decoding
// its pixels.
func DecodeConfig(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, err
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// FitSize scales (width, height) so the long edge equals target, keeping
// the aspect ratio. Images already within target are returned unchanged.
// Neither result dimension is ever below 1.
func FitSize(width, height, target int) (int, int) {
	if width <= 0 || height <= 0 || target <= 0 {
		return 0, 0
	}
	if width <= target && height <= target {
		return width, height
	}

	var w, h int
	if width >= height {
		w = target
		h = int(float64(height) * float64(target) / float64(width))
	} else {
		h = target
		w = int(float64(width) * float64(target) / float64(height))
	}
	return max(w, 1), max(h, 1)
}

// Thumbnail scales img so its long edge is at most target.
func Thumbnail(img image.Image, target int) image.Image {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), target)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// EncodeJPEG encodes img as JPEG.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// ToPixels returns the image as tightly packed non-premultiplied RGBA. When
// img is already a tightly packed *image.NRGBA its buffer is returned as is.
func ToPixels(img image.Image) ([]byte, int, int) {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Stride == 4*b.Dx() && len(n.Pix) == 4*b.Dx()*b.Dy() {
		return n.Pix, b.Dx(), b.Dy()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix, b.Dx(), b.Dy()
}

// Crop returns the sub-image of img inside r as a new NRGBA image.
func Crop(img image.Image, r image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, r)
}
