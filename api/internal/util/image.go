package util

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
)

// MaxPixels caps the size of images sent to the vision model.
const MaxPixels = 18_000_000

// NormalizeImage декодирует JPEG/PNG/GIF, уменьшает слишком большие
// картинки и перекодирует в PNG.
func NormalizeImage(b []byte) ([]byte, error) {
	img, err := decodeImage(b)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if total := w * h; total > MaxPixels {
		scale := math.Sqrt(float64(MaxPixels) / float64(total))
		newW := max(int(float64(w)*scale+0.5), 1)
		newH := max(int(float64(h)*scale+0.5), 1)
		img = scaleDownNN(img, newW, newH)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func decodeImage(b []byte) (image.Image, error) {
	switch SniffMimeHTTP(b) {
	case "image/jpeg":
		return jpeg.Decode(bytes.NewReader(b))
	case "image/png":
		return png.Decode(bytes.NewReader(b))
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}

func scaleDownNN(src image.Image, newW, newH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	sb := src.Bounds()
	srcW := sb.Dx()
	srcH := sb.Dy()
	for y := 0; y < newH; y++ {
		sy := sb.Min.Y + (y*srcH)/newH
		for x := 0; x < newW; x++ {
			sx := sb.Min.X + (x*srcW)/newW
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
