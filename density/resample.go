package density

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Downsample shrinks img so that its longest side is at most maxSize,
// keeping the aspect ratio. Images already within bounds, or maxSize <= 0,
// are returned unchanged.
func Downsample(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}

	scale := float64(maxSize) / float64(max(w, h))
	nw := max(int(float64(w)*scale+0.5), 1)
	nh := max(int(float64(h)*scale+0.5), 1)

	dst := image.NewRGBA64(image.Rect(0, 0, nw, nh))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
