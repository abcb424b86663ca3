package density

import (
	"fmt"
	"image"
	"image/color"
)

// Channel selects which component of an image encodes density.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
	Alpha
	Luminance
)

// ParseChannel maps a config name to a Channel.
func ParseChannel(name string) (Channel, error) {
	switch name {
	case "", "r", "red":
		return Red, nil
	case "g", "green":
		return Green, nil
	case "b", "blue":
		return Blue, nil
	case "a", "alpha":
		return Alpha, nil
	case "l", "lum", "luminance":
		return Luminance, nil
	}
	return Red, fmt.Errorf("density: unknown channel %q", name)
}

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Alpha:
		return "alpha"
	case Luminance:
		return "luminance"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// ImageField samples one channel of an image with texel-centred bilinear
// filtering, clamped at the image border. The image is not copied and must
// not change while the field is in use.
type ImageField struct {
	img     image.Image
	bounds  image.Rectangle
	channel Channel
}

// NewImageField wraps img. Pixel values are normalized to [0,1].
func NewImageField(img image.Image, ch Channel) (*ImageField, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidDimensions)
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, fmt.Errorf("%w: %dx%d image", ErrInvalidDimensions, b.Dx(), b.Dy())
	}
	if ch < Red || ch > Luminance {
		return nil, fmt.Errorf("density: unknown channel %d", int(ch))
	}
	return &ImageField{img: img, bounds: b, channel: ch}, nil
}

// Size returns the image dimensions.
func (f *ImageField) Size() (int, int) { return f.bounds.Dx(), f.bounds.Dy() }

// Pixel returns the normalized channel value of the pixel at (ix, iy),
// relative to the image origin.
func (f *ImageField) Pixel(ix, iy int) float64 {
	c := f.img.At(f.bounds.Min.X+ix, f.bounds.Min.Y+iy)
	if f.channel == Luminance {
		return float64(color.Gray16Model.Convert(c).(color.Gray16).Y) / 0xffff
	}
	r, g, b, a := c.RGBA()
	var v uint32
	switch f.channel {
	case Red:
		v = r
	case Green:
		v = g
	case Blue:
		v = b
	default:
		v = a
	}
	return float64(v) / 0xffff
}

// Density samples at (u, v) with pixel centres at ((i+0.5)/w, (j+0.5)/h).
func (f *ImageField) Density(u, v float64) float64 {
	w, h := f.Size()
	x := u*float64(w) - 0.5
	y := v*float64(h) - 0.5

	x0 := floorInt(x)
	y0 := floorInt(y)
	dx := x - float64(x0)
	dy := y - float64(y0)

	ix := clampInt(x0, 0, w-1)
	iy := clampInt(y0, 0, h-1)
	jx := clampInt(x0+1, 0, w-1)
	jy := clampInt(y0+1, 0, h-1)

	return bilinear(f.Pixel(ix, iy), f.Pixel(ix, jy), f.Pixel(jx, iy), f.Pixel(jx, jy), dx, dy)
}
