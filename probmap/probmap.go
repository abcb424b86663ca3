// Package probmap builds the density field described by the configuration,
// either from a probability-map image on disk or from procedural noise.
package probmap

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pthm-cable/pinning/config"
	"github.com/pthm-cable/pinning/density"
)

// Build returns the field selected by cfg.Field.
func Build(cfg *config.Config) (density.Field, error) {
	switch cfg.Field.Source {
	case config.SourceImage:
		return FromImageFile(cfg.Field.Image, cfg.Field.Channel, cfg.Field.MaxSize)
	case config.SourceNoise:
		return density.NewNoiseField(NoiseParams(cfg.Field.Noise))
	}
	return nil, fmt.Errorf("probmap: unknown source %q", cfg.Field.Source)
}

// NoiseParams converts the noise config section.
func NoiseParams(c config.NoiseConfig) density.NoiseParams {
	return density.NoiseParams{
		Width:      c.Width,
		Height:     c.Height,
		Scale:      c.Scale,
		Octaves:    c.Octaves,
		Lacunarity: c.Lacunarity,
		Gain:       c.Gain,
		Contrast:   c.Contrast,
		Seed:       c.Seed,
	}
}

// LoadImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening probability map: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding probability map %s: %w", path, err)
	}
	slog.Debug("probability map loaded", "path", path, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

// FromImageFile loads path, shrinks it to maxSize and wraps the chosen channel.
func FromImageFile(path, channel string, maxSize int) (*density.ImageField, error) {
	ch, err := density.ParseChannel(channel)
	if err != nil {
		return nil, err
	}
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return density.NewImageField(density.Downsample(img, maxSize), ch)
}
