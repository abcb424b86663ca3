package probmap

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/pinning/config"
	"github.com/pthm-cable/pinning/density"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prob.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildNoise(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Field.Noise.Width, cfg.Field.Noise.Height = 16, 8

	f, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := f.Size(); w != 16 || h != 8 {
		t.Errorf("size = %dx%d, want 16x8", w, h)
	}
}

func TestBuildImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	path := writePNG(t, img)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Field.Source = config.SourceImage
	cfg.Field.Image = path
	cfg.Field.MaxSize = 4

	f, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := f.Size(); w != 4 || h != 2 {
		t.Errorf("size = %dx%d, want downsampled 4x2", w, h)
	}
	if d := f.Density(0.5, 0.5); d < 0.99 {
		t.Errorf("red density = %v, want ~1", d)
	}

	cfg.Field.Channel = "green"
	f, err = Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d := f.Density(0.5, 0.5); d > 0.01 {
		t.Errorf("green density = %v, want ~0", d)
	}
}

func TestFromImageFileErrors(t *testing.T) {
	if _, err := FromImageFile(filepath.Join(t.TempDir(), "missing.png"), "red", 0); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}

	junk := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(junk, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := FromImageFile(junk, "red", 0); !errors.Is(err, image.ErrFormat) {
		t.Errorf("junk file error = %v, want image.ErrFormat", err)
	}

	path := writePNG(t, image.NewGray(image.Rect(0, 0, 2, 2)))
	if _, err := FromImageFile(path, "purple", 0); err == nil {
		t.Error("expected error for unknown channel")
	}

	f, err := FromImageFile(path, "luminance", 0)
	if err != nil {
		t.Fatal(err)
	}
	var _ density.Field = f
}
