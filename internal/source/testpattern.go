package source

import (
	"image"
	"image/color"
)

// TestPattern generates a synthetic moving gradient, useful for bring-up
// and for exercising the pipeline without a capture device.
type TestPattern struct {
	width  int
	height int
	tick   int
}

// NewTestPattern creates a generator of the given extent.
func NewTestPattern(width, height int) *TestPattern {
	return &TestPattern{width: width, height: height}
}

func (t *TestPattern) Name() string { return "test-pattern" }

func (t *TestPattern) Start() error { return nil }

func (t *TestPattern) Stop() error { return nil }

func (t *TestPattern) Next() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	t.tick++
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x + t.tick) % 256),
				G: uint8((y + t.tick/2) % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img, nil
}
