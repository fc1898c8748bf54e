package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidMascot(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 255
		img.Pix[i+3] = 255
	}
	return img
}

func TestMascotSkipsWideMouth(t *testing.T) {
	b := NewGraphBackend(solidMascot(8, 8)).(*graphBackend)
	frame := gradientFrame(100, 100)
	want := gradientFrame(100, 100)

	// Mouth box wider than tall: treated as closed, no composite.
	face := FaceRegion{
		Bounds: Rect{X: 0.3, Y: 0.3, Width: 0.4, Height: 0.4},
		Landmarks: map[Landmark][]Point{
			LandmarkInnerLips: {
				{X: 0.4, Y: 0.6}, {X: 0.6, Y: 0.6}, {X: 0.6, Y: 0.62}, {X: 0.4, Y: 0.62},
			},
		},
	}
	out := b.Process(frame, []FaceRegion{face}, Settings{Mascot: true}, 0)
	require.True(t, pixEqual(want, out))
}

func TestMascotCompositesTallMouth(t *testing.T) {
	b := NewGraphBackend(solidMascot(8, 8)).(*graphBackend)
	frame := gradientFrame(100, 100)

	// Mouth box taller than wide: open, composite scaled to mouth width.
	face := FaceRegion{
		Bounds: Rect{X: 0.3, Y: 0.3, Width: 0.4, Height: 0.4},
		Landmarks: map[Landmark][]Point{
			LandmarkInnerLips: {
				{X: 0.45, Y: 0.5}, {X: 0.55, Y: 0.5}, {X: 0.55, Y: 0.7}, {X: 0.45, Y: 0.7},
			},
		},
	}
	out := b.Process(frame, []FaceRegion{face}, Settings{Mascot: true}, 0)
	require.False(t, pixEqual(gradientFrame(100, 100), out))

	// The mouth center pixel is covered by the opaque red mascot.
	i := out.PixOffset(50, 60)
	require.Equal(t, uint8(255), out.Pix[i])
}

func TestMascotWithoutLipsIsPassthrough(t *testing.T) {
	b := NewGraphBackend(solidMascot(8, 8)).(*graphBackend)
	frame := gradientFrame(100, 100)
	face := FaceRegion{Bounds: Rect{X: 0.3, Y: 0.3, Width: 0.4, Height: 0.4}}

	out := b.Process(frame, []FaceRegion{face}, Settings{Mascot: true}, 0)
	require.True(t, pixEqual(gradientFrame(100, 100), out))
}

func TestCropPreservesExtent(t *testing.T) {
	frame := gradientFrame(120, 90)
	out := cropZoom(frame)

	require.Equal(t, 120, out.Bounds().Dx())
	require.Equal(t, 90, out.Bounds().Dy())
	require.False(t, pixEqual(frame, out))
}

func TestGraphWarpIsLocalized(t *testing.T) {
	b := NewGraphBackend(nil)
	frame := gradientFrame(100, 100)
	s := Settings{Beautify: true, ShapeScale: 0.5, ShapeRadius: 0.4}

	out := b.Process(frame, []FaceRegion{centeredFace()}, s, 0)
	require.False(t, pixEqual(gradientFrame(100, 100), out))

	// Far corners sit outside the warp radius and stay untouched.
	ref := gradientFrame(100, 100)
	for _, p := range []image.Point{{1, 1}, {98, 1}, {1, 98}, {98, 98}} {
		i := out.PixOffset(p.X, p.Y)
		j := ref.PixOffset(p.X, p.Y)
		require.Equal(t, ref.Pix[j:j+4], out.Pix[i:i+4], "corner %v must be untouched", p)
	}
}

func TestGraphWarpIgnoresFadeValue(t *testing.T) {
	// The graph path applies the raw shape scale with no fade smoothing.
	s := Settings{Beautify: true, ShapeScale: 0.5, ShapeRadius: 0.4}
	faces := []FaceRegion{centeredFace()}

	a := NewGraphBackend(nil).Process(gradientFrame(100, 100), faces, s, 0.01)
	b := NewGraphBackend(nil).Process(gradientFrame(100, 100), faces, s, 1.0)
	require.True(t, pixEqual(a, b))
}

func TestColorAdjustGlobalWithoutDetector(t *testing.T) {
	b := NewGraphBackend(nil)
	frame := gradientFrame(60, 60)
	s := Settings{ColorAdjust: true, Brightness: 30}

	// nil detections: no detector this frame, the adjustment stays
	// global instead of being masked to faces.
	out := b.Process(frame, nil, s, 0)
	require.False(t, pixEqual(gradientFrame(60, 60), out))

	i := out.PixOffset(30, 30)
	j := frame.PixOffset(30, 30)
	require.Greater(t, out.Pix[i], frame.Pix[j], "brightness must raise pixel values")
}

func TestColorAdjustRevertsWithEmptyDetections(t *testing.T) {
	b := NewGraphBackend(nil)
	frame := gradientFrame(60, 60)
	s := Settings{ColorAdjust: true, Brightness: 30}

	// Detector ran, found nothing, and there is no previous detection to
	// fall back on: the mask is empty and the frame reverts to the
	// original.
	out := b.Process(frame, []FaceRegion{}, s, 0)
	require.True(t, pixEqual(gradientFrame(60, 60), out))
}

func TestColorAdjustMaskedToFace(t *testing.T) {
	b := NewGraphBackend(nil)
	frame := gradientFrame(100, 100)
	s := Settings{ColorAdjust: true, Brightness: 40}

	out := b.Process(frame, []FaceRegion{centeredFace()}, s, 0)
	ref := gradientFrame(100, 100)

	// Face center adjusted, far corner untouched.
	ci := out.PixOffset(50, 50)
	cj := ref.PixOffset(50, 50)
	require.NotEqual(t, ref.Pix[cj:cj+3], out.Pix[ci:ci+3])

	ki := out.PixOffset(1, 1)
	kj := ref.PixOffset(1, 1)
	require.Equal(t, ref.Pix[kj:kj+4], out.Pix[ki:ki+4])
}

func TestMeshDrawsFixedColor(t *testing.T) {
	b := NewGraphBackend(nil)
	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}

	out := b.Process(frame, []FaceRegion{centeredFace()}, Settings{Mesh: true}, 0)
	require.False(t, pixEqual(frame, out))

	// Some stroked pixel carries the green-dominant mesh color.
	found := false
	for i := 0; i < len(out.Pix) && !found; i += 4 {
		c := color.RGBA{R: out.Pix[i], G: out.Pix[i+1], B: out.Pix[i+2]}
		if c.G > 100 && c.G > c.B && c.B > c.R {
			found = true
		}
	}
	require.True(t, found, "mesh stroke not found")
}

func TestMeshWithoutLandmarksIsPassthrough(t *testing.T) {
	b := NewGraphBackend(nil)
	frame := gradientFrame(50, 50)
	face := FaceRegion{Bounds: Rect{X: 0.2, Y: 0.2, Width: 0.5, Height: 0.5}}

	out := b.Process(frame, []FaceRegion{face}, Settings{Mesh: true}, 0)
	require.True(t, pixEqual(gradientFrame(50, 50), out))
}
