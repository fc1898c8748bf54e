package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

// gradientFrame builds a frame with enough spatial variation that warps,
// crops and blurs produce measurable pixel changes.
func gradientFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			frame.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) * 255 / (w + h)),
				A: 255,
			})
		}
	}
	return frame
}

func pixEqual(a, b *image.RGBA) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			return false
		}
	}
	return true
}

// centeredFace returns a face region in the middle of the frame with the
// full synthetic landmark set.
func centeredFace() FaceRegion {
	return FaceRegion{
		Bounds: Rect{X: 0.3, Y: 0.25, Width: 0.4, Height: 0.5},
		Landmarks: map[Landmark][]Point{
			LandmarkMedianLine: {
				{X: 0.5, Y: 0.3}, {X: 0.5, Y: 0.45}, {X: 0.5, Y: 0.6},
			},
			LandmarkInnerLips: {
				{X: 0.45, Y: 0.6}, {X: 0.5, Y: 0.58}, {X: 0.55, Y: 0.6}, {X: 0.5, Y: 0.62},
			},
		},
	}
}

func TestProcessorAllTogglesOffIsIdentity(t *testing.T) {
	p := NewProcessor(NewStore(Settings{}), 30, nil)
	frame := gradientFrame(64, 48)
	want := gradientFrame(64, 48)

	out, backend := p.ProcessFrame(frame, nil)
	require.Equal(t, "graph", backend)
	require.True(t, pixEqual(want, out), "full passthrough must be pixel-identical")
}

func TestProcessorSelectsSurfaceForCrop(t *testing.T) {
	p := NewProcessor(NewStore(Settings{Crop: true}), 30, nil)
	frame := gradientFrame(64, 48)

	out, backend := p.ProcessFrame(frame, nil)
	require.Equal(t, "surface", backend)
	require.Equal(t, frame.Bounds(), out.Bounds(), "crop is a zoom, not a resize")
	require.False(t, pixEqual(gradientFrame(64, 48), out), "zoomed frame must differ")
}

func TestProcessorSelectsSurfaceForBeautify(t *testing.T) {
	s := Settings{Beautify: true, ShapeScale: 0.3, ShapeRadius: 0.6}
	p := NewProcessor(NewStore(s), 30, nil)

	_, backend := p.ProcessFrame(gradientFrame(64, 48), []FaceRegion{centeredFace()})
	require.Equal(t, "surface", backend)
}

func TestNeedsSurface(t *testing.T) {
	cases := []struct {
		name string
		s    Settings
		want bool
	}{
		{"all off", Settings{}, false},
		{"crop", Settings{Crop: true}, true},
		{"beautify with warp", Settings{Beautify: true, ShapeScale: 0.2}, true},
		{"beautify with smoothing", Settings{Beautify: true, SmoothAmount: 0.5}, true},
		{"beautify zero effect", Settings{Beautify: true}, false},
		{"warp scale without beautify", Settings{ShapeScale: 0.2}, false},
		{"color adjust only", Settings{ColorAdjust: true, Brightness: 10}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NeedsSurface(tc.s))
		})
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewStore(Settings{Brightness: 1})
	snap := store.Snapshot()

	store.Patch(func(s *Settings) { s.Brightness = 99 })
	require.Equal(t, 1.0, snap.Brightness, "snapshot must not observe later writes")
	require.Equal(t, 99.0, store.Snapshot().Brightness)
}

func TestDetectionMemoryDistinguishesNilAndEmpty(t *testing.T) {
	var m detectionMemory

	faces := []FaceRegion{centeredFace()}
	effective, present := m.resolve(faces)
	require.True(t, present)
	require.Len(t, effective, 1)

	// Empty-but-present: detector ran, found nothing; fall back to the
	// last known detections.
	effective, present = m.resolve([]FaceRegion{})
	require.True(t, present)
	require.Len(t, effective, 1, "single-frame gap must reuse last detections")

	// Nil: no detector at all this frame.
	effective, present = m.resolve(nil)
	require.False(t, present)
	require.Nil(t, effective)
}
