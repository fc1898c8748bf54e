package overlay

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range frame.Pix {
		frame.Pix[i] = 40
	}
	return frame
}

func framesEqual(a, b *image.RGBA) bool {
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

func TestMailboxOverwriteAndTake(t *testing.T) {
	var m mailbox

	img, fresh := m.take()
	require.Nil(t, img)
	require.False(t, fresh)

	first := image.NewRGBA(image.Rect(0, 0, 1, 1))
	second := image.NewRGBA(image.Rect(0, 0, 2, 2))
	m.publish(first)
	m.publish(second)

	img, fresh = m.take()
	require.Same(t, second, img, "newer publish must overwrite the unconsumed slot")
	require.True(t, fresh)

	// A repeat take still yields the image, just not fresh, so a slow
	// renderer doesn't blank the overlay.
	img, fresh = m.take()
	require.Same(t, second, img)
	require.False(t, fresh)
}

func TestCompositeBeforeFirstRenderIsPassthrough(t *testing.T) {
	tel := NewTelemetry()
	r := NewRenderer("hello", tel, 2*time.Second, "graph", "surface")
	r.SetPosition(0.1, 0.9)

	frame := newTestFrame(64, 48)
	want := newTestFrame(64, 48)

	// Pin the pipeline as if a render were still in flight: the mailbox
	// stays empty, so the frame passes through untouched and nothing
	// blocks waiting for it.
	r.pipelines["graph"].inflight.Store(true)
	r.Composite("graph", frame, time.Now())
	require.True(t, framesEqual(want, frame))
}

func TestCompositeAdoptsCompletedRender(t *testing.T) {
	tel := NewTelemetry()
	r := NewRenderer("hello", tel, 2*time.Second, "graph")
	r.SetPosition(0.1, 0.9)

	now := time.Now()
	frame := newTestFrame(64, 48)
	r.Composite("graph", frame, now)

	// Wait for the background rasterization to land, then composite.
	require.Eventually(t, func() bool {
		frame := newTestFrame(64, 48)
		r.Composite("graph", frame, now)
		return !framesEqual(newTestFrame(64, 48), frame)
	}, 2*time.Second, 10*time.Millisecond, "overlay never appeared")
}

func TestCompositeUnknownBackendIsNoop(t *testing.T) {
	tel := NewTelemetry()
	r := NewRenderer("hello", tel, time.Second, "graph")

	frame := newTestFrame(32, 32)
	r.Composite("nope", frame, time.Now())
	require.True(t, framesEqual(newTestFrame(32, 32), frame))
}

func TestRendererEmptyTemplateRendersNothing(t *testing.T) {
	tel := NewTelemetry()
	r := NewRenderer("", tel, time.Second, "graph")

	frame := newTestFrame(32, 32)
	for i := 0; i < 3; i++ {
		r.Composite("graph", frame, time.Now().Add(time.Duration(i)*2*time.Second))
	}
	require.True(t, framesEqual(newTestFrame(32, 32), frame))
}

func TestRendererFormatsTelemetry(t *testing.T) {
	tel := NewTelemetry()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tel.Push(Sample{
		Timestamp: t0,
		Date:      t0,
		Speed:     "42",
	})

	r := NewRenderer("{time} {speed}km/h", tel, time.Second, "graph")
	got := r.format(t0.Add(time.Minute))
	require.Equal(t, "12:00:00 42km/h", got)
}

func TestRendererFormatEmptyHistory(t *testing.T) {
	tel := NewTelemetry()
	r := NewRenderer("{speed}|{altitude}", tel, time.Second, "graph")
	require.Equal(t, "|", r.format(time.Now()))
}

func TestCompositeClipsPartiallyOffFrame(t *testing.T) {
	tel := NewTelemetry()
	r := NewRenderer("hello", tel, time.Second, "graph")
	p := r.pipelines["graph"]
	p.inflight.Store(true) // suppress background renders, publish directly

	overlay := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := range overlay.Pix {
		overlay.Pix[i] = 255
	}
	p.box.publish(overlay)

	// Bottom-left anchored near the bottom-right corner of a 64x48 frame:
	// px=45, py=2-10=-8, so only rows 0-1 and columns 45-63 are visible.
	r.SetPosition(0.95, 0.05)
	frame := newTestFrame(64, 48)
	require.NotPanics(t, func() {
		r.Composite("graph", frame, time.Now())
	})

	i := frame.PixOffset(50, 1)
	require.Equal(t, uint8(255), frame.Pix[i], "visible overlay strip must land")
	i = frame.PixOffset(63, 0)
	require.Equal(t, uint8(255), frame.Pix[i], "overlay runs to the frame edge")

	for _, pt := range [][2]int{{44, 0}, {50, 2}, {0, 24}, {63, 47}} {
		i := frame.PixOffset(pt[0], pt[1])
		require.Equal(t, uint8(40), frame.Pix[i], "pixel (%d,%d) outside the overlay must stay", pt[0], pt[1])
	}
}

func TestCompositeFullyOffFrameIsPassthrough(t *testing.T) {
	tel := NewTelemetry()
	r := NewRenderer("hello", tel, time.Second, "graph")
	p := r.pipelines["graph"]
	p.inflight.Store(true)

	overlay := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := range overlay.Pix {
		overlay.Pix[i] = 255
	}
	p.box.publish(overlay)

	frame := newTestFrame(64, 48)
	for _, pos := range [][2]float64{{3.0, 0.5}, {-1.0, 0.5}, {0.5, -0.5}} {
		r.SetPosition(pos[0], pos[1])
		require.NotPanics(t, func() {
			r.Composite("graph", frame, time.Now())
		})
	}
	require.True(t, framesEqual(newTestFrame(64, 48), frame))
}

func TestRasterizeExtent(t *testing.T) {
	img := rasterize("ab\ncdef")
	require.NotNil(t, img)
	require.Equal(t, lineHeight*2+textPadding*2, img.Bounds().Dy())

	require.Nil(t, rasterize(""))
	require.Nil(t, rasterize("   "))
}
