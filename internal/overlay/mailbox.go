package overlay

import (
	"image"
	"sync"
)

// mailbox is a single-slot, overwrite-on-write handoff between the
// background rasterizer and the frame thread. Publishing replaces any
// unconsumed image; taking never blocks and returns nil when nothing new
// has completed. At worst the frame thread shows a stale overlay for a few
// frames; it never waits for a render.
type mailbox struct {
	mu    sync.Mutex
	img   *image.RGBA
	fresh bool
}

// publish stores the latest completed render, replacing any unconsumed one.
func (m *mailbox) publish(img *image.RGBA) {
	m.mu.Lock()
	m.img = img
	m.fresh = true
	m.mu.Unlock()
}

// take returns the newest published image and whether it was fresh since
// the last take. The image itself remains available to later takes so a
// slow renderer doesn't blank the overlay.
func (m *mailbox) take() (*image.RGBA, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := m.fresh
	m.fresh = false
	return m.img, fresh
}
