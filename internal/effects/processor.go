package effects

import (
	"image"

	"github.com/rs/zerolog"

	"github.com/kmswan/glowcast/internal/logger"
)

// Processor runs the per-frame effect pipeline. It snapshots the parameter
// store once per frame, advances the fade state machine, selects a backend
// from the capability predicate, and hands the frame to it.
//
// ProcessFrame is called from the single capture/processing thread; the
// store absorbs concurrent settings writes from the control thread.
type Processor struct {
	store   *Store
	fader   *Fader
	graph   Backend
	surface Backend
	log     zerolog.Logger
}

// NewProcessor creates a processor for the given capture frame rate.
// mascot may be nil to disable the mascot stage.
func NewProcessor(store *Store, fps float64, mascot image.Image) *Processor {
	return &Processor{
		store:   store,
		fader:   NewFader(fps),
		graph:   NewGraphBackend(mascot),
		surface: NewSurfaceBackend(),
		log:     *logger.WithComponent("effects"),
	}
}

// Store returns the parameter store feeding this processor.
func (p *Processor) Store() *Store {
	return p.store
}

// ProcessFrame applies the effect chain to one frame. faces may be nil (no
// detector this frame), empty (detector found nothing) or populated; see
// Backend. The returned frame has the same extent as the input. Never
// fails: any stage missing its input degrades to a passthrough.
func (p *Processor) ProcessFrame(frame *image.RGBA, faces []FaceRegion) (*image.RGBA, string) {
	s := p.store.Snapshot()
	fade := p.fader.Advance(len(faces) > 0)

	backend := p.graph
	if NeedsSurface(s) {
		backend = p.surface
	}
	out := backend.Process(frame, faces, s, fade)
	if out == nil {
		// A backend returning nothing is a dropped enhancement, not a
		// dropped frame.
		p.log.Debug().Str("backend", backend.Name()).Msg("backend returned no output, passing frame through")
		return frame, backend.Name()
	}
	return out, backend.Name()
}

// Fade exposes the current fade value, mainly for stats reporting.
func (p *Processor) Fade() float64 {
	return p.fader.Value()
}
