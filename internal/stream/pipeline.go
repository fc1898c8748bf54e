package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmswan/glowcast/internal/detect"
	"github.com/kmswan/glowcast/internal/effects"
	"github.com/kmswan/glowcast/internal/logger"
	"github.com/kmswan/glowcast/internal/output"
	"github.com/kmswan/glowcast/internal/overlay"
	"github.com/kmswan/glowcast/internal/source"
)

// Pipeline is the per-frame loop: tick at the capture rate, pull a frame,
// detect faces, run the effect chain, composite the text overlay, hand the
// result to the output. Everything here runs on one frame thread; settings
// and overlay position mutate concurrently through their own stores.
type Pipeline struct {
	source    source.Source
	detector  *detect.Detector // nil means no detector available
	processor *effects.Processor
	renderer  *overlay.Renderer // nil disables the overlay
	out       output.Output
	fps       int
	log       zerolog.Logger

	frames uint64
}

// New assembles a pipeline. detector and renderer may be nil.
func New(src source.Source, detector *detect.Detector, processor *effects.Processor, renderer *overlay.Renderer, out output.Output, fps int) *Pipeline {
	if fps <= 0 {
		fps = 30
	}
	return &Pipeline{
		source:    src,
		detector:  detector,
		processor: processor,
		renderer:  renderer,
		out:       out,
		fps:       fps,
		log:       *logger.WithComponent("stream"),
	}
}

// Run drives the loop until the context is canceled or the source ends.
// A frame that fails to process is dropped, never a reason to stop: a
// dropped enhancement or frame beats a frozen broadcast.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.source.Start(); err != nil {
		return fmt.Errorf("failed to start source: %w", err)
	}
	defer p.source.Stop()

	ticker := time.NewTicker(time.Second / time.Duration(p.fps))
	defer ticker.Stop()

	p.log.Info().Str("source", p.source.Name()).Int("fps", p.fps).Msg("pipeline running")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Uint64("frames", p.frames).Msg("pipeline stopped")
			return ctx.Err()
		case <-ticker.C:
		}

		frame, err := p.source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				p.log.Info().Uint64("frames", p.frames).Msg("source ended")
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}
		p.frames++

		// nil faces means "no detector this frame"; an empty non-nil
		// slice means the detector ran and found nothing.
		var faces []effects.FaceRegion
		if p.detector != nil {
			faces = p.detector.Detect(frame)
		}

		processed, backend := p.processor.ProcessFrame(frame, faces)

		if p.renderer != nil {
			p.renderer.Composite(backend, processed, time.Now())
		}

		if err := p.out.WriteFrame(processed); err != nil {
			p.log.Debug().Err(err).Msg("frame not delivered")
		}
	}
}

// Frames returns the number of frames processed so far.
func (p *Pipeline) Frames() uint64 { return p.frames }
