package effects

import "image"

// surfaceBackend is the fast path: a reduced chain (shape warp, skin
// smoothing, crop) running tight pixel loops over buffers that stay
// resident between frames, avoiding the per-stage allocations of the
// general graph path. Skin smoothing only exists here; the general
// compositing stages only exist on the graph path.
//
// Unlike the graph path, the shape warp magnitude is scaled by the fade
// value so the distortion ramps smoothly with detection presence.
type surfaceBackend struct {
	memory  detectionMemory
	scratch *image.RGBA
	blur    blurScratch
}

// NewSurfaceBackend creates the fast backend.
func NewSurfaceBackend() Backend {
	return &surfaceBackend{}
}

func (b *surfaceBackend) Name() string { return "surface" }

func (b *surfaceBackend) Process(frame *image.RGBA, faces []FaceRegion, s Settings, fade float64) *image.RGBA {
	effective, _ := b.memory.resolve(faces)

	out := frame

	// Shape warp, fade-scaled. Runs off the last known detections during
	// a detection gap so a single-frame dropout doesn't snap the warp off.
	if s.Beautify && s.ShapeScale != 0 && fade > 0 {
		scale := s.ShapeScale * fade
		for _, face := range effective {
			out = warpFace(out, face, s, scale)
		}
	}

	// Skin smoothing, surface-path exclusive.
	if s.Beautify && s.SmoothAmount > 0 && len(effective) > 0 {
		if out == frame {
			out = cloneRGBA(frame)
		}
		for _, face := range effective {
			smoothFace(out, face, s.SmoothAmount, s.SmoothRadius, &b.blur)
		}
	}

	if s.Crop {
		out = b.cropZoomResident(out)
	}

	if out == frame {
		return frame
	}
	return out
}

// cropZoomResident rescales the centered 0.8 crop back to the full extent
// using a bilinear loop into a scratch buffer that is reused across
// frames. Output ownership transfers downstream each frame, so the buffer
// is only reused once the previous frame has been consumed.
func (b *surfaceBackend) cropZoomResident(frame *image.RGBA) *image.RGBA {
	bounds := frame.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 2 || h < 2 {
		return frame
	}

	if b.scratch == nil || b.scratch.Bounds() != bounds {
		b.scratch = image.NewRGBA(bounds)
	}
	dst := b.scratch

	cw := float64(w) * cropFraction
	ch := float64(h) * cropFraction
	ox := (float64(w) - cw) / 2
	oy := (float64(h) - ch) / 2

	for y := 0; y < h; y++ {
		sy := oy + float64(y)/float64(h)*ch
		for x := 0; x < w; x++ {
			sx := ox + float64(x)/float64(w)*cw
			r, g, bb, a := sampleBilinear(frame, sx, sy)
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = bb
			dst.Pix[i+3] = a
		}
	}
	return dst
}
