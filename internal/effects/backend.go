package effects

import (
	"image"
	"image/draw"
)

// Backend is one image-filter execution engine. The two implementations
// have partially overlapping capability: the graph backend is the general
// superset, the surface backend is the fast path covering the beautify
// chain and crop on resident buffers.
//
// A Process call is state-free given its arguments, except for the
// backend's private last-known-detections fallback. faces carries a
// three-way distinction: nil means no detector ran this frame
// (face-dependent stages are disabled entirely), empty-but-non-nil means
// the detector ran and found nothing (fall back to the last known
// detections), non-empty is a fresh result.
type Backend interface {
	Name() string
	Process(frame *image.RGBA, faces []FaceRegion, s Settings, fade float64) *image.RGBA
}

// NeedsSurface reports whether the current settings require the surface
// backend this frame: the beautify chain with a nonzero effect, or crop.
// When false the caller can skip the surface entry point entirely.
func NeedsSurface(s Settings) bool {
	if s.Beautify && (s.ShapeScale != 0 || s.SmoothAmount > 0) {
		return true
	}
	return s.Crop
}

// detectionMemory is the per-backend last-known-detections fallback. A
// single-frame detection gap (detector ran, found nothing) reuses the
// previous result so warps don't snap off and on.
type detectionMemory struct {
	last []FaceRegion
}

// resolve returns the effective detections for this frame and whether a
// detector was present at all.
func (m *detectionMemory) resolve(faces []FaceRegion) (effective []FaceRegion, present bool) {
	if faces == nil {
		return nil, false
	}
	if len(faces) > 0 {
		m.last = faces
		return faces, true
	}
	return m.last, true
}

// toRGBA converts any image to *image.RGBA, reusing the input when it
// already is one.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// cloneRGBA returns a copy of the frame.
func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// warpFace applies the shape warp for one face. The distortion is centered
// on the face's vertical midline (mean of the median-line landmark),
// shifted by ShapeOffset and sized by ShapeRadius, both relative to the
// face height. Faces without a median-line landmark pass through.
func warpFace(frame *image.RGBA, face FaceRegion, s Settings, scale float64) *image.RGBA {
	median := face.Region(LandmarkMedianLine)
	if len(median) == 0 || scale == 0 {
		return frame
	}
	w := frame.Bounds().Dx()
	h := frame.Bounds().Dy()

	var cx, cy float64
	for _, p := range median {
		cx += p.X
		cy += p.Y
	}
	cx = cx / float64(len(median)) * float64(w)
	cy = cy / float64(len(median)) * float64(h)

	faceH := face.Bounds.Height * float64(h)
	cy += s.ShapeOffset * faceH
	radius := s.ShapeRadius * faceH
	return bulge(frame, cx, cy, radius, scale)
}
