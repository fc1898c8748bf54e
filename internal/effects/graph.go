package effects

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/kmswan/glowcast/internal/logger"
)

// meshColor is the fixed landmark mesh visualization color.
var meshColor = color.NRGBA{R: 80, G: 255, B: 120, A: 255}

// graphBackend is the general filter-graph path. It implements the full
// canonical chain: color adjust, blur, face-masked compositing, mascot,
// shape warp, landmark mesh, crop. Skin smoothing has no implementation
// here; that stage only exists on the surface path.
type graphBackend struct {
	mascot image.Image
	memory detectionMemory
}

// NewGraphBackend creates the general backend. mascot may be nil, in which
// case the mascot stage passes through.
func NewGraphBackend(mascot image.Image) Backend {
	return &graphBackend{mascot: mascot}
}

func (b *graphBackend) Name() string { return "graph" }

// Process runs the canonical operation chain. Every stage is optional and
// independently toggled; a stage whose precondition data is absent is a
// passthrough, never an error.
func (b *graphBackend) Process(frame *image.RGBA, faces []FaceRegion, s Settings, fade float64) *image.RGBA {
	effective, present := b.memory.resolve(faces)
	w := frame.Bounds().Dx()
	h := frame.Bounds().Dy()

	out := frame

	// Stages 1+2: whole-frame color adjust and blur.
	var adjusted image.Image
	if s.ColorAdjust {
		adjusted = imaging.AdjustBrightness(out, s.Brightness)
		adjusted = imaging.AdjustContrast(adjusted, s.Contrast)
		adjusted = imaging.AdjustSaturation(adjusted, s.Saturation)
	}
	if s.Blur {
		src := adjusted
		if src == nil {
			src = out
		}
		adjusted = imaging.Blur(src, float64(w)/50)
	}

	// Stage 3: confine color/blur to face regions through a feathered
	// radial mask. Without a detector this frame the adjustments stay
	// global; with a detector but no faces the mask is empty and the
	// frame reverts to the original.
	if adjusted != nil {
		processed := toRGBA(adjusted)
		if !present {
			out = processed
		} else {
			mask := faceMask(w, h, effective)
			out = blendMasked(out, processed, mask)
		}
	}

	// Stage 4: mascot overlay on open mouths.
	if s.Mascot && b.mascot != nil {
		out = b.overlayMascots(out, effective)
	}

	// Stage 5: shape warp, raw magnitude. The graph path has no fade
	// smoothing; that asymmetry with the surface path is intentional.
	if s.Beautify && s.ShapeScale != 0 {
		for _, face := range effective {
			out = warpFace(out, face, s, s.ShapeScale)
		}
	}

	// Stage 6: landmark mesh debug overlay.
	if s.Mesh && len(effective) > 0 {
		out = drawMesh(out, effective)
	}

	// Stage 7: crop/zoom, whole frame, always last.
	if s.Crop {
		out = cropZoom(out)
	}

	if out == frame {
		return frame
	}
	return out
}

// overlayMascots composites the mascot image over every face whose
// inner-lips landmark box is taller than wide. A wide, flat mouth box is
// treated as "not open" and skipped.
func (b *graphBackend) overlayMascots(frame *image.RGBA, faces []FaceRegion) *image.RGBA {
	w := frame.Bounds().Dx()
	h := frame.Bounds().Dy()
	out := frame

	for _, face := range faces {
		lips := face.Region(LandmarkInnerLips)
		if len(lips) == 0 {
			continue
		}
		box := pointsBox(lips, w, h)
		diffX := box.Dx()
		diffY := box.Dy()
		if diffY <= diffX || diffX <= 0 {
			continue
		}
		scaled := imaging.Resize(b.mascot, diffX, 0, imaging.Lanczos)
		if out == frame {
			out = cloneRGBA(frame)
		}
		x := box.Min.X + diffX/2 - scaled.Bounds().Dx()/2
		y := box.Min.Y + diffY/2 - scaled.Bounds().Dy()/2
		compositeOver(out, scaled, x, y)
	}
	return out
}

// compositeOver alpha-composites src over dst at (x, y), clipping to the
// dst extent.
func compositeOver(dst *image.RGBA, src image.Image, x, y int) {
	sb := src.Bounds()
	db := dst.Bounds()
	for sy := sb.Min.Y; sy < sb.Max.Y; sy++ {
		dy := y + sy - sb.Min.Y
		if dy < db.Min.Y || dy >= db.Max.Y {
			continue
		}
		for sx := sb.Min.X; sx < sb.Max.X; sx++ {
			dx := x + sx - sb.Min.X
			if dx < db.Min.X || dx >= db.Max.X {
				continue
			}
			sr, sg, sbb, sa := src.At(sx, sy).RGBA()
			if sa == 0 {
				continue
			}
			i := dst.PixOffset(dx, dy)
			a := sa >> 8
			dst.Pix[i+0] = uint8((sr>>8)*a/255 + uint32(dst.Pix[i+0])*(255-a)/255)
			dst.Pix[i+1] = uint8((sg>>8)*a/255 + uint32(dst.Pix[i+1])*(255-a)/255)
			dst.Pix[i+2] = uint8((sbb>>8)*a/255 + uint32(dst.Pix[i+2])*(255-a)/255)
			dst.Pix[i+3] = uint8(a + uint32(dst.Pix[i+3])*(255-a)/255)
		}
	}
}

// drawMesh draws line segments connecting consecutive points of each named
// landmark region. Closed regions wrap last to first; open regions do not.
func drawMesh(frame *image.RGBA, faces []FaceRegion) *image.RGBA {
	out := cloneRGBA(frame)
	w := float64(out.Bounds().Dx())
	h := float64(out.Bounds().Dy())

	dc := gg.NewContextForRGBA(out)
	dc.SetColor(meshColor)
	dc.SetLineWidth(1.5)
	for _, face := range faces {
		for name, pts := range face.Landmarks {
			if len(pts) < 2 {
				continue
			}
			dc.MoveTo(pts[0].X*w, pts[0].Y*h)
			for _, p := range pts[1:] {
				dc.LineTo(p.X*w, p.Y*h)
			}
			if name.Closed() {
				dc.ClosePath()
			}
			dc.Stroke()
		}
	}
	return out
}

// cropZoom shrinks the visible frame to a centered 0.8 fraction of its
// extent and rescales it back, producing a subtle zoom without changing
// the output extent.
func cropZoom(frame *image.RGBA) *image.RGBA {
	w := frame.Bounds().Dx()
	h := frame.Bounds().Dy()
	cw := int(float64(w) * cropFraction)
	ch := int(float64(h) * cropFraction)
	if cw < 1 || ch < 1 {
		return frame
	}
	cropped := imaging.CropCenter(frame, cw, ch)
	resized := imaging.Resize(cropped, w, h, imaging.Linear)
	out := toRGBA(resized)
	if out.Bounds().Dx() != w || out.Bounds().Dy() != h {
		logger.WithComponent("effects").Warn().
			Int("want_w", w).Int("got_w", out.Bounds().Dx()).
			Msg("crop stage produced unexpected extent")
	}
	return out
}

// cropFraction is the fixed visible fraction retained by the crop stage.
const cropFraction = 0.8
