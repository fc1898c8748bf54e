package effects

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// faceMask rasterizes a soft radial mask covering every detected face:
// fully opaque out to half the face height, feathering to transparent at
// the full face height, centered on the face bounding box.
func faceMask(w, h int, faces []FaceRegion) *image.RGBA {
	dc := gg.NewContext(w, h)
	for _, face := range faces {
		px := face.Bounds.Pixels(w, h)
		cx := float64(px.Min.X+px.Max.X) / 2
		cy := float64(px.Min.Y+px.Max.Y) / 2
		faceH := face.Bounds.Height * float64(h)
		if faceH <= 0 {
			continue
		}
		grad := gg.NewRadialGradient(cx, cy, faceH/2, cx, cy, faceH)
		grad.AddColorStop(0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		grad.AddColorStop(1, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
		dc.SetFillStyle(grad)
		dc.DrawCircle(cx, cy, faceH)
		dc.Fill()
	}
	return toRGBA(dc.Image())
}

// blendMasked composites processed over orig using the mask's alpha
// channel: alpha 255 takes the processed pixel, alpha 0 keeps the
// original, with linear interpolation between.
func blendMasked(orig, processed, mask *image.RGBA) *image.RGBA {
	out := cloneRGBA(orig)
	n := len(out.Pix)
	for i := 0; i+3 < n; i += 4 {
		a := uint32(mask.Pix[i+3])
		if a == 0 {
			continue
		}
		for c := 0; c < 4; c++ {
			o := uint32(orig.Pix[i+c])
			p := uint32(processed.Pix[i+c])
			out.Pix[i+c] = uint8((o*(255-a) + p*a) / 255)
		}
	}
	return out
}
