package effects

import "image"

// bulge applies a localized radial distortion to src, centered at (cx, cy)
// in pixels with the given radius. Positive scale bulges outward, negative
// pinches inward. Pixels outside the radius are copied unchanged; samples
// falling outside the frame clamp to the edge. Returns a new buffer.
func bulge(src *image.RGBA, cx, cy, radius, scale float64) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	copy(dst.Pix, src.Pix)

	if radius <= 0 || scale == 0 {
		return dst
	}

	x0 := clampInt(int(cx-radius), b.Min.X, b.Max.X)
	x1 := clampInt(int(cx+radius)+1, b.Min.X, b.Max.X)
	y0 := clampInt(int(cy-radius), b.Min.Y, b.Max.Y)
	y1 := clampInt(int(cy+radius)+1, b.Min.Y, b.Max.Y)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist := dx*dx + dy*dy
			if dist >= radius*radius {
				continue
			}
			// Smooth falloff: full displacement at the center, zero at
			// the rim, continuous at the boundary.
			d := 1 - dist/(radius*radius)
			f := 1 - scale*d*d
			sx := cx + dx*f
			sy := cy + dy*f
			r, g, bb, a := sampleBilinear(src, sx, sy)
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = bb
			dst.Pix[i+3] = a
		}
	}
	return dst
}

// sampleBilinear samples src at a fractional position, clamping to the
// frame edge.
func sampleBilinear(src *image.RGBA, x, y float64) (r, g, b, a uint8) {
	bounds := src.Bounds()
	maxX := float64(bounds.Max.X - 1)
	maxY := float64(bounds.Max.Y - 1)
	x = clampFloat(x, float64(bounds.Min.X), maxX)
	y = clampFloat(y, float64(bounds.Min.Y), maxY)

	ix, iy := int(x), int(y)
	fx, fy := x-float64(ix), y-float64(iy)
	ix2 := clampInt(ix+1, bounds.Min.X, bounds.Max.X-1)
	iy2 := clampInt(iy+1, bounds.Min.Y, bounds.Max.Y-1)

	i00 := src.PixOffset(ix, iy)
	i10 := src.PixOffset(ix2, iy)
	i01 := src.PixOffset(ix, iy2)
	i11 := src.PixOffset(ix2, iy2)

	lerp2 := func(c int) uint8 {
		top := float64(src.Pix[i00+c])*(1-fx) + float64(src.Pix[i10+c])*fx
		bot := float64(src.Pix[i01+c])*(1-fx) + float64(src.Pix[i11+c])*fx
		return uint8(top*(1-fy) + bot*fy)
	}
	return lerp2(0), lerp2(1), lerp2(2), lerp2(3)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
