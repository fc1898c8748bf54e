package effects

import "image"

// blurScratch holds the rect-sized channel buffers reused by the skin
// smoothing blur across faces and frames, grown on demand.
type blurScratch struct {
	tmp []uint8
	out []uint8
}

func (s *blurScratch) grow(n int) {
	if cap(s.tmp) < n {
		s.tmp = make([]uint8, n)
		s.out = make([]uint8, n)
		return
	}
	s.tmp = s.tmp[:n]
	s.out = s.out[:n]
}

// smoothFace applies skin smoothing to one face: a box blur of the face
// bounding region blended back with a radial feather, so the smoothing
// fades out toward the face boundary instead of ending at a hard rectangle.
// amount in [0,1] scales the blend; radius is relative to the face height.
func smoothFace(frame *image.RGBA, face FaceRegion, amount, radius float64, scratch *blurScratch) {
	if amount <= 0 {
		return
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	px := face.Bounds.Pixels(w, h).Intersect(b)
	if px.Empty() {
		return
	}

	faceH := face.Bounds.Height * float64(h)
	blurPx := int(radius * faceH)
	if blurPx < 1 {
		blurPx = 1
	}

	blurred, stride := boxBlurRect(frame, px, blurPx, scratch)

	cx := float64(px.Min.X+px.Max.X) / 2
	cy := float64(px.Min.Y+px.Max.Y) / 2
	featherR := faceH / 2

	for y := px.Min.Y; y < px.Max.Y; y++ {
		for x := px.Min.X; x < px.Max.X; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist := dx*dx + dy*dy
			t := amount
			if featherR > 0 {
				fall := 1 - dist/(featherR*featherR)
				if fall <= 0 {
					continue
				}
				if fall < 1 {
					t *= fall
				}
			}
			i := frame.PixOffset(x, y)
			j := (y-px.Min.Y)*stride + (x-px.Min.X)*3
			for c := 0; c < 3; c++ {
				o := float64(frame.Pix[i+c])
				bl := float64(blurred[j+c])
				frame.Pix[i+c] = uint8(o + (bl-o)*t)
			}
		}
	}
}

// boxBlurRect box-blurs the given rect of src with the given radius into the
// scratch buffers, reused across calls. Returns the blurred RGB buffer and
// its row stride: pixel (x, y) of the rect lives at
// (y-rect.Min.Y)*stride + (x-rect.Min.X)*3. Two separable passes, clamped to
// the rect edge.
func boxBlurRect(src *image.RGBA, rect image.Rectangle, radius int, scratch *blurScratch) ([]uint8, int) {
	rw := rect.Dx()
	rh := rect.Dy()
	stride := rw * 3
	scratch.grow(stride * rh)
	tmp, out := scratch.tmp, scratch.out

	// Horizontal pass: src -> tmp.
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			var sum [3]int
			count := 0
			for k := -radius; k <= radius; k++ {
				sx := clampInt(x+k, 0, rw-1)
				i := src.PixOffset(rect.Min.X+sx, rect.Min.Y+y)
				sum[0] += int(src.Pix[i+0])
				sum[1] += int(src.Pix[i+1])
				sum[2] += int(src.Pix[i+2])
				count++
			}
			j := y*stride + x*3
			tmp[j+0] = uint8(sum[0] / count)
			tmp[j+1] = uint8(sum[1] / count)
			tmp[j+2] = uint8(sum[2] / count)
		}
	}

	// Vertical pass: tmp -> out.
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			var sum [3]int
			count := 0
			for k := -radius; k <= radius; k++ {
				sy := clampInt(y+k, 0, rh-1)
				j := sy*stride + x*3
				sum[0] += int(tmp[j+0])
				sum[1] += int(tmp[j+1])
				sum[2] += int(tmp[j+2])
				count++
			}
			j := y*stride + x*3
			out[j+0] = uint8(sum[0] / count)
			out[j+1] = uint8(sum[1] / count)
			out[j+2] = uint8(sum[2] / count)
		}
	}
	return out, stride
}
