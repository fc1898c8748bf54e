package effects

// Fader ramps the shape-warp intensity up while faces are present and back
// down while they are not, so the distortion never snaps on or off with
// detection flicker.
//
// The value moves by 1/framesPerFade per frame with framesPerFade =
// 15 * fps/30, which keeps the visual fade duration constant across
// capture frame rates. Progress is counted in whole frames so a full ramp
// lands on exactly 1.0 (and back on exactly 0.0) with no float drift.
type Fader struct {
	frames float64 // frames for a full fade
	count  float64 // current position, in frames
}

// NewFader creates a fader for the given capture frame rate.
func NewFader(fps float64) *Fader {
	framesPerFade := 15 * fps / 30
	if framesPerFade < 1 {
		framesPerFade = 1
	}
	return &Fader{frames: framesPerFade}
}

// Advance moves the fade one frame toward 1 if faces are present, toward 0
// otherwise, and returns the new value. Clamped to [0,1].
func (f *Fader) Advance(present bool) float64 {
	if present {
		f.count++
		if f.count > f.frames {
			f.count = f.frames
		}
	} else {
		f.count--
		if f.count < 0 {
			f.count = 0
		}
	}
	return f.Value()
}

// Value returns the current fade value without advancing it.
func (f *Fader) Value() float64 {
	return f.count / f.frames
}
