package output

import "image"

// Config describes the output stream format.
type Config struct {
	Width   int
	Height  int
	FPS     int
	Quality int // JPEG quality, 1-100
}

// Output consumes processed frames. One frame in, one frame out of the
// pipeline; a slow consumer drops frames rather than stalling it.
type Output interface {
	Start() error
	Stop() error
	WriteFrame(frame *image.RGBA) error
	Name() string
}
