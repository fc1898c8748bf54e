package source

import "image"

// Source delivers capture frames to the pipeline. Implementations must be
// safe to call from the single frame thread; Next blocks until a frame is
// available or the source ends.
type Source interface {
	// Start initializes the source and any required resources.
	Start() error

	// Stop releases resources.
	Stop() error

	// Next returns the next captured frame. io.EOF (wrapped or not)
	// signals a clean end of the stream.
	Next() (*image.RGBA, error)

	// Name returns a human-readable name for this source.
	Name() string
}
