package source

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/kmswan/glowcast/internal/logger"
)

// PixelFormat names the raw frame layout on the wire.
type PixelFormat string

const (
	FormatRGBA  PixelFormat = "rgba"
	FormatGray8 PixelFormat = "gray8"
)

// RawSource reads fixed-size raw frames from a reader, typically a pipe
// fed by an external capture process (e.g. gst-launch-1.0 ending in
// "fdsink fd=1"). Keeping the capture process external means no display
// server or GStreamer bindings in this binary.
type RawSource struct {
	r      io.Reader
	closer io.Closer
	width  int
	height int
	format PixelFormat
	buf    []byte
	frames uint64
	log    zerolog.Logger
}

// NewRawSource wraps a reader producing frames of the given extent and
// pixel format.
func NewRawSource(r io.Reader, width, height int, format PixelFormat) (*RawSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame extent %dx%d", width, height)
	}
	var size int
	switch format {
	case FormatRGBA:
		size = width * height * 4
	case FormatGray8:
		size = width * height
	default:
		return nil, fmt.Errorf("unsupported pixel format %q", format)
	}
	s := &RawSource{
		r:      bufio.NewReaderSize(r, size),
		width:  width,
		height: height,
		format: format,
		buf:    make([]byte, size),
		log:    *logger.WithComponent("source"),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// OpenRaw opens a file (or FIFO) of raw frames. "-" reads stdin.
func OpenRaw(path string, width, height int, format PixelFormat) (*RawSource, error) {
	if path == "-" {
		return NewRawSource(os.Stdin, width, height, format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw frame input: %w", err)
	}
	return NewRawSource(f, width, height, format)
}

func (s *RawSource) Name() string { return fmt.Sprintf("raw-%s", s.format) }

func (s *RawSource) Start() error {
	s.log.Info().
		Int("width", s.width).Int("height", s.height).
		Str("format", string(s.format)).
		Msg("raw source started")
	return nil
}

func (s *RawSource) Stop() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Next reads one full frame. A short read at stream end surfaces as
// io.ErrUnexpectedEOF, which callers treat the same as io.EOF.
func (s *RawSource) Next() (*image.RGBA, error) {
	if _, err := io.ReadFull(s.r, s.buf); err != nil {
		return nil, err
	}
	s.frames++

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	switch s.format {
	case FormatRGBA:
		copy(img.Pix, s.buf)
	case FormatGray8:
		for i, v := range s.buf {
			j := i * 4
			img.Pix[j+0] = v
			img.Pix[j+1] = v
			img.Pix[j+2] = v
			img.Pix[j+3] = 255
		}
	}
	return img, nil
}

// Frames returns the number of frames delivered so far.
func (s *RawSource) Frames() uint64 { return s.frames }
