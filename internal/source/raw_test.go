package source

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawSourceGray8(t *testing.T) {
	// Two 2x2 GRAY8 frames.
	data := []byte{
		10, 20, 30, 40,
		50, 60, 70, 80,
	}
	src, err := NewRawSource(bytes.NewReader(data), 2, 2, FormatGray8)
	require.NoError(t, err)
	require.NoError(t, src.Start())

	frame, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, 2, frame.Bounds().Dx())

	// Luma replicated into RGB, opaque alpha.
	i := frame.PixOffset(1, 0)
	require.Equal(t, []uint8{20, 20, 20, 255}, frame.Pix[i:i+4])

	frame, err = src.Next()
	require.NoError(t, err)
	i = frame.PixOffset(0, 1)
	require.Equal(t, []uint8{70, 70, 70, 255}, frame.Pix[i:i+4])

	_, err = src.Next()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, uint64(2), src.Frames())
}

func TestRawSourceRGBA(t *testing.T) {
	pix := []byte{1, 2, 3, 255, 4, 5, 6, 255, 7, 8, 9, 255, 10, 11, 12, 255}
	src, err := NewRawSource(bytes.NewReader(pix), 2, 2, FormatRGBA)
	require.NoError(t, err)

	frame, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, pix, []byte(frame.Pix))
}

func TestRawSourceShortRead(t *testing.T) {
	src, err := NewRawSource(bytes.NewReader([]byte{1, 2, 3}), 2, 2, FormatGray8)
	require.NoError(t, err)

	_, err = src.Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRawSourceRejectsBadConfig(t *testing.T) {
	_, err := NewRawSource(bytes.NewReader(nil), 0, 10, FormatRGBA)
	require.Error(t, err)

	_, err = NewRawSource(bytes.NewReader(nil), 10, 10, PixelFormat("yuv420"))
	require.Error(t, err)
}

func TestTestPatternExtentAndMotion(t *testing.T) {
	tp := NewTestPattern(32, 24)

	a, err := tp.Next()
	require.NoError(t, err)
	require.Equal(t, 32, a.Bounds().Dx())
	require.Equal(t, 24, a.Bounds().Dy())

	b, err := tp.Next()
	require.NoError(t, err)
	require.NotEqual(t, a.Pix, b.Pix, "pattern must move between frames")
}
