package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// pngBytes encodes a w x h image filled with c.
func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// decodeURI decodes a data URI produced by the pipeline.
func decodeURI(t *testing.T, uri string) image.Image {
	t.Helper()
	mime, data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	require.Equal(t, JPEGMime, mime)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

// photoURI compresses a w x h solid image into a data URI.
func photoURI(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	uri, err := NewCodec(0, 0).CompressBytes(t.Context(), pngBytes(t, w, h, c))
	require.NoError(t, err)
	return uri
}
