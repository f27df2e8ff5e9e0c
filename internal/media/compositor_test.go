package media

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

func TestAdjustments(t *testing.T) {
	stack, err := Adjustments(FilterVintage)
	require.NoError(t, err)
	assert.Equal(t, []Adjustment{{AdjustSepia, 0.6}, {AdjustContrast, 1.1}}, stack)

	stack, err = Adjustments("")
	require.NoError(t, err)
	assert.Empty(t, stack)

	_, err = Adjustments("polaroid")
	assert.True(t, apperrors.Is(err, apperrors.ErrCompositor))

	assert.Equal(t, []string{"mono", "none", "vintage", "vivid"}, FilterNames())
}

func TestSepia_full(t *testing.T) {
	got := sepia(1)(color.NRGBA{100, 100, 100, 200})
	// CSS sepia(1) on mid grey: 0.393+0.769+0.189 = 1.351 etc
	assert.Equal(t, color.NRGBA{135, 120, 94, 200}, got)

	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, sepia(0)(color.NRGBA{10, 20, 30, 255}))
}

func TestCompositor_ApplyEdit_mono(t *testing.T) {
	src := photoURI(t, 60, 40, color.RGBA{220, 30, 30, 255})

	out, err := NewCompositor(90).ApplyEdit(src, FilterMono, "")
	require.NoError(t, err)

	img := decodeURI(t, out)
	assert.Equal(t, 60, img.Bounds().Dx())
	r, g, b, _ := img.At(30, 20).RGBA()
	assert.InDelta(t, float64(r>>8), float64(g>>8), 6)
	assert.InDelta(t, float64(g>>8), float64(b>>8), 6)
}

func TestCompositor_ApplyEdit_deterministic(t *testing.T) {
	src := photoURI(t, 300, 200, color.RGBA{40, 160, 90, 255})
	c := NewCompositor(80)

	for _, filter := range FilterNames() {
		first, err := c.ApplyEdit(src, filter, "Squishy!")
		require.NoError(t, err, filter)
		second, err := c.ApplyEdit(src, filter, "Squishy!")
		require.NoError(t, err, filter)
		assert.Equal(t, first, second, "filter %s is not deterministic", filter)
	}
}

func TestCompositor_ApplyEdit_overlay(t *testing.T) {
	src := photoURI(t, 600, 300, color.RGBA{128, 128, 128, 255})
	c := NewCompositor(95)

	plain, err := c.ApplyEdit(src, FilterNone, "   ")
	require.NoError(t, err)
	withText, err := c.ApplyEdit(src, FilterNone, "HELLO")
	require.NoError(t, err)
	assert.NotEqual(t, plain, withText)

	img := decodeURI(t, withText)
	size := overlaySize(600)
	var white, black int
	for y := 300 - 2*size; y < 300; y++ {
		for x := 0; x < 600; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			switch {
			case r>>8 > 235:
				white++
			case r>>8 < 20:
				black++
			}
		}
	}
	assert.Positive(t, white, "fill pixels")
	assert.Positive(t, black, "outline pixels")

	// The top of the image is untouched grey.
	r, _, _, _ := img.At(300, 20).RGBA()
	assert.InDelta(t, 128, float64(r>>8), 8)
}

func TestCompositor_ApplyEdit_invalidSource(t *testing.T) {
	c := NewCompositor(80)
	for _, src := range []string{"", "not a uri", EncodeDataURI("image/png", []byte("garbage"))} {
		_, err := c.ApplyEdit(src, FilterNone, "")
		assert.True(t, apperrors.Is(err, apperrors.ErrCompositor), "source %q: %v", src, err)
	}

	_, err := c.ApplyEdit(photoURI(t, 10, 10, color.White), "unknown", "")
	assert.True(t, apperrors.Is(err, apperrors.ErrCompositor))
}

func TestOverlaySize(t *testing.T) {
	assert.Equal(t, 20, overlaySize(100))
	assert.Equal(t, 80, overlaySize(1200))
}

func TestOutlineRadius(t *testing.T) {
	assert.Equal(t, 1, outlineRadius(20))
	assert.Equal(t, 5, outlineRadius(80))
}
