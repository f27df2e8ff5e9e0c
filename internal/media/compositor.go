package media

import (
	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

// Compositor re-renders a stored image with a filter stack and optional
// overlay text. Rendering is pure: the same inputs give identical bytes.
type Compositor struct {
	Quality int
}

// NewCompositor creates a compositor encoding at quality.
func NewCompositor(quality int) *Compositor {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Compositor{Quality: quality}
}

// ApplyEdit decodes source, applies filter and overlay text and returns the
// result as a JPEG data URI. Any failure is a COMPOSITOR_ERROR and leaves
// nothing changed.
func (c *Compositor) ApplyEdit(source, filter, text string) (string, error) {
	stack, err := Adjustments(filter)
	if err != nil {
		return "", err
	}

	_, data, err := DecodeDataURI(source)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCompositor, "read source image", err)
	}
	img, err := decode(data)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCompositor, "decode source image", err)
	}

	canvas := applyAdjustments(img, stack)
	if err := drawOverlay(canvas, text); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCompositor, "draw overlay text", err)
	}

	out, err := encodeJPEG(canvas, c.Quality)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCompositor, "encode image", err)
	}
	return out, nil
}
