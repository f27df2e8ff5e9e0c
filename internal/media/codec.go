// Package media implements the image pipeline: compressing picked photos
// into embeddable JPEG data URIs and re-rendering them with filters and
// overlay text.
package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/webp"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

const (
	// DefaultMaxDimension caps the longest side of a compressed image.
	DefaultMaxDimension = 1200

	// DefaultQuality is the JPEG quality (1-100) of every encoded image.
	DefaultQuality = 80

	// maxInputBytes bounds how much of a single picked file is read.
	maxInputBytes = 64 << 20
)

// decodable lists the sniffed content types the codec can decode.
var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// Codec turns raw image files into bounded-size JPEG data URIs.
// A Codec holds only configuration and is safe for concurrent use.
type Codec struct {
	MaxDimension int
	Quality      int
}

// NewCodec creates a codec, applying defaults for non-positive values.
func NewCodec(maxDimension, quality int) *Codec {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Codec{MaxDimension: maxDimension, Quality: quality}
}

// Compress decodes input, scales it down to MaxDimension and re-encodes it as
// a JPEG data URI. Undecodable input fails with CODEC_ERROR.
func (c *Codec) Compress(ctx context.Context, input io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(input, maxInputBytes+1))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodec, "read image", err)
	}
	if len(data) > maxInputBytes {
		return "", apperrors.Newf(apperrors.ErrCodec, "image is larger than %d bytes", maxInputBytes)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := decode(data)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodec, "decode image", err)
	}

	out, err := encodeJPEG(c.fit(img), c.Quality)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodec, "encode image", err)
	}
	return out, nil
}

// CompressBytes is Compress over an in-memory file.
func (c *Codec) CompressBytes(ctx context.Context, data []byte) (string, error) {
	return c.Compress(ctx, bytes.NewReader(data))
}

// fit scales img down so its longest side is at most MaxDimension.
func (c *Codec) fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= c.MaxDimension && b.Dy() <= c.MaxDimension {
		return img
	}
	return imaging.Fit(img, c.MaxDimension, c.MaxDimension, imaging.Lanczos)
}

// decode sniffs data and decodes it, honouring EXIF orientation.
func decode(data []byte) (image.Image, error) {
	mtype := mimetype.Detect(data)
	if !decodable[mtype.String()] {
		return nil, apperrors.Newf(apperrors.ErrCodec, "unsupported image type %s", mtype.String())
	}
	if mtype.Is("image/webp") {
		return webp.Decode(bytes.NewReader(data))
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// encodeJPEG flattens img onto white and encodes it as a JPEG data URI.
func encodeJPEG(img image.Image, quality int) (string, error) {
	b := img.Bounds()
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return "", err
	}
	return EncodeDataURI(JPEGMime, buf.Bytes()), nil
}
