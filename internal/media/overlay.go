package media

import (
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const minOverlaySize = 20

var (
	boldOnce sync.Once
	boldFont *opentype.Font
	boldErr  error
)

// bold returns the parsed Go Bold font. The parsed font is read-only and
// shared; faces are not, so each render creates its own.
func bold() (*opentype.Font, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = opentype.Parse(gobold.TTF)
	})
	return boldFont, boldErr
}

// overlaySize returns the font size for an image width.
func overlaySize(width int) int {
	return max(minOverlaySize, width/15)
}

// outlineRadius returns how far the outline reaches past the glyph edge.
func outlineRadius(size int) int {
	return max(1, size/16)
}

// drawOverlay renders text centered near the bottom of img with a black
// outline under a white fill.
func drawOverlay(img *image.NRGBA, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	f, err := bold()
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	size := overlaySize(bounds.Dx())
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return err
	}
	defer face.Close()

	glyphs := image.NewAlpha(bounds)
	d := font.Drawer{Dst: glyphs, Src: image.Opaque, Face: face}

	// Bottom of the text box sits size/2 above the image bottom.
	advance := d.MeasureString(text)
	descent := face.Metrics().Descent
	x := fixed.I(bounds.Min.X) + (fixed.I(bounds.Dx())-advance)/2
	y := fixed.I(bounds.Max.Y-size/2) - descent
	d.Dot = fixed.Point26_6{X: x, Y: y}

	box, _ := d.BoundString(text)
	d.DrawString(text)

	radius := outlineRadius(size)
	area := image.Rect(
		box.Min.X.Floor()-radius, box.Min.Y.Floor()-radius,
		box.Max.X.Ceil()+radius, box.Max.Y.Ceil()+radius,
	).Intersect(bounds)
	if area.Empty() {
		return nil
	}

	outline := dilate(glyphs, area, radius)
	draw.DrawMask(img, area, image.NewUniform(color.Black), image.Point{}, outline, area.Min, draw.Over)
	draw.DrawMask(img, area, image.NewUniform(color.White), image.Point{}, glyphs, area.Min, draw.Over)
	return nil
}

// dilate spreads mask by a disc of radius r within area.
func dilate(mask *image.Alpha, area image.Rectangle, r int) *image.Alpha {
	out := image.NewAlpha(mask.Bounds())
	src := mask.Bounds()
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			for y := area.Min.Y; y < area.Max.Y; y++ {
				sy := y - dy
				if sy < src.Min.Y || sy >= src.Max.Y {
					continue
				}
				for x := area.Min.X; x < area.Max.X; x++ {
					sx := x - dx
					if sx < src.Min.X || sx >= src.Max.X {
						continue
					}
					a := mask.Pix[mask.PixOffset(sx, sy)]
					if i := out.PixOffset(x, y); a > out.Pix[i] {
						out.Pix[i] = a
					}
				}
			}
		}
	}
	return out
}
