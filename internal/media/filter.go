package media

import (
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
)

// AdjustmentKind names one global colour adjustment.
type AdjustmentKind string

const (
	AdjustSepia     AdjustmentKind = "sepia"
	AdjustGrayscale AdjustmentKind = "grayscale"
	AdjustSaturate  AdjustmentKind = "saturate"
	AdjustContrast  AdjustmentKind = "contrast"
)

// Adjustment is one step of a filter stack. Amount uses CSS filter units:
// 1 is full strength for sepia/grayscale and identity for saturate/contrast.
type Adjustment struct {
	Kind   AdjustmentKind `json:"kind"`
	Amount float64        `json:"amount"`
}

// Filter names.
const (
	FilterNone    = "none"
	FilterVintage = "vintage"
	FilterMono    = "mono"
	FilterVivid   = "vivid"
)

// filters maps each filter name to its ordered adjustment stack.
var filters = map[string][]Adjustment{
	FilterNone:    nil,
	FilterVintage: {{AdjustSepia, 0.6}, {AdjustContrast, 1.1}},
	FilterMono:    {{AdjustGrayscale, 1}},
	FilterVivid:   {{AdjustSaturate, 1.8}, {AdjustContrast, 1.1}},
}

// FilterNames returns the known filter names, sorted.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Adjustments returns the stack for a filter name. An empty name is none.
func Adjustments(filter string) ([]Adjustment, error) {
	if filter == "" {
		filter = FilterNone
	}
	stack, ok := filters[filter]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCompositor, "unknown filter %q", filter)
	}
	out := make([]Adjustment, len(stack))
	copy(out, stack)
	return out, nil
}

// applyAdjustments runs the stack over img in order.
func applyAdjustments(img image.Image, stack []Adjustment) *image.NRGBA {
	out := imaging.Clone(img)
	for _, adj := range stack {
		switch adj.Kind {
		case AdjustSepia:
			out = imaging.AdjustFunc(out, sepia(adj.Amount))
		case AdjustGrayscale:
			if adj.Amount >= 1 {
				out = imaging.Grayscale(out)
			} else {
				out = imaging.AdjustFunc(out, grayscale(adj.Amount))
			}
		case AdjustSaturate:
			out = imaging.AdjustSaturation(out, (adj.Amount-1)*100)
		case AdjustContrast:
			out = imaging.AdjustContrast(out, (adj.Amount-1)*100)
		}
	}
	return out
}

// sepia returns the CSS sepia(amount) colour matrix.
func sepia(amount float64) func(color.NRGBA) color.NRGBA {
	a := 1 - clamp01(amount)
	m := [3][3]float64{
		{0.393 + 0.607*a, 0.769 - 0.769*a, 0.189 - 0.189*a},
		{0.349 - 0.349*a, 0.686 + 0.314*a, 0.168 - 0.168*a},
		{0.272 - 0.272*a, 0.534 - 0.534*a, 0.131 + 0.869*a},
	}
	return matrix(m)
}

// grayscale returns the CSS grayscale(amount) colour matrix.
func grayscale(amount float64) func(color.NRGBA) color.NRGBA {
	a := 1 - clamp01(amount)
	m := [3][3]float64{
		{0.2126 + 0.7874*a, 0.7152 - 0.7152*a, 0.0722 - 0.0722*a},
		{0.2126 - 0.2126*a, 0.7152 + 0.2848*a, 0.0722 - 0.0722*a},
		{0.2126 - 0.2126*a, 0.7152 - 0.7152*a, 0.0722 + 0.9278*a},
	}
	return matrix(m)
}

func matrix(m [3][3]float64) func(color.NRGBA) color.NRGBA {
	return func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		return color.NRGBA{
			R: channel(m[0][0]*r + m[0][1]*g + m[0][2]*b),
			G: channel(m[1][0]*r + m[1][1]*g + m[1][2]*b),
			B: channel(m[2][0]*r + m[2][1]*g + m[2][2]*b),
			A: c.A,
		}
	}
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
