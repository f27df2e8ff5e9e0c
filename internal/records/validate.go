package records

import (
	"fmt"
	"strings"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/models"
)

// Validate checks the invariants a record must meet to be accepted through
// create or update. Records repaired on load are not held to them.
func Validate(r models.Record) error {
	var problems []string

	if strings.TrimSpace(r.ShopName) == "" {
		problems = append(problems, "shopName is required")
	}
	if len(r.ImagesBefore) == 0 {
		problems = append(problems, "imagesBefore needs at least one image")
	}
	for _, field := range []struct{ name, value string }{
		{"squishDate", r.SquishDate},
		{"recordDate", r.RecordDate},
	} {
		if field.value != "" && !models.ValidDate(field.value) {
			problems = append(problems, fmt.Sprintf("%s %q is not a YYYY-MM-DD date", field.name, field.value))
		}
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > models.MaxRating) {
		problems = append(problems, fmt.Sprintf("rating %d is outside 0-%d", *r.Rating, models.MaxRating))
	}
	for _, stage := range models.Stages {
		for i, img := range r.Images(stage) {
			if img == "" {
				problems = append(problems, fmt.Sprintf("images%s[%d] is empty", stageTitle(stage), i))
			}
		}
	}

	if len(problems) > 0 {
		return apperrors.New(apperrors.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func stageTitle(stage models.Stage) string {
	s := string(stage)
	return strings.ToUpper(s[:1]) + s[1:]
}
