// Package models provides data model definitions for SquishyLog.
package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for squishDate and recordDate.
const DateLayout = "2006-01-02"

// MaxRating is the highest accepted rating.
const MaxRating = 5

// Stage names one of the three staged image lists.
type Stage string

const (
	StageBefore Stage = "before"
	StageDuring Stage = "during"
	StageAfter  Stage = "after"
)

// Stages lists every stage in display order.
var Stages = []Stage{StageBefore, StageDuring, StageAfter}

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageBefore, StageDuring, StageAfter:
		return Stage(s), nil
	}
	return "", fmt.Errorf("unknown stage %q (want before, during or after)", s)
}

// Record represents one tracked collectible with metadata and staged photos.
// Field names are the persisted JSON names.
type Record struct {
	ID           string   `json:"id"`
	ShopName     string   `json:"shopName"`
	MoldName     string   `json:"moldName"`
	SquishDate   string   `json:"squishDate"`
	RecordDate   string   `json:"recordDate"`
	ImagesBefore []string `json:"imagesBefore"`
	ImagesDuring []string `json:"imagesDuring"`
	ImagesAfter  []string `json:"imagesAfter"`
	Rating       *int     `json:"rating,omitempty"`
	Weight       string   `json:"weight,omitempty"`
	Price        string   `json:"price,omitempty"`
	Texture      string   `json:"texture,omitempty"`
	Notes        string   `json:"notes"`
	CreatedAt    int64    `json:"createdAt"`
}

// Images returns the image list for a stage.
func (r *Record) Images(stage Stage) []string {
	switch stage {
	case StageDuring:
		return r.ImagesDuring
	case StageAfter:
		return r.ImagesAfter
	default:
		return r.ImagesBefore
	}
}

// SetImages replaces the image list for a stage.
func (r *Record) SetImages(stage Stage, images []string) {
	switch stage {
	case StageDuring:
		r.ImagesDuring = images
	case StageAfter:
		r.ImagesAfter = images
	default:
		r.ImagesBefore = images
	}
}

// ImageCount returns the number of images across all stages.
func (r *Record) ImageCount() int {
	return len(r.ImagesBefore) + len(r.ImagesDuring) + len(r.ImagesAfter)
}

// CreatedAtTime returns CreatedAt (epoch milliseconds) as time.Time.
func (r *Record) CreatedAtTime() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// Normalize replaces nil image lists with empty ones so the record always
// serializes lists as [] rather than null.
func (r *Record) Normalize() {
	if r.ImagesBefore == nil {
		r.ImagesBefore = []string{}
	}
	if r.ImagesDuring == nil {
		r.ImagesDuring = []string{}
	}
	if r.ImagesAfter == nil {
		r.ImagesAfter = []string{}
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	c := r
	c.ImagesBefore = cloneStrings(r.ImagesBefore)
	c.ImagesDuring = cloneStrings(r.ImagesDuring)
	c.ImagesAfter = cloneStrings(r.ImagesAfter)
	if r.Rating != nil {
		v := *r.Rating
		c.Rating = &v
	}
	c.Normalize()
	return c
}

// CloneAll deep-copies a collection.
func CloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Today returns the UTC calendar date of now in DateLayout.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
