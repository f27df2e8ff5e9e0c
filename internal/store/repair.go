package store

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/uuid"
)

// legacyImageFields maps each stage to the single-image field older
// documents used before stages held lists.
var legacyImageFields = map[models.Stage]string{
	models.StageBefore: "imageBefore",
	models.StageDuring: "imageDuring",
	models.StageAfter:  "imageAfter",
}

// listImageFields maps each stage to its current list field.
var listImageFields = map[models.Stage]string{
	models.StageBefore: "imagesBefore",
	models.StageDuring: "imagesDuring",
	models.StageAfter:  "imagesAfter",
}

// RepairReport counts what a repair pass changed.
type RepairReport struct {
	Entries        int
	IDsAssigned    int
	NonObjects     int
	DatesDefaulted int
}

// Changed reports whether any entry needed an id or a default date.
func (r RepairReport) Changed() bool {
	return r.IDsAssigned > 0 || r.NonObjects > 0 || r.DatesDefaulted > 0
}

// RepairAll converts every stored entry into a current-schema record.
// It never fails. Entries keep their order. Ids are unique across the
// result: empty ids and later occurrences of a repeated id get a new one.
func RepairAll(entries []json.RawMessage, today string, gen uuid.Generator) ([]models.Record, RepairReport) {
	report := RepairReport{Entries: len(entries)}

	fields := make([]map[string]interface{}, len(entries))
	taken := make(map[string]bool, len(entries))
	for i, raw := range entries {
		var obj map[string]interface{}
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			obj = map[string]interface{}{}
			report.NonObjects++
		}
		fields[i] = obj
		if id := stringField(obj, "id"); id != "" {
			taken[id] = true
		}
	}

	isTaken := func(id string) bool { return taken[id] }
	seen := make(map[string]bool, len(entries))
	records := make([]models.Record, len(entries))
	for i, obj := range fields {
		rec, defaulted := RepairRecord(obj, today)
		if defaulted {
			report.DatesDefaulted++
		}
		if rec.ID == "" || seen[rec.ID] {
			rec.ID = uuid.NewUnique(gen, isTaken)
			taken[rec.ID] = true
			report.IDsAssigned++
		}
		seen[rec.ID] = true
		records[i] = rec
	}
	return records, report
}

// RepairRecord builds a record from one decoded entry, backfilling missing
// fields from legacy shapes or defaults. The id is copied as found.
// The second result reports whether a date fell back to today.
func RepairRecord(obj map[string]interface{}, today string) (models.Record, bool) {
	legacyDate := stringField(obj, "date")

	squish, squishDefaulted := dateField(obj, "squishDate", legacyDate, today)
	record, recordDefaulted := dateField(obj, "recordDate", legacyDate, today)

	rec := models.Record{
		ID:         stringField(obj, "id"),
		ShopName:   stringField(obj, "shopName"),
		MoldName:   stringField(obj, "moldName"),
		SquishDate: squish,
		RecordDate: record,
		Rating:     ratingField(obj),
		Weight:     textField(obj, "weight"),
		Price:      textField(obj, "price"),
		Texture:    textField(obj, "texture"),
		Notes:      stringField(obj, "notes"),
		CreatedAt:  createdAtField(obj),
	}
	for _, stage := range models.Stages {
		rec.SetImages(stage, imageField(obj, stage))
	}
	rec.Normalize()

	return rec, squishDefaulted || recordDefaulted
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

// textField keeps strings and renders numbers as decimal text.
func textField(obj map[string]interface{}, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func dateField(obj map[string]interface{}, key, legacy, today string) (string, bool) {
	if s := stringField(obj, key); s != "" {
		return s, false
	}
	if legacy != "" {
		return legacy, false
	}
	return today, true
}

func imageField(obj map[string]interface{}, stage models.Stage) []string {
	switch v := obj[listImageFields[stage]].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	if s := stringField(obj, legacyImageFields[stage]); s != "" {
		return []string{s}
	}
	return []string{}
}

func ratingField(obj map[string]interface{}) *int {
	v, ok := obj["rating"].(float64)
	if !ok || math.IsNaN(v) {
		return nil
	}
	n := int(math.Round(math.Max(0, math.Min(models.MaxRating, v))))
	return &n
}

func createdAtField(obj map[string]interface{}) int64 {
	v, ok := obj["createdAt"].(float64)
	if !ok {
		return 0
	}
	return int64(v)
}
