package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/squishylog/internal/media"
	"github.com/kimhsiao/squishylog/internal/models"
)

// draftFlags binds the editable record fields to command flags.
type draftFlags struct {
	shop       string
	mold       string
	squishDate string
	recordDate string
	rating     int
	weight     string
	price      string
	texture    string
	notes      string
	before     []string
	during     []string
	after      []string
}

func (f *draftFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.shop, "shop", "", "Shop name")
	flags.StringVar(&f.mold, "mold", "", "Mold name")
	flags.StringVar(&f.squishDate, "squish-date", "", "Squish date (YYYY-MM-DD, default today)")
	flags.StringVar(&f.recordDate, "record-date", "", "Record date (YYYY-MM-DD, default today)")
	flags.IntVar(&f.rating, "rating", 0, "Rating from 0 to 5")
	flags.StringVar(&f.weight, "weight", "", "Weight, free text")
	flags.StringVar(&f.price, "price", "", "Price, free text")
	flags.StringVar(&f.texture, "texture", "", "Texture, free text")
	flags.StringVar(&f.notes, "notes", "", "Notes")
	flags.StringArrayVar(&f.before, "before", nil, "Photo taken before squishing (repeatable)")
	flags.StringArrayVar(&f.during, "during", nil, "Photo taken while squishing (repeatable)")
	flags.StringArrayVar(&f.after, "after", nil, "Photo taken after squishing (repeatable)")
}

// draft returns a draft holding only the flags that were set. Photo flags
// replace the stage's list with the compressed files.
func (f *draftFlags) draft(ctx context.Context, cmd *cobra.Command, batch *media.Batch) (models.Draft, error) {
	var d models.Draft
	changed := cmd.Flags().Changed

	for _, field := range []struct {
		flag  string
		value string
		dst   **string
	}{
		{"shop", f.shop, &d.ShopName},
		{"mold", f.mold, &d.MoldName},
		{"squish-date", f.squishDate, &d.SquishDate},
		{"record-date", f.recordDate, &d.RecordDate},
		{"weight", f.weight, &d.Weight},
		{"price", f.price, &d.Price},
		{"texture", f.texture, &d.Texture},
		{"notes", f.notes, &d.Notes},
	} {
		if changed(field.flag) {
			*field.dst = models.String(field.value)
		}
	}
	if changed("rating") {
		d.Rating = models.Int(f.rating)
	}

	for _, stage := range []struct {
		flag  string
		paths []string
		dst   **[]string
	}{
		{"before", f.before, &d.ImagesBefore},
		{"during", f.during, &d.ImagesDuring},
		{"after", f.after, &d.ImagesAfter},
	} {
		if !changed(stage.flag) {
			continue
		}
		images, err := compressFiles(ctx, batch, stage.paths)
		if err != nil {
			return models.Draft{}, err
		}
		*stage.dst = models.Strings(images...)
	}
	return d, nil
}

// override merges the set fields of src over dst.
func override(dst *models.Draft, src models.Draft) {
	if src.ShopName != nil {
		dst.ShopName = src.ShopName
	}
	if src.MoldName != nil {
		dst.MoldName = src.MoldName
	}
	if src.SquishDate != nil {
		dst.SquishDate = src.SquishDate
	}
	if src.RecordDate != nil {
		dst.RecordDate = src.RecordDate
	}
	if src.ImagesBefore != nil {
		dst.ImagesBefore = src.ImagesBefore
	}
	if src.ImagesDuring != nil {
		dst.ImagesDuring = src.ImagesDuring
	}
	if src.ImagesAfter != nil {
		dst.ImagesAfter = src.ImagesAfter
	}
	if src.Rating != nil {
		dst.Rating = src.Rating
	}
	if src.Weight != nil {
		dst.Weight = src.Weight
	}
	if src.Price != nil {
		dst.Price = src.Price
	}
	if src.Texture != nil {
		dst.Texture = src.Texture
	}
	if src.Notes != nil {
		dst.Notes = src.Notes
	}
}

// compressFiles compresses the files at paths into data URIs, in order.
func compressFiles(ctx context.Context, batch *media.Batch, paths []string) ([]string, error) {
	inputs := make([]io.Reader, 0, len(paths))
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open photo: %w", err)
		}
		defer file.Close()
		inputs = append(inputs, file)
	}
	return batch.CompressAll(ctx, inputs)
}

// parsePosition converts a 1-based image position to an index.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("image position %q must be a number from 1", s)
	}
	return n - 1, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func ratingText(r *int) string {
	if r == nil {
		return "-"
	}
	return strings.Repeat("★", *r) + strings.Repeat("☆", models.MaxRating-*r)
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
