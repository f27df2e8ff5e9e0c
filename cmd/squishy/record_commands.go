package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kimhsiao/squishylog/internal/app"
	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/media"
	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/query"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var fields draftFlags

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a record",
		Example: `  squishy add --shop "Mochi Lab" --mold Peach --rating 4 --before peach.jpg`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				draft, err := fields.draft(c, cmd, a.Batch)
				if err != nil {
					return err
				}
				rec, err := a.Records.Create(c, draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", rec.ID, rec.ShopName)
				return nil
			})
		},
	}
	fields.bind(cmd)
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var fields draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a record",
		Long:  "Change fields of a record. Only the flags given are changed; photo flags replace that stage's photos.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				draft, err := fields.draft(c, cmd, a.Batch)
				if err != nil {
					return err
				}
				rec, err := a.Records.Update(c, id, draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", rec.ID, rec.ShopName)
				return nil
			})
		},
	}
	fields.bind(cmd)
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete records",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					id, err := resolveID(a, arg)
					if apperrors.Is(err, apperrors.ErrNotFound) {
						fmt.Fprintf(out, "No record %s\n", arg)
						continue
					}
					if err != nil {
						return err
					}
					if err := a.Records.Delete(c, id); err != nil {
						return err
					}
					fmt.Fprintf(out, "Deleted %s\n", id)
				}
				return nil
			})
		},
	}
}

func newDuplicateCommand(ctx *commandContext) *cobra.Command {
	var fields draftFlags

	cmd := &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Add a new record copying another",
		Long:  "Add a new record copying every field of another except its photos. Give at least one --before photo; other flags override the copied fields.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				src, err := a.Records.Get(id)
				if err != nil {
					return err
				}
				changes, err := fields.draft(c, cmd, a.Batch)
				if err != nil {
					return err
				}
				draft := a.Records.Duplicate(src)
				override(&draft, changes)

				rec, err := a.Records.Create(c, draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s copying %s\n", rec.ID, src.ID)
				return nil
			})
		},
	}
	fields.bind(cmd)
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var filter query.Filter
	var group bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List records, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filter.Validate(); err != nil {
				return apperrors.Wrap(apperrors.ErrValidation, "list filter", err)
			}
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				matched := filter.Apply(a.Records.List())
				out := cmd.OutOrStdout()
				if len(matched) == 0 {
					fmt.Fprintln(out, "No records")
					return nil
				}
				if !group {
					writeRecords(cmd, matched)
					return nil
				}
				for i, g := range query.GroupByShop(matched) {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "%s (%d)\n", g.Shop, len(g.Records))
					writeRecords(cmd, g.Records)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Match shop or mold name")
	cmd.Flags().StringVar(&filter.From, "from", "", "Earliest squish date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.To, "to", "", "Latest squish date (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&group, "group", "g", false, "Group by shop")
	return cmd
}

func writeRecords(cmd *cobra.Command, records []models.Record) {
	headers := []string{"ID", "Shop", "Mold", "Squished", "Rating", "Price", "Photos"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			shortID(r.ID),
			valueOrDash(r.ShopName),
			valueOrDash(r.MoldName),
			r.SquishDate,
			ratingText(r.Rating),
			valueOrDash(r.Price),
			fmt.Sprintf("%d", r.ImageCount()),
		})
	}
	writeRows(cmd.OutOrStdout(), headers, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight})
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				rec, err := a.Records.Get(id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:          %s\n", rec.ID)
				fmt.Fprintf(out, "Shop:        %s\n", valueOrDash(rec.ShopName))
				fmt.Fprintf(out, "Mold:        %s\n", valueOrDash(rec.MoldName))
				fmt.Fprintf(out, "Squished:    %s\n", valueOrDash(rec.SquishDate))
				fmt.Fprintf(out, "Recorded:    %s\n", valueOrDash(rec.RecordDate))
				fmt.Fprintf(out, "Rating:      %s\n", ratingText(rec.Rating))
				fmt.Fprintf(out, "Weight:      %s\n", valueOrDash(rec.Weight))
				fmt.Fprintf(out, "Price:       %s\n", valueOrDash(rec.Price))
				fmt.Fprintf(out, "Texture:     %s\n", valueOrDash(rec.Texture))
				fmt.Fprintf(out, "Notes:       %s\n", valueOrDash(rec.Notes))
				if rec.CreatedAt > 0 {
					fmt.Fprintf(out, "Created:     %s\n", humanize.Time(rec.CreatedAtTime()))
				}
				for _, stage := range models.Stages {
					images := rec.Images(stage)
					fmt.Fprintf(out, "Photos %-6s %d\n", string(stage)+":", len(images))
					for i, img := range images {
						fmt.Fprintf(out, "  %d. %s\n", i+1, humanize.Bytes(uint64(media.DecodedSize(img))))
					}
				}
				return nil
			})
		},
	}
}

// resolveID maps an id or unique id prefix to a stored id.
func resolveID(a *app.App, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", apperrors.New(apperrors.ErrValidation, "record id is required")
	}
	if _, ok := a.Store.Get(arg); ok {
		return arg, nil
	}

	var matches []string
	for _, r := range a.Store.Records() {
		if strings.HasPrefix(r.ID, arg) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", apperrors.Newf(apperrors.ErrNotFound, "record %s not found", arg)
	case 1:
		return matches[0], nil
	}
	return "", apperrors.Newf(apperrors.ErrValidation, "id prefix %s matches %d records", arg, len(matches))
}
