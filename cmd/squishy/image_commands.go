package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/squishylog/internal/app"
	"github.com/kimhsiao/squishylog/internal/media"
	"github.com/kimhsiao/squishylog/internal/models"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"photos"},
		Short:   "Manage a record's photos",
	}

	imagesCmd.AddCommand(newImagesAddCommand(ctx))
	imagesCmd.AddCommand(newImagesRemoveCommand(ctx))
	imagesCmd.AddCommand(newImagesEditCommand(ctx))
	imagesCmd.AddCommand(newImagesSaveCommand(ctx))
	imagesCmd.AddCommand(newImagesFiltersCommand())

	return imagesCmd
}

func newImagesAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <before|during|after> <file>...",
		Short: "Append photos to a stage",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := models.ParseStage(args[1])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				images, err := compressFiles(c, a.Batch, args[2:])
				if err != nil {
					return err
				}
				rec, err := a.Records.AppendImages(c, id, stage, images)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d photo(s); %s now has %d\n",
					len(images), stage, len(rec.Images(stage)))
				return nil
			})
		},
	}
}

func newImagesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> <before|during|after> <position>",
		Short: "Remove one photo from a stage",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := models.ParseStage(args[1])
			if err != nil {
				return err
			}
			index, err := parsePosition(args[2])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				rec, err := a.Records.RemoveImage(c, id, stage, index)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed photo %d; %s now has %d\n",
					index+1, stage, len(rec.Images(stage)))
				return nil
			})
		},
	}
}

func newImagesEditCommand(ctx *commandContext) *cobra.Command {
	var filter string
	var text string

	cmd := &cobra.Command{
		Use:   "edit <id> <before|during|after> <position>",
		Short: "Apply a filter and caption to a photo",
		Long:  "Apply a filter and caption to a photo. The edited photo replaces the original. Filters: " + strings.Join(media.FilterNames(), ", ") + ".",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := models.ParseStage(args[1])
			if err != nil {
				return err
			}
			index, err := parsePosition(args[2])
			if err != nil {
				return err
			}
			if _, err := media.Adjustments(filter); err != nil {
				return err
			}
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				if _, err := a.Records.EditImage(c, id, stage, index, filter, text); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Edited %s photo %d\n", stage, index+1)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", media.FilterNone, "Filter name")
	cmd.Flags().StringVarP(&text, "text", "t", "", "Caption drawn along the bottom edge")
	return cmd
}

func newImagesSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save <id> <before|during|after> <position> <file>",
		Short: "Write a photo to a JPEG file",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := models.ParseStage(args[1])
			if err != nil {
				return err
			}
			index, err := parsePosition(args[2])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				id, err := resolveID(a, args[0])
				if err != nil {
					return err
				}
				rec, err := a.Records.Get(id)
				if err != nil {
					return err
				}
				images := rec.Images(stage)
				if index >= len(images) {
					return fmt.Errorf("%s has %d photo(s)", stage, len(images))
				}
				_, data, err := media.DecodeDataURI(images[index])
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[3], data, 0o644); err != nil {
					return fmt.Errorf("write photo: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[3])
				return nil
			})
		},
	}
}

func newImagesFiltersCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "filters",
		Short:       "List photo filters",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(media.FilterNames()))
			for _, name := range media.FilterNames() {
				stack, _ := media.Adjustments(name)
				steps := make([]string, 0, len(stack))
				for _, adj := range stack {
					steps = append(steps, fmt.Sprintf("%s(%g)", adj.Kind, adj.Amount))
				}
				rows = append(rows, []string{name, valueOrDash(strings.Join(steps, " "))})
			}
			writeRows(cmd.OutOrStdout(), []string{"Filter", "Adjustments"}, rows, nil)
			return nil
		},
	}
}
