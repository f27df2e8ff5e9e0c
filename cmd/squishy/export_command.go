package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kimhsiao/squishylog/internal/app"
	"github.com/kimhsiao/squishylog/internal/export"
	"github.com/kimhsiao/squishylog/internal/export/scheduler"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	var stdout bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of every record",
		Long:  "Write a JSON backup of every record to squishy_backup_YYYY-MM-DD.json in the export directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				if stdout {
					_, err := a.Export.WriteTo(cmd.OutOrStdout())
					return err
				}
				result, err := a.Export.Export(c, &export.ExportConfig{OutputPath: output})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s (%s)\n",
					result.ItemCount, result.FilePath, humanize.Bytes(uint64(result.SizeBytes)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead of the export directory")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Write the document to standard output")
	cmd.AddCommand(newExportListCommand(ctx))
	return cmd
}

func newExportListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups in the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			backups, err := scheduler.ListBackups(cfg.Export.Dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups in %s\n", cfg.Export.Dir)
				return nil
			}
			rows := make([][]string, 0, len(backups))
			for i := len(backups) - 1; i >= 0; i-- {
				b := backups[i]
				rows = append(rows, []string{filepath.Base(b.Path), humanize.Bytes(uint64(b.SizeBytes)), humanize.Time(b.ModTime)})
			}
			writeRows(out, []string{"Backup", "Size", "Written"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
			return nil
		},
	}
}
