package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dreschagin/recycling-dashboard/internal/application/usecase"
	"github.com/dreschagin/recycling-dashboard/internal/domain/valueobject"
)

type reportFlags struct {
	reportType string
	days       int
	format     string
	path       string
	out        string
}

func (f *reportFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.reportType, "type", "t", valueobject.Comprehensive.String(),
		"report type: usage, performance, engagement, environmental, financial, comprehensive")
	cmd.Flags().IntVarP(&f.days, "days", "d", 0, "trailing window in days (0 = configured default)")
	cmd.Flags().StringVarP(&f.format, "format", "f", valueobject.JSON.String(), "output format: json or csv")
	cmd.Flags().StringVar(&f.path, "path", "", "dot path of the report part to encode, e.g. data.dailyRequests")
}

func (f *reportFlags) command() usecase.ExportReportCommand {
	return usecase.ExportReportCommand{
		Type:          f.reportType,
		DateRangeDays: f.days,
		Format:        f.format,
		Path:          f.path,
	}
}

func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and export analytics reports",
	}
	reportCmd.AddCommand(newReportGenerateCmd(), newReportExportCmd())
	return reportCmd
}

func newReportGenerateCmd() *cobra.Command {
	flags := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report and write it to a file or stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			a, err := newApp(ctx, 0)
			if err != nil {
				return err
			}
			defer a.Close()

			rendered, err := a.export.Render(ctx, flags.command())
			if err != nil {
				return err
			}

			if flags.out == "" {
				_, err = cmd.OutOrStdout().Write(rendered.Payload.Body)
				return err
			}

			target := flags.out
			if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
				target = filepath.Join(target, rendered.Payload.Filename)
			}
			if err := os.WriteFile(target, rendered.Payload.Body, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s (%d bytes)\n", target, len(rendered.Payload.Body))
			return err
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output file or directory (default stdout)")

	return cmd
}

func newReportExportCmd() *cobra.Command {
	flags := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate a report and upload it to the configured export sink",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			a, err := newApp(ctx, 0)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.export.Execute(ctx, flags.command())
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), usecase.ToExportDTO(result))
		},
	}
	flags.bind(cmd)

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
