package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"expenses/internal/aggregate"
	"expenses/internal/cli"
	"expenses/internal/export"
	"expenses/internal/log"
	"expenses/internal/prefs"
)

func summaryCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the monthly statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref := time.Now()
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("invalid month %q: want YYYY-MM", month)
				}
				ref = t
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSummary(aggregate.Period(a.rt.Expenses.All(), ref)))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	return cmd
}

func chartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chart",
		Short: "Draw spending by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			theme, err := prefs.Theme(cmd.Context(), a.rt.KV)
			if err != nil {
				return err
			}
			dist := aggregate.Distribution(a.rt.Expenses.All())
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDistribution(dist, theme))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		out    string
		sheets bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all expenses to CSV or Google Sheets",
		Example: `  expenses export
  expenses export --out - > expenses.csv
  expenses export --sheets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			records := a.rt.Expenses.All()
			w := cmd.OutOrStdout()

			if sheets {
				if a.rt.Exporter == nil {
					return errors.New("google sheets export is not configured: set GOOGLE_SPREADSHEET_ID")
				}
				if len(records) == 0 {
					return export.ErrNothingToExport
				}
				ref, err := a.rt.Exporter.Export(cmd.Context(), records)
				if err != nil {
					return err
				}
				a.logger.Info("Exported to Google Sheets",
					log.FieldOperation, log.OpExport,
					log.FieldCount, len(records),
					log.FieldSheetsRef, ref)
				fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Exported %d expenses to %s", len(records), ref)))
				return nil
			}

			data, err := export.CSV(records)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := fmt.Fprint(w, data)
				return err
			}
			if out == "" {
				out = export.FileName(time.Now())
			}
			if err := os.WriteFile(out, []byte(data), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Exported %d expenses to %s", len(records), out)))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "output file, - for stdout (default expenses_YYYY-MM-DD.csv)")
	f.BoolVar(&sheets, "sheets", false, "export to the configured Google Sheet instead of CSV")
	return cmd
}

func themeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the display theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			theme, err := prefs.Theme(cmd.Context(), a.rt.KV)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Theme: "+string(theme)))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			theme, err := prefs.ToggleTheme(cmd.Context(), a.rt.KV)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Theme: "+string(theme)))
			return nil
		},
	})
	return cmd
}
