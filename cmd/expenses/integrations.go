package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/sheets/google"
	"expenses/internal/worker"
)

func eventsCmd() *cobra.Command {
	var mirrorSheets bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow expense change events from AMQP",
		Long: `Consume the change event queue and print each event until interrupted.
Requires AMQP_URL.

With --mirror-sheets the command also acts as a sync worker: it reloads the
collection after changes made by other processes and pushes it to the
configured Google Sheet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.rt.Events == nil {
				return errors.New("no AMQP connection: set AMQP_URL")
			}

			var mirror *worker.SheetsMirror
			if mirrorSheets {
				if a.rt.Exporter == nil {
					return errors.New("google sheets export is not configured: set GOOGLE_SPREADSHEET_ID")
				}
				mirror = worker.NewSheetsMirror(a.rt.Expenses, a.rt.Exporter,
					worker.MirrorConfig{Interval: a.cfg.SheetsMirrorInterval, Reload: true}, a.logger)
			}

			w := cmd.OutOrStdout()
			g, ctx := errgroup.WithContext(cmd.Context())
			if mirror != nil {
				g.Go(func() error { return mirror.Run(ctx) })
			}
			g.Go(func() error {
				fmt.Fprintln(w, cli.FormatInfo("Waiting for events, press Ctrl+C to stop."))
				err := a.rt.Events.Consume(ctx, func(ctx context.Context, e *amqp.RecordEvent) error {
					if _, err := fmt.Fprintln(w, formatEvent(e)); err != nil {
						return err
					}
					if mirror != nil {
						return mirror.HandleEvent(ctx, e)
					}
					return nil
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&mirrorSheets, "mirror-sheets", false, "push the collection to Google Sheets after each change")
	return cmd
}

// formatEvent renders one line per event, e.g.
// "15:04:05 expense.created #1709251200000 Rent (Bills & Utilities, 2024-03-01)".
func formatEvent(e *amqp.RecordEvent) string {
	return fmt.Sprintf("%s %s #%d %s (%s, %s)",
		cli.SubtleStyle.Render(e.Timestamp.Format("15:04:05")),
		cli.BoldStyle.Render(string(e.Type)),
		e.ID, e.Record.Title, e.Record.Category.DisplayName(), e.Record.Date)
}

func sheetsAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets export with OAuth",
		Long: `Run the installed-app OAuth flow and store the token.

Reads the client credentials from GOOGLE_OAUTH_CLIENT_FILE, listens on
OAUTH_REDIRECT_PORT for the redirect and writes the token to
GOOGLE_OAUTH_TOKEN_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadConfig(overrides)
			if err != nil {
				return err
			}
			if cfg.GoogleOAuthClientFile == "" || cfg.GoogleOAuthTokenFile == "" {
				return errors.New("set GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_OAUTH_TOKEN_FILE")
			}

			oauthCfg, err := google.LoadOAuthConfig(cfg.GoogleOAuthClientFile)
			if err != nil {
				return err
			}
			tok, err := google.Authorize(cmd.Context(), oauthCfg, cfg.GoogleOAuthRedirectPort, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := google.SaveToken(cfg.GoogleOAuthTokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Token saved to "+cfg.GoogleOAuthTokenFile))
			return nil
		},
	}
}
