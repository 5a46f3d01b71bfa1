package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/worker"
)

func serveCmd() *cobra.Command {
	var auditEvents, mirrorSheets bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		Long: `Serve the expense API on PORT until interrupted.

With --audit-events and AMQP_URL set, the server also consumes the change
event queue and logs every event it receives. With --mirror-sheets and a
configured spreadsheet, every change is pushed to Google Sheets within
SHEETS_MIRROR_INTERVAL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), auditEvents, mirrorSheets)
		},
	}
	cmd.Flags().BoolVar(&auditEvents, "audit-events", false, "consume and log change events from the AMQP queue")
	cmd.Flags().BoolVar(&mirrorSheets, "mirror-sheets", false, "keep the Google Sheet in step with every change")
	return cmd
}

func runServe(ctx context.Context, auditEvents, mirrorSheets bool) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Hooks are registered before the server accepts writes.
	var mirror *worker.SheetsMirror
	if mirrorSheets {
		if a.rt.Exporter == nil {
			a.logger.Warn("Sheets mirror requested but GOOGLE_SPREADSHEET_ID is not set")
		} else {
			mirror = worker.NewSheetsMirror(a.rt.Expenses, a.rt.Exporter,
				worker.MirrorConfig{Interval: a.cfg.SheetsMirrorInterval}, a.logger)
			a.rt.Expenses.OnChange(mirror.MarkDirty)
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:     ":" + a.cfg.Port,
		Expenses: a.rt.Expenses,
		Prefs:    a.rt.KV,
		Exporter: a.rt.Exporter,
		Logger:   a.logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfoContext(gctx, "Starting expenses server",
			"port", a.cfg.Port,
			log.FieldBackend, a.cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if auditEvents && a.rt.Events != nil {
		g.Go(func() error {
			err := a.rt.Events.Consume(gctx, func(ctx context.Context, e *amqp.RecordEvent) error {
				a.logger.LogFields(ctx, slog.LevelInfo, "Expense event received",
					log.NewFields().
						WithOperation(log.OpConsume).
						WithRecord(e.ID, e.Record.Title, e.Record.Amount.String(), string(e.Record.Category), e.Record.Date.String()).
						With("type", string(e.Type)))
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if mirror != nil {
		g.Go(func() error { return mirror.Run(gctx) })
	}

	err = g.Wait()
	a.logger.Info("Server stopped gracefully")
	return err
}
