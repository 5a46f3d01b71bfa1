package backend

import (
	"context"
	"errors"
	"fmt"

	"expenses/internal/amqp"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/sheets"
	gsheet "expenses/internal/sheets/google"
	"expenses/internal/store"
)

// Runtime is the wired application: storage, the record service and the
// optional integrations. Events and Exporter are nil when not configured.
type Runtime struct {
	KV       Store
	Store    *store.Store
	Expenses *services.ExpenseService
	Events   *amqp.Client
	Exporter sheets.RecordExporter

	cleanups []CleanupFunc
}

// Open creates the configured backend, loads the records and connects the
// optional integrations. An unreachable broker is logged and skipped so the
// tracker keeps working offline; a misconfigured Sheets export is an error.
func Open(ctx context.Context, cfg Config, logger *log.Logger, opts ...store.Option) (*Runtime, error) {
	if logger == nil {
		logger = log.Discard()
	}
	blog := logger.WithComponent(log.ComponentBackend)

	res, err := NewFactory(logger).CreateBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{KV: res.Store}
	if res.Cleanup != nil {
		rt.cleanups = append(rt.cleanups, res.Cleanup)
	}

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			blog.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			rt.Events = client
			publisher = client
			rt.cleanups = append(rt.cleanups, client.Close)
			blog.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	if cfg.Sheets.SpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.Sheets, logger)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("initialize Google Sheets export: %w", err)
		}
		rt.Exporter = client
	}

	opts = append([]store.Option{store.WithLogger(logger)}, opts...)
	rt.Store = store.New(rt.KV, opts...)
	rt.Expenses = services.NewExpenseService(rt.Store, publisher, logger)
	if err := rt.Expenses.Load(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}

	blog.InfoContext(ctx, "Backend ready",
		log.FieldBackend, cfg.Type.String(),
		log.FieldCount, rt.Store.Len(),
		"events_enabled", rt.Events != nil,
		"sheets_enabled", rt.Exporter != nil)
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.cleanups = nil
	return errors.Join(errs...)
}
