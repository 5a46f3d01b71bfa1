package backend

import (
	"context"
	"path/filepath"
	"testing"

	"expenses/internal/config"
	"expenses/internal/core"
	"expenses/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         "sqlite",
		SQLiteDBPath:        "/tmp/x.db",
		AMQPURL:             "amqp://localhost",
		AMQPExchange:        "expenses",
		GoogleSpreadsheetID: "sheet",
		GoogleSheetName:     "Expenses",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "sheet", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "Expenses", cfg.Sheets.SheetName)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without exchange", Config{Type: MemoryBackend, AMQPURL: "amqp://x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	require.NoError(t, res.Store.Set(ctx, kv.KeyDarkMode, "true"))
	require.NoError(t, res.Cleanup())

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "kv.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })
	require.NoError(t, res.Store.Set(ctx, kv.KeyDarkMode, "true"))
	v, ok, err := res.Store.Get(ctx, kv.KeyDarkMode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	_, err = f.CreateBackend(ctx, Config{Type: "bogus"})
	assert.Error(t, err)
}

func TestOpenPersistsAcrossRuntimes(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "expenses.db")}

	rt, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, rt.Events)
	assert.Nil(t, rt.Exporter)

	created, err := rt.Expenses.Create(ctx, core.Input{Title: "Rent", Amount: "1200", Category: "bills", Date: "2024-03-01"})
	require.NoError(t, err)
	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close(), "Close is idempotent")

	rt, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	all := rt.Expenses.All()
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
	assert.Equal(t, "Rent", all[0].Title)
}

func TestOpenFailsOnBadSheetsCredentials(t *testing.T) {
	cfg := Config{Type: MemoryBackend}
	cfg.Sheets.SpreadsheetID = "sheet"
	cfg.Sheets.ServiceAccountFile = filepath.Join(t.TempDir(), "missing.json")

	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
