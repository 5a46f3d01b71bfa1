package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
	ports "expenses/internal/sheets"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.RecordExporter = (*Client)(nil)

// Config selects the target spreadsheet and how to authenticate. A service
// account wins over an OAuth client/token pair when both are present.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountFile string
	ServiceAccountJSON string
	OAuthClientFile    string
	OAuthTokenFile     string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New builds an authenticated Sheets client.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets credentials: %w", err)
	}

	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling()), ts)
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}
	logger.Debug("Google Sheets client ready", "spreadsheet_id", cfg.SpreadsheetID, "sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: sheetName, logger: logger}, nil
}

func tokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	switch {
	case cfg.ServiceAccountJSON != "" || cfg.ServiceAccountFile != "":
		raw := []byte(cfg.ServiceAccountJSON)
		if len(raw) == 0 {
			b, err := os.ReadFile(cfg.ServiceAccountFile)
			if err != nil {
				return nil, fmt.Errorf("read service account file: %w", err)
			}
			raw = b
		}
		creds, err := goauth.CredentialsFromJSON(ctx, raw, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("parse service account: %w", err)
		}
		return creds.TokenSource, nil

	case cfg.OAuthClientFile != "" && cfg.OAuthTokenFile != "":
		oauthCfg, err := LoadOAuthConfig(cfg.OAuthClientFile)
		if err != nil {
			return nil, err
		}
		tok, err := LoadToken(cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		return oauthCfg.TokenSource(ctx, tok), nil

	default:
		return nil, errors.New("set a service account (file or JSON) or an OAuth client and token file")
	}
}

// newHTTPClientWithPooling returns an HTTP client tuned for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Export replaces the sheet with a header row followed by one row per record,
// newest first.
func (c *Client) Export(ctx context.Context, records []core.Record) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	values, err := Values(records)
	if err != nil {
		return "", err
	}

	clearRange := a1Range(c.sheetName, "A:D")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	ref := a1Range(c.sheetName, fmt.Sprintf("A1:D%d", len(values)))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", ref, err)
	}

	c.logger.InfoContext(ctx, "Expenses exported to Google Sheets",
		log.FieldCount, len(values)-1,
		log.FieldSheetsRef, ref,
		log.FieldOperation, log.OpExport)
	return ref, nil
}

// Values converts records to the sheet matrix, header included. Amounts are
// written as two-decimal strings and parsed by Sheets as numbers.
func Values(records []core.Record) ([][]any, error) {
	rows, err := export.Rows(records)
	if err != nil {
		return nil, err
	}
	values := make([][]any, 0, len(rows)+1)
	values = append(values, toAny(export.Header))
	for _, row := range rows {
		values = append(values, toAny(row))
	}
	return values, nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// a1Range quotes the sheet name so names with spaces or quotes are valid.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}
