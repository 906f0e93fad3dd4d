// Package google adapts the shared-ledger ports onto a Google Spreadsheet
// using the Sheets v4 API with service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"registro/internal/ledger"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	ownersSheet   string
	// Spreadsheet holding the owner registry; defaults to the ledger
	// spreadsheet when not configured separately.
	ownersSpreadsheetID string
}

var (
	_ ledger.TableBackend  = (*Client)(nil)
	_ ledger.OwnerRegistry = (*Client)(nil)
)

// Options name the spreadsheet and worksheets the client talks to.
type Options struct {
	SpreadsheetID       string
	LedgerSheet         string
	OwnersSpreadsheetID string
	OwnersSheet         string
}

// New creates a Sheets-backed client. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	c := &Client{
		svc:                 svc,
		spreadsheetID:       opts.SpreadsheetID,
		ledgerSheet:         strings.TrimSpace(opts.LedgerSheet),
		ownersSheet:         strings.TrimSpace(opts.OwnersSheet),
		ownersSpreadsheetID: strings.TrimSpace(opts.OwnersSpreadsheetID),
	}
	if c.ledgerSheet == "" {
		c.ledgerSheet = "Movimientos"
	}
	if c.ownersSheet == "" {
		c.ownersSheet = "Usuarios"
	}
	if c.ownersSpreadsheetID == "" {
		c.ownersSpreadsheetID = c.spreadsheetID
	}
	return c, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) ReadAllRows(ctx context.Context) (ledger.Table, error) {
	rng := fmt.Sprintf("%s!A:Z", c.ledgerSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return ledger.Table{}, fmt.Errorf("%w: read %s: %v", ledger.ErrStoreUnavailable, rng, err)
	}
	if len(resp.Values) == 0 {
		return ledger.Table{}, nil
	}
	t := ledger.Table{Header: toStrings(resp.Values[0])}
	for _, row := range resp.Values[1:] {
		t.Rows = append(t.Rows, toStrings(row))
	}
	return t, nil
}

// WriteAllRows clears the worksheet and writes the table back from A1. RAW
// input option keeps cell text untouched so foreign rows round-trip exactly.
func (c *Client) WriteAllRows(ctx context.Context, t ledger.Table) error {
	clearRng := fmt.Sprintf("%s!A:Z", c.ledgerSheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ledger.ErrStoreUnavailable, clearRng, err)
	}

	values := make([][]any, 0, len(t.Rows)+1)
	values = append(values, toAnys(t.Header))
	for _, row := range t.Rows {
		values = append(values, toAnys(row))
	}
	vr := &gsheet.ValueRange{Values: values}
	writeRng := fmt.Sprintf("%s!A1", c.ledgerSheet)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: write %s: %v", ledger.ErrStoreUnavailable, writeRng, err)
	}
	slog.InfoContext(ctx, "Ledger sheet rewritten", "sheet", c.ledgerSheet, "rows", len(t.Rows))
	return nil
}

func (c *Client) AppendRow(ctx context.Context, row []string) error {
	rng := fmt.Sprintf("%s!A:Z", c.ledgerSheet)
	vr := &gsheet.ValueRange{Values: [][]any{toAnys(row)}}
	if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: append to %s: %v", ledger.ErrStoreUnavailable, c.ledgerSheet, err)
	}
	return nil
}

// ListKnownOwners reads column A of the registry worksheet.
func (c *Client) ListKnownOwners(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.ownersSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.ownersSpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ledger.ErrStoreUnavailable, rng, err)
	}
	var out []string
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) AppendOwner(ctx context.Context, owner string) error {
	rng := fmt.Sprintf("%s!A:A", c.ownersSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{owner}}}
	if _, err := c.svc.Spreadsheets.Values.Append(c.ownersSpreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: append owner to %s: %v", ledger.ErrStoreUnavailable, c.ownersSheet, err)
	}
	return nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toAnys(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
