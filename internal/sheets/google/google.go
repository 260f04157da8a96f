package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"weekbudget/internal/core"
	ports "weekbudget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base tab name; the week's year is prefixed to it.
const DefaultSheetName = "History"

// header is written to row 1 of an empty tab.
var header = []any{
	"Week ID", "Week", "Year", "Start", "End", "Allowance",
	"Needs", "Wants", "Savings", "Total Spent", "Remaining", "On Budget",
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// base name without year (e.g. "History"); AppendWeek prefixes the week's year.
	sheetBase string
}

var _ ports.HistoryExporter = (*Client)(nil)

// Options configures a Client. CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID and one of GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "History").
func NewFromEnv(ctx context.Context) (*Client, error) {
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, Options{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: file,
	})
}

func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = DefaultSheetName
	}

	creds, err := loadCredentials(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID, "sheet", base)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base}, nil
}

func loadCredentials(ctx context.Context, inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// AppendWeek writes w to the year tab. A row that already carries w's id is
// overwritten in place, otherwise the week goes to the first empty row.
func (c *Client) AppendWeek(ctx context.Context, w core.WeekSummary) (string, error) {
	if _, err := core.ParseWeekKey(w.ID); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.sheetBase, w.Year)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to read week ids from %s: %w", sheet, err)
	}

	if len(resp.Values) == 0 {
		if err := c.writeRow(ctx, sheet, 1, header); err != nil {
			return "", fmt.Errorf("failed to write header in %s: %w", sheet, err)
		}
		resp.Values = [][]any{{header[0]}}
	}

	row, existed := rowFor(resp.Values, w.ID)
	if err := c.writeRow(ctx, sheet, row, weekRow(w)); err != nil {
		return "", fmt.Errorf("failed to write week %s in %s: %w", w.ID, sheet, err)
	}
	if existed {
		slog.InfoContext(ctx, "Overwrote exported week", "week_id", w.ID, "sheet", sheet, "row", row)
	}

	return fmt.Sprintf("%s!A%d:L%d", sheet, row, row), nil
}

func (c *Client) writeRow(ctx context.Context, sheet string, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:L%d", sheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// rowFor returns the 1-based row holding id in column A, or the next free row.
func rowFor(colA [][]any, id string) (row int, existed bool) {
	for i, r := range colA {
		if len(r) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(r[0])) == id {
			return i + 1, true
		}
	}
	return len(colA) + 1, false
}

func weekRow(w core.WeekSummary) []any {
	onBudget := "NO"
	if w.OnBudget() {
		onBudget = "YES"
	}
	return []any{
		w.ID, w.WeekNumber, w.Year, w.StartDate, w.EndDate,
		w.Allowance.Pesos(), w.Needs.Pesos(), w.Wants.Pesos(), w.Savings.Pesos(),
		w.TotalSpent.Pesos(), w.Remaining.Pesos(), onBudget,
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
