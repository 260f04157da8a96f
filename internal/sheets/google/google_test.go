package google

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"weekbudget/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := loadCredentials(context.Background(), "", path)
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("file credentials: %q %v", got, err)
	}
	got, err = loadCredentials(context.Background(), ` {"inline":true} `, path)
	if err != nil || string(got) != `{"inline":true}` {
		t.Fatalf("inline credentials should win: %q %v", got, err)
	}
	if _, err := loadCredentials(context.Background(), "", filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestAppendWeek_Validation(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: DefaultSheetName}

	if _, err := c.AppendWeek(context.Background(), core.WeekSummary{ID: "bogus"}); err == nil ||
		!strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err := c.AppendWeek(context.Background(), core.WeekSummary{ID: "2026-3", Year: 2026, WeekNumber: 3})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected uninitialized service error, got %v", err)
	}
}

func TestRowFor(t *testing.T) {
	col := [][]any{{"Week ID"}, {"2026-1"}, {}, {" 2026-3 "}}

	tests := []struct {
		id      string
		row     int
		existed bool
	}{
		{"2026-1", 2, true},
		{"2026-3", 4, true},
		{"2026-4", 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			row, existed := rowFor(col, tt.id)
			if row != tt.row || existed != tt.existed {
				t.Fatalf("rowFor(%q) = %d,%v want %d,%v", tt.id, row, existed, tt.row, tt.existed)
			}
		})
	}
}

func TestWeekRow(t *testing.T) {
	w := core.WeekSummary{
		ID: "2026-42", WeekNumber: 42, Year: 2026, StartDate: "2026-10-11", EndDate: "2026-10-17",
		Allowance: core.Money{Cents: 50000}, Needs: core.Money{Cents: 10000}, Wants: core.Money{Cents: 52550},
		TotalSpent: core.Money{Cents: 62550}, Remaining: core.Money{Cents: -12550},
	}
	want := []any{"2026-42", 42, 2026, "2026-10-11", "2026-10-17", 500.0, 100.0, 525.5, 0.0, 625.5, -125.5, "NO"}
	if got := weekRow(w); !reflect.DeepEqual(got, want) {
		t.Fatalf("weekRow = %v\nwant %v", got, want)
	}
	if len(want) != len(header) {
		t.Fatalf("row has %d columns, header has %d", len(want), len(header))
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"History", "2026 History"},
		{"  History ", "2026 History"},
		{"2025 History", "2025 History"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, 2026); got != tt.want {
			t.Errorf("yearPrefixedName(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
