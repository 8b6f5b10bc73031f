package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportXLSX_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.xlsx")
	subs := sampleState().Subscriptions

	if err := ExportXLSX(path, subs); err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}

	rows, err := ParseSubscriptionsXLSX(path)
	if err != nil {
		t.Fatalf("ParseSubscriptionsXLSX failed: %v", err)
	}
	if len(rows) != len(subs) {
		t.Fatalf("expected %d rows, got %d", len(subs), len(rows))
	}

	got := rows[0]
	want := subs[0]
	if got.Name != want.Name || got.Price != want.Price || got.Currency != want.Currency {
		t.Errorf("row 1 = %+v", got)
	}
	if got.Cadence != want.Cadence || got.Category != want.Category || got.Status != want.Status {
		t.Errorf("row 1 enums = %s %s %s", got.Cadence, got.Category, got.Status)
	}
	if got.StartDate != want.StartDate || got.NextRenewal != want.NextRenewal {
		t.Errorf("row 1 dates = %v %v", got.StartDate, got.NextRenewal)
	}
	if got.PaymentMethod != PaymentCard || got.Website != want.Website {
		t.Errorf("row 1 payment/website = %s %s", got.PaymentMethod, got.Website)
	}
	if rows[1].Cadence != CadenceYearly || rows[1].Price != 399 {
		t.Errorf("row 2 = %+v", rows[1])
	}
}

func writeSheet(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.xlsx")
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseSubscriptionsXLSX_HeaderSearch(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"My subscriptions"},
		{},
		{"Price", "Notes", "Name"},
		{"4,50", "cheap", "Paper"},
		{"", "", ""},
		{"12", "", "Gym"},
	})

	rows, err := ParseSubscriptionsXLSX(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if rows[0].Name != "Paper" || rows[0].Price != 4.5 || rows[0].Notes != "cheap" {
		t.Errorf("row 1 = %+v", rows[0])
	}
	if rows[1].Cadence != CadenceMonthly {
		t.Errorf("cadence should default to monthly, got %q", rows[1].Cadence)
	}
}

func TestParseSubscriptionsXLSX_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
	}{
		{"no header", [][]any{{"Service", "Cost"}, {"Netflix", "10"}}},
		{"bad price", [][]any{{"Name", "Price"}, {"Netflix", "ten"}}},
		{"bad date", [][]any{{"Name", "Price", "Start Date"}, {"Netflix", "10", "yesterday"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSubscriptionsXLSX(writeSheet(t, tt.rows)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := ParseSubscriptionsXLSX(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseSubscriptionsXLSX_AnyExtension(t *testing.T) {
	src := writeSheet(t, [][]any{{"Name", "Price"}, {"Netflix", "15.99"}})
	path := filepath.Join(t.TempDir(), "subs.dat")
	if err := os.Rename(src, path); err != nil {
		t.Fatal(err)
	}

	rows, err := ParseSubscriptionsXLSX(path)
	if err != nil {
		t.Fatalf("ParseSubscriptionsXLSX(%s) failed: %v", path, err)
	}
	if len(rows) != 1 || rows[0].Name != "Netflix" {
		t.Errorf("rows = %+v", rows)
	}
}
