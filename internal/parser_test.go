package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIsKnownParser(t *testing.T) {
	// Register a test parser
	RegisterParser("test-format", ParserFunc(func(path string, now time.Time) (Import, error) {
		return Import{}, nil
	}))

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"known parser", "test-format", true},
		{"built-in parser", "xlsx", true},
		{"backup parser", "backup-json", true},
		{"unknown parser", "unknown-format", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsKnownParser(tt.input)
			if got != tt.expected {
				t.Errorf("IsKnownParser(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFileArg(t *testing.T) {
	// Register a test parser for these tests
	RegisterParser("test-format", ParserFunc(func(path string, now time.Time) (Import, error) {
		return Import{}, nil
	}))

	tests := []struct {
		name           string
		input          string
		expectedFormat string
		expectedPath   string
	}{
		{
			name:           "with known format prefix",
			input:          "test-format:data.json",
			expectedFormat: "test-format",
			expectedPath:   "data.json",
		},
		{
			name:           "with built-in format prefix",
			input:          "xlsx:subs.xlsx",
			expectedFormat: "xlsx",
			expectedPath:   "subs.xlsx",
		},
		{
			name:           "no prefix",
			input:          "data.json",
			expectedFormat: "",
			expectedPath:   "data.json",
		},
		{
			name:           "unknown prefix treated as path",
			input:          "unknown:data.json",
			expectedFormat: "",
			expectedPath:   "unknown:data.json",
		},
		{
			name:           "windows path with drive letter",
			input:          "C:\\Users\\test\\data.xlsx",
			expectedFormat: "",
			expectedPath:   "C:\\Users\\test\\data.xlsx",
		},
		{
			name:           "path with colon but not a parser",
			input:          "foo:bar:baz.json",
			expectedFormat: "",
			expectedPath:   "foo:bar:baz.json",
		},
		{
			name:           "format prefix with path containing spaces",
			input:          "test-format:path with spaces/file.json",
			expectedFormat: "test-format",
			expectedPath:   "path with spaces/file.json",
		},
		{
			name:           "format prefix with absolute path",
			input:          "test-format:/home/user/data.json",
			expectedFormat: "test-format",
			expectedPath:   "/home/user/data.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFormat, gotPath := ParseFileArg(tt.input)
			if gotFormat != tt.expectedFormat {
				t.Errorf("ParseFileArg(%q) format = %q, want %q", tt.input, gotFormat, tt.expectedFormat)
			}
			if gotPath != tt.expectedPath {
				t.Errorf("ParseFileArg(%q) path = %q, want %q", tt.input, gotPath, tt.expectedPath)
			}
		})
	}
}

func TestResolveFileArg(t *testing.T) {
	tests := []struct {
		input          string
		expectedFormat string
		expectedPath   string
	}{
		{"backup.json", "backup-json", "backup.json"},
		{"subs.xlsx", "xlsx", "subs.xlsx"},
		{"SUBS.XLSX", "xlsx", "SUBS.XLSX"},
		{"export.txt", "backup-json", "export.txt"},
		{"xlsx:subs.dat", "xlsx", "subs.dat"},
		{"backup-json:subs.xlsx", "backup-json", "subs.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotFormat, gotPath := ResolveFileArg(tt.input)
			if gotFormat != tt.expectedFormat || gotPath != tt.expectedPath {
				t.Errorf("ResolveFileArg(%q) = (%q, %q), want (%q, %q)",
					tt.input, gotFormat, gotPath, tt.expectedFormat, tt.expectedPath)
			}
		})
	}
}

func TestGetParser_Unknown(t *testing.T) {
	_, err := GetParser("csv")
	if err == nil {
		t.Fatal("expected error for unknown source")
	}
	if !strings.Contains(err.Error(), "backup-json") {
		t.Errorf("error should list available sources, got: %v", err)
	}
}

func TestParseBackupJSON(t *testing.T) {
	data, err := ExportJSON(sampleState(), testNow)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	p, err := GetParser("backup-json")
	if err != nil {
		t.Fatal(err)
	}
	imp, err := p.Parse(path, testNow)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if imp.State == nil || len(imp.State.Subscriptions) != 2 {
		t.Fatalf("expected a state with 2 subscriptions, got %+v", imp)
	}
	if len(imp.Rows) != 0 {
		t.Errorf("backups carry no rows, got %d", len(imp.Rows))
	}

	if _, err := p.Parse(filepath.Join(t.TempDir(), "missing.json"), testNow); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestApplyImport_State(t *testing.T) {
	e := newTestEngine(t, &recordingStore{})
	state := sampleState()

	n, err := ApplyImport(e, Import{State: &state})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || len(e.Subscriptions()) != 2 {
		t.Errorf("imported %d, engine has %d, want 2", n, len(e.Subscriptions()))
	}
}

func TestApplyImport_Rows(t *testing.T) {
	store := &recordingStore{}
	e := newTestEngine(t, store)

	rows := []NewSubscription{
		{Name: "ServiceA", Price: 50, Cadence: CadenceMonthly},
		{Name: "ServiceB", Price: 75, Cadence: CadenceYearly},
	}
	n, err := ApplyImport(e, Import{Rows: rows})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("added %d, want 2", n)
	}

	bad := []NewSubscription{
		{Name: "ServiceC", Price: 5, Cadence: CadenceMonthly},
		{Name: "Broken", Price: -5, Cadence: CadenceMonthly},
		{Name: "Never", Price: 5, Cadence: CadenceMonthly},
	}
	n, err = ApplyImport(e, Import{Rows: bad})
	if err == nil {
		t.Fatal("expected error for the invalid row")
	}
	if n != 1 {
		t.Errorf("added %d before the bad row, want 1", n)
	}
	if !strings.Contains(err.Error(), "row 2 (Broken)") {
		t.Errorf("error should name the row, got: %v", err)
	}

	if err := e.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(store.lastSave().Subscriptions); got != 3 {
		t.Errorf("saved %d subscriptions, want 3", got)
	}
}

func TestApplyImport_RowsWithStaleRenewals(t *testing.T) {
	e := newTestEngine(t, &recordingStore{})
	path := filepath.Join(t.TempDir(), "export.xlsx")

	// an export taken months ago, read back today
	old := []Subscription{{
		ID: "sub_old", Name: "Netflix", Price: 15.99, Currency: "USD",
		Cadence: CadenceMonthly, Category: CategoryStreaming, Status: StatusActive,
		StartDate: NewDate(2025, 1, 5), NextRenewal: NewDate(2025, 2, 5),
	}}
	if err := ExportXLSX(path, old); err != nil {
		t.Fatal(err)
	}
	parser, err := GetParser("xlsx")
	if err != nil {
		t.Fatal(err)
	}
	imp, err := parser.Parse(path, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ApplyImport(e, imp); err != nil {
		t.Fatal(err)
	}

	upcoming := e.GetUpcomingRenewals(31)
	if len(upcoming) != 1 {
		t.Fatalf("expected the imported row in upcoming renewals, got %+v", upcoming)
	}
	if got := upcoming[0].NextRenewal; got != NewDate(2025, 7, 5) {
		t.Errorf("next renewal = %v, want 2025-07-05", got)
	}
}
