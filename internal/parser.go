package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Import is what a parser read from a file: either a whole saved state
// (backups) or rows to add as new subscriptions (spreadsheets).
type Import struct {
	State *AppState
	Rows  []NewSubscription
}

// Parser reads an import file
type Parser interface {
	Parse(path string, now time.Time) (Import, error)
}

// ParserFunc is a function that implements Parser
type ParserFunc func(path string, now time.Time) (Import, error)

func (f ParserFunc) Parse(path string, now time.Time) (Import, error) {
	return f(path, now)
}

// parsers is the registry of available parsers
var parsers = map[string]Parser{}

// RegisterParser registers a parser with the given name
func RegisterParser(name string, p Parser) {
	parsers[name] = p
}

// GetParser returns the parser for the given source type
func GetParser(source string) (Parser, error) {
	p, ok := parsers[source]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %s (available: %v)", source, AvailableSources())
	}
	return p, nil
}

// AvailableSources returns the registered source types, sorted
func AvailableSources() []string {
	var sources []string
	for name := range parsers {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	return sources
}

// IsKnownParser returns true if the name is a registered parser
func IsKnownParser(name string) bool {
	_, ok := parsers[name]
	return ok
}

// ParseFileArg parses a file argument that may have a format prefix.
// Returns (format, path). If no valid prefix, format is empty.
// Example: "xlsx:subs.xlsx" → ("xlsx", "subs.xlsx")
// Example: "backup.json" → ("", "backup.json")
// Example: "C:\path\file.xlsx" → ("", "C:\path\file.xlsx") // Windows path
func ParseFileArg(arg string) (format, path string) {
	idx := strings.Index(arg, ":")
	if idx == -1 {
		return "", arg
	}
	prefix := arg[:idx]
	if IsKnownParser(prefix) {
		return prefix, arg[idx+1:]
	}
	return "", arg // Not a known parser, treat whole thing as path
}

// ResolveFileArg is ParseFileArg with the format guessed from the file
// extension when there is no prefix.
func ResolveFileArg(arg string) (format, path string) {
	format, path = ParseFileArg(arg)
	if format != "" {
		return format, path
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return "xlsx", path
	}
	return "backup-json", path
}

// ParseBackupJSON reads a backup written by ExportJSON
func ParseBackupJSON(path string, now time.Time) (Import, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Import{}, fmt.Errorf("reading file: %w", err)
	}
	state, err := ImportJSON(data, now)
	if err != nil {
		return Import{}, err
	}
	return Import{State: &state}, nil
}

func parseXLSXImport(path string, _ time.Time) (Import, error) {
	rows, err := ParseSubscriptionsXLSX(path)
	if err != nil {
		return Import{}, err
	}
	return Import{Rows: rows}, nil
}

// ApplyImport feeds an import into the engine and returns how many
// subscriptions it brought in. Rows are validated one by one; the first
// invalid row stops the import, leaving earlier rows added.
func ApplyImport(e *Engine, imp Import) (int, error) {
	if imp.State != nil {
		e.ImportState(*imp.State)
		return len(imp.State.Subscriptions), nil
	}

	added := 0
	for i, row := range imp.Rows {
		if _, err := e.AddSubscription(row); err != nil {
			return added, fmt.Errorf("row %d (%s): %w", i+1, row.Name, err)
		}
		added++
	}
	return added, nil
}

func init() {
	// Register built-in parsers
	RegisterParser("backup-json", ParserFunc(ParseBackupJSON))
	RegisterParser("xlsx", ParserFunc(parseXLSXImport))
}
