package internal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Subscriptions"

// xlsxColumns is the header row written by ExportXLSX and expected by ParseSubscriptionsXLSX
var xlsxColumns = []string{
	"Name", "Price", "Currency", "Cadence", "Category", "Status",
	"Start Date", "Next Renewal", "Payment Method", "Website", "Notes",
}

// ExportXLSX writes subscriptions to an Excel workbook, one row each.
func ExportXLSX(path string, subs []Subscription) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(xlsxColumns))
	for i, c := range xlsxColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(xlsxColumns))
	if err := f.SetCellStyle(xlsxSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetColWidth(xlsxSheet, "A", "A", 28); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	for i, sub := range subs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			sub.Name,
			sub.Price,
			sub.Currency,
			string(sub.Cadence),
			string(sub.Category),
			string(sub.Status),
			sub.StartDate.String(),
			sub.NextRenewal.String(),
			string(sub.PaymentMethod),
			sub.Website,
			sub.Notes,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// ParseSubscriptionsXLSX reads subscription rows from the first sheet of a
// workbook. Columns are found by header name, so their order does not matter;
// only Name and Price are required. Blank rows are skipped.
func ParseSubscriptionsXLSX(path string) ([]NewSubscription, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	// Find header row and column indices
	cols := map[string]int{}
	dataStartRow := -1
	for i, row := range rows {
		for j, cell := range row {
			cols[strings.ToLower(strings.TrimSpace(cell))] = j
		}
		_, hasName := cols["name"]
		_, hasPrice := cols["price"]
		if hasName && hasPrice {
			dataStartRow = i + 1
			break
		}
		clear(cols)
	}
	if dataStartRow < 0 {
		return nil, fmt.Errorf("could not find required columns (Name, Price)")
	}

	get := func(row []string, name string) string {
		j, ok := cols[name]
		if !ok || j >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[j])
	}

	var result []NewSubscription
	for i := dataStartRow; i < len(rows); i++ {
		row := rows[i]
		name := get(row, "name")
		priceStr := get(row, "price")

		// Skip empty rows
		if name == "" && priceStr == "" {
			continue
		}

		sub, err := parseXLSXRow(row, get)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		result = append(result, sub)
	}

	return result, nil
}

func parseXLSXRow(row []string, get func([]string, string) string) (NewSubscription, error) {
	priceStr := strings.ReplaceAll(get(row, "price"), ",", ".")
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return NewSubscription{}, fmt.Errorf("invalid price %q", get(row, "price"))
	}

	sub := NewSubscription{
		Name:          get(row, "name"),
		Price:         price,
		Currency:      strings.ToUpper(get(row, "currency")),
		Cadence:       Cadence(strings.ToLower(get(row, "cadence"))),
		Category:      Category(strings.ToLower(get(row, "category"))),
		Status:        Status(strings.ToLower(get(row, "status"))),
		PaymentMethod: PaymentMethod(strings.ToLower(get(row, "payment method"))),
		Website:       get(row, "website"),
		Notes:         get(row, "notes"),
	}
	if sub.Cadence == "" {
		sub.Cadence = CadenceMonthly
	}

	if s := get(row, "start date"); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			return NewSubscription{}, err
		}
		sub.StartDate = d
	}
	if s := get(row, "next renewal"); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			return NewSubscription{}, err
		}
		sub.NextRenewal = d
	}
	return sub, nil
}
