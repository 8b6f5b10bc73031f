package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// OutputOptions controls how subscriptions are displayed
type OutputOptions struct {
	ShowFilter     string // all, active, trial, paused, cancelled
	CategoryFilter string
	SortField      string // name, price, monthly, renewal
	SortDir        string
	Settings       AppSettings
	Today          Date
}

// JSONOutput is the root JSON output object
type JSONOutput struct {
	Subscriptions []JSONSubscription `json:"subscriptions"`
	Summary       JSONSummary        `json:"summary"`
}

// JSONSummary contains aggregate statistics
type JSONSummary struct {
	Count        int     `json:"count"`
	ActiveCount  int     `json:"active_count"`
	MonthlyTotal float64 `json:"monthly_total"`
	YearlyTotal  float64 `json:"yearly_total"`
	Currency     string  `json:"currency"`
}

// JSONSubscription is the JSON output format for a subscription
type JSONSubscription struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Status        string  `json:"status"`
	Cadence       string  `json:"cadence"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	MonthlyCost   float64 `json:"monthly_cost"`
	YearlyCost    float64 `json:"yearly_cost"`
	StartDate     string  `json:"start_date"`
	NextRenewal   string  `json:"next_renewal"`
	DaysUntil     int     `json:"days_until"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Website       string  `json:"website,omitempty"`
}

// PrintSubscriptionsJSON outputs subscriptions in JSON format
func PrintSubscriptionsJSON(w io.Writer, subs []Subscription, opts OutputOptions) error {
	subscriptions := make([]JSONSubscription, 0, len(subs))
	active := 0
	for _, sub := range subs {
		if sub.Status == StatusActive {
			active++
		}
		subscriptions = append(subscriptions, JSONSubscription{
			ID:            sub.ID,
			Name:          sub.Name,
			Category:      string(sub.Category),
			Status:        string(sub.Status),
			Cadence:       string(sub.Cadence),
			Price:         sub.Price,
			Currency:      sub.Currency,
			MonthlyCost:   ToMonthlyEquivalent(sub.Price, sub.Cadence),
			YearlyCost:    ToYearlyEquivalent(sub.Price, sub.Cadence),
			StartDate:     sub.StartDate.String(),
			NextRenewal:   sub.NextRenewal.String(),
			DaysUntil:     DaysBetween(opts.Today, sub.NextRenewal),
			PaymentMethod: string(sub.PaymentMethod),
			Website:       sub.Website,
		})
	}

	output := JSONOutput{
		Subscriptions: subscriptions,
		Summary: JSONSummary{
			Count:        len(subscriptions),
			ActiveCount:  active,
			MonthlyTotal: MonthlyTotal(subs),
			YearlyTotal:  YearlyTotal(subs),
			Currency:     opts.Settings.Currency,
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func statusText(s Status) string {
	switch s {
	case StatusActive:
		return text.FgGreen.Sprint("ACTIVE")
	case StatusTrial:
		return text.FgCyan.Sprint("TRIAL")
	case StatusPaused:
		return text.FgYellow.Sprint("PAUSED")
	default:
		return text.FgRed.Sprint("CANCELLED")
	}
}

// renewalText renders a renewal date with a relative hint, e.g. "03/14/2026 (in 3 days)"
func renewalText(d Date, today Date, format string) string {
	days := DaysBetween(today, d)
	var rel string
	switch {
	case days == 0:
		rel = text.FgYellow.Sprint("today")
	case days == 1:
		rel = "tomorrow"
	case days < 0:
		rel = text.FgHiBlack.Sprintf("%d days ago", -days)
	default:
		rel = fmt.Sprintf("in %d days", days)
	}
	return fmt.Sprintf("%s (%s)", FormatDate(d, format), rel)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// PrintSubscriptionsTable outputs subscriptions as a formatted table
func PrintSubscriptionsTable(w io.Writer, allSubs []Subscription, displaySubs []Subscription, opts OutputOptions) {
	counts := map[Status]int{}
	for _, sub := range allSubs {
		counts[sub.Status]++
	}

	fmt.Fprintf(w, "Found %d subscriptions (%d active, %d trial, %d paused, %d cancelled)\n",
		len(allSubs), counts[StatusActive], counts[StatusTrial], counts[StatusPaused], counts[StatusCancelled])
	showingStr := opts.ShowFilter
	if opts.CategoryFilter != "" {
		showingStr += fmt.Sprintf(", category: %s", opts.CategoryFilter)
	}
	fmt.Fprintf(w, "Showing: %s\n\n", showingStr)

	SortSubscriptions(displaySubs, opts.SortField, opts.SortDir)

	hasPayment := false
	for _, sub := range displaySubs {
		if sub.PaymentMethod != "" {
			hasPayment = true
			break
		}
	}

	t := newTable(w)

	header := table.Row{"ID", "Name", "Category", "Status", "Price", "Next Renewal"}
	if hasPayment {
		header = append(header, "Payment")
	}
	header = append(header, "Monthly", "Yearly")
	t.AppendHeader(header)

	for _, sub := range displaySubs {
		cur := GetCurrency(sub.Currency)
		monthlyStr := cur.Format(ToMonthlyEquivalent(sub.Price, sub.Cadence))
		yearlyStr := cur.Format(ToYearlyEquivalent(sub.Price, sub.Cadence))
		if sub.Status != StatusActive {
			monthlyStr = text.FgHiBlack.Sprint("-")
			yearlyStr = text.FgHiBlack.Sprint("-")
		}

		row := table.Row{
			sub.ID,
			sub.Name,
			sub.Category.Label(),
			statusText(sub.Status),
			cur.Format(sub.Price) + sub.Cadence.Suffix(),
			renewalText(sub.NextRenewal, opts.Today, opts.Settings.DateFormat),
		}
		if hasPayment {
			row = append(row, sub.PaymentMethod.Label())
		}
		row = append(row, monthlyStr, yearlyStr)
		t.AppendRow(row)
	}

	t.AppendSeparator()

	cur := GetCurrency(opts.Settings.Currency)
	footer := table.Row{"", "", "", "", ""}
	if hasPayment {
		footer = append(footer, "")
	}
	footer = append(footer, text.Bold.Sprint("Total (active)"),
		text.Bold.Sprint(cur.Format(MonthlyTotal(displaySubs))),
		text.Bold.Sprint(cur.Format(YearlyTotal(displaySubs))))
	t.AppendFooter(footer)

	// Right-align Price, Monthly and Yearly
	colCount := len(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: colCount - 1, Align: text.AlignRight},
		{Number: colCount, Align: text.AlignRight},
	})

	t.Render()
}

// PrintSubscriptionDetail prints one subscription with its reminders and price history
func PrintSubscriptionDetail(w io.Writer, sub Subscription, snooze *SnoozeState, settings AppSettings, today Date) {
	cur := GetCurrency(sub.Currency)

	t := newTable(w)
	t.SetTitle(sub.Name)
	t.AppendRows([]table.Row{
		{"ID", sub.ID},
		{"Status", statusText(sub.Status)},
		{"Category", sub.Category.Label()},
		{"Price", cur.Format(sub.Price) + sub.Cadence.Suffix()},
		{"Cadence", sub.Cadence.Label()},
		{"Monthly", cur.Format(ToMonthlyEquivalent(sub.Price, sub.Cadence))},
		{"Yearly", cur.Format(ToYearlyEquivalent(sub.Price, sub.Cadence))},
		{"Started", FormatDate(sub.StartDate, settings.DateFormat)},
		{"Next Renewal", renewalText(sub.NextRenewal, today, settings.DateFormat)},
	})
	if sub.PaymentMethod != "" {
		t.AppendRow(table.Row{"Payment", sub.PaymentMethod.Label()})
	}
	if sub.Website != "" {
		t.AppendRow(table.Row{"Website", sub.Website})
	}
	if sub.Notes != "" {
		t.AppendRow(table.Row{"Notes", sub.Notes})
	}
	if snooze != nil && snooze.SnoozedUntil.After(today) {
		t.AppendRow(table.Row{"Snoozed Until", FormatDate(snooze.SnoozedUntil, settings.DateFormat)})
	}
	t.Render()

	fmt.Fprintln(w)
	rt := newTable(w)
	rt.SetTitle("Reminders")
	rt.AppendHeader(table.Row{"ID", "When", "Enabled"})
	for _, r := range sub.Reminders {
		enabled := text.FgHiBlack.Sprint("no")
		if r.Enabled {
			enabled = text.FgGreen.Sprint("yes")
		}
		rt.AppendRow(table.Row{r.ID, r.Type.Label(), enabled})
	}
	rt.Render()

	fmt.Fprintln(w)
	PrintPriceHistory(w, sub, settings)
}

// PrintPriceHistory prints the price history oldest first, with the change from the previous entry
func PrintPriceHistory(w io.Writer, sub Subscription, settings AppSettings) {
	cur := GetCurrency(sub.Currency)

	t := newTable(w)
	t.SetTitle("Price History")
	t.AppendHeader(table.Row{"Date", "Price", "Change", "Note"})
	for i, pc := range sub.PriceHistory {
		change := ""
		if i > 0 {
			diff := pc.Price - sub.PriceHistory[i-1].Price
			switch {
			case diff > 0:
				change = text.FgRed.Sprint("+" + cur.Format(diff))
			case diff < 0:
				change = text.FgGreen.Sprint(cur.Format(diff))
			}
		}
		t.AppendRow(table.Row{FormatDate(DateOf(pc.Date), settings.DateFormat), cur.Format(pc.Price), change, pc.Note})
	}
	if len(sub.PriceHistory) > 1 {
		lo, hi := PriceRange(sub.PriceHistory)
		t.AppendFooter(table.Row{"", text.Bold.Sprint(cur.FormatRange(lo, hi)), "", "range"})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

// PrintUpcomingTable prints renewals that are coming up, soonest first
func PrintUpcomingTable(w io.Writer, subs []Subscription, withinDays int, settings AppSettings, today Date) {
	if len(subs) == 0 {
		fmt.Fprintf(w, "No renewals in the next %d days\n", withinDays)
		return
	}

	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Renewals in the next %d days", withinDays))
	t.AppendHeader(table.Row{"Name", "Renews", "Price"})

	var due float64
	for _, sub := range subs {
		t.AppendRow(table.Row{sub.Name, renewalText(sub.NextRenewal, today, settings.DateFormat), GetCurrency(sub.Currency).Format(sub.Price)})
		due += sub.Price
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", text.Bold.Sprint("Total due"), text.Bold.Sprint(GetCurrency(settings.Currency).Format(due))})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	t.Render()
}

// PrintAlertsTable prints the alerts that are due today
func PrintAlertsTable(w io.Writer, alerts []Alert, settings AppSettings) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No alerts")
		return
	}

	t := newTable(w)
	t.SetTitle("Alerts")
	t.AppendHeader(table.Row{"ID", "Name", "Renews", "Price", "Reminders"})
	for _, a := range alerts {
		when := fmt.Sprintf("in %d days", a.DaysUntil)
		switch a.DaysUntil {
		case 0:
			when = text.FgRed.Sprint("today")
		case 1:
			when = text.FgYellow.Sprint("tomorrow")
		}
		labels := make([]string, len(a.Due))
		for i, r := range a.Due {
			labels[i] = r.Label()
		}
		sub := a.Subscription
		t.AppendRow(table.Row{
			sub.ID,
			sub.Name,
			FormatDate(sub.NextRenewal, settings.DateFormat) + " (" + when + ")",
			GetCurrency(sub.Currency).Format(sub.Price),
			strings.Join(labels, ", "),
		})
	}
	t.Render()
}

// PrintTotals prints the active spend summary grouped by category
func PrintTotals(w io.Writer, subs []Subscription, settings AppSettings) {
	cur := GetCurrency(settings.Currency)

	byCategory := map[Category]float64{}
	for _, sub := range subs {
		if sub.Status == StatusActive {
			byCategory[sub.Category] += ToMonthlyEquivalent(sub.Price, sub.Cadence)
		}
	}

	t := newTable(w)
	t.SetTitle("Spending (active)")
	t.AppendHeader(table.Row{"Category", "Monthly", "Yearly"})
	for _, c := range Categories {
		monthly, ok := byCategory[c]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{c.Label(), cur.Format(monthly), cur.Format(monthly / 30 * 365)})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("Total"), text.Bold.Sprint(cur.Format(MonthlyTotal(subs))), text.Bold.Sprint(cur.Format(YearlyTotal(subs)))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

// SortSubscriptions sorts in place by name, price, monthly cost or renewal date
func SortSubscriptions(subs []Subscription, field, dir string) {
	less := func(a, b Subscription) bool {
		switch field {
		case "price":
			return a.Price < b.Price
		case "monthly":
			return ToMonthlyEquivalent(a.Price, a.Cadence) < ToMonthlyEquivalent(b.Price, b.Cadence)
		case "renewal":
			return a.NextRenewal.Before(b.NextRenewal)
		default: // "name"
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if dir == "desc" {
			return less(subs[j], subs[i])
		}
		return less(subs[i], subs[j])
	})
}

// FilterByStatus filters subscriptions by status name, or returns all for "all"
func FilterByStatus(subs []Subscription, show string) []Subscription {
	if show == "" || show == "all" {
		return subs
	}
	var result []Subscription
	for _, sub := range subs {
		if string(sub.Status) == show {
			result = append(result, sub)
		}
	}
	return result
}

// FilterByCategory keeps subscriptions of one category; empty keeps all
func FilterByCategory(subs []Subscription, category string) []Subscription {
	if category == "" {
		return subs
	}
	var result []Subscription
	for _, sub := range subs {
		if strings.EqualFold(string(sub.Category), category) {
			result = append(result, sub)
		}
	}
	return result
}
