package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gigurra/subscription-tracker/internal"
)

// app carries what every action needs for one CLI invocation
type app struct {
	engine *internal.Engine
	cfg    *internal.Config
	params *Params
	out    io.Writer
	now    func() time.Time
}

func (a *app) dispatch(ctx context.Context) error {
	switch a.params.Action {
	case "list":
		return a.list()
	case "show":
		return a.show()
	case "add":
		return a.add()
	case "update":
		return a.update()
	case "delete":
		return a.delete()
	case "price":
		return a.price()
	case "remind":
		return a.remind()
	case "snooze":
		return a.snooze()
	case "unsnooze":
		return a.unsnooze()
	case "upcoming":
		return a.upcoming()
	case "alerts":
		return a.alerts()
	case "totals":
		return a.totals()
	case "settings":
		return a.settings()
	case "demo":
		a.engine.LoadDemoData()
		fmt.Fprintf(a.out, "Loaded %d demo subscriptions\n", len(a.engine.Subscriptions()))
		return nil
	case "export":
		return a.export()
	case "export-xlsx":
		return a.exportXLSX()
	case "import":
		return a.importFile()
	case "reset":
		return a.reset(ctx)
	default:
		return fmt.Errorf("unknown action %q (available: %s)", a.params.Action, actions)
	}
}

func (a *app) jsonOutput() bool {
	return a.params.Output == "json"
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// arg returns the i:th positional argument after the action, or ""
func (a *app) arg(i int) string {
	if i < len(a.params.Args) {
		return a.params.Args[i]
	}
	return ""
}

// subscriptionID returns the id argument, or an error naming the action's usage
func (a *app) subscriptionID() (string, error) {
	id := a.arg(0)
	if id == "" {
		return "", fmt.Errorf("%s needs a subscription id", a.params.Action)
	}
	return id, nil
}

func (a *app) outputOptions() internal.OutputOptions {
	return internal.OutputOptions{
		ShowFilter:     a.params.Show,
		CategoryFilter: a.params.Category,
		SortField:      a.params.Sort,
		SortDir:        a.params.SortDir,
		Settings:       a.engine.Settings(),
		Today:          a.engine.Today(),
	}
}

func (a *app) list() error {
	all := a.engine.Subscriptions()
	opts := a.outputOptions()

	display := internal.FilterByStatus(all, opts.ShowFilter)
	display = internal.FilterByCategory(display, opts.CategoryFilter)

	if a.jsonOutput() {
		internal.SortSubscriptions(display, opts.SortField, opts.SortDir)
		return internal.PrintSubscriptionsJSON(a.out, display, opts)
	}
	if len(all) == 0 {
		fmt.Fprintln(a.out, "No subscriptions yet. Add one with 'add --name ... --price ...' or try 'demo'.")
		return nil
	}
	internal.PrintSubscriptionsTable(a.out, all, display, opts)
	return nil
}

func (a *app) show() error {
	id, err := a.subscriptionID()
	if err != nil {
		return err
	}
	sub, ok := a.engine.GetSubscription(id)
	if !ok {
		return fmt.Errorf("%w: %s", internal.ErrSubscriptionNotFound, id)
	}
	if a.jsonOutput() {
		return a.writeJSON(sub)
	}

	var snooze *internal.SnoozeState
	if s, ok := a.engine.Snooze(id); ok {
		snooze = &s
	}
	internal.PrintSubscriptionDetail(a.out, sub, snooze, a.engine.Settings(), a.engine.Today())
	return nil
}

func parsePrice(s string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return price, nil
}

func parseOptionalDate(s string) (internal.Date, error) {
	if s == "" {
		return internal.Date{}, nil
	}
	return internal.ParseDate(s)
}

func (a *app) add() error {
	p := a.params
	if p.Name == "" || p.Price == "" {
		return fmt.Errorf("add needs --name and --price")
	}
	price, err := parsePrice(p.Price)
	if err != nil {
		return err
	}
	start, err := parseOptionalDate(p.Start)
	if err != nil {
		return err
	}
	renewal, err := parseOptionalDate(p.Renewal)
	if err != nil {
		return err
	}

	cadence := internal.Cadence(p.Cadence)
	if cadence == "" {
		cadence = internal.CadenceMonthly
	}

	id, err := a.engine.AddSubscription(internal.NewSubscription{
		Name:          p.Name,
		Price:         price,
		Currency:      strings.ToUpper(p.Currency),
		Cadence:       cadence,
		Category:      internal.Category(strings.ToLower(p.Category)),
		Status:        internal.Status(p.Status),
		StartDate:     start,
		NextRenewal:   renewal,
		Website:       p.Website,
		Notes:         p.Notes,
		PaymentMethod: internal.PaymentMethod(p.Payment),
	})
	if err != nil {
		return err
	}

	if a.jsonOutput() {
		return a.writeJSON(map[string]string{"id": id})
	}
	fmt.Fprintf(a.out, "Added %s (%s)\n", p.Name, id)
	return nil
}

// patchFromFlags builds a patch from the flags that were given
func (a *app) patchFromFlags() (internal.SubscriptionPatch, bool, error) {
	p := a.params
	var patch internal.SubscriptionPatch
	changed := false

	str := func(v string) *string {
		changed = true
		return &v
	}
	if p.Name != "" {
		patch.Name = str(p.Name)
	}
	if p.Currency != "" {
		patch.Currency = str(strings.ToUpper(p.Currency))
	}
	if p.Website != "" {
		patch.Website = str(p.Website)
	}
	if p.Notes != "" {
		patch.Notes = str(p.Notes)
	}
	if p.Cadence != "" {
		c := internal.Cadence(p.Cadence)
		patch.Cadence, changed = &c, true
	}
	if p.Category != "" {
		c := internal.Category(strings.ToLower(p.Category))
		patch.Category, changed = &c, true
	}
	if p.Status != "" {
		s := internal.Status(p.Status)
		patch.Status, changed = &s, true
	}
	if p.Payment != "" {
		m := internal.PaymentMethod(p.Payment)
		patch.PaymentMethod, changed = &m, true
	}
	if p.Start != "" {
		d, err := internal.ParseDate(p.Start)
		if err != nil {
			return patch, false, err
		}
		patch.StartDate, changed = &d, true
	}
	if p.Renewal != "" {
		d, err := internal.ParseDate(p.Renewal)
		if err != nil {
			return patch, false, err
		}
		patch.NextRenewal, changed = &d, true
	}
	return patch, changed, nil
}

func (a *app) update() error {
	id, err := a.subscriptionID()
	if err != nil {
		return err
	}
	if a.params.Price != "" {
		return fmt.Errorf("use the price action to change the price")
	}
	patch, changed, err := a.patchFromFlags()
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("update needs at least one field flag")
	}
	if err := a.engine.UpdateSubscription(id, patch); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s\n", id)
	return nil
}

func (a *app) delete() error {
	id, err := a.subscriptionID()
	if err != nil {
		return err
	}
	if err := a.engine.DeleteSubscription(id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", id)
	return nil
}

func (a *app) price() error {
	id, err := a.subscriptionID()
	if err != nil {
		return err
	}
	if a.params.Price == "" {
		sub, ok := a.engine.GetSubscription(id)
		if !ok {
			return fmt.Errorf("%w: %s", internal.ErrSubscriptionNotFound, id)
		}
		if a.jsonOutput() {
			return a.writeJSON(sub.PriceHistory)
		}
		internal.PrintPriceHistory(a.out, sub, a.engine.Settings())
		return nil
	}

	price, err := parsePrice(a.params.Price)
	if err != nil {
		return err
	}
	if err := a.engine.UpdatePrice(id, price, a.params.Note); err != nil {
		return err
	}
	sub, _ := a.engine.GetSubscription(id)
	fmt.Fprintf(a.out, "%s now costs %s%s\n", sub.Name, internal.FormatMoney(sub.Price, sub.Currency), sub.Cadence.Suffix())
	return nil
}

func (a *app) remind() error {
	id, err := a.subscriptionID()
	if err != nil {
		return err
	}
	if a.params.Reminder == "" || a.params.Enabled == "" {
		return fmt.Errorf("remind needs --reminder and --enabled")
	}
	sub, ok := a.engine.GetSubscription(id)
	if !ok {
		return fmt.Errorf("%w: %s", internal.ErrSubscriptionNotFound, id)
	}

	reminderID := a.params.Reminder
	for _, r := range sub.Reminders {
		if string(r.Type) == a.params.Reminder {
			reminderID = r.ID
			break
		}
	}

	enabled := a.params.Enabled == "true"
	if err := a.engine.UpdateReminder(id, reminderID, internal.ReminderPatch{Enabled: &enabled}); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(a.out, "Reminder %s %s for %s\n", a.params.Reminder, state, sub.Name)
	return nil
}

func (a *app) snooze() error {
	id, err := a.subscriptionID()
	if err != nil {
		return err
	}
	until := a.engine.Today().AddDays(1)
	if a.params.Until != "" {
		if until, err = internal.ParseDate(a.params.Until); err != nil {
			return err
		}
	}
	if err := a.engine.SnoozeReminder(id, until); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Snoozed %s until %s\n", id, internal.FormatDate(until, a.engine.Settings().DateFormat))
	return nil
}

func (a *app) unsnooze() error {
	id, err := a.subscriptionID()
	if err != nil {
		return err
	}
	a.engine.DismissSnooze(id)
	fmt.Fprintf(a.out, "Snooze dismissed for %s\n", id)
	return nil
}

func (a *app) upcoming() error {
	days := a.params.Days
	if days <= 0 {
		days = a.cfg.UpcomingDays
	}
	subs := a.engine.GetUpcomingRenewals(days)
	if a.jsonOutput() {
		return internal.PrintSubscriptionsJSON(a.out, subs, a.outputOptions())
	}
	internal.PrintUpcomingTable(a.out, subs, days, a.engine.Settings(), a.engine.Today())
	return nil
}

type jsonAlert struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DaysUntil int      `json:"days_until"`
	Renewal   string   `json:"next_renewal"`
	Reminders []string `json:"reminders"`
}

func (a *app) alerts() error {
	alerts := a.engine.Alerts()
	if a.jsonOutput() {
		out := make([]jsonAlert, 0, len(alerts))
		for _, al := range alerts {
			types := make([]string, len(al.Due))
			for i, r := range al.Due {
				types[i] = string(r)
			}
			out = append(out, jsonAlert{
				ID:        al.Subscription.ID,
				Name:      al.Subscription.Name,
				DaysUntil: al.DaysUntil,
				Renewal:   al.Subscription.NextRenewal.String(),
				Reminders: types,
			})
		}
		return a.writeJSON(out)
	}
	internal.PrintAlertsTable(a.out, alerts, a.engine.Settings())
	return nil
}

func (a *app) totals() error {
	subs := a.engine.Subscriptions()
	if a.jsonOutput() {
		return a.writeJSON(internal.JSONSummary{
			Count:        len(subs),
			ActiveCount:  len(a.engine.GetActiveSubscriptions()),
			MonthlyTotal: a.engine.GetMonthlyTotal(),
			YearlyTotal:  a.engine.GetYearlyTotal(),
			Currency:     a.engine.Settings().Currency,
		})
	}
	internal.PrintTotals(a.out, subs, a.engine.Settings())
	return nil
}

func (a *app) settings() error {
	var patch internal.SettingsPatch
	if a.params.Currency != "" {
		c := strings.ToUpper(a.params.Currency)
		patch.Currency = &c
	}
	if a.params.DateFormat != "" {
		patch.DateFormat = &a.params.DateFormat
	}
	if patch.Currency != nil || patch.DateFormat != nil {
		if err := a.engine.UpdateSettings(patch); err != nil {
			return err
		}
	}

	s := a.engine.Settings()
	if a.jsonOutput() {
		return a.writeJSON(s)
	}
	fmt.Fprintf(a.out, "Currency:    %s\nDate format: %s\n", s.Currency, s.DateFormat)
	return nil
}

// exportPath returns the file argument or a dated default name
func (a *app) exportPath(prefix, ext string) string {
	if p := a.arg(0); p != "" {
		_, path := internal.ParseFileArg(p)
		return path
	}
	return fmt.Sprintf("%s-%s%s", prefix, internal.DateOf(a.now()).String(), ext)
}

func (a *app) export() error {
	data, err := internal.ExportJSON(a.engine.State(), a.now())
	if err != nil {
		return err
	}
	path := a.exportPath("subtracker-backup", ".json")
	if path == "-" {
		_, err := a.out.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	fmt.Fprintf(a.out, "Exported %d subscriptions to %s\n", len(a.engine.Subscriptions()), path)
	return nil
}

func (a *app) exportXLSX() error {
	path := a.exportPath("subtracker", ".xlsx")
	subs := a.engine.Subscriptions()
	if err := internal.ExportXLSX(path, subs); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d subscriptions to %s\n", len(subs), path)
	return nil
}

func (a *app) importFile() error {
	arg := a.arg(0)
	if arg == "" {
		return fmt.Errorf("import needs a file (available formats: %v)", internal.AvailableSources())
	}
	format, path := internal.ResolveFileArg(arg)
	parser, err := internal.GetParser(format)
	if err != nil {
		return err
	}
	imp, err := parser.Parse(path, a.now())
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	// A failed import returns before the flush, so none of its rows are saved
	n, err := internal.ApplyImport(a.engine, imp)
	if err != nil {
		return fmt.Errorf("import failed, nothing saved: %w", err)
	}
	fmt.Fprintf(a.out, "Imported %d subscriptions\n", n)
	return nil
}

func (a *app) reset(ctx context.Context) error {
	if !a.params.Yes {
		return fmt.Errorf("reset deletes all data; run again with --yes to confirm")
	}
	if err := a.engine.ClearAllData(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All data deleted")
	return nil
}
