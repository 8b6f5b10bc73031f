package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is how long the engine waits after the last mutation before writing.
const DefaultDebounce = 500 * time.Millisecond

var (
	ErrInvalidInput         = errors.New("tracker: invalid input")
	ErrSubscriptionNotFound = errors.New("tracker: subscription not found")
	ErrReminderNotFound     = errors.New("tracker: reminder not found")
)

// StateStore loads, saves and resets the whole AppState. *Store implements it.
type StateStore interface {
	Load(ctx context.Context) (AppState, error)
	Save(ctx context.Context, state AppState) error
	Reset(ctx context.Context) error
}

// Engine owns the live AppState. Every mutation is applied in memory right away
// and followed by one debounced write of the whole state.
type Engine struct {
	store    StateStore
	clock    func() time.Time
	debounce time.Duration
	logger   *slog.Logger
	demo     DemoGenerator

	mu          sync.Mutex
	state       AppState
	initialized bool
	loading     bool
	pending     *time.Timer
	generation  uint64

	// writeMu serializes physical writes. Lock order is writeMu, then mu.
	writeMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		e.debounce = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithDemoGenerator(gen DemoGenerator) Option {
	return func(e *Engine) {
		e.demo = gen
	}
}

func NewEngine(store StateStore, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		clock:    time.Now,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		demo:     DefaultDemoGenerator,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = DefaultState(e.clock())
	e.loading = true
	return e
}

// Initialize loads the saved state once. Later calls do nothing. A load error
// is logged and returned, but the engine still becomes usable with defaults.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}
	defer func() {
		e.initialized = true
		e.loading = false
	}()

	loaded, err := e.store.Load(ctx)
	if err != nil {
		e.logger.Error("loading state failed, starting from defaults", "error", err)
		return fmt.Errorf("loading state: %w", err)
	}

	now := e.clock()
	FillDefaults(&loaded, DateOf(now))
	loaded.LastOpenedAt = now
	e.state = loaded
	e.logger.Debug("engine initialized", "subscriptions", len(loaded.Subscriptions))
	return nil
}

func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Flush writes pending state immediately. It returns nil when nothing is pending.
func (e *Engine) Flush(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	if e.pending == nil {
		e.mu.Unlock()
		return nil
	}
	e.pending.Stop()
	e.pending = nil
	snapshot := e.state.Clone()
	e.mu.Unlock()

	return e.write(ctx, snapshot)
}

// Close cancels a pending write without performing it. Call Flush first to keep it.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPendingLocked()
}

func (e *Engine) cancelPendingLocked() {
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.generation++
}

func (e *Engine) schedulePersistLocked() {
	e.generation++
	gen := e.generation
	if e.pending != nil {
		e.pending.Stop()
	}
	e.pending = time.AfterFunc(e.debounce, func() {
		e.persist(gen)
	})
}

// persist runs on the timer goroutine. A timer that fired after being replaced
// or flushed finds a newer generation and does nothing.
func (e *Engine) persist(gen uint64) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	if gen != e.generation || e.pending == nil {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	snapshot := e.state.Clone()
	e.mu.Unlock()

	_ = e.write(context.Background(), snapshot)
}

func (e *Engine) write(ctx context.Context, state AppState) error {
	if err := e.store.Save(ctx, state); err != nil {
		e.logger.Warn("saving state failed", "error", err)
		return fmt.Errorf("saving state: %w", err)
	}
	e.logger.Debug("state saved", "subscriptions", len(state.Subscriptions))
	return nil
}

// mutate applies fn under the lock and schedules a write if fn succeeded.
func (e *Engine) mutate(fn func(state *AppState, now time.Time) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(&e.state, e.clock()); err != nil {
		return err
	}
	e.schedulePersistLocked()
	return nil
}

// NewSubscription holds the caller supplied fields of a subscription. Zero
// values get defaults: currency from settings, category other, status active,
// start date today, next renewal derived from start date and cadence.
type NewSubscription struct {
	Name          string
	Price         float64
	Currency      string
	Cadence       Cadence
	Category      Category
	Status        Status
	StartDate     Date
	NextRenewal   Date
	Website       string
	Notes         string
	PaymentMethod PaymentMethod
}

// SubscriptionPatch updates the non-nil fields. Price changes go through UpdatePrice.
type SubscriptionPatch struct {
	Name          *string
	Currency      *string
	Cadence       *Cadence
	Category      *Category
	Status        *Status
	StartDate     *Date
	NextRenewal   *Date
	Website       *string
	Notes         *string
	PaymentMethod *PaymentMethod
}

type ReminderPatch struct {
	Type    *ReminderType
	Enabled *bool
}

type SettingsPatch struct {
	Currency   *string
	DateFormat *string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return invalid("price must be a positive number, got %v", price)
	}
	return nil
}

func validateCurrencyCode(code string) error {
	if len(code) != 3 || strings.ToUpper(code) != code {
		return invalid("currency must be a three letter code, got %q", code)
	}
	return nil
}

func validateWebsite(website string) error {
	if website == "" {
		return nil
	}
	u, err := url.Parse(website)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("website must be an http(s) URL, got %q", website)
	}
	return nil
}

func validateDateFormat(format string) error {
	switch format {
	case DateFormatUS, DateFormatEU, DateFormatISO:
		return nil
	default:
		return invalid("unknown date format %q", format)
	}
}

func (in NewSubscription) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if err := validatePrice(in.Price); err != nil {
		return err
	}
	if in.Currency != "" {
		if err := validateCurrencyCode(in.Currency); err != nil {
			return err
		}
	}
	if !in.Cadence.Valid() {
		return invalid("unknown cadence %q", in.Cadence)
	}
	if in.Category != "" && !in.Category.Valid() {
		return invalid("unknown category %q", in.Category)
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("unknown status %q", in.Status)
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.Valid() {
		return invalid("unknown payment method %q", in.PaymentMethod)
	}
	return validateWebsite(in.Website)
}

func (p SubscriptionPatch) validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name is required")
	}
	if p.Currency != nil {
		if err := validateCurrencyCode(*p.Currency); err != nil {
			return err
		}
	}
	if p.Cadence != nil && !p.Cadence.Valid() {
		return invalid("unknown cadence %q", *p.Cadence)
	}
	if p.Category != nil && !p.Category.Valid() {
		return invalid("unknown category %q", *p.Category)
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("unknown status %q", *p.Status)
	}
	if p.StartDate != nil && p.StartDate.IsZero() {
		return invalid("start date is required")
	}
	if p.NextRenewal != nil && p.NextRenewal.IsZero() {
		return invalid("next renewal date is required")
	}
	if p.PaymentMethod != nil && *p.PaymentMethod != "" && !p.PaymentMethod.Valid() {
		return invalid("unknown payment method %q", *p.PaymentMethod)
	}
	if p.Website != nil {
		return validateWebsite(*p.Website)
	}
	return nil
}

func findSubscription(state *AppState, id string) (*Subscription, error) {
	for i := range state.Subscriptions {
		if state.Subscriptions[i].ID == id {
			return &state.Subscriptions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSubscriptionNotFound, id)
}

// scheduleRenewal resolves a requested renewal date against the schedule
// anchored at start. A zero request or one already in the past yields the next
// scheduled date; an off-schedule request is invalid.
func scheduleRenewal(start Date, c Cadence, requested, today Date) (Date, error) {
	if requested.IsZero() {
		return NextRenewal(start, c, today), nil
	}
	if !OnSchedule(start, c, requested) {
		return Date{}, invalid("next renewal %s is not a whole number of %s periods after start %s", requested, c, start)
	}
	if requested.Before(today) {
		return NextRenewal(start, c, today), nil
	}
	return requested, nil
}

// AddSubscription appends a new subscription with default reminders and a
// one entry price history, and returns its id.
func (e *Engine) AddSubscription(in NewSubscription) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}

	var id string
	err := e.mutate(func(state *AppState, now time.Time) error {
		today := DateOf(now)
		sub := Subscription{
			ID:            NewID("sub"),
			Name:          strings.TrimSpace(in.Name),
			Price:         in.Price,
			Currency:      in.Currency,
			Cadence:       in.Cadence,
			Category:      in.Category,
			Status:        in.Status,
			StartDate:     in.StartDate,
			NextRenewal:   in.NextRenewal,
			Website:       in.Website,
			Notes:         in.Notes,
			PaymentMethod: in.PaymentMethod,
			Reminders:     DefaultReminderSet(),
			PriceHistory:  []PriceChange{{Price: in.Price, Date: now, Note: "Initial price"}},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if sub.Currency == "" {
			sub.Currency = state.Settings.Currency
		}
		if sub.Category == "" {
			sub.Category = CategoryOther
		}
		if sub.Status == "" {
			sub.Status = StatusActive
		}
		if sub.StartDate.IsZero() {
			// a renewal given on its own anchors the schedule
			sub.StartDate = today
			if !in.NextRenewal.IsZero() {
				sub.StartDate = in.NextRenewal
			}
		}
		renewal, err := scheduleRenewal(sub.StartDate, sub.Cadence, in.NextRenewal, today)
		if err != nil {
			return err
		}
		sub.NextRenewal = renewal

		state.Subscriptions = append(state.Subscriptions, sub)
		id = sub.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	e.logger.Debug("subscription added", "id", id, "name", in.Name)
	return id, nil
}

// UpdateSubscription merges patch into the subscription. When cadence or start
// date changes, the next renewal is recomputed from the merged values. An
// explicit renewal must fall on the merged schedule.
func (e *Engine) UpdateSubscription(id string, patch SubscriptionPatch) error {
	if err := patch.validate(); err != nil {
		return err
	}
	return e.mutate(func(state *AppState, now time.Time) error {
		cur, err := findSubscription(state, id)
		if err != nil {
			return err
		}
		sub := *cur

		if patch.Name != nil {
			sub.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Currency != nil {
			sub.Currency = *patch.Currency
		}
		if patch.Cadence != nil {
			sub.Cadence = *patch.Cadence
		}
		if patch.Category != nil {
			sub.Category = *patch.Category
		}
		if patch.Status != nil {
			sub.Status = *patch.Status
		}
		if patch.StartDate != nil {
			sub.StartDate = *patch.StartDate
		}
		if patch.Website != nil {
			sub.Website = *patch.Website
		}
		if patch.Notes != nil {
			sub.Notes = *patch.Notes
		}
		if patch.PaymentMethod != nil {
			sub.PaymentMethod = *patch.PaymentMethod
		}

		switch {
		case patch.NextRenewal != nil:
			renewal, err := scheduleRenewal(sub.StartDate, sub.Cadence, *patch.NextRenewal, DateOf(now))
			if err != nil {
				return err
			}
			sub.NextRenewal = renewal
		case patch.Cadence != nil || patch.StartDate != nil:
			sub.NextRenewal = NextRenewal(sub.StartDate, sub.Cadence, DateOf(now))
		}
		sub.UpdatedAt = now
		*cur = sub
		return nil
	})
}

// DeleteSubscription removes the subscription and its snooze.
func (e *Engine) DeleteSubscription(id string) error {
	return e.mutate(func(state *AppState, _ time.Time) error {
		if _, err := findSubscription(state, id); err != nil {
			return err
		}
		subs := state.Subscriptions[:0]
		for _, s := range state.Subscriptions {
			if s.ID != id {
				subs = append(subs, s)
			}
		}
		state.Subscriptions = subs
		state.SnoozedReminders = withoutSnooze(state.SnoozedReminders, id)
		return nil
	})
}

func withoutSnooze(snoozes []SnoozeState, subID string) []SnoozeState {
	out := make([]SnoozeState, 0, len(snoozes))
	for _, s := range snoozes {
		if s.SubscriptionID != subID {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) UpdateReminder(subID, reminderID string, patch ReminderPatch) error {
	if patch.Type != nil && !patch.Type.Valid() {
		return invalid("unknown reminder type %q", *patch.Type)
	}
	return e.mutate(func(state *AppState, now time.Time) error {
		sub, err := findSubscription(state, subID)
		if err != nil {
			return err
		}
		for i := range sub.Reminders {
			r := &sub.Reminders[i]
			if r.ID != reminderID {
				continue
			}
			if patch.Type != nil {
				r.Type = *patch.Type
			}
			if patch.Enabled != nil {
				r.Enabled = *patch.Enabled
			}
			sub.UpdatedAt = now
			return nil
		}
		return fmt.Errorf("%w: %s", ErrReminderNotFound, reminderID)
	})
}

// SnoozeReminder suppresses alerts for the subscription until the given date,
// replacing any earlier snooze for it.
func (e *Engine) SnoozeReminder(subID string, until Date) error {
	if until.IsZero() {
		return invalid("snooze date is required")
	}
	return e.mutate(func(state *AppState, _ time.Time) error {
		if _, err := findSubscription(state, subID); err != nil {
			return err
		}
		state.SnoozedReminders = append(withoutSnooze(state.SnoozedReminders, subID),
			SnoozeState{SubscriptionID: subID, SnoozedUntil: until})
		return nil
	})
}

func (e *Engine) DismissSnooze(subID string) {
	_ = e.mutate(func(state *AppState, _ time.Time) error {
		state.SnoozedReminders = withoutSnooze(state.SnoozedReminders, subID)
		return nil
	})
}

// UpdatePrice sets a new price and appends it to the price history.
func (e *Engine) UpdatePrice(subID string, price float64, note string) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if note == "" {
		note = "Price updated"
	}
	return e.mutate(func(state *AppState, now time.Time) error {
		sub, err := findSubscription(state, subID)
		if err != nil {
			return err
		}
		sub.Price = price
		sub.PriceHistory = append(sub.PriceHistory, PriceChange{Price: price, Date: now, Note: note})
		sub.UpdatedAt = now
		return nil
	})
}

func (e *Engine) UpdateSettings(patch SettingsPatch) error {
	if patch.Currency != nil {
		if err := validateCurrencyCode(*patch.Currency); err != nil {
			return err
		}
	}
	if patch.DateFormat != nil {
		if err := validateDateFormat(*patch.DateFormat); err != nil {
			return err
		}
	}
	return e.mutate(func(state *AppState, _ time.Time) error {
		if patch.Currency != nil {
			state.Settings.Currency = *patch.Currency
		}
		if patch.DateFormat != nil {
			state.Settings.DateFormat = *patch.DateFormat
		}
		return nil
	})
}

// LoadDemoData replaces all subscriptions with a generated demo set and clears
// snoozes. Settings are kept.
func (e *Engine) LoadDemoData() {
	_ = e.mutate(func(state *AppState, now time.Time) error {
		state.Subscriptions = e.demo(now)
		state.SnoozedReminders = []SnoozeState{}
		return nil
	})
	e.logger.Debug("demo data loaded")
}

// ClearAllData resets both backends and the live state. A pending write is
// cancelled first so old state cannot be written back afterwards. The live
// state is reset even when the backends could not be cleared.
func (e *Engine) ClearAllData(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	e.cancelPendingLocked()
	e.mu.Unlock()

	err := e.store.Reset(ctx)
	if err != nil {
		e.logger.Warn("resetting storage failed", "error", err)
		err = fmt.Errorf("resetting storage: %w", err)
	}

	e.mu.Lock()
	e.state = DefaultState(e.clock())
	e.initialized = true
	e.loading = false
	e.mu.Unlock()
	return err
}

// ImportState merges an imported state over the current one. Nil lists and
// empty settings keep their current values.
func (e *Engine) ImportState(in AppState) {
	// Clone turns nil lists into empty ones
	hasSubs, hasSnoozes := in.Subscriptions != nil, in.SnoozedReminders != nil
	in = in.Clone()
	_ = e.mutate(func(state *AppState, now time.Time) error {
		if hasSubs {
			state.Subscriptions = in.Subscriptions
		}
		if hasSnoozes {
			state.SnoozedReminders = in.SnoozedReminders
		}
		if in.Settings.Currency != "" {
			state.Settings.Currency = in.Settings.Currency
		}
		if in.Settings.DateFormat != "" {
			state.Settings.DateFormat = in.Settings.DateFormat
		}
		FillDefaults(state, DateOf(now))
		state.LastOpenedAt = now
		return nil
	})
}

// State returns a copy of the live state.
func (e *Engine) State() AppState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) Settings() AppSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Settings
}

func (e *Engine) GetSubscription(id string) (Subscription, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub, err := findSubscription(&e.state, id)
	if err != nil {
		return Subscription{}, false
	}
	return sub.Clone(), true
}

func (e *Engine) Subscriptions() []Subscription {
	return e.State().Subscriptions
}

func (e *Engine) GetActiveSubscriptions() []Subscription {
	var active []Subscription
	for _, s := range e.Subscriptions() {
		if s.Status == StatusActive {
			active = append(active, s)
		}
	}
	return active
}

// GetUpcomingRenewals returns active subscriptions renewing within withinDays
// days from today, soonest first.
func (e *Engine) GetUpcomingRenewals(withinDays int) []Subscription {
	return UpcomingRenewals(e.Subscriptions(), e.today(), withinDays)
}

func (e *Engine) GetMonthlyTotal() float64 {
	return MonthlyTotal(e.Subscriptions())
}

func (e *Engine) GetYearlyTotal() float64 {
	return YearlyTotal(e.Subscriptions())
}

func (e *Engine) Snooze(subID string) (SnoozeState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return FindSnooze(e.state.SnoozedReminders, subID)
}

// Alerts returns the renewals that should be surfaced today.
func (e *Engine) Alerts() []Alert {
	return DueAlerts(e.State(), e.today(), DefaultUpcomingDays)
}

func (e *Engine) Today() Date {
	return e.today()
}

func (e *Engine) today() Date {
	return DateOf(e.clock())
}
