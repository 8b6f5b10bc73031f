package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ExportVersion tags the backup envelope format.
const ExportVersion = "1.0.0"

var (
	// ErrNoRecord is returned by a Backend that holds no saved state.
	ErrNoRecord = errors.New("storage: no saved state")
	// ErrInvalidImport is returned for backup text that is not a usable state.
	ErrInvalidImport = errors.New("storage: invalid backup")
)

// Backend is one physical place the whole state can be kept in, as a single record.
type Backend interface {
	Name() string
	// Read returns the stored record, or ErrNoRecord when there is none.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
	Close() error
}

// Store persists AppState to a primary backend and mirrors every write to a
// fallback backend. Either backend may be nil (unavailable).
type Store struct {
	primary  Backend
	fallback Backend
	clock    func() time.Time
	logger   *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithStoreClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

func NewStore(primary, fallback Backend, opts ...StoreOption) *Store {
	s := &Store{
		primary:  primary,
		fallback: fallback,
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the saved state from the primary backend, else the fallback,
// else a fresh default state. It never fails: backend problems are logged and
// skipped. The error result exists to satisfy StateStore and is always nil.
func (s *Store) Load(ctx context.Context) (AppState, error) {
	for _, b := range []Backend{s.primary, s.fallback} {
		if b == nil {
			continue
		}
		state, ok := s.loadFrom(ctx, b)
		if ok {
			return state, nil
		}
	}
	s.logger.Debug("no saved state found, using defaults")
	return DefaultState(s.clock()), nil
}

func (s *Store) loadFrom(ctx context.Context, b Backend) (AppState, bool) {
	data, err := b.Read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			s.logger.Warn("reading saved state failed", "backend", b.Name(), "error", err)
		}
		return AppState{}, false
	}
	state, err := decodeState(data, s.clock())
	if err != nil {
		s.logger.Warn("saved state is unreadable", "backend", b.Name(), "error", err)
		return AppState{}, false
	}
	s.logger.Debug("loaded state", "backend", b.Name(), "subscriptions", len(state.Subscriptions))
	return state, true
}

// Save writes state to both backends. It succeeds if at least one write did.
func (s *Store) Save(ctx context.Context, state AppState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	var errs []error
	written := 0
	for _, b := range []Backend{s.primary, s.fallback} {
		if b == nil {
			continue
		}
		if err := b.Write(ctx, data); err != nil {
			s.logger.Warn("writing state failed", "backend", b.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		written++
	}

	if written == 0 {
		if len(errs) == 0 {
			return errors.New("storage: no backend available")
		}
		return errors.Join(errs...)
	}
	return nil
}

// Reset clears both backends.
func (s *Store) Reset(ctx context.Context) error {
	var errs []error
	for _, b := range []Backend{s.primary, s.fallback} {
		if b == nil {
			continue
		}
		if err := b.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) Close() error {
	var errs []error
	for _, b := range []Backend{s.primary, s.fallback} {
		if b != nil {
			if err := b.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// DefaultState returns an empty state with default settings.
func DefaultState(now time.Time) AppState {
	return AppState{
		Subscriptions:    []Subscription{},
		Settings:         DefaultSettings(),
		SnoozedReminders: []SnoozeState{},
		LastOpenedAt:     now,
	}
}

// decodeState decodes a stored record over a fresh default state, so fields
// missing from older records keep their defaults, then fills what remains.
func decodeState(data []byte, now time.Time) (AppState, error) {
	state := DefaultState(now)
	if err := json.Unmarshal(data, &state); err != nil {
		return AppState{}, fmt.Errorf("decoding state: %w", err)
	}
	FillDefaults(&state, DateOf(now))
	return state, nil
}

// FillDefaults replaces absent or empty values with their defaults. It is
// applied after every decode so records written by older versions stay usable.
// Renewals that are missing, already past, or off the start date's schedule
// move to the next scheduled date on or after today.
func FillDefaults(state *AppState, today Date) {
	defaults := DefaultSettings()
	if state.Settings.Currency == "" {
		state.Settings.Currency = defaults.Currency
	}
	if state.Settings.DateFormat == "" {
		state.Settings.DateFormat = defaults.DateFormat
	}
	if state.Subscriptions == nil {
		state.Subscriptions = []Subscription{}
	}
	if state.SnoozedReminders == nil {
		state.SnoozedReminders = []SnoozeState{}
	}

	for i := range state.Subscriptions {
		sub := &state.Subscriptions[i]
		if sub.ID == "" {
			sub.ID = NewID("sub")
		}
		if sub.Currency == "" {
			sub.Currency = state.Settings.Currency
		}
		if sub.Cadence == "" {
			sub.Cadence = CadenceMonthly
		}
		if sub.Category == "" {
			sub.Category = CategoryOther
		}
		if sub.Status == "" {
			sub.Status = StatusActive
		}
		if sub.Reminders == nil {
			sub.Reminders = DefaultReminderSet()
		}
		if len(sub.PriceHistory) == 0 {
			sub.PriceHistory = []PriceChange{{Price: sub.Price, Date: sub.CreatedAt, Note: "Initial price"}}
		}
		if sub.StartDate.IsZero() {
			switch {
			case !sub.NextRenewal.IsZero():
				sub.StartDate = sub.NextRenewal
			case !sub.CreatedAt.IsZero():
				sub.StartDate = DateOf(sub.CreatedAt)
			default:
				sub.StartDate = today
			}
		}
		if sub.NextRenewal.IsZero() || sub.NextRenewal.Before(today) || !OnSchedule(sub.StartDate, sub.Cadence, sub.NextRenewal) {
			sub.NextRenewal = NextRenewal(sub.StartDate, sub.Cadence, today)
		}
	}
}

// ExportEnvelope is the versioned wrapper written by ExportJSON.
type ExportEnvelope struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Data       AppState  `json:"data"`
}

// ExportJSON serializes state as an indented, versioned backup document.
func ExportJSON(state AppState, now time.Time) ([]byte, error) {
	data, err := json.MarshalIndent(ExportEnvelope{
		Version:    ExportVersion,
		ExportedAt: now,
		Data:       state,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return data, nil
}

// ImportJSON parses a backup written by ExportJSON, or a bare state document.
// The result has defaults filled and LastOpenedAt set to now.
func ImportJSON(text []byte, now time.Time) (AppState, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(text, &top); err != nil {
		return AppState{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	payload := text
	if data, ok := top["data"]; ok && isTruthyJSON(data) {
		payload = data
	}

	var probe struct {
		Subscriptions json.RawMessage `json:"subscriptions"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return AppState{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(probe.Subscriptions), []byte("[")) {
		return AppState{}, fmt.Errorf("%w: subscriptions list is missing", ErrInvalidImport)
	}

	state, err := decodeState(payload, now)
	if err != nil {
		return AppState{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	state.LastOpenedAt = now
	return state, nil
}

func isTruthyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	default:
		return true
	}
}

// OpenStore opens the backends named by cfg. A backend that cannot be opened is
// logged and left out, so a broken database still leaves the fallback usable.
func OpenStore(ctx context.Context, cfg *Config, logger *slog.Logger) *Store {
	var primary, fallback Backend

	if db, err := OpenSQLite(cfg.DatabasePath()); err != nil {
		logger.Warn("primary store unavailable", "path", cfg.DatabasePath(), "error", err)
	} else {
		primary = db
	}

	switch cfg.Fallback {
	case FallbackRedis:
		// the only backend that leaves the machine; opt-in
		rb, err := ConnectRedis(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis fallback unavailable", "addr", cfg.Redis.Addr, "error", err)
		} else {
			fallback = rb
		}
	case FallbackFile:
		fb, err := NewFileBackend(cfg.DataDir, StateKey)
		if err != nil {
			logger.Warn("file fallback unavailable", "dir", cfg.DataDir, "error", err)
		} else {
			fallback = fb
		}
	}

	return NewStore(primary, fallback, WithStoreLogger(logger))
}
