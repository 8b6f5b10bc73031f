package internal

import "time"

type Cadence string

const (
	CadenceWeekly    Cadence = "weekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceYearly    Cadence = "yearly"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

type Category string

const (
	CategoryStreaming     Category = "streaming"
	CategoryEntertainment Category = "entertainment"
	CategorySoftware      Category = "software"
	CategoryUtilities     Category = "utilities"
	CategoryFitness       Category = "fitness"
	CategoryMusic         Category = "music"
	CategoryNews          Category = "news"
	CategoryCloud         Category = "cloud"
	CategoryEducation     Category = "education"
	CategoryGaming        Category = "gaming"
	CategoryFood          Category = "food"
	CategoryShopping      Category = "shopping"
	CategoryFinance       Category = "finance"
	CategoryOther         Category = "other"
)

type PaymentMethod string

const (
	PaymentCard      PaymentMethod = "card"
	PaymentPayPal    PaymentMethod = "paypal"
	PaymentBank      PaymentMethod = "bank"
	PaymentApplePay  PaymentMethod = "apple_pay"
	PaymentGooglePay PaymentMethod = "google_pay"
	PaymentOther     PaymentMethod = "other"
)

type ReminderType string

const (
	ReminderOnDay     ReminderType = "onDay"
	ReminderOneDay    ReminderType = "1day"
	ReminderThreeDays ReminderType = "3days"
	ReminderSevenDays ReminderType = "7days"
)

// Reminder is a notification rule owned by exactly one subscription.
type Reminder struct {
	ID      string       `json:"id"`
	Type    ReminderType `json:"type"`
	Enabled bool         `json:"enabled"`
}

// PriceChange is an immutable price history entry.
type PriceChange struct {
	Price float64   `json:"price"`
	Date  time.Time `json:"date"`
	Note  string    `json:"note,omitempty"`
}

type Subscription struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Cadence  Cadence  `json:"cadence"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`

	NextRenewal Date `json:"nextRenewal"`
	StartDate   Date `json:"startDate"`

	Website       string        `json:"website,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`

	Reminders    []Reminder    `json:"reminders"`
	PriceHistory []PriceChange `json:"priceHistory"` // append-only, oldest first

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SnoozeState suppresses alerts for one subscription until SnoozedUntil.
type SnoozeState struct {
	SubscriptionID string `json:"subscriptionId"`
	SnoozedUntil   Date   `json:"snoozedUntil"`
}

type AppSettings struct {
	Currency   string `json:"currency"`
	DateFormat string `json:"dateFormat"`
}

// AppState is the unit of persistence: every read and write covers all of it.
type AppState struct {
	Subscriptions    []Subscription `json:"subscriptions"`
	Settings         AppSettings    `json:"settings"`
	SnoozedReminders []SnoozeState  `json:"snoozedReminders"`
	LastOpenedAt     time.Time      `json:"lastOpenedAt"`
}

const (
	DateFormatUS  = "MM/DD/YYYY"
	DateFormatEU  = "DD/MM/YYYY"
	DateFormatISO = "YYYY-MM-DD"
)

func DefaultSettings() AppSettings {
	return AppSettings{
		Currency:   "USD",
		DateFormat: DateFormatUS,
	}
}

// DefaultReminderSet returns the reminders every new subscription starts with,
// each with a fresh id.
func DefaultReminderSet() []Reminder {
	return []Reminder{
		{ID: NewID("rem"), Type: ReminderSevenDays, Enabled: false},
		{ID: NewID("rem"), Type: ReminderThreeDays, Enabled: true},
		{ID: NewID("rem"), Type: ReminderOneDay, Enabled: true},
		{ID: NewID("rem"), Type: ReminderOnDay, Enabled: true},
	}
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	out := s
	out.Subscriptions = make([]Subscription, len(s.Subscriptions))
	for i, sub := range s.Subscriptions {
		out.Subscriptions[i] = sub.Clone()
	}
	out.SnoozedReminders = append([]SnoozeState{}, s.SnoozedReminders...)
	return out
}

func (s Subscription) Clone() Subscription {
	out := s
	out.Reminders = append([]Reminder{}, s.Reminders...)
	out.PriceHistory = append([]PriceChange{}, s.PriceHistory...)
	return out
}

// Cadences, Categories, Statuses and PaymentMethods list the valid enum values in display order.
var (
	Cadences = []Cadence{CadenceWeekly, CadenceMonthly, CadenceQuarterly, CadenceYearly}

	Categories = []Category{
		CategoryStreaming, CategoryEntertainment, CategorySoftware, CategoryUtilities,
		CategoryFitness, CategoryMusic, CategoryNews, CategoryCloud, CategoryEducation,
		CategoryGaming, CategoryFood, CategoryShopping, CategoryFinance, CategoryOther,
	}

	Statuses = []Status{StatusActive, StatusTrial, StatusPaused, StatusCancelled}

	PaymentMethods = []PaymentMethod{
		PaymentCard, PaymentPayPal, PaymentBank, PaymentApplePay, PaymentGooglePay, PaymentOther,
	}

	ReminderTypes = []ReminderType{ReminderOnDay, ReminderOneDay, ReminderThreeDays, ReminderSevenDays}
)

var categoryLabels = map[Category]string{
	CategoryStreaming:     "Streaming",
	CategoryEntertainment: "Entertainment",
	CategorySoftware:      "Software",
	CategoryUtilities:     "Utilities",
	CategoryFitness:       "Fitness",
	CategoryMusic:         "Music",
	CategoryNews:          "News",
	CategoryCloud:         "Cloud Storage",
	CategoryEducation:     "Education",
	CategoryGaming:        "Gaming",
	CategoryFood:          "Food & Delivery",
	CategoryShopping:      "Shopping",
	CategoryFinance:       "Finance",
	CategoryOther:         "Other",
}

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentCard:      "Credit/Debit Card",
	PaymentPayPal:    "PayPal",
	PaymentBank:      "Bank Transfer",
	PaymentApplePay:  "Apple Pay",
	PaymentGooglePay: "Google Pay",
	PaymentOther:     "Other",
}

var reminderLabels = map[ReminderType]string{
	ReminderOnDay:     "On renewal day",
	ReminderOneDay:    "1 day before",
	ReminderThreeDays: "3 days before",
	ReminderSevenDays: "7 days before",
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return "Other"
}

func (p PaymentMethod) Label() string {
	return paymentMethodLabels[p]
}

func (r ReminderType) Label() string {
	return reminderLabels[r]
}

func (s Status) Label() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusTrial:
		return "Trial"
	case StatusPaused:
		return "Paused"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

func (c Cadence) Label() string {
	switch c {
	case CadenceWeekly:
		return "Weekly"
	case CadenceQuarterly:
		return "Quarterly"
	case CadenceYearly:
		return "Yearly"
	default:
		return "Monthly"
	}
}

// Suffix returns the short per-period suffix, e.g. "/mo".
func (c Cadence) Suffix() string {
	switch c {
	case CadenceWeekly:
		return "/wk"
	case CadenceQuarterly:
		return "/qtr"
	case CadenceYearly:
		return "/yr"
	default:
		return "/mo"
	}
}

func (c Cadence) Valid() bool {
	for _, v := range Cadences {
		if v == c {
			return true
		}
	}
	return false
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (p PaymentMethod) Valid() bool {
	_, ok := paymentMethodLabels[p]
	return ok
}

func (r ReminderType) Valid() bool {
	_, ok := reminderLabels[r]
	return ok
}
