package internal

import (
	"math/rand/v2"
	"time"
)

type demoEntry struct {
	Name     string
	Price    float64
	Cadence  Cadence
	Category Category
	Website  string
	Notes    string
}

// demoEntries are the sample services used for a first-run trial.
var demoEntries = []demoEntry{
	// Entertainment
	{"Netflix", 15.99, CadenceMonthly, CategoryEntertainment, "https://netflix.com", "Premium plan with 4K"},
	{"Spotify", 9.99, CadenceMonthly, CategoryEntertainment, "https://spotify.com", "Individual premium"},
	{"Disney+", 7.99, CadenceMonthly, CategoryEntertainment, "https://disneyplus.com", ""},
	{"HBO Max", 15.99, CadenceMonthly, CategoryEntertainment, "https://max.com", "Ad-free plan"},

	// Software
	{"Adobe Creative Cloud", 54.99, CadenceMonthly, CategorySoftware, "https://adobe.com", "Photography plan - Lightroom + Photoshop"},
	{"Microsoft 365", 99.99, CadenceYearly, CategorySoftware, "https://microsoft.com", "Family plan - 6 users"},
	{"1Password", 35.88, CadenceYearly, CategorySoftware, "https://1password.com", "Personal vault"},

	// Fitness
	{"Planet Fitness", 24.99, CadenceMonthly, CategoryFitness, "https://planetfitness.com", "Black card membership"},
	{"Peloton", 44.00, CadenceMonthly, CategoryFitness, "https://onepeloton.com", "App membership (no bike)"},

	// News & education
	{"The New York Times", 17.00, CadenceMonthly, CategoryNews, "https://nytimes.com", "Digital all access"},
	{"Coursera Plus", 399.00, CadenceYearly, CategoryEducation, "https://coursera.org", "Unlimited courses access"},

	// Utilities & other
	{"iCloud+", 2.99, CadenceMonthly, CategoryCloud, "https://apple.com/icloud", "200GB storage plan"},
	{"NordVPN", 59.88, CadenceYearly, CategorySoftware, "https://nordvpn.com", "2-year plan (billed yearly)"},
}

// DemoGenerator produces a populated subscription list for the given moment.
type DemoGenerator func(now time.Time) []Subscription

// DefaultDemoGenerator seeds from the clock, so every call looks different.
func DefaultDemoGenerator(now time.Time) []Subscription {
	seed := uint64(now.UnixNano())
	return DemoSubscriptions(now, rand.New(rand.NewPCG(seed, seed>>32)))
}

// DemoSubscriptions builds the demo set with fresh ids. Each entry started 1 to
// 13 months ago and its next renewal is derived from that start date.
func DemoSubscriptions(now time.Time, rng *rand.Rand) []Subscription {
	today := DateOf(now)
	subs := make([]Subscription, 0, len(demoEntries))

	for _, e := range demoEntries {
		start := today.AddDays(-(30 + rng.IntN(365)))
		createdAt := start.In(now.Location())

		subs = append(subs, Subscription{
			ID:          NewID("sub"),
			Name:        e.Name,
			Price:       e.Price,
			Currency:    "USD",
			Cadence:     e.Cadence,
			Category:    e.Category,
			Status:      StatusActive,
			NextRenewal: NextRenewal(start, e.Cadence, today),
			StartDate:   start,
			Website:     e.Website,
			Notes:       e.Notes,
			Reminders: []Reminder{
				{ID: NewID("rem"), Type: ReminderThreeDays, Enabled: true},
				{ID: NewID("rem"), Type: ReminderOnDay, Enabled: true},
			},
			PriceHistory: []PriceChange{
				{Price: e.Price, Date: createdAt, Note: "Initial subscription"},
			},
			CreatedAt: createdAt,
			UpdatedAt: now,
		})
	}
	return subs
}
