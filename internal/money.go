package internal

// CadenceDays returns the approximate length of one period in days. The
// 7/30/91/365 figures are what reported totals have always been computed with;
// keep them rather than switching to calendar-exact lengths.
func CadenceDays(c Cadence) float64 {
	switch c {
	case CadenceWeekly:
		return 7
	case CadenceQuarterly:
		return 91
	case CadenceYearly:
		return 365
	default:
		return 30
	}
}

// ToMonthlyEquivalent normalizes a per-period price to a 30 day month.
func ToMonthlyEquivalent(price float64, c Cadence) float64 {
	return price / CadenceDays(c) * 30
}

// ToYearlyEquivalent normalizes a per-period price to a 365 day year.
func ToYearlyEquivalent(price float64, c Cadence) float64 {
	return price / CadenceDays(c) * 365
}

// MonthlyTotal sums the monthly equivalent of all active subscriptions.
func MonthlyTotal(subs []Subscription) float64 {
	var sum float64
	for _, sub := range subs {
		if sub.Status == StatusActive {
			sum += ToMonthlyEquivalent(sub.Price, sub.Cadence)
		}
	}
	return sum
}

// YearlyTotal sums the yearly equivalent of all active subscriptions.
func YearlyTotal(subs []Subscription) float64 {
	var sum float64
	for _, sub := range subs {
		if sub.Status == StatusActive {
			sum += ToYearlyEquivalent(sub.Price, sub.Cadence)
		}
	}
	return sum
}

// PriceRange returns the lowest and highest price a subscription has had.
func PriceRange(history []PriceChange) (min, max float64) {
	if len(history) == 0 {
		return 0, 0
	}
	min = history[0].Price
	max = history[0].Price
	for _, pc := range history[1:] {
		if pc.Price < min {
			min = pc.Price
		}
		if pc.Price > max {
			max = pc.Price
		}
	}
	return min, max
}
