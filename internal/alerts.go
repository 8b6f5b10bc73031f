package internal

import "sort"

// DefaultUpcomingDays is the renewal window used for upcoming renewals and alerts.
const DefaultUpcomingDays = 7

// Alert is an upcoming renewal with at least one enabled reminder that is due.
type Alert struct {
	Subscription Subscription
	DaysUntil    int
	Due          []ReminderType
}

// ReminderDue reports whether a reminder of type t fires with days left until
// renewal. "On day" fires only at zero; the "N days before" reminders keep
// firing every day from N down to the renewal.
func ReminderDue(t ReminderType, days int) bool {
	if days < 0 {
		return false
	}
	switch t {
	case ReminderOnDay:
		return days == 0
	case ReminderOneDay:
		return days <= 1
	case ReminderThreeDays:
		return days <= 3
	case ReminderSevenDays:
		return days <= 7
	default:
		return false
	}
}

// FindSnooze returns the snooze for a subscription, if any.
func FindSnooze(snoozes []SnoozeState, subID string) (SnoozeState, bool) {
	for _, s := range snoozes {
		if s.SubscriptionID == subID {
			return s, true
		}
	}
	return SnoozeState{}, false
}

// IsSnoozed reports whether alerts for subID are suppressed past today.
func IsSnoozed(snoozes []SnoozeState, subID string, today Date) bool {
	s, ok := FindSnooze(snoozes, subID)
	return ok && s.SnoozedUntil.After(today)
}

// UpcomingRenewals returns active subscriptions renewing within the next
// withinDays days (today included), soonest first.
func UpcomingRenewals(subs []Subscription, today Date, withinDays int) []Subscription {
	type upcoming struct {
		sub  Subscription
		days int
	}
	var found []upcoming
	for _, sub := range subs {
		if sub.Status != StatusActive {
			continue
		}
		days := DaysBetween(today, sub.NextRenewal)
		if days >= 0 && days <= withinDays {
			found = append(found, upcoming{sub: sub, days: days})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].days < found[j].days
	})

	result := make([]Subscription, len(found))
	for i, u := range found {
		result[i] = u.sub
	}
	return result
}

// DueAlerts returns the upcoming renewals that should surface an alert today.
func DueAlerts(state AppState, today Date, withinDays int) []Alert {
	var alerts []Alert
	for _, sub := range UpcomingRenewals(state.Subscriptions, today, withinDays) {
		if IsSnoozed(state.SnoozedReminders, sub.ID, today) {
			continue
		}
		days := DaysBetween(today, sub.NextRenewal)

		var due []ReminderType
		for _, r := range sub.Reminders {
			if r.Enabled && ReminderDue(r.Type, days) {
				due = append(due, r.Type)
			}
		}
		if len(due) > 0 {
			alerts = append(alerts, Alert{Subscription: sub, DaysUntil: days, Due: due})
		}
	}
	return alerts
}
