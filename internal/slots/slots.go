// Package slots holds the pure drill-down transforms for the appointment
// slot selector: month, day and time-of-day derivations over the grouped
// availability the backend returns for one medic. Everything here operates
// on the group list plus an explicit "now" so it stays fully unit-testable.
package slots

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openclinic/frontdesk/internal/backend"
)

// bookingWindowMonths bounds the selector to near-term scheduling: only
// dates in [today, today+3 months) are offered, even if the backend returns
// more.
const bookingWindowMonths = 3

// ParseDate parses a date-only string as a calendar date. Date-only strings
// are never interpreted as instants, so the displayed day can not shift
// across timezones.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("slots: invalid date %q: %w", s, err)
	}
	return t, nil
}

// AvailableMonths returns the distinct yyyy-mm keys of group dates falling
// within the booking window, sorted ascending. Malformed dates are skipped.
func AvailableMonths(groups []backend.GroupedAppointments, now time.Time) []string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	limit := today.AddDate(0, bookingWindowMonths, 0)

	seen := make(map[string]struct{})
	var months []string
	for _, group := range groups {
		date, err := ParseDate(group.Date)
		if err != nil {
			continue
		}
		if date.Before(today) || !date.Before(limit) {
			continue
		}
		key := date.Format("2006-01")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	sort.Strings(months)
	return months
}

// DaysForMonth returns the groups whose date has the selected yyyy-mm key as
// a string prefix, preserving backend order.
func DaysForMonth(groups []backend.GroupedAppointments, month string) []backend.GroupedAppointments {
	if month == "" {
		return nil
	}
	var days []backend.GroupedAppointments
	for _, group := range groups {
		if strings.HasPrefix(group.Date, month) {
			days = append(days, group)
		}
	}
	return days
}

// SlotsForDay returns the slot list of the single group whose date equals
// the selected day, verbatim (the backend sorts them).
func SlotsForDay(groups []backend.GroupedAppointments, day string) []backend.AvailableAppointmentTime {
	if day == "" {
		return nil
	}
	for _, group := range groups {
		if group.Date == day {
			return group.Appointments
		}
	}
	return nil
}

// FormatMonth renders a yyyy-mm key as "January 2006" for display.
func FormatMonth(monthKey string) string {
	t, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return monthKey
	}
	return t.Format("January 2006")
}

// FormatDay renders the day-of-month of a date string.
func FormatDay(dateStr string) string {
	t, err := ParseDate(dateStr)
	if err != nil {
		return dateStr
	}
	return fmt.Sprintf("%d", t.Day())
}

// FormatLongDateTime renders a booking confirmation timestamp, e.g.
// "Monday, 10 June 2024 at 09:30".
func FormatLongDateTime(dateStr string, hour, minute int) string {
	t, err := ParseDate(dateStr)
	if err != nil {
		return fmt.Sprintf("%s at %02d:%02d", dateStr, hour, minute)
	}
	return fmt.Sprintf("%s at %02d:%02d", t.Format("Monday, 2 January 2006"), hour, minute)
}
