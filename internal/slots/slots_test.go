package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openclinic/frontdesk/internal/backend"
)

func group(date string, slotIDs ...string) backend.GroupedAppointments {
	g := backend.GroupedAppointments{Date: date}
	for i, id := range slotIDs {
		g.Appointments = append(g.Appointments, backend.AvailableAppointmentTime{ID: id, Hour: 9 + i, Minute: 0})
	}
	return g
}

func TestAvailableMonths(t *testing.T) {
	now := time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

	t.Run("window is [today, today+3 months)", func(t *testing.T) {
		groups := []backend.GroupedAppointments{
			group("2024-05-14", "past"),       // yesterday, excluded
			group("2024-05-15", "today"),      // today, included
			group("2024-06-10", "s1"),         // included
			group("2024-08-14", "edge-in"),    // last day inside
			group("2024-08-15", "edge-out"),   // exactly +3 months, excluded
			group("2024-12-01", "far-future"), // excluded
		}
		months := AvailableMonths(groups, now)
		assert.Equal(t, []string{"2024-05", "2024-06", "2024-08"}, months)
	})

	t.Run("distinct and sorted", func(t *testing.T) {
		groups := []backend.GroupedAppointments{
			group("2024-07-02"),
			group("2024-06-10"),
			group("2024-06-21"),
		}
		months := AvailableMonths(groups, now)
		assert.Equal(t, []string{"2024-06", "2024-07"}, months)
	})

	t.Run("malformed dates skipped", func(t *testing.T) {
		groups := []backend.GroupedAppointments{
			group("not-a-date"),
			group("2024-06-10"),
		}
		assert.Equal(t, []string{"2024-06"}, AvailableMonths(groups, now))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, AvailableMonths(nil, now))
	})
}

func TestDaysForMonth(t *testing.T) {
	groups := []backend.GroupedAppointments{
		group("2024-06-21", "b"),
		group("2024-06-10", "a"),
		group("2024-07-01", "c"),
	}

	t.Run("prefix match preserves backend order", func(t *testing.T) {
		days := DaysForMonth(groups, "2024-06")
		if assert.Len(t, days, 2) {
			assert.Equal(t, "2024-06-21", days[0].Date)
			assert.Equal(t, "2024-06-10", days[1].Date)
		}
	})

	t.Run("no day outside the selected month", func(t *testing.T) {
		for _, d := range DaysForMonth(groups, "2024-07") {
			assert.Equal(t, "2024-07", d.Date[:7])
		}
	})

	t.Run("empty month selects nothing", func(t *testing.T) {
		assert.Empty(t, DaysForMonth(groups, ""))
	})
}

func TestSlotsForDay(t *testing.T) {
	groups := []backend.GroupedAppointments{
		group("2024-06-10", "s1"),
		group("2024-06-11", "s2", "s3"),
	}

	t.Run("exact date match only", func(t *testing.T) {
		got := SlotsForDay(groups, "2024-06-11")
		if assert.Len(t, got, 2) {
			assert.Equal(t, "s2", got[0].ID)
		}
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, SlotsForDay(groups, "2024-06-12"))
	})

	t.Run("empty day", func(t *testing.T) {
		assert.Empty(t, SlotsForDay(groups, ""))
	})
}

// Drill-down example: one June group with a single 09:00 slot.
func TestDrillDownScenario(t *testing.T) {
	groups := []backend.GroupedAppointments{
		{Date: "2024-06-10", Appointments: []backend.AvailableAppointmentTime{{ID: "s1", Hour: 9, Minute: 0}}},
	}

	days := DaysForMonth(groups, "2024-06")
	if assert.Len(t, days, 1) {
		assert.Equal(t, "2024-06-10", days[0].Date)
	}

	slots := SlotsForDay(groups, "2024-06-10")
	if assert.Len(t, slots, 1) {
		assert.Equal(t, "s1", slots[0].ID)
		assert.Equal(t, "09:00", backend.ClockTime{Hour: slots[0].Hour, Minute: slots[0].Minute}.String())
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "June 2024", FormatMonth("2024-06"))
	assert.Equal(t, "garbage", FormatMonth("garbage"))

	// Days format from the calendar date, never via an instant: "2024-06-10"
	// is day 10 no matter the local timezone.
	assert.Equal(t, "10", FormatDay("2024-06-10"))
	assert.Equal(t, "1", FormatDay("2024-07-01"))

	assert.Equal(t, "Monday, 10 June 2024 at 09:30", FormatLongDateTime("2024-06-10", 9, 30))
	assert.Equal(t, "bad at 09:05", FormatLongDateTime("bad", 9, 5))
}
