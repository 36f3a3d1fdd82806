package query

import (
	"testing"
	"time"
)

// Contract: weeks run Monday through Sunday; a Sunday instant still belongs to
// the week that started the previous Monday.
func Test_WeekWindow_Starts_On_Monday(t *testing.T) {
	t.Parallel()

	sunday := time.Date(2024, time.March, 17, 12, 0, 0, 0, time.UTC)

	start, end := weekWindow(sunday)

	if !start.Equal(time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week start = %v, want Monday March 11", start)
	}

	if !end.Equal(time.Date(2024, time.March, 17, 23, 59, 59, windowEndNanos, time.UTC)) {
		t.Fatalf("week end = %v, want end of Sunday March 17", end)
	}

	monday := time.Date(2024, time.March, 11, 0, 0, 1, 0, time.UTC)

	start, _ = weekWindow(monday)
	if start.Day() != 11 {
		t.Fatalf("week start = %v, want the same Monday", start)
	}
}

// Contract: month windows track real month lengths, including leap February.
func Test_MonthWindow_Handles_Leap_February(t *testing.T) {
	t.Parallel()

	_, end := monthWindow(time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC))

	if end.Day() != 29 {
		t.Fatalf("february 2024 ends on day %d, want 29", end.Day())
	}

	_, end = monthWindow(time.Date(2023, time.February, 10, 8, 0, 0, 0, time.UTC))

	if end.Day() != 28 {
		t.Fatalf("february 2023 ends on day %d, want 28", end.Day())
	}
}

// Contract: window upper bounds stop at microsecond precision, matching the
// store's timestamp resolution.
func Test_Windows_End_At_Microsecond_Precision(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, time.March, 14, 15, 9, 26, 0, time.UTC)

	_, end := dayWindow(at)
	if end.Nanosecond() != windowEndNanos {
		t.Fatalf("day window end nanos = %d, want %d", end.Nanosecond(), windowEndNanos)
	}

	_, end = minuteWindow(at)
	if end.Second() != 59 || end.Nanosecond() != windowEndNanos {
		t.Fatalf("minute window end = %v", end)
	}
}

func Test_SameDay_Compares_Calendar_Days(t *testing.T) {
	t.Parallel()

	morning := time.Date(2024, time.March, 14, 0, 0, 1, 0, time.UTC)
	night := time.Date(2024, time.March, 14, 23, 59, 0, 0, time.UTC)
	next := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	if !sameDay(morning, night) {
		t.Fatal("same calendar day reported as different")
	}

	if sameDay(night, next) {
		t.Fatal("adjacent days reported as the same")
	}
}
