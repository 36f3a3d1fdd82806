package query

import "time"

// relAnchor is the base instant of a relative-date literal.
type relAnchor int

const (
	relNow relAnchor = iota
	relToday
	relThisWeek
	relThisMonth
	relThisYear
)

func (a relAnchor) String() string {
	switch a {
	case relNow:
		return "now"
	case relToday:
		return "today"
	case relThisWeek:
		return "this week"
	case relThisMonth:
		return "this month"
	case relThisYear:
		return "this year"
	}

	return "relative"
}

// relativeDate is a parsed relative-date literal. Offset is the net shift of
// all signed offset terms and is only legal on the now/today anchors; the
// lexer rejects offsets on "this <unit>".
type relativeDate struct {
	anchor relAnchor
	offset time.Duration
}

// window resolves the literal into a concrete [start, end] datetime window
// relative to the given wall-clock instant.
func (r relativeDate) window(now time.Time) (time.Time, time.Time) {
	switch r.anchor {
	case relNow:
		return minuteWindow(now.Add(r.offset))
	case relToday:
		return dayWindow(now.Add(r.offset))
	case relThisWeek:
		return weekWindow(now)
	case relThisMonth:
		return monthWindow(now)
	case relThisYear:
		return yearWindow(now)
	}

	return dayWindow(now)
}

// windowEnd is the last representable instant of a window at microsecond
// precision, matching the timestamp resolution of the document store.
const windowEndNanos = 999999000

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, windowEndNanos, t.Location())
}

// dayWindow expands an instant to its calendar day.
func dayWindow(t time.Time) (time.Time, time.Time) {
	return startOfDay(t), endOfDay(t)
}

// minuteWindow expands an instant to its wall-clock minute.
func minuteWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	end := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 59, windowEndNanos, t.Location())

	return start, end
}

// weekWindow expands an instant to its Monday-through-Sunday week.
func weekWindow(t time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := startOfDay(t).AddDate(0, 0, -daysSinceMonday)

	return monday, endOfDay(monday.AddDate(0, 0, 6))
}

// monthWindow expands an instant to its calendar month.
func monthWindow(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)

	return first, endOfDay(last)
}

// yearWindow expands an instant to its calendar year.
func yearWindow(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	last := time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location())

	return first, endOfDay(last)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}
