package query_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/calvinalkan/issueql/pkg/query"
)

// fixedNow is a Thursday afternoon; relative-date tests depend on the exact
// weekday and month boundaries around it.
func fixedNow() time.Time {
	return time.Date(2024, time.March, 14, 15, 9, 26, 0, time.UTC)
}

func testCatalog() *query.Catalog {
	fields := []query.Field{
		{Name: "priority", Type: query.TypeInteger},
		{Name: "score", Type: query.TypeFloat},
		{Name: "effort", Type: query.TypeDuration},
		{Name: "flagged", Type: query.TypeBoolean, Nullable: true},
		{Name: "due", Type: query.TypeDate, Nullable: true},
		{Name: "shipped", Type: query.TypeDateTime},
		{
			Name: "status",
			Type: query.TypeState,
			Options: []query.Option{
				{ID: "s1", Value: "Open"},
				{ID: "s2", Value: "Done", Resolved: true},
			},
		},
		{
			Name: "Status",
			Type: query.TypeState,
			Options: []query.Option{
				{ID: "s3", Value: "Done", Resolved: true},
				{ID: "s4", Value: "Wontfix", Resolved: true},
			},
		},
		{
			Name: "severity",
			Type: query.TypeEnum,
			Options: []query.Option{
				{ID: "e1", Value: "Low"},
				{ID: "e2", Value: "High"},
				{ID: "e3", Value: "Obsolete", Archived: true},
			},
		},
		{
			Name: "assignee",
			Type: query.TypeUser,
			Options: []query.Option{
				{ID: "u1", Value: "alice@example.com"},
				{ID: "u2", Value: "bob@example.com"},
			},
		},
		{
			Name: "component",
			Type: query.TypeEnum,
			Options: []query.Option{
				{ID: "c1", Value: "UI"},
				{ID: "c2", Value: "Core"},
			},
		},
		{
			Name: "component",
			Type: query.TypeEnum,
			Options: []query.Option{
				{ID: "c3", Value: "API"},
				{ID: "c4", Value: "Core"},
			},
		},
	}

	return query.NewCatalog(fields, []string{"FOO", "BAR"})
}

func newTestEngine(t *testing.T) *query.Engine {
	t.Helper()

	return query.NewEngine(testCatalog(), "alice@example.com").WithClock(fixedNow)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayEnd(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 999999000, time.UTC)
}

func mustMarshal(t *testing.T, f query.Filter) string {
	t.Helper()

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal filter: %v", err)
	}

	return string(data)
}
