package query_test

import (
	"testing"

	"github.com/calvinalkan/issueql/pkg/query"
)

// Contract: combinators render in the document store's vocabulary; the empty
// And matches everything and the empty Or matches nothing.
func Test_Filter_MarshalJSON_Combinators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter query.Filter
		want   string
	}{
		{
			name:   "empty and is match-all",
			filter: &query.And{},
			want:   `{}`,
		},
		{
			name:   "empty or is match-none",
			filter: &query.Or{},
			want:   `{"$nor":[{}]}`,
		},
		{
			name: "and wraps its terms",
			filter: &query.And{Terms: []query.Filter{
				&query.Compare{Path: "fields.priority", Op: query.OpGte, Value: 1},
				&query.Compare{Path: "fields.priority", Op: query.OpLte, Value: 5},
			}},
			want: `{"$and":[{"fields.priority":{"$gte":1}},{"fields.priority":{"$lte":5}}]}`,
		},
		{
			name: "or wraps its terms",
			filter: &query.Or{Terms: []query.Filter{
				&query.Compare{Path: "fields.severity", Op: query.OpEq, Value: "High"},
				&query.Compare{Path: "fields.severity", Op: query.OpEq, Value: "Low"},
			}},
			want: `{"$or":[{"fields.severity":"High"},{"fields.severity":"Low"}]}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := mustMarshal(t, tt.filter); got != tt.want {
				t.Fatalf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

// Contract: case-insensitive equality renders as an anchored, escaped regex so
// user input can never inject regex syntax.
func Test_Filter_MarshalJSON_Escapes_EqFold(t *testing.T) {
	t.Parallel()

	got := mustMarshal(t, &query.Compare{Path: "subject", Op: query.OpEqFold, Value: "a.b(c)"})

	want := `{"subject":{"$options":"i","$regex":"^a\\.b\\(c\\)$"}}`
	if got != want {
		t.Fatalf("marshal = %s, want %s", got, want)
	}
}

func Test_Filter_MarshalJSON_Leaf_Predicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter query.Filter
		want   string
	}{
		{
			name:   "null equality",
			filter: &query.Compare{Path: "fields.due", Op: query.OpEq, Value: nil},
			want:   `{"fields.due":null}`,
		},
		{
			name:   "in",
			filter: &query.Compare{Path: "fields.status", Op: query.OpIn, Value: []string{"Done"}},
			want:   `{"fields.status":{"$in":["Done"]}}`,
		},
		{
			name:   "not in",
			filter: &query.Compare{Path: "fields.status", Op: query.OpNotIn, Value: []string{"Done"}},
			want:   `{"fields.status":{"$nin":["Done"]}}`,
		},
		{
			name:   "text search",
			filter: &query.TextSearch{Term: "hello world"},
			want:   `{"$text":{"$search":"hello world"}}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := mustMarshal(t, tt.filter); got != tt.want {
				t.Fatalf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}
