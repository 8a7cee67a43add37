package exercises

import (
	"fmt"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
)

var calendarPattern = regexp.MustCompile(`^(Mon|Tue|Wed|Thu|Fri|Sat|Sun) (Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{2} \d{4}$`)

func limitOf(n int) *int { return &n }

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func records(days ...int) []exercise.Record {
	out := make([]exercise.Record, 0, len(days))
	for i, d := range days {
		out = append(out, exercise.Record{
			ID:          fmt.Sprint(i + 1),
			UserID:      "1",
			Description: fmt.Sprintf("ex-%d", i+1),
			Duration:    10 * (i + 1),
			Date:        day(d),
		})
	}
	return out
}

func descriptions(recs []exercise.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Description)
	}
	return out
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Mon Jan 01 2024", FormatDate(day(1)))
	assert.Regexp(t, calendarPattern, FormatDate(time.Now()))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2024-01-05", day(5), true},
		{"2024-01-05T10:30:00Z", time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), true},
		{"2024-01-05T12:30:00+02:00", time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), true},
		{"2024-01-05 08:00:00", time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC), true},
		{"Fri Jan 05 2024", day(5), true},
		{"not a date", time.Time{}, false},
		{"2024-13-40", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"30", 30, true},
		{"30.9", 30, true},
		{"0", 0, true},
		{"-0.5", 0, true},
		{" 12 ", 12, true},
		{"-3", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"1e12", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery("", "", "")
	require.NoError(t, err)
	assert.Nil(t, q.From)
	assert.Nil(t, q.To)
	assert.Nil(t, q.Limit)

	q, err = ParseQuery("2024-01-02", "2024-01-04", "2")
	require.NoError(t, err)
	assert.True(t, q.From.Equal(day(2)))
	assert.True(t, q.To.Equal(day(4)))
	require.NotNil(t, q.Limit)
	assert.Equal(t, 2, *q.Limit)

	q, err = ParseQuery("", "", "0")
	require.NoError(t, err)
	require.NotNil(t, q.Limit, "zero is an explicit limit")
	assert.Equal(t, 0, *q.Limit)

	_, err = ParseQuery("yesterday", "", "")
	assert.Error(t, err)
	_, err = ParseQuery("", "soon", "")
	assert.Error(t, err)
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"2", 2, true},
		{"0", 0, true},
		{" 7 ", 7, true},
		{"+3", 3, true},
		{"2.5", 2, true},
		{"3items", 3, true},
		{"99999999999999999999", math.MaxInt32, true},
		{"", 0, false},
		{"abc", 0, false},
		{".5", 0, false},
		{"-", 0, false},
		{"-4", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLimit(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseLimit(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("ParseLimit(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRunFilters(t *testing.T) {
	recs := records(1, 3, 5, 7, 9)
	from, to := day(3), day(7)

	tests := []struct {
		name  string
		query exercise.Query
		order exercise.Order
		want  []string
	}{
		{"all", exercise.Query{}, exercise.OrderInsertion, []string{"ex-1", "ex-2", "ex-3", "ex-4", "ex-5"}},
		{"inclusive-range", exercise.Query{From: &from, To: &to}, exercise.OrderInsertion, []string{"ex-2", "ex-3", "ex-4"}},
		{"from-only", exercise.Query{From: &to}, exercise.OrderInsertion, []string{"ex-4", "ex-5"}},
		{"to-only", exercise.Query{To: &from}, exercise.OrderInsertion, []string{"ex-1", "ex-2"}},
		{"limit-after-filter", exercise.Query{From: &from, Limit: limitOf(2)}, exercise.OrderInsertion, []string{"ex-2", "ex-3"}},
		{"limit-larger-than-log", exercise.Query{Limit: limitOf(50)}, exercise.OrderInsertion, []string{"ex-1", "ex-2", "ex-3", "ex-4", "ex-5"}},
		{"date-desc", exercise.Query{Limit: limitOf(2)}, exercise.OrderDateDesc, []string{"ex-5", "ex-4"}},
		{"zero-limit", exercise.Query{Limit: limitOf(0)}, exercise.OrderInsertion, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Run(recs, tt.query, tt.order)
			assert.Equal(t, tt.want, descriptions(got))
		})
	}

	assert.Equal(t, "ex-1", recs[0].Description, "input must not be reordered")
}

func TestRunKeepsInsertionOrderForUnsortedDates(t *testing.T) {
	recs := records(9, 1, 5)
	assert.Equal(t, []string{"ex-1", "ex-2", "ex-3"}, descriptions(Run(recs, exercise.Query{}, exercise.OrderInsertion)))
	assert.Equal(t, []string{"ex-1", "ex-3", "ex-2"}, descriptions(Run(recs, exercise.Query{}, exercise.OrderDateDesc)))
}

func TestRunFromAfterAllDatesIsEmpty(t *testing.T) {
	late := day(30)
	got := Run(records(1, 2, 3), exercise.Query{From: &late}, exercise.OrderInsertion)
	assert.Empty(t, got)
	assert.Empty(t, Project(got))
	assert.NotNil(t, Project(got), "projection must be an empty list, not nil")
}

func TestProject(t *testing.T) {
	entries := Project(records(1))
	require.Len(t, entries, 1)
	assert.Equal(t, exercise.LogEntry{Description: "ex-1", Duration: 10, Date: "Mon Jan 01 2024"}, entries[0])
}
