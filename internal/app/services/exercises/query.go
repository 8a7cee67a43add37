package exercises

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
)

// CalendarLayout renders dates as day-of-week, month, day and year.
const CalendarLayout = "Mon Jan 02 2006"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	CalendarLayout,
}

// FormatDate renders t in CalendarLayout (UTC).
func FormatDate(t time.Time) string {
	return t.UTC().Format(CalendarLayout)
}

// ParseDate accepts ISO dates, RFC 3339 timestamps and the calendar form.
// Inputs without a zone are read as UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// ParseDuration converts a numeric string to whole units, truncating toward
// zero. Negative, non-finite and non-numeric inputs are rejected.
func ParseDuration(raw string) (int, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("duration %q is not a number", raw)
	}
	value = math.Trunc(value)
	if value < 0 {
		return 0, fmt.Errorf("duration %q is negative", raw)
	}
	if value > math.MaxInt32 {
		return 0, fmt.Errorf("duration %q is too large", raw)
	}
	return int(value), nil
}

// ParseQuery builds a Query from raw query-string values. Empty values are
// absent. Unparseable bounds are errors. See ParseLimit for limit handling.
func ParseQuery(from, to, limit string) (exercise.Query, error) {
	var q exercise.Query

	if strings.TrimSpace(from) != "" {
		t, err := ParseDate(from)
		if err != nil {
			return exercise.Query{}, fmt.Errorf("from: %w", err)
		}
		q.From = &t
	}
	if strings.TrimSpace(to) != "" {
		t, err := ParseDate(to)
		if err != nil {
			return exercise.Query{}, fmt.Errorf("to: %w", err)
		}
		q.To = &t
	}
	if n, ok := ParseLimit(limit); ok {
		q.Limit = &n
	}
	return q, nil
}

// ParseLimit reads the leading integer of raw, so "2.5" is 2 and "3 items"
// is 3. It reports false when raw has no leading digits or is negative,
// both of which mean no limit.
func ParseLimit(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.ParseInt(raw[:end], 10, 64)
	if err != nil {
		// out of range: a huge positive limit keeps everything
		if raw[0] == '-' {
			return 0, false
		}
		return math.MaxInt32, true
	}
	if n < 0 {
		return 0, false
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return int(n), true
}

// Run applies order, the date bounds and the limit to records. The input
// slice is not modified.
func Run(records []exercise.Record, q exercise.Query, order exercise.Order) []exercise.Record {
	ordered := make([]exercise.Record, len(records))
	copy(ordered, records)
	if order == exercise.OrderDateDesc {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Date.After(ordered[j].Date)
		})
	}

	result := ordered[:0]
	for _, rec := range ordered {
		if q.From != nil && rec.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && rec.Date.After(*q.To) {
			continue
		}
		result = append(result, rec)
	}

	if q.Limit != nil && len(result) > *q.Limit {
		result = result[:*q.Limit]
	}
	return result
}

// Project reduces records to log entries.
func Project(records []exercise.Record) []exercise.LogEntry {
	entries := make([]exercise.LogEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, exercise.LogEntry{
			Description: rec.Description,
			Duration:    rec.Duration,
			Date:        FormatDate(rec.Date),
		})
	}
	return entries
}
