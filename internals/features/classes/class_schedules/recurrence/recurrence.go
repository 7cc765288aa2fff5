// Package recurrence expands a base start/end pair and an optional rule into
// concrete occurrences. It is pure: no clock, no storage.
package recurrence

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// MaxIterations bounds every expansion, counting skipped candidates too.
const MaxIterations = 500

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

type EndType string

const (
	EndAfterCount EndType = "count"
	EndOnDate     EndType = "date"
	EndNever      EndType = "never"
)

type Rule struct {
	Enabled   bool
	Frequency Frequency
	Interval  int
	// Weekdays filters weekly candidates (0=Sunday..6=Saturday). Empty means no filter.
	Weekdays []time.Weekday
	EndType  EndType
	Count    int
	Until    *time.Time
}

type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Expand returns the occurrences generated by rule from the base pair.
// A nil or disabled rule (or a zero base start) yields the base pair alone.
// Candidates advance from the previous candidate with calendar arithmetic in
// the base's location, so wall-clock time is kept and month overflow rolls
// forward (Jan 31 + 1 month = Mar 3 in a non-leap year).
func Expand(start, end time.Time, rule *Rule) []Occurrence {
	if rule == nil || !rule.Enabled || start.IsZero() {
		return []Occurrence{{Start: start, End: end}}
	}

	duration := end.Sub(start)
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}
	filter := weekdaySet(rule)

	out := make([]Occurrence, 0, 16)
	cur := start
	for i := 0; i < MaxIterations; i++ {
		if rule.EndType == EndOnDate && rule.Until != nil && cur.After(*rule.Until) {
			break
		}
		if rule.EndType == EndAfterCount && len(out) >= rule.Count {
			break
		}

		if filter == nil || filter[cur.Weekday()] {
			out = append(out, Occurrence{Start: cur, End: cur.Add(duration)})
		}

		switch rule.Frequency {
		case Daily:
			cur = cur.AddDate(0, 0, interval)
		case Weekly:
			cur = cur.AddDate(0, 0, 7*interval)
		case Monthly:
			cur = cur.AddDate(0, interval, 0)
		default:
			return out
		}
	}
	return out
}

func weekdaySet(rule *Rule) map[time.Weekday]bool {
	if rule.Frequency != Weekly || len(rule.Weekdays) == 0 {
		return nil
	}
	set := make(map[time.Weekday]bool, len(rule.Weekdays))
	for _, d := range rule.Weekdays {
		set[d] = true
	}
	return set
}

// ParseUntil accepts RFC3339 or a bare YYYY-MM-DD. A bare date means the end
// of that day in loc, so an occurrence on the limit day is still produced.
func ParseUntil(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Nanosecond), nil
}

// Snapshot is stored on every generated session so the rule that produced it
// stays inspectable after the request is gone.
func Snapshot(rule *Rule, tz string) datatypes.JSONMap {
	if rule == nil || !rule.Enabled {
		return nil
	}
	out := datatypes.JSONMap{
		"frequency": string(rule.Frequency),
		"interval":  rule.Interval,
		"end_type":  string(rule.EndType),
	}
	if tz != "" {
		out["timezone"] = tz
	}
	if len(rule.Weekdays) > 0 {
		arr := make([]int, 0, len(rule.Weekdays))
		for _, d := range rule.Weekdays {
			arr = append(arr, int(d))
		}
		out["weekdays"] = arr
	}
	switch rule.EndType {
	case EndAfterCount:
		out["count"] = rule.Count
	case EndOnDate:
		if rule.Until != nil {
			out["until"] = rule.Until.UTC().Format(time.RFC3339)
		}
	}
	return out
}
