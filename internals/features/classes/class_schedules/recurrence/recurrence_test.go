package recurrence

import (
	"testing"
	"time"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func TestExpandWithoutRuleReturnsBasePair(t *testing.T) {
	s := time.Date(2026, 5, 4, 16, 0, 0, 0, ist)
	e := s.Add(90 * time.Minute)
	for _, r := range []*Rule{nil, {Enabled: false, Frequency: Daily, EndType: EndAfterCount, Count: 9}} {
		got := Expand(s, e, r)
		if len(got) != 1 || !got[0].Start.Equal(s) || !got[0].End.Equal(e) {
			t.Fatalf("rule %+v: got %+v", r, got)
		}
	}
}

func TestExpandDailyEveryOtherDayFiveTimes(t *testing.T) {
	s := time.Date(2026, 1, 1, 10, 0, 0, 0, ist)
	e := time.Date(2026, 1, 1, 11, 0, 0, 0, ist)
	got := Expand(s, e, &Rule{Enabled: true, Frequency: Daily, Interval: 2, EndType: EndAfterCount, Count: 5})

	wantDays := []int{1, 3, 5, 7, 9}
	if len(got) != len(wantDays) {
		t.Fatalf("len = %d, want %d", len(got), len(wantDays))
	}
	for i, d := range wantDays {
		if got[i].Start.Day() != d || got[i].Start.Hour() != 10 || got[i].End.Hour() != 11 {
			t.Fatalf("occurrence %d = %s - %s", i, got[i].Start, got[i].End)
		}
	}
}

func TestExpandWeeklyUnboundedHitsIterationCap(t *testing.T) {
	s := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	got := Expand(s, s.Add(time.Hour), &Rule{Enabled: true, Frequency: Weekly, Interval: 1, EndType: EndNever})
	if len(got) != MaxIterations {
		t.Fatalf("len = %d, want %d", len(got), MaxIterations)
	}
}

func TestExpandWeeklySkippedCandidatesUseIterationsNotCount(t *testing.T) {
	// base is a Monday; filter only allows Tuesday, so nothing is ever emitted
	s := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	got := Expand(s, s.Add(time.Hour), &Rule{
		Enabled: true, Frequency: Weekly, Interval: 1,
		Weekdays: []time.Weekday{time.Tuesday}, EndType: EndAfterCount, Count: 3,
	})
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}

	got = Expand(s, s.Add(time.Hour), &Rule{
		Enabled: true, Frequency: Weekly, Interval: 2,
		Weekdays: []time.Weekday{time.Monday, time.Friday}, EndType: EndAfterCount, Count: 3,
	})
	if len(got) != 3 || got[2].Start.Sub(got[0].Start) != 28*24*time.Hour {
		t.Fatalf("matching filter: got %+v", got)
	}
}

func TestExpandMonthlyRollsOverShortMonths(t *testing.T) {
	s := time.Date(2026, 1, 31, 18, 30, 0, 0, ist)
	got := Expand(s, s.Add(time.Hour), &Rule{Enabled: true, Frequency: Monthly, Interval: 1, EndType: EndAfterCount, Count: 3})
	want := []time.Time{
		time.Date(2026, 1, 31, 18, 30, 0, 0, ist),
		time.Date(2026, 3, 3, 18, 30, 0, 0, ist),
		time.Date(2026, 4, 3, 18, 30, 0, 0, ist),
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if !got[i].Start.Equal(want[i]) {
			t.Fatalf("occurrence %d = %s, want %s", i, got[i].Start, want[i])
		}
	}
}

func TestExpandStopsAfterUntil(t *testing.T) {
	s := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	until, err := ParseUntil("2026-02-16", time.UTC)
	if err != nil {
		t.Fatalf("ParseUntil: %v", err)
	}
	got := Expand(s, s.Add(time.Hour), &Rule{Enabled: true, Frequency: Weekly, Interval: 1, EndType: EndOnDate, Until: &until})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (limit day inclusive)", len(got))
	}

	past := s.Add(-time.Hour)
	got = Expand(s, s.Add(time.Hour), &Rule{Enabled: true, Frequency: Daily, Interval: 1, EndType: EndOnDate, Until: &past})
	if len(got) != 0 {
		t.Fatalf("first occurrence already past limit: len = %d", len(got))
	}
}

func TestExpandUnknownFrequencyStopsAfterFirst(t *testing.T) {
	s := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	got := Expand(s, s.Add(time.Hour), &Rule{Enabled: true, Frequency: "yearly", EndType: EndAfterCount, Count: 4})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestExpandKeepsDurationAndOrder(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// crosses the March DST change; wall clock must stay 09:00
	s := time.Date(2026, 3, 5, 9, 0, 0, 0, loc)
	got := Expand(s, s.Add(45*time.Minute), &Rule{Enabled: true, Frequency: Weekly, Interval: 1, EndType: EndAfterCount, Count: 3})
	for i, o := range got {
		if o.Start.Hour() != 9 || o.End.Sub(o.Start) != 45*time.Minute {
			t.Fatalf("occurrence %d = %s (%s)", i, o.Start, o.End.Sub(o.Start))
		}
		if i > 0 && !o.Start.After(got[i-1].Start) {
			t.Fatalf("occurrences out of order")
		}
	}
}

func TestSnapshotDescribesRule(t *testing.T) {
	until := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot(&Rule{Enabled: true, Frequency: Weekly, Interval: 1, Weekdays: []time.Weekday{time.Monday}, EndType: EndOnDate, Until: &until}, "Asia/Kolkata")
	if snap["frequency"] != "weekly" || snap["until"] != "2026-06-01T00:00:00Z" || snap["timezone"] != "Asia/Kolkata" {
		t.Fatalf("snapshot = %v", snap)
	}
	if Snapshot(nil, "") != nil {
		t.Fatalf("nil rule must have no snapshot")
	}
}
