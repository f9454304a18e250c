// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dates resolves named reporting periods and explicit date ranges
// into concrete windows.
//
// Named periods (today, this-week, last-week) produce half-open windows
// [start, end) anchored at local midnight; explicit ranges are inclusive
// on both ends. The asymmetry is deliberate: named periods are instant
// arithmetic, explicit ranges are day arithmetic, and both clients and the
// stored data rely on the distinction.
package dates

import (
	"fmt"
	"math"
	"time"

	"github.com/evidenthq/evident/services/worklog/apperr"
)

// Period names a relative reporting window.
type Period string

const (
	PeriodToday    Period = "today"
	PeriodThisWeek Period = "this-week"
	PeriodLastWeek Period = "last-week"
)

// MaxExplicitRangeDays caps explicit export ranges. The cap is evaluated
// on the ceiling of the day count, so any span strictly longer than seven
// full days is rejected, partial-day overshoot included.
const MaxExplicitRangeDays = 7

// Clock supplies the current instant. Injecting it keeps window
// resolution deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Window is a resolved pair of instants bounding a report. End is never
// before Start. InclusiveEnd is true for explicit ranges only.
type Window struct {
	Start        time.Time
	End          time.Time
	Label        string
	InclusiveEnd bool
}

// DisplayEnd returns the last calendar day the window covers. For
// half-open named windows that is the day before End; explicit windows
// already carry it.
func (w Window) DisplayEnd() time.Time {
	if w.InclusiveEnd {
		return w.End
	}
	return w.End.AddDate(0, 0, -1)
}

// ContainsDay reports whether the calendar day starting at dayStart falls
// inside the window. Log entries are selected by their stored calendar
// date, not their start instant.
func (w Window) ContainsDay(dayStart time.Time) bool {
	if dayStart.Before(w.Start) {
		return false
	}
	if w.InclusiveEnd {
		return !dayStart.After(w.End)
	}
	return dayStart.Before(w.End)
}

// ResolveNamed computes the window for a named period, anchored to the
// clock's current instant and location.
//
// Weeks start on Monday. Sunday counts as day 7 of the running week
// (offset 6), so "this week" on a Sunday still begins the preceding
// Monday, not the following one.
func ResolveNamed(clock Clock, period Period) (Window, error) {
	now := clock.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodToday:
		return Window{
			Start: midnight,
			End:   midnight.AddDate(0, 0, 1),
			Label: "Today",
		}, nil

	case PeriodThisWeek:
		monday := midnight.AddDate(0, 0, -mondayOffset(now.Weekday()))
		return Window{
			Start: monday,
			End:   monday.AddDate(0, 0, 7),
			Label: "This Week",
		}, nil

	case PeriodLastWeek:
		thisMonday := midnight.AddDate(0, 0, -mondayOffset(now.Weekday()))
		return Window{
			Start: thisMonday.AddDate(0, 0, -7),
			End:   thisMonday,
			Label: "Last Week",
		}, nil

	default:
		return Window{}, fmt.Errorf("unknown period %q", period)
	}
}

// ResolveExplicit validates caller-supplied bounds and returns an
// inclusive window. Fails with apperr.ErrRangeTooLarge when the ceiling
// of the spanned day count exceeds MaxExplicitRangeDays.
func ResolveExplicit(start, end time.Time) (Window, error) {
	if end.Before(start) {
		return Window{}, fmt.Errorf("window end %s precedes start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	days := math.Ceil(end.Sub(start).Hours() / 24)
	if days > MaxExplicitRangeDays {
		return Window{}, apperr.ErrRangeTooLarge
	}

	return Window{
		Start:        start,
		End:          end,
		Label:        "Custom Range",
		InclusiveEnd: true,
	}, nil
}

// ParseDay parses a calendar date in the service's date-only layout,
// anchored at midnight in the given location.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return day, nil
}

// mondayOffset returns how many days back the preceding Monday lies.
// Sunday is treated as day 7 of the current week.
func mondayOffset(day time.Weekday) int {
	if day == time.Sunday {
		return 6
	}
	return int(day) - 1
}
