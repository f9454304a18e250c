// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package render turns an aggregated report into its output formats:
// plain text, a self-contained HTML document, and a paginated PDF.
//
// All formats derive from one shared presentation mapping (presentEntry,
// LongDate, activityLabel), so they agree on ordering, grouping, and
// textual content by construction; only presentation differs. Date and
// time formatting is pinned to fixed layouts rather than locale-aware
// primitives, keeping output byte-stable across hosts.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/evidenthq/evident/services/worklog/dates"
	"github.com/evidenthq/evident/services/worklog/datatypes"
)

const (
	textTitle = "WORK SUMMARY"
	docTitle  = "Work Summary"

	// footerAttribution closes every rendering exactly once.
	footerAttribution = "Generated with Evident"

	// emptyNotice replaces the day sections when the window has no entries.
	emptyNotice = "No entries recorded for this period."
)

// entryView is the format-independent presentation of one log entry.
type entryView struct {
	TimeSpan    string
	Activity    string
	Description string
	Reference   string
}

// presentEntry applies the shared entry-to-presentation mapping: 24-hour
// HH:MM–HH:MM time span and a capitalized activity label. Reference stays
// empty when the entry has none.
func presentEntry(e datatypes.LogEntry) entryView {
	return entryView{
		TimeSpan:    fmt.Sprintf("%s–%s", e.StartTime.Format("15:04"), e.EndTime.Format("15:04")),
		Activity:    activityLabel(e.Activity),
		Description: e.Description,
		Reference:   e.Reference,
	}
}

// activityLabel renders an activity kind with its first letter upper-cased
// and the remainder lower-cased, e.g. MEETING → Meeting.
func activityLabel(kind datatypes.ActivityKind) string {
	s := strings.ToLower(string(kind))
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// LongDate renders an instant as a long-form date heading:
// "Monday, June 3, 2024".
func LongDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// dayHeading renders a bucket's calendar date in long form. Aggregator
// output always carries valid dates; a malformed one is a contract
// violation upstream, so the raw value is passed through rather than
// handled.
func dayHeading(date string) string {
	day, err := dates.ParseDay(date, time.UTC)
	if err != nil {
		return date
	}
	return LongDate(day)
}

// windowRange renders the window's covered days for the document header.
func windowRange(w dates.Window) string {
	return fmt.Sprintf("%s – %s", LongDate(w.Start), LongDate(w.DisplayEnd()))
}

// FileName builds the download name for an export artifact:
// summary-<start>-to-<end>.<ext> with ISO dates.
func FileName(w dates.Window, ext string) string {
	return fmt.Sprintf("summary-%s-to-%s.%s",
		w.Start.Format(datatypes.CalendarDateLayout),
		w.DisplayEnd().Format(datatypes.CalendarDateLayout),
		ext)
}
