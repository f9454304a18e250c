// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/dates"
	"github.com/evidenthq/evident/services/worklog/report"
)

func testWindow() dates.Window {
	return dates.Window{
		Start: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		Label: "This Week",
	}
}

func testLog(id, date string, startHour, startMin, endHour, endMin int, kind datatypes.ActivityKind, desc, ref string) datatypes.LogEntry {
	return datatypes.LogEntry{
		ID:          id,
		OwnerID:     "owner-1",
		Date:        date,
		StartTime:   time.Date(2024, 6, 3, startHour, startMin, 0, 0, time.UTC),
		EndTime:     time.Date(2024, 6, 3, endHour, endMin, 0, 0, time.UTC),
		Activity:    kind,
		Description: desc,
		Reference:   ref,
	}
}

func weekBuckets() []report.Bucket {
	return report.Aggregate([]datatypes.LogEntry{
		testLog("1", "2024-06-03", 9, 0, 10, 0, datatypes.ActivityWork, "Standup", ""),
		testLog("2", "2024-06-03", 14, 0, 15, 30, datatypes.ActivityMeeting, "Client call", "PROJ-42"),
		testLog("3", "2024-06-04", 8, 0, 9, 0, datatypes.ActivityAdmin, "Email", ""),
	})
}

func TestText_FullDocument(t *testing.T) {
	out := Text(testWindow(), weekBuckets())

	want := "WORK SUMMARY\n" +
		"Monday, June 3, 2024 – Sunday, June 9, 2024\n" +
		strings.Repeat("─", 50) + "\n" +
		"\n" +
		"Monday, June 3, 2024\n" +
		strings.Repeat("─", 30) + "\n" +
		"09:00–10:00  [Work]\n" +
		"  Standup\n" +
		"\n" +
		"14:00–15:30  [Meeting]\n" +
		"  Client call\n" +
		"  Ref: PROJ-42\n" +
		"\n" +
		"\n" +
		"Tuesday, June 4, 2024\n" +
		strings.Repeat("─", 30) + "\n" +
		"08:00–09:00  [Admin]\n" +
		"  Email\n" +
		"\n" +
		"\n" +
		strings.Repeat("─", 50) + "\n" +
		"Generated with Evident\n"

	assert.Equal(t, want, out)
}

func TestText_DayHeadingsFollowBucketOrder(t *testing.T) {
	out := Text(testWindow(), weekBuckets())

	monday := strings.Index(out, "Monday, June 3, 2024\n─")
	tuesday := strings.Index(out, "Tuesday, June 4, 2024")
	require.GreaterOrEqual(t, monday, 0)
	require.GreaterOrEqual(t, tuesday, 0)
	assert.Less(t, monday, tuesday)
}

func TestText_ReferenceLineOnlyWhenPresent(t *testing.T) {
	out := Text(testWindow(), weekBuckets())

	assert.Equal(t, 1, strings.Count(out, "  Ref: "))
	assert.Contains(t, out, "  Ref: PROJ-42\n")
}

func TestText_FooterAppearsExactlyOnceAtEnd(t *testing.T) {
	out := Text(testWindow(), weekBuckets())

	assert.Equal(t, 1, strings.Count(out, "Generated with Evident"))
	assert.True(t, strings.HasSuffix(out, "Generated with Evident\n"))
}

func TestText_EmptyWindow(t *testing.T) {
	out := Text(testWindow(), nil)

	want := "WORK SUMMARY\n" +
		"Monday, June 3, 2024 – Sunday, June 9, 2024\n" +
		strings.Repeat("─", 50) + "\n" +
		"\n" +
		"No entries recorded for this period.\n" +
		"\n" +
		strings.Repeat("─", 50) + "\n" +
		"Generated with Evident\n"

	assert.Equal(t, want, out)
}

func TestText_IsDeterministic(t *testing.T) {
	first := Text(testWindow(), weekBuckets())
	second := Text(testWindow(), weekBuckets())
	assert.Equal(t, first, second)
}
