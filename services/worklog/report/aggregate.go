// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report groups flat log entry sequences into the day-ordered
// buckets consumed by the renderers.
package report

import "github.com/evidenthq/evident/services/worklog/datatypes"

// Bucket holds one calendar day's entries in presentation order. Buckets
// are never empty by construction; a day with no entries produces no
// bucket.
type Bucket struct {
	Date    string
	Entries []datatypes.LogEntry
}

// Aggregate groups entries by their stored calendar date.
//
// Grouping uses the entry's date field, not a date derived from the start
// instant; the two may diverge for overnight shifts. Groups appear in
// first-seen order and entries keep their input order within a group, so
// input sorted by (date asc, startTime asc) yields chronological buckets
// with startTime-ascending entries; ties preserve input order. An empty
// input yields an empty slice, which renderers turn into an explicit
// "no entries" notice.
func Aggregate(entries []datatypes.LogEntry) []Bucket {
	if len(entries) == 0 {
		return nil
	}

	index := make(map[string]int, len(entries))
	buckets := make([]Bucket, 0, len(entries))

	for _, entry := range entries {
		i, seen := index[entry.Date]
		if !seen {
			i = len(buckets)
			index[entry.Date] = i
			buckets = append(buckets, Bucket{Date: entry.Date})
		}
		buckets[i].Entries = append(buckets[i].Entries, entry)
	}

	return buckets
}

// Count returns the total number of entries across all buckets.
func Count(buckets []Bucket) int {
	n := 0
	for _, b := range buckets {
		n += len(b.Entries)
	}
	return n
}
