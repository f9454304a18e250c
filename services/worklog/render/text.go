// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package render

import (
	"strings"

	"github.com/evidenthq/evident/services/worklog/dates"
	"github.com/evidenthq/evident/services/worklog/report"
)

const (
	documentRule = 50
	dayRule      = 30
)

// Text renders the canonical plain-text summary. It is a pure function:
// identical input yields byte-identical output, and this rendering is
// what gets persisted on the export record regardless of the requested
// format.
func Text(w dates.Window, buckets []report.Bucket) string {
	var b strings.Builder

	b.WriteString(textTitle)
	b.WriteByte('\n')
	b.WriteString(windowRange(w))
	b.WriteByte('\n')
	b.WriteString(rule(documentRule))
	b.WriteString("\n\n")

	if len(buckets) == 0 {
		b.WriteString(emptyNotice)
		b.WriteString("\n\n")
	} else {
		for _, bucket := range buckets {
			b.WriteString(dayHeading(bucket.Date))
			b.WriteByte('\n')
			b.WriteString(rule(dayRule))
			b.WriteByte('\n')

			for _, entry := range bucket.Entries {
				v := presentEntry(entry)
				b.WriteString(v.TimeSpan)
				b.WriteString("  [")
				b.WriteString(v.Activity)
				b.WriteString("]\n  ")
				b.WriteString(v.Description)
				b.WriteByte('\n')
				if v.Reference != "" {
					b.WriteString("  Ref: ")
					b.WriteString(v.Reference)
					b.WriteByte('\n')
				}
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString(rule(documentRule))
	b.WriteByte('\n')
	b.WriteString(footerAttribution)
	b.WriteByte('\n')

	return b.String()
}

func rule(width int) string {
	return strings.Repeat("─", width)
}
