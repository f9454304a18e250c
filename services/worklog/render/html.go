// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package render

import (
	"html/template"
	"strings"

	"github.com/evidenthq/evident/services/worklog/dates"
	"github.com/evidenthq/evident/services/worklog/report"
)

// summaryTemplate is the styled-markup rendering. The stylesheet is
// inlined so the document renders standalone with no external fetches;
// it is also what the PDF backend prints.
var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; padding: 40px; color: #1a1a1a; }
    .header { margin-bottom: 30px; }
    .title { font-size: 24px; font-weight: 600; margin-bottom: 8px; }
    .date-range { font-size: 14px; color: #666; }
    .day-header { font-size: 16px; font-weight: 600; margin: 24px 0 12px 0; padding-bottom: 8px; border-bottom: 1px solid #e5e5e5; }
    .log-entry { margin-bottom: 16px; padding-left: 16px; }
    .time-block { font-family: monospace; font-size: 13px; font-weight: 600; color: #333; display: inline-block; }
    .activity-pill { display: inline-block; background: #f0f0f0; padding: 2px 8px; border-radius: 4px; font-size: 12px; margin-left: 12px; }
    .description { margin-top: 4px; font-size: 14px; }
    .reference { font-size: 12px; color: #888; margin-top: 2px; }
    .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e5e5e5; font-size: 12px; color: #888; }
  </style>
</head>
<body>
  <div class="header">
    <div class="title">{{.Title}}</div>
    <div class="date-range">{{.DateRange}}</div>
  </div>
{{- if .Days}}
{{- range .Days}}
  <div class="day-header">{{.Heading}}</div>
{{- range .Entries}}
  <div class="log-entry">
    <div class="time-block">{{.TimeSpan}}</div>
    <div class="activity-pill">{{.Activity}}</div>
    <div class="description">{{.Description}}</div>
{{- if .Reference}}
    <div class="reference">Ref: {{.Reference}}</div>
{{- end}}
  </div>
{{- end}}
{{- end}}
{{- else}}
  <p>{{.EmptyNotice}}</p>
{{- end}}
  <div class="footer">{{.Footer}}</div>
</body>
</html>
`))

type dayView struct {
	Heading string
	Entries []entryView
}

type documentView struct {
	Title       string
	DateRange   string
	Days        []dayView
	EmptyNotice string
	Footer      string
}

// HTML renders the self-contained styled-markup summary. Like Text it is
// a pure function of its input.
func HTML(w dates.Window, buckets []report.Bucket) string {
	view := documentView{
		Title:       docTitle,
		DateRange:   windowRange(w),
		EmptyNotice: emptyNotice,
		Footer:      footerAttribution,
	}

	for _, bucket := range buckets {
		day := dayView{Heading: dayHeading(bucket.Date)}
		for _, entry := range bucket.Entries {
			day.Entries = append(day.Entries, presentEntry(entry))
		}
		view.Days = append(view.Days, day)
	}

	var b strings.Builder
	// The template is static and the view contains only strings;
	// execution cannot fail on valid aggregator output.
	if err := summaryTemplate.Execute(&b, view); err != nil {
		panic(err)
	}
	return b.String()
}
