// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package render

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/evidenthq/evident/services/worklog/apperr"
)

// Default parameters for the Chromium print backend. The margin matches
// the 50pt page margin of the text-equivalent layout (50/72 inch).
const (
	DefaultPDFTimeout  = 30 * time.Second
	DefaultMarginInch  = 50.0 / 72.0
	DefaultPaperWidth  = 8.27  // A4, inches
	DefaultPaperHeight = 11.69 // A4, inches
)

// DocumentRenderer produces a paginated binary document from the styled
// markup. The orchestrator treats it as an opaque external backend:
// cancellable via context, time-boxed, and failures surfaced as render
// errors rather than left hanging.
type DocumentRenderer interface {
	RenderDocument(ctx context.Context, markup string) ([]byte, error)
}

// ChromeRenderer prints markup to PDF through a headless Chromium
// instance driven over the DevTools protocol.
type ChromeRenderer struct {
	// Timeout bounds one print operation end to end.
	Timeout time.Duration

	// MarginInch is applied to all four page edges.
	MarginInch float64
}

// NewChromeRenderer returns a renderer with default timeout and margins.
func NewChromeRenderer() *ChromeRenderer {
	return &ChromeRenderer{
		Timeout:    DefaultPDFTimeout,
		MarginInch: DefaultMarginInch,
	}
}

// RenderDocument loads the markup into a fresh headless tab and prints it
// with explicit page margins. Any backend failure, including timeout, is
// wrapped as a render error so the orchestrator skips persistence and
// usage accounting.
func (r *ChromeRenderer) RenderDocument(ctx context.Context, markup string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}
	margin := r.MarginInch
	if margin <= 0 {
		margin = DefaultMarginInch
	}

	browserCtx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	runCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(markup))

	var pdf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(DefaultPaperWidth).
				WithPaperHeight(DefaultPaperHeight).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, apperr.Render(err)
	}

	return pdf, nil
}
