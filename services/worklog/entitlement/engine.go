// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package entitlement decides whether an account may generate an export
// and records usage once one has been produced.
//
// The policy is deliberately small and order-sensitive: an active
// subscription always passes, a trial passes exactly once, everything
// else is denied. Check is a pure function of the account so the policy
// can be tested without storage.
package entitlement

import (
	"context"
	"errors"

	"github.com/evidenthq/evident/services/worklog/apperr"
	"github.com/evidenthq/evident/services/worklog/datatypes"
)

const (
	reasonNoAccount      = "Account not found"
	reasonNoSubscription = "Exporting summaries requires a subscription."
)

// Decision is the outcome of an entitlement check. Reason is set only
// when Allowed is false.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Check evaluates the export policy against an account snapshot. The
// found flag distinguishes a missing account from a present one; rules
// are evaluated in order and the first match wins.
func Check(account datatypes.Account, found bool) Decision {
	switch {
	case !found:
		return Decision{Reason: reasonNoAccount}
	case account.SubscriptionStatus == datatypes.StatusActive:
		return Decision{Allowed: true}
	case account.SubscriptionStatus == datatypes.StatusTrial && !account.TrialExportUsed:
		return Decision{Allowed: true}
	default:
		return Decision{Reason: reasonNoSubscription}
	}
}

// AccountReader is the account access the engine needs.
type AccountReader interface {
	Get(ctx context.Context, id string) (datatypes.Account, error)
}

// UsageRecorder applies export usage to an account atomically.
type UsageRecorder interface {
	ApplyExportUsage(ctx context.Context, id string) (datatypes.Account, error)
}

// Engine evaluates the export policy against stored accounts.
type Engine struct {
	accounts AccountReader
	usage    UsageRecorder
}

// NewEngine returns an engine reading accounts from the given stores.
func NewEngine(accounts AccountReader, usage UsageRecorder) *Engine {
	return &Engine{accounts: accounts, usage: usage}
}

// CheckExport loads the account and evaluates the policy. A missing
// account yields a denial, not an error; storage failures propagate.
func (e *Engine) CheckExport(ctx context.Context, accountID string) (Decision, error) {
	account, err := e.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Check(datatypes.Account{}, false), nil
		}
		return Decision{}, err
	}
	return Check(account, true), nil
}

// RecordUsage marks one export as consumed: the trial flag flips (a
// no-op when already used) and the lifetime count increments. Callers
// invoke this only after the export record has been persisted.
func (e *Engine) RecordUsage(ctx context.Context, accountID string) (datatypes.Account, error) {
	return e.usage.ApplyExportUsage(ctx, accountID)
}
