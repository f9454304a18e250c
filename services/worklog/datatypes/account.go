// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// SubscriptionStatus is the billing state of an account. Transitions are
// driven by billing webhook events; new accounts start in Trial.
type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "TRIAL"
	StatusActive    SubscriptionStatus = "ACTIVE"
	StatusCancelled SubscriptionStatus = "CANCELLED"
	StatusExpired   SubscriptionStatus = "EXPIRED"
)

// Account is a registered user. TrialExportUsed flips false→true at most
// once, on the first export consumed while the account is on trial;
// ExportCount only ever increases.
type Account struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	PasswordHash       string             `json:"password_hash"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	TrialExportUsed    bool               `json:"trial_export_used"`
	ExportCount        int64              `json:"export_count"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Profile is the API projection of an Account; it never carries the
// password hash.
type Profile struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	ExportCount        int64              `json:"exportCount"`
	TrialExportUsed    bool               `json:"trialExportUsed"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// ProfileOf projects an account onto its API shape.
func ProfileOf(a *Account) Profile {
	return Profile{
		ID:                 a.ID,
		Email:              a.Email,
		SubscriptionStatus: a.SubscriptionStatus,
		ExportCount:        a.ExportCount,
		TrialExportUsed:    a.TrialExportUsed,
		CreatedAt:          a.CreatedAt,
	}
}

// SubscriptionState is the view of an account's entitlement-relevant
// fields returned by GET /v1/subscriptions/status.
type SubscriptionState struct {
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	TrialExportUsed    bool               `json:"trialExportUsed"`
	ExportCount        int64              `json:"exportCount"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued bearer token and a minimal view of the
// authenticated account.
type AuthResponse struct {
	AccessToken string   `json:"accessToken"`
	User        AuthUser `json:"user"`
}

// AuthUser is the account summary embedded in AuthResponse.
type AuthUser struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
}

// BillingEventRequest is the provider-agnostic webhook payload that moves
// an account between subscription states. The billing provider's own SDK
// and signature scheme stay outside this service; the reverse proxy in
// front of it verifies signatures and forwards the normalized event.
type BillingEventRequest struct {
	Type      string `json:"type" binding:"required,oneof=checkout.completed subscription.deleted payment.failed"`
	AccountID string `json:"accountId" binding:"required"`
}
