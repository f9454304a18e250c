// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package auth implements registration, login, and bearer token
// verification.
//
// Passwords are hashed with bcrypt at cost 12. Tokens are HS256 JWTs
// valid for 24 hours; the signing secret lives in a memguard enclave and
// is only materialized for the duration of a sign or verify call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/awnumar/memguard"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/evidenthq/evident/services/worklog/apperr"
	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/dates"
)

const (
	bcryptCost = 12
	tokenTTL   = 24 * time.Hour
)

// Accounts is the account persistence the service needs.
type Accounts interface {
	Create(ctx context.Context, a datatypes.Account) error
	GetByEmail(ctx context.Context, email string) (datatypes.Account, error)
}

// claims is the JWT payload: subject carries the account id.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service issues and verifies access tokens.
type Service struct {
	accounts Accounts
	secret   *memguard.Enclave
	clock    dates.Clock
}

// NewService seals the signing secret into an enclave and wipes the
// caller's copy.
func NewService(accounts Accounts, secret []byte, clock dates.Clock) *Service {
	return &Service{
		accounts: accounts,
		secret:   memguard.NewEnclave(secret),
		clock:    clock,
	}
}

// Register creates a trial account and returns a fresh token. Returns
// apperr.ErrEmailTaken when the address already has an account.
func (s *Service) Register(ctx context.Context, req datatypes.RegisterRequest) (datatypes.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return datatypes.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	account := datatypes.Account{
		ID:                 uuid.NewString(),
		Email:              req.Email,
		PasswordHash:       string(hash),
		SubscriptionStatus: datatypes.StatusTrial,
		CreatedAt:          s.clock.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return datatypes.AuthResponse{}, err
	}

	return s.respond(account)
}

// Login authenticates an existing account. Unknown email and wrong
// password return the same apperr.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req datatypes.LoginRequest) (datatypes.AuthResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return datatypes.AuthResponse{}, apperr.ErrInvalidCredentials
		}
		return datatypes.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return datatypes.AuthResponse{}, apperr.ErrInvalidCredentials
	}

	return s.respond(account)
}

// Verify parses and validates a bearer token, returning the account id
// it was issued for.
func (s *Service) Verify(token string) (string, error) {
	key, err := s.secret.Open()
	if err != nil {
		return "", fmt.Errorf("open signing secret: %w", err)
	}
	defer key.Destroy()

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return key.Bytes(), nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return "", err
	}

	payload, ok := parsed.Claims.(*claims)
	if !ok || payload.Subject == "" {
		return "", errors.New("token missing subject")
	}
	return payload.Subject, nil
}

func (s *Service) respond(account datatypes.Account) (datatypes.AuthResponse, error) {
	token, err := s.issue(account)
	if err != nil {
		return datatypes.AuthResponse{}, err
	}
	return datatypes.AuthResponse{
		AccessToken: token,
		User: datatypes.AuthUser{
			ID:                 account.ID,
			Email:              account.Email,
			SubscriptionStatus: account.SubscriptionStatus,
		},
	}, nil
}

func (s *Service) issue(account datatypes.Account) (string, error) {
	key, err := s.secret.Open()
	if err != nil {
		return "", fmt.Errorf("open signing secret: %w", err)
	}
	defer key.Destroy()

	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})

	signed, err := token.SignedString(key.Bytes())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
