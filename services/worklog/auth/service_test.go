// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidenthq/evident/services/worklog/apperr"
	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/storage"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var authNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func testService(t *testing.T) (*Service, *storage.AccountStore) {
	t.Helper()
	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := storage.NewAccountStore(db)
	return NewService(store, []byte("test-signing-secret"), fixedClock{now: authNow}), store
}

func TestRegister_CreatesTrialAccount(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, datatypes.RegisterRequest{
		Email:    "a@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "a@example.com", resp.User.Email)
	assert.Equal(t, datatypes.StatusTrial, resp.User.SubscriptionStatus)

	stored, err := store.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)
	assert.False(t, stored.TrialExportUsed)
	assert.Equal(t, authNow, stored.CreatedAt)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	req := datatypes.RegisterRequest{Email: "a@example.com", Password: "hunter2hunter2"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, datatypes.RegisterRequest{
		Email:    "a@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, datatypes.LoginRequest{
		Email:    "a@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	ownerID, err := svc.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, ownerID)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, datatypes.RegisterRequest{
		Email:    "a@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, wrongPass := svc.Login(ctx, datatypes.LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	_, unknown := svc.Login(ctx, datatypes.LoginRequest{Email: "b@example.com", Password: "hunter2hunter2"})

	assert.ErrorIs(t, wrongPass, apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, apperr.ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestVerify_RejectsGarbageToken(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Verify("not-a-token")
	assert.Error(t, err)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := storage.NewAccountStore(db)

	issuedAt := fixedClock{now: authNow}
	issuer := NewService(store, []byte("test-signing-secret"), issuedAt)

	resp, err := issuer.Register(context.Background(), datatypes.RegisterRequest{
		Email:    "a@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	// Same secret, clock advanced past the 24h TTL.
	later := NewService(store, []byte("test-signing-secret"), fixedClock{now: authNow.Add(25 * time.Hour)})
	_, err = later.Verify(resp.AccessToken)
	assert.Error(t, err)
}

func TestVerify_RejectsTokenSignedWithOtherSecret(t *testing.T) {
	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := storage.NewAccountStore(db)

	issuer := NewService(store, []byte("secret-one"), fixedClock{now: authNow})
	verifier := NewService(store, []byte("secret-two"), fixedClock{now: authNow})

	resp, err := issuer.Register(context.Background(), datatypes.RegisterRequest{
		Email:    "a@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = verifier.Verify(resp.AccessToken)
	assert.Error(t, err)
}
