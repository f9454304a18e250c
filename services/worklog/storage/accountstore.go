// Copyright (C) 2025 Evident (engineering@evident.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/evidenthq/evident/services/worklog/apperr"
	"github.com/evidenthq/evident/services/worklog/datatypes"
)

// AccountStore persists accounts and the email index used for login and
// registration uniqueness.
type AccountStore struct {
	db *DB
}

// NewAccountStore returns a store backed by db.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

func accountKey(id string) []byte {
	return []byte("account/" + id)
}

func emailKey(email string) []byte {
	return []byte("email/" + strings.ToLower(email))
}

// Create writes a new account. The email index is checked and written in
// the same transaction, so two concurrent registrations for one address
// cannot both succeed. Returns apperr.ErrEmailTaken on collision.
func (s *AccountStore) Create(ctx context.Context, a datatypes.Account) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(emailKey(a.Email))
		switch {
		case err == nil:
			return apperr.ErrEmailTaken
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := txn.Set(accountKey(a.ID), raw); err != nil {
			return err
		}
		return txn.Set(emailKey(a.Email), []byte(a.ID))
	})
}

// Get returns the account with the given id, or apperr.ErrNotFound.
func (s *AccountStore) Get(ctx context.Context, id string) (datatypes.Account, error) {
	var account datatypes.Account
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return readAccount(txn, id, &account)
	})
	if err != nil {
		return datatypes.Account{}, mapNotFound(err)
	}
	return account, nil
}

// GetByEmail resolves an address through the email index. Addresses are
// matched case-insensitively.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (datatypes.Account, error) {
	var account datatypes.Account
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return readAccount(txn, string(id), &account)
	})
	if err != nil {
		return datatypes.Account{}, mapNotFound(err)
	}
	return account, nil
}

// SetSubscriptionStatus updates the account's subscription status in a
// read-modify-write transaction.
func (s *AccountStore) SetSubscriptionStatus(ctx context.Context, id string, status datatypes.SubscriptionStatus) error {
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		var account datatypes.Account
		if err := readAccount(txn, id, &account); err != nil {
			return err
		}
		account.SubscriptionStatus = status
		return writeAccount(txn, account)
	})
	return mapNotFound(err)
}

// ApplyExportUsage records one completed export: the lifetime count
// increments, and for trial accounts the trial flag flips to used
// (idempotently). Both happen in a single transaction so no
// interleaving can observe one without the other. Non-trial accounts
// never consume the trial flag.
func (s *AccountStore) ApplyExportUsage(ctx context.Context, id string) (datatypes.Account, error) {
	var account datatypes.Account
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := readAccount(txn, id, &account); err != nil {
			return err
		}
		if account.SubscriptionStatus == datatypes.StatusTrial {
			account.TrialExportUsed = true
		}
		account.ExportCount++
		return writeAccount(txn, account)
	})
	if err != nil {
		return datatypes.Account{}, mapNotFound(err)
	}
	return account, nil
}

func readAccount(txn *badger.Txn, id string, out *datatypes.Account) error {
	item, err := txn.Get(accountKey(id))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func writeAccount(txn *badger.Txn, a datatypes.Account) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	return txn.Set(accountKey(a.ID), raw)
}
