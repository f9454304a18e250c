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
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/evidenthq/evident/services/worklog/apperr"
	"github.com/evidenthq/evident/services/worklog/datatypes"
	"github.com/evidenthq/evident/services/worklog/dates"
)

// LogStore persists work log entries.
//
// The primary key embeds the calendar date and the start instant so a
// prefix scan yields entries in date then start-time order. A per-owner
// id index supports point lookups for update and delete.
type LogStore struct {
	db *DB
}

// NewLogStore returns a store backed by db.
func NewLogStore(db *DB) *LogStore {
	return &LogStore{db: db}
}

func logKey(e datatypes.LogEntry) []byte {
	return []byte(fmt.Sprintf("log/%s/%s/%020d/%s", e.OwnerID, e.Date, e.StartTime.UnixMilli(), e.ID))
}

func logRefKey(ownerID, id string) []byte {
	return []byte(fmt.Sprintf("logref/%s/%s", ownerID, id))
}

func logPrefix(ownerID string) []byte {
	return []byte(fmt.Sprintf("log/%s/", ownerID))
}

// Create writes a new entry and its id index in one transaction.
func (s *LogStore) Create(ctx context.Context, e datatypes.LogEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	key := logKey(e)
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := txn.Set(key, raw); err != nil {
			return err
		}
		return txn.Set(logRefKey(e.OwnerID, e.ID), key)
	})
}

// Get returns the entry with the given id, scoped to its owner. Returns
// apperr.ErrNotFound when the id does not exist or belongs to another
// owner.
func (s *LogStore) Get(ctx context.Context, ownerID, id string) (datatypes.LogEntry, error) {
	var entry datatypes.LogEntry
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		key, err := resolveLogKey(txn, ownerID, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return datatypes.LogEntry{}, mapNotFound(err)
	}
	return entry, nil
}

// Replace swaps prev for next in one transaction. The primary key moves
// when the date or start time changed, so the old row is removed first.
func (s *LogStore) Replace(ctx context.Context, prev, next datatypes.LogEntry) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	oldKey := logKey(prev)
	newKey := logKey(next)
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if string(oldKey) != string(newKey) {
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
		}
		if err := txn.Set(newKey, raw); err != nil {
			return err
		}
		return txn.Set(logRefKey(next.OwnerID, next.ID), newKey)
	})
}

// Delete removes the entry and its id index. Returns apperr.ErrNotFound
// when the entry does not exist for this owner.
func (s *LogStore) Delete(ctx context.Context, ownerID, id string) error {
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		key, err := resolveLogKey(txn, ownerID, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(logRefKey(ownerID, id))
	})
	return mapNotFound(err)
}

// FindByWindow returns the owner's entries whose stored calendar date
// falls inside the window, in date then start-time order. Key order
// already provides that ordering; the sort is kept as a backstop for
// rows written by older key layouts.
func (s *LogStore) FindByWindow(ctx context.Context, ownerID string, w dates.Window) ([]datatypes.LogEntry, error) {
	var entries []datatypes.LogEntry

	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := logPrefix(ownerID)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry datatypes.LogEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}

			day, err := dates.ParseDay(entry.Date, w.Start.Location())
			if err != nil {
				continue
			}
			if w.ContainsDay(day) {
				entries = append(entries, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].StartTime.Before(entries[j].StartTime)
	})

	return entries, nil
}

// resolveLogKey looks up the primary key for an owner-scoped log id.
func resolveLogKey(txn *badger.Txn, ownerID, id string) ([]byte, error) {
	item, err := txn.Get(logRefKey(ownerID, id))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// mapNotFound translates the driver's missing-key error into the
// service-level sentinel.
func mapNotFound(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperr.ErrNotFound
	}
	return err
}
