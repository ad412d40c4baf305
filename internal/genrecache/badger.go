package genrecache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

type record struct {
	Absent bool
	Title  string
	URL    string
}

type badgerStore struct {
	db *badger.DB
}

func openBadger(path string) (Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}

	return &badgerStore{db: db}, nil
}

func openBadgerMemory() (Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory cache: %w", err)
	}

	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Get(key string) (*Entry, error) {
	var serialized []byte
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return decodeRecord(serialized)
}

func (s *badgerStore) Set(key string, e *Entry) error {
	serialized, err := encodeRecord(e)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), serialized)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

func (s *badgerStore) Clear() error {
	return s.db.DropAll()
}

func (s *badgerStore) Each(fn func(key string, e *Entry) error) error {
	return s.db.View(func(tx *badger.Txn) error {
		it := tx.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			serialized, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			e, err := decodeRecord(serialized)
			if err != nil {
				return err
			}
			if err := fn(string(item.KeyCopy(nil)), e); err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}

func encodeRecord(e *Entry) ([]byte, error) {
	rec := record{Absent: true}
	if e != nil {
		rec = record{Title: e.Title, URL: e.URL}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("encode cache record: %w", err)
	}

	return buf.Bytes(), nil
}

func decodeRecord(serialized []byte) (*Entry, error) {
	var rec record
	if err := gob.NewDecoder(bytes.NewReader(serialized)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode cache record: %w", err)
	}
	if rec.Absent {
		return nil, nil
	}

	return &Entry{Title: rec.Title, URL: rec.URL}, nil
}
