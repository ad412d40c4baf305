// Package genrecache persists what a scan learned about each genre number.
// A key maps either to an Entry or to the absent marker (a nil *Entry),
// meaning the number was checked and has no genre page.
package genrecache

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrNotFound = errors.New("genrecache: key not found")

type Entry struct {
	Title string
	URL   string
}

// Store is a durable, single-writer mapping from genre number to Entry.
type Store interface {
	// Get returns ErrNotFound for keys never written. A nil entry with a nil
	// error is the absent marker.
	Get(key string) (*Entry, error)
	Set(key string, e *Entry) error
	Clear() error
	// Each visits every key; iteration stops at the first error fn returns.
	Each(fn func(key string, e *Entry) error) error
	Close() error
}

type Backend string

const (
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
)

func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendBadger:
		return BackendBadger, nil
	case BackendSQLite:
		return BackendSQLite, nil
	}

	return "", fmt.Errorf("unknown cache backend %q (want badger or sqlite)", s)
}

// Open opens the store at path. Badger keeps a directory there, SQLite a
// single file.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case "", BackendBadger:
		return openBadger(path)
	case BackendSQLite:
		return openSQLite(path)
	}

	return nil, fmt.Errorf("unknown cache backend %q", backend)
}

// OpenMemory returns a store that lives only as long as the process.
func OpenMemory() (Store, error) {
	return openBadgerMemory()
}

func Key(number int) string {
	return strconv.Itoa(number)
}
