// Package store persists launcher history and cached app state in a
// local bbolt database.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketRecents  = []byte("recents")
	bucketAppState = []byte("app_state")
)

type Repository interface {
	Recents() RecentStore
	AppStates() AppStateStore
	Close() error
}

type bboltRepository struct {
	db      *bolt.DB
	recents RecentStore
	states  AppStateStore
}

func Open(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:      db,
		recents: &bboltRecentStore{db: db},
		states:  &bboltAppStateStore{db: db},
	}, nil
}

func (r *bboltRepository) Recents() RecentStore {
	return r.recents
}

func (r *bboltRepository) AppStates() AppStateStore {
	return r.states
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRecents); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketAppState); err != nil {
			return err
		}
		return nil
	})
}
