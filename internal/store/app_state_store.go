package store

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"
)

// AppStateStore caches each app's last self-reported state between full
// session saves, so a crash-restarted app can be handed something fresher
// than the last snapshot on disk.
type AppStateStore interface {
	Put(appName string, state json.RawMessage) error
	Get(appName string) (json.RawMessage, error)
	Delete(appName string) error
}

type bboltAppStateStore struct {
	db *bolt.DB
}

func (s *bboltAppStateStore) Put(appName string, state json.RawMessage) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAppState).Put([]byte(appName), state)
	})
}

func (s *bboltAppStateStore) Get(appName string) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(bucketAppState).Get([]byte(appName)); raw != nil {
			out = append(json.RawMessage(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *bboltAppStateStore) Delete(appName string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAppState).Delete([]byte(appName))
	})
}
