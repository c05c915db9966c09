package store

import (
	"encoding/json"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// RecentEntry tracks one app's launch history for the launcher's
// recents/frequents views.
type RecentEntry struct {
	AppName      string    `json:"app_name"`
	LaunchCount  int       `json:"launch_count"`
	LastLaunched time.Time `json:"last_launched"`
}

type RecentStore interface {
	RecordLaunch(appName string, at time.Time) error
	Recents(limit int) ([]RecentEntry, error)
	Frequents(limit int) ([]RecentEntry, error)
	Forget(appName string) error
}

type bboltRecentStore struct {
	db *bolt.DB
}

func (s *bboltRecentStore) RecordLaunch(appName string, at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketRecents)
		entry := RecentEntry{AppName: appName}
		if raw := bucket.Get([]byte(appName)); raw != nil {
			if err := json.Unmarshal(raw, &entry); err != nil {
				return err
			}
		}
		entry.LaunchCount++
		entry.LastLaunched = at.UTC()
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(appName), data)
	})
}

func (s *bboltRecentStore) Recents(limit int) ([]RecentEntry, error) {
	entries, err := s.all()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastLaunched.After(entries[j].LastLaunched)
	})
	return clip(entries, limit), nil
}

func (s *bboltRecentStore) Frequents(limit int) ([]RecentEntry, error) {
	entries, err := s.all()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LaunchCount != entries[j].LaunchCount {
			return entries[i].LaunchCount > entries[j].LaunchCount
		}
		return entries[i].LastLaunched.After(entries[j].LastLaunched)
	})
	return clip(entries, limit), nil
}

func (s *bboltRecentStore) Forget(appName string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecents).Delete([]byte(appName))
	})
}

func (s *bboltRecentStore) all() ([]RecentEntry, error) {
	var entries []RecentEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecents).ForEach(func(_, raw []byte) error {
			var entry RecentEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func clip(entries []RecentEntry, limit int) []RecentEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
