package cache

import (
	"sort"
	"time"
)

// EntryStatus describes a single resident entry in a Status snapshot.
type EntryStatus struct {
	Key       string        `json:"key"`
	Age       time.Duration `json:"age"`
	TTL       time.Duration `json:"ttl"`
	Expired   bool          `json:"expired"`
	ExpiresIn time.Duration `json:"expires_in"`
}

// Status is a point-in-time introspection snapshot of a store.
type Status struct {
	Name           string        `json:"name"`
	TotalEntries   int           `json:"total_entries"`
	ValidEntries   int           `json:"valid_entries"`
	ExpiredEntries int           `json:"expired_entries"`
	Entries        []EntryStatus `json:"entries"`
	OldestKey      string        `json:"oldest_key,omitempty"`
	NewestKey      string        `json:"newest_key,omitempty"`
	LastClearedAt  time.Time     `json:"last_cleared_at"`
}

// Status returns a full snapshot of the store for operational visibility.
// It never mutates state: expired-but-resident entries are counted, not
// evicted, so repeated Status calls observe the same population until the
// next read touches it.
func (s *Store[V]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	st := Status{
		Name:          s.name,
		TotalEntries:  len(s.entries),
		LastClearedAt: s.lastClearedAt,
		Entries:       make([]EntryStatus, 0, len(s.entries)),
	}

	var oldest, newest time.Time
	for k, e := range s.entries {
		age := now.Sub(e.cachedAt)
		expired := age > e.ttl
		if expired {
			st.ExpiredEntries++
		} else {
			st.ValidEntries++
		}
		st.Entries = append(st.Entries, EntryStatus{
			Key:       k,
			Age:       age,
			TTL:       e.ttl,
			Expired:   expired,
			ExpiresIn: max(e.ttl-age, 0),
		})
		if oldest.IsZero() || e.cachedAt.Before(oldest) {
			oldest = e.cachedAt
			st.OldestKey = k
		}
		if newest.IsZero() || e.cachedAt.After(newest) {
			newest = e.cachedAt
			st.NewestKey = k
		}
	}

	sort.Slice(st.Entries, func(i, j int) bool {
		return st.Entries[i].Key < st.Entries[j].Key
	})
	return st
}
