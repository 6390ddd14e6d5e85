package livemap

import (
	"time"
)

// Evict returns the subset of records still within the time-to-live window,
// i.e. those with now - LastSeen <= ttl. The input store is not mutated.
func Evict(store RecordStore, now time.Time, ttl time.Duration) RecordStore {
	cutoff := now.Add(-ttl)
	out := make(RecordStore, len(store))
	for id, record := range store {
		if record.LastSeen.Before(cutoff) {
			continue
		}
		out[id] = record
	}
	return out
}
