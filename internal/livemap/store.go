package livemap

import (
	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

// RecordStore is the authoritative in-memory collection of user records,
// keyed by public key. At most one record exists per key.
type RecordStore map[string]domain.UserRecord

// Clone returns a shallow copy of the store. Records are value types, so the
// copy can be mutated without affecting the original.
func (s RecordStore) Clone() RecordStore {
	out := make(RecordStore, len(s))
	for id, record := range s {
		out[id] = record
	}
	return out
}

// Records returns the store contents as a slice. Order is unspecified.
func (s RecordStore) Records() []domain.UserRecord {
	out := make([]domain.UserRecord, 0, len(s))
	for _, record := range s {
		out = append(out, record)
	}
	return out
}
