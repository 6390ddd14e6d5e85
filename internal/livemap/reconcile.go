package livemap

import (
	"time"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

type MergeMode int

const (
	// MergeFullReplace discards the existing store entirely and builds a new
	// one from the incoming batch. Used by manual loads.
	MergeFullReplace MergeMode = iota
	// MergeIncremental folds the incoming batch into the existing store.
	// Records absent from the batch are carried over unchanged; only the
	// evictor acts on absence over time.
	MergeIncremental
)

// Merge combines a freshly fetched batch with the current store. Every record
// confirmed by the batch gets LastSeen stamped with now. A key occurring more
// than once within the batch is a single logical record; the last occurrence
// wins. Merge never mutates existing.
func Merge(existing RecordStore, incoming []domain.UserRecord, mode MergeMode, now time.Time) RecordStore {
	var out RecordStore
	switch mode {
	case MergeFullReplace:
		out = make(RecordStore, len(incoming))
	case MergeIncremental:
		out = existing.Clone()
	}

	for _, record := range incoming {
		if record.ID == "" {
			continue
		}

		record.LastSeen = now
		if prior, ok := out[record.ID]; ok && prior.LastSeen.After(now) {
			// LastSeen is monotonically non-decreasing
			record.LastSeen = prior.LastSeen
		}
		out[record.ID] = record
	}

	return out
}
