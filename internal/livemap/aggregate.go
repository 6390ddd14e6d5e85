package livemap

import (
	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

// Aggregate computes summary counters from a store snapshot. It always
// recomputes from scratch; maintaining stats incrementally across merges
// invites drift.
//
// UniqueLocationGroups counts distinct non-empty resolution methods among
// records with a valid location. Grouping is canonically by method, not
// country: two users resolved via "nip05" form one group even if they ended
// up in different countries.
func Aggregate(store RecordStore) domain.Stats {
	stats := domain.Stats{
		TotalUsers: len(store),
	}

	methods := make(map[string]struct{})
	for _, record := range store {
		if !record.HasValidLocation() {
			continue
		}
		stats.UsersWithLocation++
		if method := record.Location.Method; method != "" {
			methods[method] = struct{}{}
		}
	}
	stats.UniqueLocationGroups = len(methods)

	return stats
}
