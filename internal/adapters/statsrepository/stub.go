package statsrepository

import (
	"context"
	"sync"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

// StubCycleStatsRepository stores rows in memory. Used in development and
// tests when no database is available.
type StubCycleStatsRepository struct {
	mu     sync.Mutex
	stored []domain.CycleStats
}

func NewStubCycleStatsRepository() *StubCycleStatsRepository {
	return &StubCycleStatsRepository{}
}

func (s *StubCycleStatsRepository) StoreCycleStats(ctx context.Context, stats domain.CycleStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, stats)
	return nil
}

func (s *StubCycleStatsRepository) GetCycleStats(ctx context.Context, limit int) ([]domain.CycleStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CycleStats, 0, limit)
	for i := len(s.stored) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.stored[i])
	}
	return out, nil
}
