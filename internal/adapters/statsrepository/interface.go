package statsrepository

import (
	"context"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
)

type CycleStatsRepository interface {
	StoreCycleStats(ctx context.Context, stats domain.CycleStats) error
	GetCycleStats(ctx context.Context, limit int) ([]domain.CycleStats, error)
}
