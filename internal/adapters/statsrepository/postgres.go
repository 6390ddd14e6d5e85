package statsrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/arbadacarbaYK/sociostr/internal/domain"
	"github.com/arbadacarbaYK/sociostr/internal/reporting"
)

type Postgres struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("sociostr/statsrepository/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

type dbCycleStats struct {
	ID                   string    `db:"id"`
	CycleAt              time.Time `db:"cycle_at"`
	Mode                 string    `db:"mode"`
	TotalUsers           int       `db:"total_users"`
	UsersWithLocation    int       `db:"users_with_location"`
	UniqueLocationGroups int       `db:"unique_location_groups"`
}

func (p *Postgres) StoreCycleStats(ctx context.Context, stats domain.CycleStats) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.StoreCycleStats")
	defer span.End()

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.cycle_stats
		(id, cycle_at, mode, total_users, users_with_location, unique_location_groups)
		VALUES ($1, $2, $3, $4, $5, $6)`,
			pq.QuoteIdentifier(p.schema)),
		uuid.New().String(),
		stats.CycleAt,
		stats.Mode,
		stats.TotalUsers,
		stats.UsersWithLocation,
		stats.UniqueLocationGroups,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert cycle stats: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"mode": stats.Mode,
		})
		return err
	}

	return nil
}

func (p *Postgres) GetCycleStats(ctx context.Context, limit int) ([]domain.CycleStats, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetCycleStats")
	defer span.End()

	var rows []dbCycleStats
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(`SELECT id, cycle_at, mode, total_users, users_with_location, unique_location_groups
		FROM %s.cycle_stats
		ORDER BY cycle_at DESC
		LIMIT $1`,
			pq.QuoteIdentifier(p.schema)),
		limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to select cycle stats: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	out := make([]domain.CycleStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CycleStats{
			CycleAt:              row.CycleAt,
			Mode:                 row.Mode,
			TotalUsers:           row.TotalUsers,
			UsersWithLocation:    row.UsersWithLocation,
			UniqueLocationGroups: row.UniqueLocationGroups,
		})
	}

	return out, nil
}
