package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// CompetitionRepository stores competitions in Postgres via bun.
type CompetitionRepository struct {
	db *bun.DB
}

func NewCompetitionRepository(db *bun.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) Create(ctx context.Context, comp domain.Competition) error {
	row := competitionToRow(comp)
	res, err := r.db.NewInsert().Model(&row).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert competition: %w", err)
	}
	return requireInserted(res, domain.ErrCompetitionExists)
}

func (r *CompetitionRepository) Get(ctx context.Context, id string) (domain.Competition, error) {
	var row competitionRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	if err != nil {
		return domain.Competition{}, fmt.Errorf("select competition: %w", err)
	}
	return row.toDomain(), nil
}

func (r *CompetitionRepository) Update(ctx context.Context, comp domain.Competition) error {
	row := competitionToRow(comp)
	res, err := r.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update competition: %w", err)
	}
	return requireAffected(res, domain.ErrCompetitionNotFound)
}

func (r *CompetitionRepository) ListActive(ctx context.Context) ([]domain.Competition, error) {
	var rows []competitionRow
	err := r.db.NewSelect().Model(&rows).Where("is_active").Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select active competitions: %w", err)
	}
	return competitionsToDomain(rows), nil
}

func (r *CompetitionRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]domain.Competition, error) {
	var rows []competitionRow
	err := r.db.NewSelect().Model(&rows).
		Where("is_active").
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select organizer competitions: %w", err)
	}
	return competitionsToDomain(rows), nil
}

func competitionsToDomain(rows []competitionRow) []domain.Competition {
	comps := make([]domain.Competition, 0, len(rows))
	for _, row := range rows {
		comps = append(comps, row.toDomain())
	}
	return comps
}
