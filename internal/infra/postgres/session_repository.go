package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// SessionRepository stores question sessions in Postgres via bun.
// Questions live in a jsonb column, mirroring the embedded question
// list of the document model.
type SessionRepository struct {
	db *bun.DB
}

func NewSessionRepository(db *bun.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session domain.QuestionSession) error {
	row := sessionToRow(session)
	res, err := r.db.NewInsert().Model(&row).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return requireInserted(res, domain.ErrSessionExists)
}

func (r *SessionRepository) Get(ctx context.Context, id string) (domain.QuestionSession, error) {
	var row sessionRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuestionSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuestionSession{}, fmt.Errorf("select session: %w", err)
	}
	return row.toDomain(), nil
}

func (r *SessionRepository) Update(ctx context.Context, session domain.QuestionSession) error {
	row := sessionToRow(session)
	res, err := r.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireAffected(res, domain.ErrSessionNotFound)
}

func (r *SessionRepository) ListPast(ctx context.Context, before time.Time) ([]domain.QuestionSession, error) {
	var rows []sessionRow
	err := r.db.NewSelect().Model(&rows).
		Where("deadline < ?", before).
		OrderExpr("date DESC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select past sessions: %w", err)
	}
	sessions := make([]domain.QuestionSession, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.toDomain())
	}
	return sessions, nil
}
