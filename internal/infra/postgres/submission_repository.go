package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// SubmissionRepository stores answer sets in Postgres via bun.
type SubmissionRepository struct {
	db *bun.DB
}

func NewSubmissionRepository(db *bun.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// CreateIfAbsent inserts with ON CONFLICT DO NOTHING so a duplicate
// (session, user) pair is rejected instead of silently overwritten.
func (r *SubmissionRepository) CreateIfAbsent(ctx context.Context, sub domain.Submission) error {
	row := submissionToRow(sub)
	res, err := r.db.NewInsert().Model(&row).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDuplicateSubmission
	}
	return nil
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (domain.Submission, error) {
	var row submissionRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("select submission: %w", err)
	}
	return row.toDomain(), nil
}

func (r *SubmissionRepository) Update(ctx context.Context, sub domain.Submission) error {
	row := submissionToRow(sub)
	res, err := r.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return requireAffected(res, domain.ErrSubmissionNotFound)
}

func (r *SubmissionRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Submission, error) {
	var rows []submissionRow
	err := r.db.NewSelect().Model(&rows).
		Where("session_id = ?", sessionID).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select session submissions: %w", err)
	}
	return submissionsToDomain(rows), nil
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	var rows []submissionRow
	err := r.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("submitted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select user submissions: %w", err)
	}
	return submissionsToDomain(rows), nil
}

func submissionsToDomain(rows []submissionRow) []domain.Submission {
	subs := make([]domain.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toDomain())
	}
	return subs
}
