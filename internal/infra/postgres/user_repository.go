package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// UserRepository stores user profiles in Postgres. Writes go through
// bun; the leaderboard read path goes through a pgx pool so the hot
// ranking query skips the ORM.
type UserRepository struct {
	db   *bun.DB
	pool *pgxpool.Pool
}

func NewUserRepository(db *bun.DB, pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db, pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	row := userToRow(user)
	res, err := r.db.NewInsert().Model(&row).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return requireInserted(res, domain.ErrUserExists)
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (domain.User, error) {
	var row userRow
	err := r.db.NewSelect().Model(&row).Where("phone_number = ?", phone).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user by phone: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.db.NewUpdate().Model((*userRow)(nil)).
		Set("role = ?", string(role)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return requireAffected(res, domain.ErrUserNotFound)
}

func (r *UserRepository) SetTotalPoints(ctx context.Context, id string, total int) error {
	res, err := r.db.NewUpdate().Model((*userRow)(nil)).
		Set("total_points = ?", total).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update total points: %w", err)
	}
	return requireAffected(res, domain.ErrUserNotFound)
}

const leaderboardSQL = `
SELECT id, pseudo, full_name, total_points
FROM users
WHERE role = 'player'
ORDER BY total_points DESC, id ASC
LIMIT $1`

func (r *UserRepository) ListPlayers(ctx context.Context, limit int) ([]domain.User, error) {
	if r.pool == nil {
		return r.listPlayersBun(ctx, limit)
	}

	rows, err := r.pool.Query(ctx, leaderboardSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	var players []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Pseudo, &u.FullName, &u.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		u.Role = domain.RolePlayer
		players = append(players, u)
	}
	return players, rows.Err()
}

func (r *UserRepository) listPlayersBun(ctx context.Context, limit int) ([]domain.User, error) {
	var rows []userRow
	err := r.db.NewSelect().Model(&rows).
		Where("role = ?", string(domain.RolePlayer)).
		OrderExpr("total_points DESC, id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	players := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toDomain())
	}
	return players, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// requireInserted turns a no-op conditional insert into the given
// already-exists sentinel.
func requireInserted(res sql.Result, exists error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return exists
	}
	return nil
}
