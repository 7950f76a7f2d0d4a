package app

import (
	"context"
	"time"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// UserRepository abstracts the user directory (in-memory, Postgres, etc).
// Create returns domain.ErrUserExists for an already-registered id.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	FindByPhone(ctx context.Context, phone string) (domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	// SetTotalPoints overwrites the cumulative total; only the ranking
	// aggregator may call it.
	SetTotalPoints(ctx context.Context, id string, total int) error
	// ListPlayers returns users with the player role ordered by total
	// points descending, ties broken by user id ascending.
	ListPlayers(ctx context.Context, limit int) ([]domain.User, error)
}

// CompetitionRepository stores competitions. Create returns
// domain.ErrCompetitionExists on an id collision.
type CompetitionRepository interface {
	Create(ctx context.Context, comp domain.Competition) error
	Get(ctx context.Context, id string) (domain.Competition, error)
	Update(ctx context.Context, comp domain.Competition) error
	ListActive(ctx context.Context) ([]domain.Competition, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]domain.Competition, error)
}

// SessionRepository stores question sessions, daily quizzes included.
// Create is conditional: it returns domain.ErrSessionExists instead of
// overwriting (session ids are deterministic per day, so collisions are
// routine, not exceptional).
type SessionRepository interface {
	Create(ctx context.Context, session domain.QuestionSession) error
	Get(ctx context.Context, id string) (domain.QuestionSession, error)
	Update(ctx context.Context, session domain.QuestionSession) error
	// ListPast returns sessions whose deadline is before the given
	// instant, most recent date first.
	ListPast(ctx context.Context, before time.Time) ([]domain.QuestionSession, error)
}

// SubmissionRepository stores answer sets.
type SubmissionRepository interface {
	// CreateIfAbsent is a conditional create: it returns
	// domain.ErrDuplicateSubmission when a submission with the same id
	// already exists, and never overwrites.
	CreateIfAbsent(ctx context.Context, sub domain.Submission) error
	Get(ctx context.Context, id string) (domain.Submission, error)
	Update(ctx context.Context, sub domain.Submission) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Submission, error)
}
