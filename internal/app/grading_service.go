package app

import (
	"context"
	"fmt"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// Recomputer propagates a grading result into the user's cumulative
// standing. Implemented by RankingService.
type Recomputer interface {
	RecomputeUserTotal(ctx context.Context, userID string) (int, error)
}

// GradingService turns an organizer's per-answer verdicts into persisted
// scores and pushes the resulting total into the global ranking.
type GradingService struct {
	submissions SubmissionRepository
	sessions    SessionRepository
	users       UserRepository
	ranking     Recomputer
}

func NewGradingService(submissions SubmissionRepository, sessions SessionRepository, users UserRepository, ranking Recomputer) *GradingService {
	return &GradingService{
		submissions: submissions,
		sessions:    sessions,
		users:       users,
		ranking:     ranking,
	}
}

// ListUngraded returns the pending submissions of a session, each joined
// with the submitter's profile so the organizer sees who they grade.
func (s *GradingService) ListUngraded(ctx context.Context, sessionID string) ([]domain.GradedSubmission, error) {
	subs, err := s.submissions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	result := make([]domain.GradedSubmission, 0, len(subs))
	for _, sub := range subs {
		if sub.Corrected {
			continue
		}
		user, err := s.users.Get(ctx, sub.UserID)
		if err != nil {
			return nil, fmt.Errorf("load submitter %s: %w", sub.UserID, err)
		}
		result = append(result, domain.GradedSubmission{Submission: sub, User: user})
	}
	return result, nil
}

// GetSubmission returns one submission by id.
func (s *GradingService) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	return s.submissions.Get(ctx, id)
}

// GradeAnswer applies one correctness decision to an answer in memory:
// full question value when correct, zero otherwise. Nothing is persisted
// until Finalize.
func GradeAnswer(sub *domain.Submission, index int, correct bool, maxPoints int) error {
	if index < 0 || index >= len(sub.Answers) {
		return domain.ErrVerdictCount
	}
	verdict := correct
	sub.Answers[index].Correct = &verdict
	if correct {
		sub.Answers[index].Points = maxPoints
	} else {
		sub.Answers[index].Points = 0
	}
	return nil
}

// Finalize applies a full set of verdicts to a submission, sums the
// awarded points, marks it corrected and recomputes the submitter's
// cumulative total. Grading is terminal: a corrected submission cannot
// be finalized again, which keeps repeated calls from double-counting.
func (s *GradingService) Finalize(ctx context.Context, submissionID string, verdicts []domain.Verdict) (domain.Submission, error) {
	sub, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return domain.Submission{}, err
	}
	if sub.Corrected {
		return domain.Submission{}, domain.ErrAlreadyGraded
	}
	if len(verdicts) != len(sub.Answers) {
		return domain.Submission{}, domain.ErrVerdictCount
	}

	session, err := s.sessions.Get(ctx, sub.SessionID)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load session %s: %w", sub.SessionID, err)
	}
	points := questionPoints(session)

	total := 0
	seen := make([]bool, len(sub.Answers))
	for _, v := range verdicts {
		if v.AnswerIndex < 0 || v.AnswerIndex >= len(sub.Answers) || seen[v.AnswerIndex] {
			return domain.Submission{}, domain.ErrVerdictCount
		}
		seen[v.AnswerIndex] = true
		max := points[sub.Answers[v.AnswerIndex].QuestionID]
		if err := GradeAnswer(&sub, v.AnswerIndex, v.Correct, max); err != nil {
			return domain.Submission{}, err
		}
	}
	for _, a := range sub.Answers {
		total += a.Points
	}

	sub.Corrected = true
	sub.TotalPoints = total
	if err := s.submissions.Update(ctx, sub); err != nil {
		return domain.Submission{}, fmt.Errorf("persist correction: %w", err)
	}

	// The two writes are independent calls; if this one fails the user's
	// total stays stale until the next recompute picks it up.
	if _, err := s.ranking.RecomputeUserTotal(ctx, sub.UserID); err != nil {
		return sub, fmt.Errorf("recompute total for %s: %w", sub.UserID, err)
	}
	return sub, nil
}

func questionPoints(session domain.QuestionSession) map[string]int {
	points := make(map[string]int, len(session.Questions))
	for _, q := range session.Questions {
		points[q.ID] = q.Points
	}
	return points
}
