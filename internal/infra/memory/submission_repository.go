package memory

import (
	"context"
	"sync"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// SubmissionRepository is an in-memory implementation of app.SubmissionRepository.
type SubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{submissions: make(map[string]domain.Submission)}
}

func (r *SubmissionRepository) CreateIfAbsent(_ context.Context, sub domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[sub.ID]; ok {
		return domain.ErrDuplicateSubmission
	}
	r.submissions[sub.ID] = cloneSubmission(sub)
	return nil
}

func (r *SubmissionRepository) Get(_ context.Context, id string) (domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.submissions[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

func (r *SubmissionRepository) Update(_ context.Context, sub domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[sub.ID]; !ok {
		return domain.ErrSubmissionNotFound
	}
	r.submissions[sub.ID] = cloneSubmission(sub)
	return nil
}

func (r *SubmissionRepository) ListBySession(_ context.Context, sessionID string) ([]domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]domain.Submission, 0)
	for _, sub := range r.submissions {
		if sub.SessionID == sessionID {
			subs = append(subs, cloneSubmission(sub))
		}
	}
	return subs, nil
}

func (r *SubmissionRepository) ListByUser(_ context.Context, userID string) ([]domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]domain.Submission, 0)
	for _, sub := range r.submissions {
		if sub.UserID == userID {
			subs = append(subs, cloneSubmission(sub))
		}
	}
	return subs, nil
}

// cloneSubmission guards the answer slice against aliasing by callers.
func cloneSubmission(sub domain.Submission) domain.Submission {
	answers := make([]domain.Answer, len(sub.Answers))
	copy(answers, sub.Answers)
	sub.Answers = answers
	return sub
}
