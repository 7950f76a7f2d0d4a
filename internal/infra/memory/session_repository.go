package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// SessionRepository is an in-memory implementation of app.SessionRepository.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.QuestionSession
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]domain.QuestionSession)}
}

func (r *SessionRepository) Create(_ context.Context, session domain.QuestionSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return domain.ErrSessionExists
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (domain.QuestionSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return domain.QuestionSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *SessionRepository) Update(_ context.Context, session domain.QuestionSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *SessionRepository) ListPast(_ context.Context, before time.Time) ([]domain.QuestionSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	past := make([]domain.QuestionSession, 0)
	for _, session := range r.sessions {
		if session.Deadline.Before(before) {
			past = append(past, session)
		}
	}
	sort.Slice(past, func(i, j int) bool {
		if past[i].Date != past[j].Date {
			return past[i].Date > past[j].Date
		}
		return past[i].ID < past[j].ID
	})
	return past, nil
}
