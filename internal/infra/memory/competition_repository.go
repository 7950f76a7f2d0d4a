package memory

import (
	"context"
	"sync"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// CompetitionRepository is an in-memory implementation of app.CompetitionRepository.
type CompetitionRepository struct {
	mu           sync.RWMutex
	competitions map[string]domain.Competition
}

func NewCompetitionRepository() *CompetitionRepository {
	return &CompetitionRepository{competitions: make(map[string]domain.Competition)}
}

func (r *CompetitionRepository) Create(_ context.Context, comp domain.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.competitions[comp.ID]; ok {
		return domain.ErrCompetitionExists
	}
	r.competitions[comp.ID] = comp
	return nil
}

func (r *CompetitionRepository) Get(_ context.Context, id string) (domain.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	comp, ok := r.competitions[id]
	if !ok {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	return comp, nil
}

func (r *CompetitionRepository) Update(_ context.Context, comp domain.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.competitions[comp.ID]; !ok {
		return domain.ErrCompetitionNotFound
	}
	r.competitions[comp.ID] = comp
	return nil
}

func (r *CompetitionRepository) ListActive(_ context.Context) ([]domain.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make([]domain.Competition, 0, len(r.competitions))
	for _, comp := range r.competitions {
		if comp.Active {
			active = append(active, comp)
		}
	}
	return active, nil
}

func (r *CompetitionRepository) ListByOrganizer(_ context.Context, organizerID string) ([]domain.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned := make([]domain.Competition, 0)
	for _, comp := range r.competitions {
		if comp.Active && comp.OrganizerID == organizerID {
			owned = append(owned, comp)
		}
	}
	return owned, nil
}
