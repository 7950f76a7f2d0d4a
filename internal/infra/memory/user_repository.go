package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return domain.ErrUserExists
	}
	r.users[user.ID] = user
	return nil
}

func (r *UserRepository) Get(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepository) FindByPhone(_ context.Context, phone string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.PhoneNumber == phone {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *UserRepository) UpdateRole(_ context.Context, id string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

func (r *UserRepository) SetTotalPoints(_ context.Context, id string, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.TotalPoints = total
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

func (r *UserRepository) ListPlayers(_ context.Context, limit int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		if user.Role == domain.RolePlayer {
			players = append(players, user)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].TotalPoints != players[j].TotalPoints {
			return players[i].TotalPoints > players[j].TotalPoints
		}
		return players[i].ID < players[j].ID
	})
	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}
