package app

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// UserService manages the user directory: registration, profile lookup
// and role changes.
type UserService struct {
	users UserRepository
	now   func() time.Time

	// rand.Rand is not safe for concurrent use; registrations come in
	// from concurrent handler goroutines.
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{
		users: users,
		now:   time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewUserServiceWithClock is test-only for deterministic timestamps.
func NewUserServiceWithClock(users UserRepository, now func() time.Time, seed int64) *UserService {
	return &UserService{users: users, now: now, rnd: rand.New(rand.NewSource(seed))}
}

// Register creates a profile for an identity-provider id. The pseudo is
// generated server-side so real names never leak onto the leaderboard.
// Registering an existing id is a no-op that returns the stored profile.
func (s *UserService) Register(ctx context.Context, id, phone, fullName string) (domain.User, error) {
	if strings.TrimSpace(fullName) == "" {
		return domain.User{}, domain.ErrEmptyName
	}

	if existing, err := s.users.Get(ctx, id); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	now := s.now()
	user := domain.User{
		ID:          id,
		PhoneNumber: phone,
		FullName:    strings.TrimSpace(fullName),
		Pseudo:      s.newPseudo(),
		Role:        domain.RolePlayer,
		TotalPoints: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race against a concurrent register for the same id.
		if errors.Is(err, domain.ErrUserExists) {
			return s.users.Get(ctx, id)
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) newPseudo() string {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return domain.GeneratePseudo(s.rnd)
}

// Get returns the profile for an identity id.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.users.Get(ctx, id)
}

// PromoteToOrganizer sets the organizer role on a user.
func (s *UserService) PromoteToOrganizer(ctx context.Context, id string) error {
	if _, err := s.users.Get(ctx, id); err != nil {
		return err
	}
	return s.users.UpdateRole(ctx, id, domain.RoleOrganizer)
}
