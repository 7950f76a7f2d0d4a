package app

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// RankingInvalidator drops cached leaderboard snapshots after a recompute.
type RankingInvalidator interface {
	Invalidate(ctx context.Context) error
}

// DefaultRankingLimit matches the leaderboard page size of the web client.
const DefaultRankingLimit = 50

// RankingService derives cumulative user totals from corrected
// submissions and serves the global leaderboard. Recomputes are full
// rescans of the user's submissions, so duplicated or reordered calls
// always converge to the same total.
type RankingService struct {
	users       UserRepository
	submissions SubmissionRepository
	cache       RankingInvalidator
	now         func() time.Time
	sf          singleflight.Group

	mu          sync.Mutex
	subscribers map[chan domain.Ranking]struct{}
}

func NewRankingService(users UserRepository, submissions SubmissionRepository, cache RankingInvalidator) *RankingService {
	return &RankingService{
		users:       users,
		submissions: submissions,
		cache:       cache,
		now:         time.Now,
		subscribers: make(map[chan domain.Ranking]struct{}),
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *RankingService) WithClock(now func() time.Time) *RankingService {
	s.now = now
	return s
}

// RecomputeUserTotal rescans every submission of the user, sums the
// totals of corrected ones only and overwrites the stored cumulative
// total. Concurrent recomputes for the same user are collapsed.
func (s *RankingService) RecomputeUserTotal(ctx context.Context, userID string) (int, error) {
	result, err, _ := s.sf.Do(userID, func() (interface{}, error) {
		subs, err := s.submissions.ListByUser(ctx, userID)
		if err != nil {
			return 0, err
		}

		total := 0
		for _, sub := range subs {
			if sub.Corrected {
				total += sub.TotalPoints
			}
		}
		if err := s.users.SetTotalPoints(ctx, userID, total); err != nil {
			return 0, err
		}
		return total, nil
	})
	if err != nil {
		return 0, err
	}
	total := result.(int)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Printf("ranking cache invalidation failed: %v", err)
		}
	}
	s.broadcast(ctx)
	return total, nil
}

// GlobalRanking returns the top players by total points with dense ranks
// starting at 1. Ties are broken by user id ascending so the board is
// reproducible.
func (s *RankingService) GlobalRanking(ctx context.Context, limit int) (domain.Ranking, error) {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	players, err := s.users.ListPlayers(ctx, limit)
	if err != nil {
		return domain.Ranking{}, err
	}

	entries := make([]domain.RankingEntry, 0, len(players))
	for i, player := range players {
		pseudo := player.Pseudo
		if pseudo == "" {
			pseudo = "Anonyme"
		}
		entries = append(entries, domain.RankingEntry{
			Rank:        i + 1,
			UserID:      player.ID,
			Pseudo:      pseudo,
			TotalPoints: player.TotalPoints,
		})
	}
	return domain.Ranking{Entries: entries, UpdatedAt: s.now()}, nil
}

// UserRank locates one user inside the global ranking. The rank is zero
// when the user is not on the board.
func (s *RankingService) UserRank(ctx context.Context, userID string) (int, int, error) {
	ranking, err := s.GlobalRanking(ctx, DefaultRankingLimit)
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range ranking.Entries {
		if entry.UserID == userID {
			return entry.Rank, len(ranking.Entries), nil
		}
	}
	return 0, len(ranking.Entries), nil
}

// Subscribe returns a channel fed with a fresh leaderboard snapshot
// after every recompute. The caller must invoke cancel to avoid leaks.
func (s *RankingService) Subscribe(ctx context.Context) (<-chan domain.Ranking, func(), error) {
	ch := make(chan domain.Ranking, 8)

	initial, err := s.GlobalRanking(ctx, DefaultRankingLimit)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *RankingService) broadcast(ctx context.Context) {
	s.mu.Lock()
	n := len(s.subscribers)
	s.mu.Unlock()
	if n == 0 {
		return
	}

	ranking, err := s.GlobalRanking(ctx, DefaultRankingLimit)
	if err != nil {
		log.Printf("ranking broadcast skipped: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- ranking:
		default:
			// Drop the stale snapshot so a slow client never blocks grading.
			select {
			case <-ch:
			default:
			}
			ch <- ranking
		}
	}
}
