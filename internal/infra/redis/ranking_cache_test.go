package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

type countingSource struct {
	calls   int
	ranking domain.Ranking
}

func (s *countingSource) GlobalRanking(_ context.Context, _ int) (domain.Ranking, error) {
	s.calls++
	return s.ranking, nil
}

func sampleRanking() domain.Ranking {
	return domain.Ranking{
		Entries: []domain.RankingEntry{
			{Rank: 1, UserID: "u1", Pseudo: "Abter89ei6", TotalPoints: 50},
			{Rank: 2, UserID: "u2", Pseudo: "Zk3mPq81xx", TotalPoints: 30},
		},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func newTestCache(t *testing.T) (*RankingCache, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &countingSource{ranking: sampleRanking()}
	return NewRankingCache(client, source, time.Minute), source, mr
}

func TestRankingCacheServesFromRedisOnSecondRead(t *testing.T) {
	ctx := context.Background()
	cache, source, mr := newTestCache(t)

	first, err := cache.GlobalRanking(ctx, 50)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected source called once, got %d", source.calls)
	}
	if !mr.Exists("ranking:global:50") {
		t.Fatalf("expected snapshot key in redis")
	}

	second, err := cache.GlobalRanking(ctx, 50)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.calls)
	}
	if len(second.Entries) != len(first.Entries) || second.Entries[0].UserID != "u1" {
		t.Fatalf("unexpected cached snapshot: %+v", second.Entries)
	}
}

func TestRankingCacheKeysAreLimitScoped(t *testing.T) {
	ctx := context.Background()
	cache, source, mr := newTestCache(t)

	if _, err := cache.GlobalRanking(ctx, 50); err != nil {
		t.Fatalf("read 50: %v", err)
	}
	if _, err := cache.GlobalRanking(ctx, 10); err != nil {
		t.Fatalf("read 10: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected one load per limit, got %d", source.calls)
	}
	if !mr.Exists("ranking:global:50") || !mr.Exists("ranking:global:10") {
		t.Fatalf("expected one key per limit")
	}
}

func TestRankingCacheInvalidateDropsAllSnapshots(t *testing.T) {
	ctx := context.Background()
	cache, source, mr := newTestCache(t)

	if _, err := cache.GlobalRanking(ctx, 50); err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := cache.GlobalRanking(ctx, 10); err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("ranking:global:50") || mr.Exists("ranking:global:10") {
		t.Fatalf("expected snapshots removed")
	}

	if _, err := cache.GlobalRanking(ctx, 50); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected reload after invalidation, got %d calls", source.calls)
	}
}
