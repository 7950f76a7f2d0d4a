package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/45-baron/1-Jour-1-science/internal/domain"
)

// RankingSource loads the leaderboard from the primary store.
type RankingSource interface {
	GlobalRanking(ctx context.Context, limit int) (domain.Ranking, error)
}

// RankingCache keeps JSON snapshots of the global ranking in Redis so
// the leaderboard page does not hit Postgres on every view. Every
// grading action invalidates the snapshots, so staleness is bounded by
// the TTL only when no grading happens.
// Snapshots are stored as: SET ranking:global:{limit} {json}
type RankingCache struct {
	client *redis.Client
	source RankingSource
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewRankingCache(client *redis.Client, source RankingSource, ttl time.Duration) *RankingCache {
	return &RankingCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *RankingCache) GlobalRanking(ctx context.Context, limit int) (domain.Ranking, error) {
	key := c.key(limit)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var ranking domain.Ranking
		if err := json.Unmarshal(raw, &ranking); err == nil {
			return ranking, nil
		}
		// Corrupt snapshot; fall through and rebuild it.
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var ranking domain.Ranking
			if err := json.Unmarshal(raw, &ranking); err == nil {
				return ranking, nil
			}
		}

		ranking, err := c.source.GlobalRanking(ctx, limit)
		if err != nil {
			return domain.Ranking{}, err
		}

		if raw, err := json.Marshal(ranking); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return ranking, nil
	})
	if err != nil {
		return domain.Ranking{}, err
	}
	return result.(domain.Ranking), nil
}

// Invalidate drops every cached snapshot, whatever its limit.
func (c *RankingCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "ranking:global:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan ranking keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete ranking keys: %w", err)
	}
	return nil
}

func (c *RankingCache) key(limit int) string {
	return fmt.Sprintf("ranking:global:%d", limit)
}

func (c *RankingCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
