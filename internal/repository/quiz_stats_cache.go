package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const takenCountTTL = 10 * time.Minute

// QuizStatsCache keeps per-quiz aggregates students see on the exam list out
// of the hot path. Cache misses fall back to a COUNT in the attempt repo.
type QuizStatsCache struct {
	RDB *redis.Client
}

func NewQuizStatsCache(rdb *redis.Client) *QuizStatsCache {
	return &QuizStatsCache{RDB: rdb}
}

func takenKey(quizID uint) string {
	return fmt.Sprintf("quiz:taken:%d", quizID)
}

func (c *QuizStatsCache) TakenCount(ctx context.Context, quizID uint) (int64, bool) {
	if c.RDB == nil {
		return 0, false
	}
	n, err := c.RDB.Get(ctx, takenKey(quizID)).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *QuizStatsCache) SetTakenCount(ctx context.Context, quizID uint, n int64) {
	if c.RDB == nil {
		return
	}
	c.RDB.Set(ctx, takenKey(quizID), n, takenCountTTL)
}

// IncrTakenCount bumps the cached count after a finalization so the list
// stays fresh between refreshes. A missing key stays missing.
func (c *QuizStatsCache) IncrTakenCount(ctx context.Context, quizID uint) {
	if c.RDB == nil {
		return
	}
	key := takenKey(quizID)
	exists, err := c.RDB.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	c.RDB.Incr(ctx, key)
}
