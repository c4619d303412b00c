package ai

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// redisEmbedCache wraps an AIClient and caches embedding vectors in Redis so
// cache hits survive restarts and are shared across replicas. Keys are scoped
// by the base client's source tag; switching embedding models never serves
// vectors from the old model.
type redisEmbedCache struct {
	base domain.AIClient
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

// NewRedisEmbedCache wraps base with a Redis-backed embedding cache. A nil
// client returns base unmodified.
func NewRedisEmbedCache(base domain.AIClient, rdb *redis.Client, ttl time.Duration, log *slog.Logger) domain.AIClient {
	if rdb == nil || base == nil {
		return base
	}
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisEmbedCache{base: base, rdb: rdb, ttl: ttl, log: log}
}

func (c *redisEmbedCache) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	missIdx := make([]int, 0)
	missTexts := make([]string, 0)
	for i, t := range texts {
		raw, err := c.rdb.Get(ctx, c.key(t)).Bytes()
		if err == nil {
			var vec []float32
			if jsonErr := json.Unmarshal(raw, &vec); jsonErr == nil {
				observability.EmbedCacheHitsTotal.WithLabelValues("hit").Inc()
				res[i] = vec
				continue
			}
		} else if err != redis.Nil {
			// Redis being down degrades to the base client, never fails embeds.
			c.log.Warn("embed cache read failed", slog.Any("error", err))
		}
		observability.EmbedCacheHitsTotal.WithLabelValues("miss").Inc()
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missIdx) > 0 {
		vecs, err := c.base.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, idx := range missIdx {
			res[idx] = vecs[j]
			if raw, err := json.Marshal(vecs[j]); err == nil {
				if err := c.rdb.Set(ctx, c.key(missTexts[j]), raw, c.ttl).Err(); err != nil {
					c.log.Warn("embed cache write failed", slog.Any("error", err))
				}
			}
		}
	}
	return res, nil
}

func (c *redisEmbedCache) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return c.base.ChatJSON(ctx, systemPrompt, userPrompt, maxTokens)
}

func (c *redisEmbedCache) SourceTag() string { return c.base.SourceTag() }

func (c *redisEmbedCache) key(text string) string {
	return "embed:" + c.base.SourceTag() + ":" + keyFor(text)
}
