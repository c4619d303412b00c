package app

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	ai "github.com/fairyhunter13/resume-ranker/internal/adapter/ai"
	"github.com/fairyhunter13/resume-ranker/internal/adapter/ai/openai"
	"github.com/fairyhunter13/resume-ranker/internal/config"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// BuildAIClient assembles the embedding/chat client with its cache layer.
// Without an API key the deterministic mock client is used so the pipeline
// stays runnable locally. The returned redis client is nil when Redis is not
// configured; callers own closing it.
func BuildAIClient(cfg config.Config) (domain.AIClient, *redis.Client) {
	var base domain.AIClient
	if cfg.OpenAIAPIKey != "" {
		base = openai.New(cfg)
	} else {
		slog.Warn("OPENAI_API_KEY not set, using deterministic mock embeddings")
		base = ai.NewMockClient()
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Warn("invalid redis url, falling back to in-memory embed cache", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			return ai.NewRedisEmbedCache(base, rdb, 0, nil), rdb
		}
	}
	return ai.NewEmbedCache(base, cfg.EmbedCacheSize), nil
}

// LoadSkillVocabularyOverlay extends the extractor's skill vocabulary from the
// configured YAML overlay, if any.
func LoadSkillVocabularyOverlay(cfg config.Config, extend func(words []string)) {
	if cfg.SkillVocabularyPath == "" {
		return
	}
	words, err := config.LoadSkillVocabulary(cfg.SkillVocabularyPath)
	if err != nil {
		slog.Warn("skill vocabulary overlay load failed",
			slog.String("path", cfg.SkillVocabularyPath), slog.Any("error", err))
		return
	}
	if len(words) > 0 {
		extend(words)
		slog.Info("skill vocabulary extended", slog.Int("terms", len(words)))
	}
}
