package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
	"github.com/fairyhunter13/resume-ranker/internal/rank"
)

// VectorSearcher is the optional ANN backend for query-time ranking.
type VectorSearcher interface {
	Search(ctx domain.Context, collection string, vector []float32, topK int) ([]domain.RankedHit, error)
}

// SearchService ranks stored resumes against free-text queries. It holds the
// in-memory embedding corpus and refreshes it from the repository. When a
// vector backend is configured, queries go there first; the corpus stays the
// fallback so search survives a backend outage.
type SearchService struct {
	Repo       domain.ResumeRepository
	AI         domain.AIClient
	Engine     *rank.Engine
	Corpus     *rank.Corpus
	Vector     VectorSearcher
	Collection string
	log        *slog.Logger
}

// NewSearchService constructs a SearchService with an empty corpus.
func NewSearchService(repo domain.ResumeRepository, ai domain.AIClient, log *slog.Logger) *SearchService {
	if log == nil {
		log = slog.Default()
	}
	return &SearchService{
		Repo:   repo,
		AI:     ai,
		Engine: rank.NewEngine(log),
		Corpus: rank.NewCorpus(),
		log:    log,
	}
}

// UseVectorBackend routes searches through an ANN backend for the given
// collection. The in-memory corpus keeps refreshing regardless.
func (s *SearchService) UseVectorBackend(v VectorSearcher, collection string) {
	s.Vector = v
	s.Collection = collection
}

// Refresh reloads the corpus from the repository. The swap is atomic, so
// searches in flight keep ranking against the previous snapshot.
func (s *SearchService) Refresh(ctx domain.Context) error {
	records, err := s.Repo.ListEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("list embeddings: %w", err)
	}
	s.Corpus.Replace(records)
	observability.SetCorpusSize(len(records))
	s.log.Debug("search corpus refreshed", slog.Int("size", len(records)))
	return nil
}

// RunRefresher refreshes the corpus on the given interval until ctx is done.
func (s *SearchService) RunRefresher(ctx domain.Context, interval time.Duration) {
	if err := s.Refresh(ctx); err != nil {
		s.log.Error("initial corpus refresh failed", slog.Any("error", err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Error("corpus refresh failed", slog.Any("error", err))
			}
		}
	}
}

// Search embeds the query and returns the top-k resumes by inner product.
func (s *SearchService) Search(ctx domain.Context, query string, topK int) ([]domain.RankedHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidArgument)
	}
	vecs, err := s.AI.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", domain.ErrProviderUnavailable, len(vecs))
	}
	if s.Vector != nil {
		hits, err := s.Vector.Search(ctx, s.Collection, vecs[0], clampTopK(topK))
		if err == nil {
			return hits, nil
		}
		s.log.Warn("vector backend search failed, falling back to corpus",
			slog.String("collection", s.Collection), slog.Any("error", err))
	}
	return s.Engine.Search(vecs[0], s.AI.SourceTag(), s.Corpus.Snapshot(), topK), nil
}

// clampTopK applies the engine's result-count bounds before handing the
// request to a backend that enforces no bounds of its own.
func clampTopK(k int) int {
	if k < rank.MinTopK {
		return rank.MinTopK
	}
	if k > rank.MaxTopK {
		return rank.MaxTopK
	}
	return k
}
