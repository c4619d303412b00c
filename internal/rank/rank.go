// Package rank implements exhaustive top-k cosine search over an in-memory
// corpus of normalized embedding vectors.
package rank

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

const (
	// MinTopK and MaxTopK bound the requested result count.
	MinTopK = 1
	MaxTopK = 50
)

// Engine ranks corpus vectors against a query vector. Vectors are expected to
// be L2-normalized upstream, so cosine similarity reduces to a dot product.
type Engine struct {
	log *slog.Logger
}

func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log}
}

// Search scores every corpus record against the query and returns at most
// topK hits in descending score order. Ties keep corpus iteration order.
//
// Records are skipped rather than failing the whole search when they cannot
// be compared meaningfully: dimension mismatch, a non-finite score, or a
// source tag differing from the query's. One corrupt record must not deny
// results for the rest of the corpus.
func (e *Engine) Search(query []float32, sourceTag string, corpus []domain.EmbeddingRecord, topK int) []domain.RankedHit {
	k := clampTopK(topK)
	hits := make([]domain.RankedHit, 0, len(corpus))
	for _, rec := range corpus {
		if sourceTag != "" && rec.SourceTag != sourceTag {
			e.log.Warn("skipping embedding with mismatched source tag",
				slog.String("id", rec.ID),
				slog.String("record_tag", rec.SourceTag),
				slog.String("query_tag", sourceTag))
			continue
		}
		if len(rec.Vector) != len(query) {
			e.log.Warn("skipping embedding with mismatched dimensionality",
				slog.String("id", rec.ID),
				slog.Int("record_dims", len(rec.Vector)),
				slog.Int("query_dims", len(query)))
			continue
		}
		score := Dot(query, rec.Vector)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		hits = append(hits, domain.RankedHit{ID: rec.ID, Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Dot accumulates in float64 to limit rounding drift on long vectors.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func clampTopK(k int) int {
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// Corpus is a swap-on-refresh holder of embedding records. Replace installs a
// whole new slice and Snapshot hands out the current one; installed slices
// are never mutated in place, so an in-flight search always operates on a
// consistent point-in-time view even while a refresh lands.
type Corpus struct {
	mu      sync.RWMutex
	records []domain.EmbeddingRecord
}

func NewCorpus() *Corpus {
	return &Corpus{}
}

func (c *Corpus) Replace(records []domain.EmbeddingRecord) {
	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
}

func (c *Corpus) Snapshot() []domain.EmbeddingRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records
}

func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
