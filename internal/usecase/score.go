package usecase

import (
	"strings"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
	"github.com/fairyhunter13/resume-ranker/internal/match"
)

// ScoreService computes match scores on demand. Scores are not persisted
// here; the stored score belongs to the parse pipeline.
type ScoreService struct {
	Repo domain.ResumeRepository
}

// NewScoreService constructs a ScoreService.
func NewScoreService(repo domain.ResumeRepository) ScoreService {
	return ScoreService{Repo: repo}
}

// Score matches the stored record against jobDescription, falling back to the
// resume's stored job description when none is given.
func (s ScoreService) Score(ctx domain.Context, id, jobDescription string) (domain.MatchResult, error) {
	res, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.MatchResult{}, err
	}
	jd := strings.TrimSpace(jobDescription)
	if jd == "" {
		jd = res.JobDescription
	}
	result := match.Score(res.Record, jd)
	observability.ObserveMatchScore(result.Score)
	return result, nil
}
