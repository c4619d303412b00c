package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
	"github.com/fairyhunter13/resume-ranker/internal/extract"
	"github.com/fairyhunter13/resume-ranker/internal/match"
	"github.com/fairyhunter13/resume-ranker/internal/schema"
)

// parseSystemPrompt steers the LLM parse path. The heuristic extractor covers
// the same field families, so both paths converge on one candidate shape.
const parseSystemPrompt = `You are an expert resume parser. Extract structured JSON with keys: ` +
	`contact {fullName, email, phone, location}, summary, skills, ` +
	`experience [{title, company, location, startDate, endDate, bullets[]}], ` +
	`education [{degree, institution, field, startDate, endDate}], ` +
	`certifications, languages. Infer missing fields conservatively. ` +
	`Return ONLY valid JSON.`

// ParseService turns raw resume text into a validated record and persists it
// together with the match score against the stored job description.
type ParseService struct {
	Repo domain.ResumeRepository
	AI   domain.AIClient
}

// NewParseService constructs a ParseService.
func NewParseService(repo domain.ResumeRepository, ai domain.AIClient) ParseService {
	return ParseService{Repo: repo, AI: ai}
}

// Parse extracts a candidate record from the resume's raw text, validates it,
// scores it, and persists both. With useLLM the candidate comes from the chat
// model instead of the heuristic extractor; validation is identical either
// way, so a malformed LLM response rejects the whole record.
func (s ParseService) Parse(ctx domain.Context, id string, useLLM bool) (domain.ResumeRecord, domain.MatchResult, error) {
	res, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.ResumeRecord{}, domain.MatchResult{}, err
	}

	var candidate any
	if useLLM {
		candidate, err = s.llmCandidate(ctx, res.RawText)
		if err != nil {
			return domain.ResumeRecord{}, domain.MatchResult{}, err
		}
	} else {
		cand := extract.Extract(res.RawText)
		observability.ObserveExtraction(extract.PopulatedFieldCount(cand))
		candidate = cand
	}

	rec, err := schema.Validate(candidate)
	if err != nil {
		return domain.ResumeRecord{}, domain.MatchResult{}, err
	}

	result := match.Score(rec, res.JobDescription)
	observability.ObserveMatchScore(result.Score)

	if err := s.Repo.UpdateRecord(ctx, id, rec, result.Score); err != nil {
		return domain.ResumeRecord{}, domain.MatchResult{}, err
	}
	return rec, result, nil
}

func (s ParseService) llmCandidate(ctx domain.Context, rawText string) (any, error) {
	raw, err := s.AI.ChatJSON(ctx, parseSystemPrompt, rawText, 0)
	if err != nil {
		return nil, err
	}
	var candidate any
	if err := json.Unmarshal([]byte(raw), &candidate); err != nil {
		return nil, fmt.Errorf("llm response not valid JSON: %v: %w", err, domain.ErrSchemaInvalid)
	}
	return candidate, nil
}
