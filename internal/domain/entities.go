package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrSchemaInvalid       = errors.New("schema invalid")
	ErrInternal            = errors.New("internal error")
)

// CandidateRecord is an unvalidated, possibly-malformed structure produced by
// the heuristic extractor or an external LLM. It must pass through the schema
// validator before anything else in the system may consume it.
type CandidateRecord = map[string]any

// Contact holds independently optional contact fields. An empty string means
// the field is absent.
type Contact struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

// ExperienceEntry is one work-history entry. Dates are YYYY-MM (or a bare
// year from the heuristic extractor); EndDate may be "Present".
type ExperienceEntry struct {
	Title     string   `json:"title,omitempty"`
	Company   string   `json:"company,omitempty"`
	Location  string   `json:"location,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
	Bullets   []string `json:"bullets,omitempty"`
}

// EducationEntry is one education entry.
type EducationEntry struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

// ResumeRecord is the validated, canonical structured profile. It is a value
// type: immutable once constructed and passed by copy across component
// boundaries. List order reflects extraction order, not significance.
type ResumeRecord struct {
	Contact        Contact           `json:"contact"`
	Summary        string            `json:"summary,omitempty"`
	Skills         []string          `json:"skills,omitempty"`
	Experience     []ExperienceEntry `json:"experience,omitempty"`
	Education      []EducationEntry  `json:"education,omitempty"`
	Certifications []string          `json:"certifications,omitempty"`
	Languages      []string          `json:"languages,omitempty"`
}

// EmbeddingRecord pairs a stored vector with its owning resume id and the
// embedding source tag. Vectors compared against each other must share the
// same dimensionality and source tag; the ranking engine guards both.
type EmbeddingRecord struct {
	ID        string
	Vector    []float32
	SourceTag string
}

// RankedHit is one search result: resume id and inner-product score against
// the (normalized) query vector.
type RankedHit struct {
	ID    string
	Score float64
}

// MatchResult is the outcome of scoring a resume against a job description.
// It is computed on demand and never persisted by the core itself.
type MatchResult struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Resume is the stored aggregate: raw text, the validated record, and the
// derived search artifacts (blob, embedding).
type Resume struct {
	ID             string
	FileName       string
	RawText        string
	Record         ResumeRecord
	Blob           string
	Embedding      []float32
	EmbeddingTag   string
	MatchScore     int
	JobDescription string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repositories (ports)

type ResumeRepository interface {
	Create(ctx Context, r Resume) (string, error)
	Get(ctx Context, id string) (Resume, error)
	List(ctx Context, limit int) ([]Resume, error)
	Delete(ctx Context, id string) error
	UpdateRecord(ctx Context, id string, rec ResumeRecord, matchScore int) error
	UpdateIndex(ctx Context, id, blob string, vec []float32, sourceTag string) error
	// ListEmbeddings yields the (id, vector, sourceTag) corpus for ranking.
	ListEmbeddings(ctx Context) ([]EmbeddingRecord, error)
}

// Queue (port)

type Queue interface {
	EnqueueIndex(ctx Context, payload IndexTaskPayload) (string, error)
}

// AIClient (port)
//
// Embed must return one L2-normalized vector per input text, preserving
// order, so downstream cosine similarity reduces to a dot product.
type AIClient interface {
	Embed(ctx Context, texts []string) ([][]float32, error)
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	// SourceTag identifies the embedding source; vectors from different tags
	// must never be ranked against each other.
	SourceTag() string
}

// TextExtractor (port)
// ExtractPath extracts plain text from a file at path with its original
// filename. Implementations may call external services (e.g. Tika).
type TextExtractor interface {
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// IndexTaskPayload is the async index task carried over the queue.
type IndexTaskPayload struct {
	ResumeID string `json:"resume_id"`
}

// Context aliases context.Context so adapters and usecases pass it through
// without the domain package growing adapter imports.
type Context = context.Context
