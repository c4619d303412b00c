package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// VectorIndex mirrors embeddings into an external vector store. It is
// best-effort: the in-memory ranking corpus is the source of truth for
// search, so mirror failures never fail indexing.
type VectorIndex interface {
	UpsertResume(ctx domain.Context, collection, id string, vector []float32, sourceTag, fileName string) error
	DeletePoint(ctx domain.Context, collection, id string) error
}

// IndexService builds the search artifacts for a resume: the text blob, its
// embedding, and the vector store mirror entry.
type IndexService struct {
	Repo       domain.ResumeRepository
	AI         domain.AIClient
	Parser     ParseService
	Vector     VectorIndex
	Collection string
}

// NewIndexService constructs an IndexService. vector may be nil to disable
// the external mirror.
func NewIndexService(repo domain.ResumeRepository, ai domain.AIClient, parser ParseService, vector VectorIndex, collection string) IndexService {
	return IndexService{Repo: repo, AI: ai, Parser: parser, Vector: vector, Collection: collection}
}

// Index embeds the resume's search blob and persists vector, blob, and source
// tag. Resumes without a parsed record are parsed heuristically first.
func (s IndexService) Index(ctx domain.Context, id string) error {
	res, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	rec := res.Record
	if strings.TrimSpace(domain.SearchBlob(rec)) == "" {
		rec, _, err = s.Parser.Parse(ctx, id, false)
		if err != nil {
			return fmt.Errorf("parse before index: %w", err)
		}
	}

	blob := domain.SearchBlob(rec)
	if strings.TrimSpace(blob) == "" {
		return fmt.Errorf("%w: resume %s has an empty search blob", domain.ErrInvalidArgument, id)
	}

	vecs, err := s.AI.Embed(ctx, []string{blob})
	if err != nil {
		return fmt.Errorf("embed blob: %w", err)
	}
	if len(vecs) != 1 {
		return fmt.Errorf("%w: expected 1 embedding, got %d", domain.ErrProviderUnavailable, len(vecs))
	}

	tag := s.AI.SourceTag()
	if err := s.Repo.UpdateIndex(ctx, id, blob, vecs[0], tag); err != nil {
		return err
	}

	if s.Vector != nil {
		if err := s.Vector.UpsertResume(ctx, s.Collection, id, vecs[0], tag, res.FileName); err != nil {
			slog.Warn("vector mirror upsert failed", slog.String("resume_id", id), slog.Any("error", err))
		}
	}
	return nil
}

// ProcessIndexTask adapts Index to the queue consumer handler signature.
func (s IndexService) ProcessIndexTask(ctx domain.Context, payload domain.IndexTaskPayload) error {
	if payload.ResumeID == "" {
		return fmt.Errorf("%w: index task without resume id", domain.ErrInvalidArgument)
	}
	return s.Index(ctx, payload.ResumeID)
}

// Delete removes a resume and its mirror entry.
func (s IndexService) Delete(ctx domain.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.Vector != nil {
		if err := s.Vector.DeletePoint(ctx, s.Collection, id); err != nil {
			slog.Warn("vector mirror delete failed", slog.String("resume_id", id), slog.Any("error", err))
		}
	}
	return nil
}
