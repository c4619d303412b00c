// Package usecase contains the application services orchestrating the resume
// pipeline: ingestion, parsing, indexing, search, and scoring.
package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// UploadService ingests resume files: text extraction, persistence, and the
// async index task.
type UploadService struct {
	Repo      domain.ResumeRepository
	Queue     domain.Queue
	Extractor domain.TextExtractor
}

// NewUploadService constructs an UploadService.
func NewUploadService(repo domain.ResumeRepository, queue domain.Queue, extractor domain.TextExtractor) UploadService {
	return UploadService{Repo: repo, Queue: queue, Extractor: extractor}
}

// Ingest extracts plain text from the uploaded file, stores the resume, and
// enqueues the index task. The structured record is filled in asynchronously
// by the worker.
func (s UploadService) Ingest(ctx domain.Context, fileName, path, jobDescription string) (string, error) {
	text, err := s.Extractor.ExtractPath(ctx, fileName, path)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty extracted text", domain.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	id, err := s.Repo.Create(ctx, domain.Resume{
		FileName:       fileName,
		RawText:        text,
		JobDescription: strings.TrimSpace(jobDescription),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return "", err
	}

	if _, err := s.Queue.EnqueueIndex(ctx, domain.IndexTaskPayload{ResumeID: id}); err != nil {
		// The resume is stored; indexing can be retried via the index endpoint.
		slog.Warn("enqueue index task failed", slog.String("resume_id", id), slog.Any("error", err))
	}
	return id, nil
}

// Get returns one stored resume.
func (s UploadService) Get(ctx domain.Context, id string) (domain.Resume, error) {
	return s.Repo.Get(ctx, id)
}

// List returns up to limit resumes, newest first.
func (s UploadService) List(ctx domain.Context, limit int) ([]domain.Resume, error) {
	return s.Repo.List(ctx, limit)
}
