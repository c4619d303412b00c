// Package postgres provides PostgreSQL database adapters.
//
// It implements the resume repository on top of a minimal pgx pool with
// connection pooling and per-operation tracing.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repo for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ResumeRepo persists and loads resumes.
type ResumeRepo struct{ Pool PgxPool }

// NewResumeRepo constructs a ResumeRepo with the given pool.
func NewResumeRepo(p PgxPool) *ResumeRepo { return &ResumeRepo{Pool: p} }

func span(ctx domain.Context, op string) (domain.Context, func()) {
	tracer := otel.Tracer("repo.resumes")
	ctx, sp := tracer.Start(ctx, "resumes."+op)
	sp.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "resumes"),
	)
	return ctx, func() { sp.End() }
}

// Create stores a new resume and returns its id (generates one if empty).
func (r *ResumeRepo) Create(ctx domain.Context, res domain.Resume) (string, error) {
	ctx, end := span(ctx, "Create")
	defer end()
	id := res.ID
	if id == "" {
		id = uuid.New().String()
	}
	rec, err := json.Marshal(res.Record)
	if err != nil {
		return "", fmt.Errorf("op=resume.create: marshal record: %w", err)
	}
	now := time.Now().UTC()
	q := `INSERT INTO resumes (id, file_name, raw_text, record, blob, embedding, embedding_tag, match_score, job_description, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err = r.Pool.Exec(ctx, q, id, res.FileName, res.RawText, rec, res.Blob, res.Embedding, res.EmbeddingTag, res.MatchScore, res.JobDescription, now, now)
	if err != nil {
		return "", fmt.Errorf("op=resume.create: %w", err)
	}
	return id, nil
}

// Get loads a resume by id or returns domain.ErrNotFound.
func (r *ResumeRepo) Get(ctx domain.Context, id string) (domain.Resume, error) {
	ctx, end := span(ctx, "Get")
	defer end()
	q := `SELECT id, file_name, raw_text, record, blob, embedding, embedding_tag, match_score, job_description, created_at, updated_at
	      FROM resumes WHERE id=$1`
	res, err := scanResume(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Resume{}, fmt.Errorf("op=resume.get: %w", domain.ErrNotFound)
		}
		return domain.Resume{}, fmt.Errorf("op=resume.get: %w", err)
	}
	return res, nil
}

// List returns the newest resumes up to limit.
func (r *ResumeRepo) List(ctx domain.Context, limit int) ([]domain.Resume, error) {
	ctx, end := span(ctx, "List")
	defer end()
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, file_name, raw_text, record, blob, embedding, embedding_tag, match_score, job_description, created_at, updated_at
	      FROM resumes ORDER BY created_at DESC LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=resume.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Resume
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("op=resume.list: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=resume.list: %w", err)
	}
	return out, nil
}

// Delete removes a resume by id; deleting a missing id is ErrNotFound.
func (r *ResumeRepo) Delete(ctx domain.Context, id string) error {
	ctx, end := span(ctx, "Delete")
	defer end()
	tag, err := r.Pool.Exec(ctx, `DELETE FROM resumes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=resume.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=resume.delete: %w", domain.ErrNotFound)
	}
	return nil
}

// UpdateRecord replaces the validated record and match score.
func (r *ResumeRepo) UpdateRecord(ctx domain.Context, id string, rec domain.ResumeRecord, matchScore int) error {
	ctx, end := span(ctx, "UpdateRecord")
	defer end()
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("op=resume.update_record: marshal record: %w", err)
	}
	q := `UPDATE resumes SET record=$2, match_score=$3, updated_at=$4 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, b, matchScore, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=resume.update_record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=resume.update_record: %w", domain.ErrNotFound)
	}
	return nil
}

// UpdateIndex stores the blob and its embedding after indexing.
func (r *ResumeRepo) UpdateIndex(ctx domain.Context, id, blob string, vec []float32, sourceTag string) error {
	ctx, end := span(ctx, "UpdateIndex")
	defer end()
	q := `UPDATE resumes SET blob=$2, embedding=$3, embedding_tag=$4, updated_at=$5 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, blob, vec, sourceTag, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=resume.update_index: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=resume.update_index: %w", domain.ErrNotFound)
	}
	return nil
}

// ListEmbeddings yields the (id, vector, sourceTag) corpus for ranking,
// skipping rows that were never indexed.
func (r *ResumeRepo) ListEmbeddings(ctx domain.Context) ([]domain.EmbeddingRecord, error) {
	ctx, end := span(ctx, "ListEmbeddings")
	defer end()
	q := `SELECT id, embedding, embedding_tag FROM resumes WHERE embedding IS NOT NULL`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=resume.list_embeddings: %w", err)
	}
	defer rows.Close()
	var out []domain.EmbeddingRecord
	for rows.Next() {
		var rec domain.EmbeddingRecord
		if err := rows.Scan(&rec.ID, &rec.Vector, &rec.SourceTag); err != nil {
			return nil, fmt.Errorf("op=resume.list_embeddings: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=resume.list_embeddings: %w", err)
	}
	return out, nil
}

func scanResume(row pgx.Row) (domain.Resume, error) {
	var res domain.Resume
	var rec []byte
	if err := row.Scan(&res.ID, &res.FileName, &res.RawText, &rec, &res.Blob, &res.Embedding, &res.EmbeddingTag, &res.MatchScore, &res.JobDescription, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return domain.Resume{}, err
	}
	if len(rec) > 0 {
		if err := json.Unmarshal(rec, &res.Record); err != nil {
			return domain.Resume{}, fmt.Errorf("unmarshal record: %w", err)
		}
	}
	return res, nil
}
