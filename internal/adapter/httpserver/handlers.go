package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/resume-ranker/internal/config"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
	"github.com/fairyhunter13/resume-ranker/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg      config.Config
	Uploads  usecase.UploadService
	Parser   usecase.ParseService
	Indexer  usecase.IndexService
	Searcher *usecase.SearchService
	Scorer   usecase.ScoreService

	DBCheck     func(ctx context.Context) error
	RedisCheck  func(ctx context.Context) error
	QdrantCheck func(ctx context.Context) error
	TikaCheck   func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, uploads usecase.UploadService, parser usecase.ParseService, indexer usecase.IndexService, searcher *usecase.SearchService, scorer usecase.ScoreService) *Server {
	return &Server{Cfg: cfg, Uploads: uploads, Parser: parser, Indexer: indexer, Searcher: searcher, Scorer: scorer}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// allowedExt enforces an allowlist for uploads: .txt, .pdf, .docx
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".pdf") || strings.HasSuffix(n, ".docx")
}

func allowedMIMEFor(m, filename string) bool {
	m = strings.ToLower(m)
	if strings.HasSuffix(strings.ToLower(filename), ".txt") && strings.HasPrefix(m, "text/") {
		return true
	}
	if strings.HasPrefix(m, "text/plain") { // allow parameters such as charset
		return true
	}
	return m == "application/pdf" || m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// acceptsJSON rejects requests that explicitly refuse JSON responses.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || a == "*/*" || strings.Contains(a, "application/json") {
		return true
	}
	writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
		Code: "INVALID_ARGUMENT", Message: "not acceptable", Details: map[string]any{"accept": a},
	}})
	return false
}

type resumeResponse struct {
	ID             string              `json:"id"`
	FileName       string              `json:"file_name"`
	Record         domain.ResumeRecord `json:"record"`
	Indexed        bool                `json:"indexed"`
	MatchScore     int                 `json:"match_score"`
	JobDescription string              `json:"job_description,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func toResumeResponse(r domain.Resume) resumeResponse {
	return resumeResponse{
		ID:             r.ID,
		FileName:       r.FileName,
		Record:         r.Record,
		Indexed:        len(r.Embedding) > 0,
		MatchScore:     r.MatchScore,
		JobDescription: r.JobDescription,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// UploadHandler handles multipart upload of one resume file plus an optional
// job description form field.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code: "INVALID_ARGUMENT", Message: "payload too large", Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: file required", domain.ErrInvalidArgument), map[string]string{"field": "file"})
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: read upload: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		if !allowedExt(header.Filename) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "unsupported media type (extension)", Details: map[string]any{"filename": header.Filename},
			}})
			return
		}
		mt := mimetype.Detect(data)
		if !allowedMIMEFor(mt.String(), header.Filename) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "unsupported media type (content)", Details: map[string]any{"mime": mt.String(), "filename": header.Filename},
			}})
			return
		}

		tmp, err := os.CreateTemp("", "resume-*"+strings.ToLower(filepath.Ext(header.Filename)))
		if err != nil {
			writeError(w, r, fmt.Errorf("temp file: %w", err), nil)
			return
		}
		defer func() { _ = os.Remove(tmp.Name()); _ = tmp.Close() }()
		if _, err := tmp.Write(data); err != nil {
			writeError(w, r, fmt.Errorf("temp write: %w", err), nil)
			return
		}

		id, err := s.Uploads.Ingest(r.Context(), header.Filename, tmp.Name(), r.FormValue("job_description"))
		if err != nil {
			writeError(w, r, fmt.Errorf("upload ingest: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "queued"})
	}
}

// GetHandler returns one stored resume.
func (s *Server) GetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Uploads.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toResumeResponse(res))
	}
}

// ListHandler returns stored resumes, newest first.
func (s *Server) ListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidArgument), nil)
				return
			}
			limit = n
		}
		if limit > 100 {
			limit = 100
		}
		resumes, err := s.Uploads.List(r.Context(), limit)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]resumeResponse, 0, len(resumes))
		for _, res := range resumes {
			out = append(out, toResumeResponse(res))
		}
		writeJSON(w, http.StatusOK, map[string]any{"resumes": out})
	}
}

// DeleteHandler removes a resume and its vector mirror entry.
func (s *Server) DeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Indexer.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ParseHandler re-parses a resume's raw text into a validated record.
func (s *Server) ParseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req struct {
			UseLLM bool `json:"use_llm"`
		}
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
				return
			}
		}
		rec, result, err := s.Parser.Parse(r.Context(), chi.URLParam(r, "id"), req.UseLLM)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"record": rec, "match": result})
	}
}

// IndexHandler synchronously rebuilds a resume's search artifacts.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.Indexer.Index(r.Context(), id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "indexed"})
	}
}

// SearchHandler ranks indexed resumes against a free-text query.
func (s *Server) SearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Query string `json:"query" validate:"required,max=2000"`
			TopK  int    `json:"top_k" validate:"min=0,max=1000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		hits, err := s.Searcher.Search(r.Context(), req.Query, req.TopK)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		type hit struct {
			ID         string   `json:"id"`
			Score      float64  `json:"score"`
			FileName   string   `json:"file_name,omitempty"`
			Skills     []string `json:"skills,omitempty"`
			MatchScore int      `json:"match_score,omitempty"`
		}
		out := make([]hit, 0, len(hits))
		for _, h := range hits {
			entry := hit{ID: h.ID, Score: h.Score}
			// Corpus and storage can briefly disagree after a delete; keep the
			// bare hit in that case.
			if res, err := s.Uploads.Get(r.Context(), h.ID); err == nil {
				entry.FileName = res.FileName
				entry.Skills = res.Record.Skills
				entry.MatchScore = res.MatchScore
			}
			out = append(out, entry)
		}
		writeJSON(w, http.StatusOK, map[string]any{"query": req.Query, "total": len(out), "hits": out})
	}
}

// ScoreHandler computes the match score of a resume against a job
// description without persisting it.
func (s *Server) ScoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			JobDescription string `json:"job_description" validate:"max=5000"`
		}
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
				return
			}
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		result, err := s.Scorer.Score(r.Context(), chi.URLParam(r, "id"), req.JobDescription)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func validationDetails(err error) map[string]string {
	verrs := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}

// ReadyzHandler probes the backing services: DB, Redis, Qdrant, and Tika.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	probe := func(ctx context.Context, checks []check, name string, fn func(ctx context.Context) error) []check {
		if fn == nil {
			return checks
		}
		if err := fn(ctx); err != nil {
			return append(checks, check{Name: name, OK: false, Details: err.Error()})
		}
		return append(checks, check{Name: name, OK: true})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 4)
		checks = probe(ctx, checks, "db", s.DBCheck)
		checks = probe(ctx, checks, "redis", s.RedisCheck)
		checks = probe(ctx, checks, "qdrant", s.QdrantCheck)
		checks = probe(ctx, checks, "tika", s.TikaCheck)
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
