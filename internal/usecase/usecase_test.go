package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

type repoStub struct {
	resumes      map[string]domain.Resume
	created      []domain.Resume
	createErr    error
	updatedID    string
	updatedRec   domain.ResumeRecord
	updatedScore int
	indexedID    string
	indexedBlob  string
	indexedVec   []float32
	indexedTag   string
	deletedID    string
	embeddings   []domain.EmbeddingRecord
	listEmbErr   error
}

func newRepoStub() *repoStub {
	return &repoStub{resumes: map[string]domain.Resume{}}
}

func (r *repoStub) Create(_ domain.Context, res domain.Resume) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	id := fmt.Sprintf("id-%d", len(r.created)+1)
	res.ID = id
	r.created = append(r.created, res)
	r.resumes[id] = res
	return id, nil
}

func (r *repoStub) Get(_ domain.Context, id string) (domain.Resume, error) {
	res, ok := r.resumes[id]
	if !ok {
		return domain.Resume{}, fmt.Errorf("resume %s: %w", id, domain.ErrNotFound)
	}
	return res, nil
}

func (r *repoStub) List(_ domain.Context, _ int) ([]domain.Resume, error) {
	out := make([]domain.Resume, 0, len(r.resumes))
	for _, res := range r.resumes {
		out = append(out, res)
	}
	return out, nil
}

func (r *repoStub) Delete(_ domain.Context, id string) error {
	if _, ok := r.resumes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.resumes, id)
	r.deletedID = id
	return nil
}

func (r *repoStub) UpdateRecord(_ domain.Context, id string, rec domain.ResumeRecord, matchScore int) error {
	res, ok := r.resumes[id]
	if !ok {
		return domain.ErrNotFound
	}
	res.Record = rec
	res.MatchScore = matchScore
	r.resumes[id] = res
	r.updatedID, r.updatedRec, r.updatedScore = id, rec, matchScore
	return nil
}

func (r *repoStub) UpdateIndex(_ domain.Context, id, blob string, vec []float32, sourceTag string) error {
	res, ok := r.resumes[id]
	if !ok {
		return domain.ErrNotFound
	}
	res.Blob, res.Embedding, res.EmbeddingTag = blob, vec, sourceTag
	r.resumes[id] = res
	r.indexedID, r.indexedBlob, r.indexedVec, r.indexedTag = id, blob, vec, sourceTag
	return nil
}

func (r *repoStub) ListEmbeddings(_ domain.Context) ([]domain.EmbeddingRecord, error) {
	return r.embeddings, r.listEmbErr
}

type aiStub struct {
	embedFn  func(texts []string) ([][]float32, error)
	chatResp string
	chatErr  error
	tag      string
}

func (a *aiStub) Embed(_ domain.Context, texts []string) ([][]float32, error) {
	if a.embedFn != nil {
		return a.embedFn(texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (a *aiStub) ChatJSON(domain.Context, string, string, int) (string, error) {
	return a.chatResp, a.chatErr
}

func (a *aiStub) SourceTag() string {
	if a.tag != "" {
		return a.tag
	}
	return "stub:v1"
}

type queueStub struct {
	payloads []domain.IndexTaskPayload
	err      error
}

func (q *queueStub) EnqueueIndex(_ domain.Context, p domain.IndexTaskPayload) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.payloads = append(q.payloads, p)
	return p.ResumeID, nil
}

type extractorStub struct {
	text string
	err  error
}

func (e *extractorStub) ExtractPath(domain.Context, string, string) (string, error) {
	return e.text, e.err
}

type vectorStub struct {
	upsertIDs  []string
	upsertTags []string
	deletedIDs []string
	err        error
}

func (v *vectorStub) UpsertResume(_ domain.Context, _ string, id string, _ []float32, sourceTag, _ string) error {
	if v.err != nil {
		return v.err
	}
	v.upsertIDs = append(v.upsertIDs, id)
	v.upsertTags = append(v.upsertTags, sourceTag)
	return nil
}

func (v *vectorStub) DeletePoint(_ domain.Context, _ string, id string) error {
	if v.err != nil {
		return v.err
	}
	v.deletedIDs = append(v.deletedIDs, id)
	return nil
}

const rawResume = `Jane Doe
jane.doe@example.com
(512) 555-1234

Summary
Backend engineer focused on Go services.

Skills
Go, PostgreSQL, Kafka
`

func TestUploadIngest_StoresAndEnqueues(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	queue := &queueStub{}
	svc := NewUploadService(repo, queue, &extractorStub{text: rawResume})

	id, err := svc.Ingest(context.Background(), "cv.pdf", "/tmp/cv.pdf", "go engineer")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "cv.pdf", repo.created[0].FileName)
	assert.Equal(t, "go engineer", repo.created[0].JobDescription)
	assert.NotEmpty(t, repo.created[0].RawText)

	require.Len(t, queue.payloads, 1)
	assert.Equal(t, id, queue.payloads[0].ResumeID)
}

func TestUploadIngest_EmptyText(t *testing.T) {
	t.Parallel()
	svc := NewUploadService(newRepoStub(), &queueStub{}, &extractorStub{text: "   \n  "})
	_, err := svc.Ingest(context.Background(), "cv.pdf", "/tmp/cv.pdf", "")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUploadIngest_EnqueueFailureKeepsResume(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	svc := NewUploadService(repo, &queueStub{err: errors.New("broker down")}, &extractorStub{text: rawResume})

	id, err := svc.Ingest(context.Background(), "cv.pdf", "/tmp/cv.pdf", "")
	require.NoError(t, err)
	_, ok := repo.resumes[id]
	assert.True(t, ok)
}

func TestParse_HeuristicPersistsRecordAndScore(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.resumes["r1"] = domain.Resume{ID: "r1", RawText: rawResume, JobDescription: "go kafka"}
	svc := NewParseService(repo, &aiStub{})

	rec, result, err := svc.Parse(context.Background(), "r1", false)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", rec.Contact.Email)
	assert.Contains(t, rec.Skills, "Go")
	assert.Greater(t, result.Score, 0)

	assert.Equal(t, "r1", repo.updatedID)
	assert.Equal(t, result.Score, repo.updatedScore)
	assert.Equal(t, rec, repo.updatedRec)
}

func TestParse_LLMPath(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.resumes["r1"] = domain.Resume{ID: "r1", RawText: rawResume}
	ai := &aiStub{chatResp: `{"contact":{"fullName":"Jane Doe"},"skills":["Go","Rust"]}`}
	svc := NewParseService(repo, ai)

	rec, _, err := svc.Parse(context.Background(), "r1", true)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rec.Contact.FullName)
	assert.Equal(t, []string{"Go", "Rust"}, rec.Skills)
}

func TestParse_LLMInvalidJSON(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.resumes["r1"] = domain.Resume{ID: "r1", RawText: rawResume}
	svc := NewParseService(repo, &aiStub{chatResp: "not json at all"})

	_, _, err := svc.Parse(context.Background(), "r1", true)
	require.ErrorIs(t, err, domain.ErrSchemaInvalid)
	assert.Empty(t, repo.updatedID)
}

func TestParse_NotFound(t *testing.T) {
	t.Parallel()
	svc := NewParseService(newRepoStub(), &aiStub{})
	_, _, err := svc.Parse(context.Background(), "missing", false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndex_EmbedsBlobAndMirrors(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.resumes["r1"] = domain.Resume{
		ID:      "r1",
		RawText: rawResume,
		Record: domain.ResumeRecord{
			Contact: domain.Contact{FullName: "Jane Doe"},
			Skills:  []string{"Go"},
		},
	}
	vec := &vectorStub{}
	svc := NewIndexService(repo, &aiStub{}, NewParseService(repo, &aiStub{}), vec, "resumes")

	require.NoError(t, svc.Index(context.Background(), "r1"))
	assert.Equal(t, "r1", repo.indexedID)
	assert.Contains(t, repo.indexedBlob, "Jane Doe")
	assert.Equal(t, []float32{1, 0}, repo.indexedVec)
	assert.Equal(t, "stub:v1", repo.indexedTag)
	assert.Equal(t, []string{"r1"}, vec.upsertIDs)
	assert.Equal(t, []string{"stub:v1"}, vec.upsertTags)
}

func TestIndex_ParsesWhenRecordEmpty(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.resumes["r1"] = domain.Resume{ID: "r1", RawText: rawResume}
	svc := NewIndexService(repo, &aiStub{}, NewParseService(repo, &aiStub{}), nil, "resumes")

	require.NoError(t, svc.Index(context.Background(), "r1"))
	assert.Equal(t, "r1", repo.updatedID)
	assert.NotEmpty(t, repo.indexedBlob)
}

func TestIndex_MirrorFailureTolerated(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.resumes["r1"] = domain.Resume{
		ID:     "r1",
		Record: domain.ResumeRecord{Skills: []string{"Go"}},
	}
	svc := NewIndexService(repo, &aiStub{}, NewParseService(repo, &aiStub{}), &vectorStub{err: errors.New("qdrant down")}, "resumes")

	require.NoError(t, svc.Index(context.Background(), "r1"))
	assert.Equal(t, "r1", repo.indexedID)
}

func TestProcessIndexTask_EmptyID(t *testing.T) {
	t.Parallel()
	svc := NewIndexService(newRepoStub(), &aiStub{}, ParseService{}, nil, "resumes")
	err := svc.ProcessIndexTask(context.Background(), domain.IndexTaskPayload{})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestIndexDelete_RemovesMirrorPoint(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.resumes["r1"] = domain.Resume{ID: "r1"}
	vec := &vectorStub{}
	svc := NewIndexService(repo, &aiStub{}, ParseService{}, vec, "resumes")

	require.NoError(t, svc.Delete(context.Background(), "r1"))
	assert.Equal(t, "r1", repo.deletedID)
	assert.Equal(t, []string{"r1"}, vec.deletedIDs)
}

func TestSearch_RanksAgainstCorpus(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.embeddings = []domain.EmbeddingRecord{
		{ID: "far", Vector: []float32{0, 1}, SourceTag: "stub:v1"},
		{ID: "near", Vector: []float32{1, 0}, SourceTag: "stub:v1"},
	}
	svc := NewSearchService(repo, &aiStub{}, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	hits, err := svc.Search(context.Background(), "go engineer", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].ID)
}

type searcherStub struct {
	hits       []domain.RankedHit
	err        error
	collection string
	topK       int
}

func (s *searcherStub) Search(_ domain.Context, collection string, _ []float32, topK int) ([]domain.RankedHit, error) {
	s.collection = collection
	s.topK = topK
	return s.hits, s.err
}

func TestSearch_UsesVectorBackend(t *testing.T) {
	t.Parallel()
	backend := &searcherStub{hits: []domain.RankedHit{{ID: "ann-1", Score: 0.9}}}
	svc := NewSearchService(newRepoStub(), &aiStub{}, nil)
	svc.UseVectorBackend(backend, "resumes")

	hits, err := svc.Search(context.Background(), "go engineer", 99)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ann-1", hits[0].ID)
	assert.Equal(t, "resumes", backend.collection)
	// Backend receives the clamped result count, not the raw request.
	assert.Equal(t, 50, backend.topK)
}

func TestSearch_VectorBackendErrorFallsBackToCorpus(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.embeddings = []domain.EmbeddingRecord{
		{ID: "near", Vector: []float32{1, 0}, SourceTag: "stub:v1"},
	}
	svc := NewSearchService(repo, &aiStub{}, nil)
	require.NoError(t, svc.Refresh(context.Background()))
	svc.UseVectorBackend(&searcherStub{err: errors.New("qdrant down")}, "resumes")

	hits, err := svc.Search(context.Background(), "go engineer", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "near", hits[0].ID)
}

func TestSearch_EmptyQuery(t *testing.T) {
	t.Parallel()
	svc := NewSearchService(newRepoStub(), &aiStub{}, nil)
	_, err := svc.Search(context.Background(), "   ", 5)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSearch_RefreshSwapsCorpus(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	svc := NewSearchService(repo, &aiStub{}, nil)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 0, svc.Corpus.Len())

	repo.embeddings = []domain.EmbeddingRecord{{ID: "a", Vector: []float32{1}, SourceTag: "stub:v1"}}
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 1, svc.Corpus.Len())
}

func TestSearch_RefreshError(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.listEmbErr = errors.New("db down")
	svc := NewSearchService(repo, &aiStub{}, nil)
	require.Error(t, svc.Refresh(context.Background()))
}

func TestSearch_RunRefresherStopsOnCancel(t *testing.T) {
	t.Parallel()
	svc := NewSearchService(newRepoStub(), &aiStub{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunRefresher(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestScore_UsesStoredJobDescriptionFallback(t *testing.T) {
	t.Parallel()
	repo := newRepoStub()
	repo.resumes["r1"] = domain.Resume{
		ID:             "r1",
		Record:         domain.ResumeRecord{Skills: []string{"go", "kafka"}},
		JobDescription: "go kafka",
	}
	svc := NewScoreService(repo)

	result, err := svc.Score(context.Background(), "r1", "")
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)

	override, err := svc.Score(context.Background(), "r1", "rust embedded")
	require.NoError(t, err)
	assert.Less(t, override.Score, 100)
}

func TestScore_NotFound(t *testing.T) {
	t.Parallel()
	svc := NewScoreService(newRepoStub())
	_, err := svc.Score(context.Background(), "missing", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
