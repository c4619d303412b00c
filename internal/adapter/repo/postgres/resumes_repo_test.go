package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// rowStub implements pgx.Row.
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// poolStub implements postgres.PgxPool for tests.
type poolStub struct {
	execErr  error
	execTag  pgconn.CommandTag
	execSQL  []string
	execArgs [][]any
	row      rowStub
	queryErr error
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	p.execArgs = append(p.execArgs, args)
	return p.execTag, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if p.row.scan == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}

func (p *poolStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, p.queryErr
}

func TestCreate_GeneratesID(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewResumeRepo(pool)

	id, err := repo.Create(context.Background(), domain.Resume{FileName: "cv.pdf"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, pool.execArgs, 1)
	assert.Equal(t, id, pool.execArgs[0][0])

	// Record travels as JSON.
	rec, ok := pool.execArgs[0][3].([]byte)
	require.True(t, ok)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec, &decoded))
}

func TestCreate_ExecError(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: errors.New("boom")}
	repo := postgres.NewResumeRepo(pool)
	_, err := repo.Create(context.Background(), domain.Resume{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=resume.create")
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewResumeRepo(pool)
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_ScansRecordJSON(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "id-1"
		*(dest[1].(*string)) = "cv.pdf"
		*(dest[2].(*string)) = "raw"
		*(dest[3].(*[]byte)) = []byte(`{"summary":"engineer"}`)
		*(dest[4].(*string)) = "blob"
		*(dest[5].(*[]float32)) = []float32{1, 0}
		*(dest[6].(*string)) = "openai:text-embedding-3-small"
		*(dest[7].(*int)) = 80
		*(dest[8].(*string)) = "jd"
		*(dest[9].(*time.Time)) = now
		*(dest[10].(*time.Time)) = now
		return nil
	}}}
	repo := postgres.NewResumeRepo(pool)

	res, err := repo.Get(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, "engineer", res.Record.Summary)
	assert.Equal(t, []float32{1, 0}, res.Embedding)
	assert.Equal(t, 80, res.MatchScore)
}

func TestDelete_NotFoundOnZeroRows(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("DELETE 0")}
	repo := postgres.NewResumeRepo(pool)
	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateIndex_NotFoundOnZeroRows(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := postgres.NewResumeRepo(pool)
	err := repo.UpdateIndex(context.Background(), "missing", "blob", []float32{1}, "tag")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateRecord_PassesScore(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := postgres.NewResumeRepo(pool)
	err := repo.UpdateRecord(context.Background(), "id-1", domain.ResumeRecord{Summary: "s"}, 77)
	require.NoError(t, err)
	require.Len(t, pool.execArgs, 1)
	assert.Equal(t, 77, pool.execArgs[0][2])
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("CREATE TABLE")}
	require.NoError(t, postgres.EnsureSchema(context.Background(), pool))
	require.Len(t, pool.execSQL, 1)
	assert.Contains(t, pool.execSQL[0], "CREATE TABLE IF NOT EXISTS resumes")
}
