package postgres

import (
	"fmt"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS resumes (
	id              TEXT PRIMARY KEY,
	file_name       TEXT NOT NULL DEFAULT '',
	raw_text        TEXT NOT NULL DEFAULT '',
	record          JSONB NOT NULL DEFAULT '{}'::jsonb,
	blob            TEXT NOT NULL DEFAULT '',
	embedding       REAL[],
	embedding_tag   TEXT NOT NULL DEFAULT '',
	match_score     INT NOT NULL DEFAULT 0,
	job_description TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS resumes_created_at_idx ON resumes (created_at DESC);
`

// EnsureSchema creates the resumes table when it does not exist yet. Called
// once at startup; real migrations would replace this if the schema grew.
func EnsureSchema(ctx domain.Context, pool PgxPool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("op=schema.ensure: %w", err)
	}
	return nil
}
