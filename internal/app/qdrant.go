package app

import (
	"context"
	"log/slog"

	qdrantcli "github.com/fairyhunter13/resume-ranker/internal/adapter/vector/qdrant"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// EnsureResumeCollection creates the vector mirror collection if missing. The
// dimensionality is probed from the embedding client so collection size always
// matches the configured model.
func EnsureResumeCollection(ctx context.Context, qcli *qdrantcli.Client, aicl domain.AIClient, collection string) {
	if qcli == nil || aicl == nil {
		return
	}
	vecs, err := aicl.Embed(ctx, []string{"dimension probe"})
	if err != nil || len(vecs) != 1 {
		slog.Warn("embedding dimension probe failed", slog.Any("error", err))
		return
	}
	if err := qcli.EnsureCollection(ctx, collection, len(vecs[0])); err != nil {
		slog.Warn("qdrant ensure collection failed",
			slog.String("collection", collection), slog.Any("error", err))
	}
}
