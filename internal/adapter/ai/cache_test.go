package ai

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// countingClient records Embed calls.
type countingClient struct {
	calls int
	texts [][]string
}

func (c *countingClient) Embed(_ domain.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts = append(c.texts, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (c *countingClient) ChatJSON(_ domain.Context, _, _ string, _ int) (string, error) {
	return "{}", nil
}

func (c *countingClient) SourceTag() string { return "test:v1" }

func TestEmbedCache_HitAvoidsBaseCall(t *testing.T) {
	t.Parallel()
	base := &countingClient{}
	c := NewEmbedCache(base, 8)

	v1, err := c.Embed(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	v2, err := c.Embed(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, base.calls)
}

func TestEmbedCache_PartialMissBatchesOnlyMisses(t *testing.T) {
	t.Parallel()
	base := &countingClient{}
	c := NewEmbedCache(base, 8)

	_, err := c.Embed(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	res, err := c.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 2, base.calls)
	assert.Equal(t, []string{"beta"}, base.texts[1])
}

func TestEmbedCache_FIFOEviction(t *testing.T) {
	t.Parallel()
	base := &countingClient{}
	c := NewEmbedCache(base, 1)

	_, err := c.Embed(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), []string{"beta"})
	require.NoError(t, err)
	// "alpha" was evicted, so this is a fresh base call.
	_, err = c.Embed(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, 3, base.calls)
}

func TestEmbedCache_ZeroCapacityPassthrough(t *testing.T) {
	t.Parallel()
	base := &countingClient{}
	assert.Equal(t, domain.AIClient(base), NewEmbedCache(base, 0))
}

func TestRedisEmbedCache_RoundTrip(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	base := &countingClient{}
	c := NewRedisEmbedCache(base, rdb, time.Minute, nil)

	v1, err := c.Embed(context.Background(), []string{"gamma"})
	require.NoError(t, err)
	v2, err := c.Embed(context.Background(), []string{"gamma"})
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, base.calls)
	assert.Equal(t, "test:v1", c.SourceTag())
}

func TestRedisEmbedCache_KeysScopedBySourceTag(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisEmbedCache(&countingClient{}, rdb, time.Minute, nil).(*redisEmbedCache)
	assert.Contains(t, c.key("text"), "embed:test:v1:")
}
