package redpanda

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

func noopHandler(context.Context, domain.IndexTaskPayload) error { return nil }

func TestNewConsumer_NoBrokers(t *testing.T) {
	t.Parallel()
	_, err := NewConsumer(nil, "group", 1, noopHandler, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no seed brokers provided")
}

func TestNewConsumer_MissingGroupID(t *testing.T) {
	t.Parallel()
	_, err := NewConsumer([]string{"localhost:9092"}, "", 1, noopHandler, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group ID")
}

func TestNewConsumer_MissingHandler(t *testing.T) {
	t.Parallel()
	_, err := NewConsumer([]string{"localhost:9092"}, "group", 1, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler")
}

func TestNewProducer_NoBrokers(t *testing.T) {
	t.Parallel()
	_, err := NewProducer(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no seed brokers provided")
}

func TestCreateTopic_Validation(t *testing.T) {
	t.Parallel()
	err := createTopicIfNotExists(context.Background(), nil, "", 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic name cannot be empty")

	err = createTopicIfNotExists(context.Background(), nil, "t", 0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "greater than 0")
}
