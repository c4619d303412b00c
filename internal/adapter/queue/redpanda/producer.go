// Package redpanda provides Redpanda/Kafka queue integration.
//
// It carries index tasks from the API to the worker with exactly-once
// producer semantics.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
	obsctx "github.com/fairyhunter13/resume-ranker/internal/observability"
)

// TopicIndex is the Kafka topic for resume index jobs.
const TopicIndex = "index-jobs"

// Producer wraps a transactional Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	// transactionChan serializes transactions; kgo allows one per client.
	transactionChan chan struct{}
	topic           string
}

// NewProducer constructs a Producer with exactly-once semantics.
func NewProducer(brokers []string) (*Producer, error) {
	return NewProducerWithTransactionalID(brokers, "resume-ranker-producer")
}

// NewProducerWithTransactionalID constructs a Producer with a custom
// transactional ID so tests can avoid conflicts between producers.
func NewProducerWithTransactionalID(brokers []string, transactionalID string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, TopicIndex, 1, 1); err != nil {
		// Topic may already exist or be auto-created broker-side.
		slog.Warn("failed to create topic", slog.String("topic", TopicIndex), slog.Any("error", err))
	}

	slog.Info("redpanda producer created", slog.Any("brokers", brokers), slog.String("transactional_id", transactionalID))
	return &Producer{
		client:          client,
		transactionChan: make(chan struct{}, 1),
		topic:           TopicIndex,
	}, nil
}

// EnqueueIndex enqueues an index task and returns the resume id as task id.
func (p *Producer) EnqueueIndex(ctx domain.Context, payload domain.IndexTaskPayload) (string, error) {
	select {
	case p.transactionChan <- struct{}{}:
		defer func() { <-p.transactionChan }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := p.client.BeginTransaction(); err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		p.abort(ctx)
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		// Resume id as key keeps per-resume ordering.
		Key:   []byte(payload.ResumeID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "resume_id", Value: []byte(payload.ResumeID)},
		},
	}
	if rid := obsctx.RequestIDFromContext(ctx); rid != "" {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: "request_id", Value: []byte(rid)})
	}
	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		p.abort(ctx)
		return "", fmt.Errorf("produce: %w", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	observability.EnqueueJob("index")
	slog.Info("index task enqueued", slog.String("topic", p.topic), slog.String("resume_id", payload.ResumeID))
	return payload.ResumeID, nil
}

func (p *Producer) abort(ctx domain.Context) {
	if err := p.client.EndTransaction(ctx, kgo.TryAbort); err != nil {
		slog.Error("failed to abort transaction", slog.Any("error", err))
	}
}

// Close closes the producer.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
