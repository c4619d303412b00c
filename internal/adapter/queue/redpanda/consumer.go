package redpanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
	obsctx "github.com/fairyhunter13/resume-ranker/internal/observability"
)

// IndexHandler processes one decoded index task. A returned error aborts the
// batch transaction so the records are redelivered.
type IndexHandler func(ctx context.Context, payload domain.IndexTaskPayload) error

// Consumer wraps a Kafka consumer with exactly-once processing semantics: a
// batch of index tasks either commits with its offsets or is redelivered.
type Consumer struct {
	session     *kgo.GroupTransactSession
	handler     IndexHandler
	log         *slog.Logger
	topic       string
	groupID     string
	concurrency int
}

// NewConsumer constructs a Consumer joining the given group.
func NewConsumer(brokers []string, groupID string, concurrency int, handler IndexHandler, log *slog.Logger) (*Consumer, error) {
	return NewConsumerWithTopic(brokers, groupID, "resume-ranker-consumer", TopicIndex, concurrency, handler, log)
}

// NewConsumerWithTopic constructs a Consumer with a custom topic and
// transactional ID so tests can isolate from each other.
func NewConsumerWithTopic(brokers []string, groupID, transactionalID, topic string, concurrency int, handler IndexHandler, log *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	if handler == nil {
		return nil, fmt.Errorf("missing index handler")
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}

	tempClient, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("temp client: %w", err)
	}
	if err := createTopicIfNotExists(context.Background(), tempClient, topic, 1, 1); err != nil {
		log.Warn("failed to create topic", slog.String("topic", topic), slog.Any("error", err))
	}
	tempClient.Close()

	kotelService := kotel.NewKotel(kotel.WithTracer(
		kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider())),
	))

	session, err := kgo.NewGroupTransactSession(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.RequireStableFetchOffsets(),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("transact session: %w", err)
	}

	log.Info("redpanda consumer created",
		slog.Any("brokers", brokers),
		slog.String("group_id", groupID),
		slog.String("topic", topic))
	return &Consumer{
		session:     session,
		handler:     handler,
		log:         log,
		topic:       topic,
		groupID:     groupID,
		concurrency: concurrency,
	}, nil
}

// Run polls and processes index tasks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consumer running", slog.String("topic", c.topic), slog.String("group_id", c.groupID))
	for {
		if err := ctx.Err(); err != nil {
			c.log.Info("consumer shutting down")
			return err
		}
		fetches := c.session.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			allCancelled := true
			for _, fe := range errs {
				if !errors.Is(fe.Err, context.Canceled) {
					allCancelled = false
					c.log.Error("fetch error", slog.String("topic", fe.Topic), slog.Any("error", fe.Err))
				}
			}
			if allCancelled {
				continue
			}
			time.Sleep(time.Second)
			continue
		}
		if fetches.NumRecords() == 0 {
			continue
		}
		c.processBatch(ctx, fetches)
	}
}

// processBatch handles one fetch inside a transaction: every record must
// succeed for the offsets to commit; otherwise the batch aborts and the
// records redeliver.
func (c *Consumer) processBatch(ctx context.Context, fetches kgo.Fetches) {
	if err := c.session.Begin(); err != nil {
		c.log.Error("begin transaction failed", slog.Any("error", err))
		return
	}

	sem := make(chan struct{}, c.concurrency)
	errCh := make(chan error, fetches.NumRecords())
	fetches.EachRecord(func(record *kgo.Record) {
		sem <- struct{}{}
		go func(rec *kgo.Record) {
			defer func() { <-sem }()
			errCh <- c.processRecord(ctx, rec)
		}(record)
	})
	for i := 0; i < c.concurrency; i++ {
		sem <- struct{}{}
	}
	close(errCh)

	var failed bool
	for err := range errCh {
		if err != nil {
			failed = true
		}
	}

	verdict := kgo.TryCommit
	if failed {
		verdict = kgo.TryAbort
	}
	committed, err := c.session.End(ctx, verdict)
	switch {
	case err != nil:
		c.log.Error("end transaction failed", slog.Any("error", err))
	case failed:
		c.log.Warn("batch aborted, records will redeliver", slog.Int("records", fetches.NumRecords()))
	case !committed:
		c.log.Warn("batch commit rejected, records will redeliver")
	}
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) error {
	var payload domain.IndexTaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		// Malformed payloads can never succeed; log and drop.
		c.log.Error("dropping malformed index task",
			slog.Int64("offset", record.Offset),
			slog.Any("error", err))
		return nil
	}

	ctx = obsctx.ContextWithRequestID(ctx, headerValue(record, "request_id"))
	observability.StartProcessingJob("index")
	start := time.Now()
	if err := c.handler(ctx, payload); err != nil {
		observability.FailJob("index")
		c.log.Error("index task failed",
			slog.String("resume_id", payload.ResumeID),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
		return err
	}
	observability.CompleteJob("index")
	c.log.Info("index task completed",
		slog.String("resume_id", payload.ResumeID),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func headerValue(record *kgo.Record, key string) string {
	for _, h := range record.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close closes the underlying session.
func (c *Consumer) Close() {
	if c.session != nil {
		c.session.Close()
	}
}
