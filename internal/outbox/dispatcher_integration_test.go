//go:build integration

package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/progress/internal/events"
	"example.com/progress/internal/testsupport"
)

func TestDispatcherPublishesMessages(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t, ctx)

	userID := uuid.NewString()
	require.NotZero(t, seedOutbox(t, ctx, pool, userID, uuid.NewString(), events.ProgressRecordedType))

	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	dispatcher := NewDispatcher(pool, producer, registry, 10*time.Millisecond, 5)

	beforeDelivered := testutil.ToFloat64(eventsCounter.WithLabelValues("progress_events", outcomeDelivered))
	beforeHistogram := histogramSampleCount(t)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Equal(t, "progress_events", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 1)
	written := producer.writes[0].messages[0]
	require.Equal(t, userID, string(written.Key))
	require.Contains(t, written.Headers, kafka.Header{Key: HeaderUserID, Value: []byte(userID)})

	require.InDelta(t, beforeDelivered+1, testutil.ToFloat64(eventsCounter.WithLabelValues("progress_events", outcomeDelivered)), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)
}

func TestDispatcherRoutesMessagesToDLQOnFailure(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t, ctx)

	userID := uuid.NewString()
	require.NotZero(t, seedOutbox(t, ctx, pool, userID, uuid.NewString(), events.ProgressRecordedType))

	producer := &stubProducer{err: errors.New("kafka write failed")}
	dispatcher := NewDispatcher(pool, producer, &stubRegistry{id: 7}, 10*time.Millisecond, 5)

	beforeDLQ := testutil.ToFloat64(eventsCounter.WithLabelValues("progress_events", outcomeDeadLettered))

	require.NoError(t, dispatcher.processBatch(ctx))

	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(eventsCounter.WithLabelValues("progress_events", outcomeDeadLettered)), 0.0001)

	var dlqCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE user_id = $1`, userID).Scan(&dlqCount))
	require.Equal(t, 1, dlqCount)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)
}

func TestDispatcherCachesSchemaIDsAcrossBatch(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t, ctx)

	userID := uuid.NewString()
	require.NotZero(t, seedOutbox(t, ctx, pool, userID, uuid.NewString(), events.ProgressRecordedType))
	require.NotZero(t, seedOutbox(t, ctx, pool, userID, uuid.NewString(), events.ProgressRecordedType))

	producer := &stubProducer{}
	registry := &stubRegistry{id: 21}
	dispatcher := NewDispatcher(pool, producer, registry, 10*time.Millisecond, 5)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Len(t, producer.writes[0].messages, 2)
	require.Len(t, registry.calls, 1, "schema registry should be invoked once due to cache")
}

func TestDispatcherUnknownSchemaMovesEventsToDLQ(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t, ctx)

	eventID := seedOutbox(t, ctx, pool, uuid.NewString(), uuid.NewString(), "progress.unknown")
	require.NotZero(t, eventID)

	producer := &stubProducer{}
	registry := &stubRegistry{id: 99}
	dispatcher := NewDispatcher(pool, producer, registry, 10*time.Millisecond, 5)

	require.NoError(t, dispatcher.processBatch(ctx))

	require.Empty(t, producer.writes, "unknown schema should skip kafka writes")
	require.Empty(t, registry.calls, "schema registry should not be invoked when metadata missing")

	var dlqCount int
	var reason string
	err := pool.QueryRow(ctx, `SELECT COUNT(*), MAX(reason) FROM outbox_dlq WHERE event_id = $1`, eventID).Scan(&dlqCount, &reason)
	require.NoError(t, err)
	require.Equal(t, 1, dlqCount)
	require.Contains(t, reason, "no schema metadata for event_type=progress.unknown")
}

func TestDLQManagerRequeuesAndQuarantines(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t, ctx)

	userID := uuid.NewString()
	seedOutbox(t, ctx, pool, userID, uuid.NewString(), events.ProgressRecordedType)

	failing := NewDispatcher(pool, &stubProducer{err: errors.New("unavailable")}, &stubRegistry{id: 3}, time.Millisecond, 10)
	require.NoError(t, failing.processBatch(ctx))

	manager := NewDLQManager(pool, 1, time.Second, zerolog.New(zerolog.NewTestWriter(t)))
	replayed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, replayed)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL AND user_id = $1`, userID).Scan(&pending))
	require.Equal(t, 1, pending, "replayed event should be back in the outbox")

	_, err = pool.Exec(ctx,
		`INSERT INTO outbox_dlq (user_id, event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count)
         VALUES ($1, 1, $2, 'progress_events', '{}', 'stuck', 'progress', 'x', 'progress_events-value', $1, 1)`,
		userID, events.ProgressRecordedType)
	require.NoError(t, err)

	_, err = manager.RunOnce(ctx, 10)
	require.NoError(t, err)

	var quarantined int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL`).Scan(&quarantined))
	require.Equal(t, 1, quarantined)
	require.Equal(t, float64(1), testutil.ToFloat64(dlqBacklogGauge.WithLabelValues("quarantined")))
	require.Equal(t, float64(0), testutil.ToFloat64(dlqBacklogGauge.WithLabelValues("pending")))
}

type stubProducer struct {
	mu     sync.Mutex
	err    error
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type stubRegistry struct {
	mu    sync.Mutex
	id    int
	err   error
	calls []string
}

func (s *stubRegistry) EnsureSchema(_ context.Context, subject string, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, subject)
	if s.err != nil {
		return 0, s.err
	}
	return s.id, nil
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}

func seedOutbox(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID, recordID, eventType string) int64 {
	t.Helper()

	payload, err := json.Marshal(events.ProgressRecorded{
		RecordID:   recordID,
		UserID:     userID,
		Kind:       "habit",
		OccurredAt: time.Now().UTC(),
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	var eventID int64
	err = pool.QueryRow(ctx,
		`INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
         RETURNING event_id`,
		userID, "progress", recordID, eventType, "progress_events", "progress_events-value", userID, payload,
	).Scan(&eventID)
	require.NoError(t, err)
	return eventID
}
