// Package postgres implements the progress store on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/progress/internal/domain"
	"example.com/progress/internal/events"
	"example.com/progress/internal/observability"
)

const recordColumns = `record_id::text, user_id, kind, occurred_at, created_at, updated_at,
        workout_id, workout_title, duration_min, calories_burned,
        habit_id, habit_title, stretch_id, stretch_title, steps,
        activity_type, language_activity_title, words_learned, lessons_completed, minutes_studied`

// Repository provides Postgres-backed persistence for progress records and
// outbox events.
type Repository struct {
	pool   *pgxpool.Pool
	outbox bool
}

// Option configures the Repository.
type Option func(*Repository)

// WithOutbox toggles writing a progress.recorded outbox row alongside every
// record write.
func WithOutbox(enabled bool) Option {
	return func(r *Repository) {
		r.outbox = enabled
	}
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, opts ...Option) *Repository {
	r := &Repository{pool: pool, outbox: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create persists the record and its outbox event inside a single transaction.
func (r *Repository) Create(ctx context.Context, record domain.Record) (err error) {
	cols, err := columnsFor(record.Payload)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	names := []string{"record_id", "user_id", "kind", "occurred_at", "created_at", "updated_at"}
	args := []any{record.ID, record.UserID, string(record.Kind()), record.OccurredAt, record.CreatedAt, record.UpdatedAt}
	for _, c := range cols {
		names = append(names, c.name)
		args = append(args, c.value)
	}
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	stmt := fmt.Sprintf(`INSERT INTO progress (%s) VALUES (%s)`, strings.Join(names, ", "), strings.Join(placeholders, ","))
	if _, err = tx.Exec(ctx, stmt, args...); err != nil {
		return err
	}

	if err = r.insertOutbox(ctx, tx, record); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordPersisted(record.UpdatedAt)
	return nil
}

// AddSteps inserts the day's steps row or increments the existing one with a
// single upsert. The partial unique index on (user_id, steps_day) serialises
// concurrent submissions for the same user and day.
func (r *Repository) AddSteps(ctx context.Context, record domain.Record) (_ *domain.Record, err error) {
	steps, ok := record.Payload.(domain.Steps)
	if !ok {
		return nil, fmt.Errorf("add steps: unexpected payload %T", record.Payload)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const upsert = `INSERT INTO progress (record_id, user_id, kind, occurred_at, steps_day, steps, created_at, updated_at)
        VALUES ($1, $2, 'steps', $3, $4::text::date, $5, $6, $7)
        ON CONFLICT (user_id, steps_day) WHERE kind = 'steps'
        DO UPDATE SET steps = progress.steps + EXCLUDED.steps, updated_at = EXCLUDED.updated_at
        RETURNING ` + recordColumns + `, (xmax = 0) AS inserted`

	row := tx.QueryRow(ctx, upsert,
		record.ID,
		record.UserID,
		record.OccurredAt,
		record.OccurredAt.Format(time.DateOnly),
		steps.Count,
		record.CreatedAt,
		record.UpdatedAt,
	)

	var inserted bool
	stored, err := scanRecord(row, &inserted)
	if err != nil {
		return nil, err
	}

	if err = r.insertOutbox(ctx, tx, stored); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	if !inserted {
		observability.RecordStepsMerged()
	}
	observability.RecordPersisted(stored.UpdatedAt)
	return &stored, nil
}

// List returns a user's records matching filter.
func (r *Repository) List(ctx context.Context, userID string, filter domain.Filter) ([]domain.Record, error) {
	args := []any{userID}
	query := `SELECT ` + recordColumns + ` FROM progress WHERE user_id = $1`

	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		query += fmt.Sprintf(` AND kind = $%d`, len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(` AND occurred_at >= $%d`, len(args))
	}
	if !filter.Before.IsZero() {
		args = append(args, filter.Before)
		query += fmt.Sprintf(` AND occurred_at < $%d`, len(args))
	}

	switch filter.Order {
	case domain.OrderCreatedDesc:
		query += ` ORDER BY created_at DESC, record_id DESC`
	case domain.OrderOccurredDesc:
		query += ` ORDER BY occurred_at DESC, created_at DESC`
	default:
		query += ` ORDER BY created_at ASC, record_id ASC`
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// HasActivity reports whether any record of the user occurred in [from, before).
func (r *Repository) HasActivity(ctx context.Context, userID string, from, before time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM progress WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, from, before).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, record domain.Record) error {
	if !r.outbox {
		return nil
	}

	payload := events.ProgressRecorded{
		RecordID:   record.ID,
		UserID:     record.UserID,
		Kind:       string(record.Kind()),
		OccurredAt: record.OccurredAt.UTC(),
		CreatedAt:  record.CreatedAt.UTC(),
	}
	if steps, ok := record.Payload.(domain.Steps); ok {
		total := steps.Count
		payload.StepsTotal = &total
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[events.ProgressRecordedType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", events.ProgressRecordedType)
	}
	dedupeKey := fmt.Sprintf("%s:%s:%d", record.ID, events.ProgressRecordedType, record.UpdatedAt.UnixNano())

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		record.UserID,
		"progress",
		record.ID,
		events.ProgressRecordedType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(record),
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(domain.Record) string
}

var eventCatalog = map[string]EventMetadata{
	events.ProgressRecordedType: {
		Topic:         "progress_events",
		SchemaSubject: "progress_events-value",
		PartitionKeyFn: func(r domain.Record) string {
			return r.UserID
		},
	},
}
