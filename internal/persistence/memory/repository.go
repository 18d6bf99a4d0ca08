// Package memory provides an in-process progress store for local development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"example.com/progress/internal/domain"
	"example.com/progress/internal/observability"
)

// Repository stores records in memory. All operations are serialised by a
// single lock, which also makes AddSteps atomic.
type Repository struct {
	mu      sync.RWMutex
	records map[string][]domain.Record // by user, insertion order
	steps   map[stepsKey]int           // index into records[user]
}

type stepsKey struct {
	userID string
	day    string
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		records: make(map[string][]domain.Record),
		steps:   make(map[stepsKey]int),
	}
}

// Create implements domain.Repository.
func (r *Repository) Create(ctx context.Context, record domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.UserID] = append(r.records[record.UserID], record)
	observability.RecordPersisted(record.UpdatedAt)
	return nil
}

// AddSteps implements domain.Repository.
func (r *Repository) AddSteps(ctx context.Context, record domain.Record) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	steps, _ := record.Payload.(domain.Steps)

	r.mu.Lock()
	defer r.mu.Unlock()

	key := stepsKey{userID: record.UserID, day: record.OccurredAt.Format(time.DateOnly)}
	if idx, ok := r.steps[key]; ok {
		existing := r.records[record.UserID][idx]
		current, _ := existing.Payload.(domain.Steps)
		existing.Payload = domain.Steps{Count: current.Count + steps.Count}
		existing.UpdatedAt = record.UpdatedAt
		r.records[record.UserID][idx] = existing
		observability.RecordStepsMerged()
		observability.RecordPersisted(existing.UpdatedAt)
		return &existing, nil
	}

	r.records[record.UserID] = append(r.records[record.UserID], record)
	r.steps[key] = len(r.records[record.UserID]) - 1
	observability.RecordPersisted(record.UpdatedAt)
	out := record
	return &out, nil
}

// List implements domain.Repository.
func (r *Repository) List(ctx context.Context, userID string, filter domain.Filter) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Record, 0)
	for _, rec := range r.records[userID] {
		if matches(rec, filter) {
			out = append(out, rec)
		}
	}

	switch filter.Order {
	case domain.OrderCreatedDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	case domain.OrderOccurredDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	}
	return out, nil
}

// HasActivity implements domain.Repository.
func (r *Repository) HasActivity(ctx context.Context, userID string, from, before time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter := domain.Filter{From: from, Before: before}
	for _, rec := range r.records[userID] {
		if matches(rec, filter) {
			return true, nil
		}
	}
	return false, nil
}

func matches(rec domain.Record, filter domain.Filter) bool {
	if filter.Kind != "" && rec.Kind() != filter.Kind {
		return false
	}
	if !filter.From.IsZero() && rec.OccurredAt.Before(filter.From) {
		return false
	}
	if !filter.Before.IsZero() && !rec.OccurredAt.Before(filter.Before) {
		return false
	}
	return true
}
