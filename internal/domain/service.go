// Package domain defines the business logic for the progress service.
package domain

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"example.com/progress/internal/observability"
)

const (
	// DefaultCaloriesBurned is applied to workouts submitted without calories.
	DefaultCaloriesBurned = 50
	// DefaultMaxStreakLookbackDays bounds the backward streak walk.
	DefaultMaxStreakLookbackDays = 3650
	// MaxCount is the largest duration or counter a single submission may
	// carry. It matches the INTEGER columns of the progress table.
	MaxCount = math.MaxInt32
)

// Order selects the sort order of List results.
type Order int

const (
	OrderCreatedAsc Order = iota
	OrderCreatedDesc
	OrderOccurredDesc
)

// Filter narrows a List query. Zero values mean unbounded.
type Filter struct {
	Kind   Kind
	From   time.Time // inclusive
	Before time.Time // exclusive
	Order  Order
}

// Repository captures persistence operations.
type Repository interface {
	Create(ctx context.Context, record Record) error
	// AddSteps atomically creates the steps record for (record.UserID,
	// record.OccurredAt) or adds record's count to the existing one, and
	// returns the stored result.
	AddSteps(ctx context.Context, record Record) (*Record, error)
	List(ctx context.Context, userID string, filter Filter) ([]Record, error)
	HasActivity(ctx context.Context, userID string, from, before time.Time) (bool, error)
}

// Service orchestrates recording and aggregation workflows.
type Service struct {
	repo            Repository
	now             func() time.Time
	loc             *time.Location
	maxLookbackDays int
	logger          zerolog.Logger
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the time zone used to find day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMaxStreakLookback caps how many days the streak walk may inspect.
func WithMaxStreakLookback(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxLookbackDays = days
		}
	}
}

// WithLogger overrides the logger used to report store failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		now:             time.Now,
		loc:             time.Local,
		maxLookbackDays: DefaultMaxStreakLookbackDays,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WorkoutInput captures the payload of POST /progress/workout.
type WorkoutInput struct {
	WorkoutID      string
	Title          string
	DurationMin    int
	CaloriesBurned *int
}

// HabitInput captures the payload of POST /progress/habit.
type HabitInput struct {
	HabitID string
	Title   string
}

// StretchInput captures the payload of POST /progress/stretch.
type StretchInput struct {
	StretchID   string
	Title       string
	DurationMin int
}

// LanguageActivityInput captures the payload of POST /progress/language-activity.
type LanguageActivityInput struct {
	ActivityType     string
	Title            string
	WordsLearned     *int
	LessonsCompleted *int
	MinutesStudied   *int
}

// RecordWorkout stores a workout. Missing or zero calories fall back to
// DefaultCaloriesBurned.
func (s *Service) RecordWorkout(ctx context.Context, userID string, in WorkoutInput) (*Record, error) {
	if err := require(map[string]string{"workoutId": in.WorkoutID, "title": in.Title}, "workoutId", "title"); err != nil {
		return nil, err
	}
	if err := checkCount("duration", in.DurationMin); err != nil {
		return nil, err
	}
	calories := DefaultCaloriesBurned
	if in.CaloriesBurned != nil && *in.CaloriesBurned != 0 {
		calories = *in.CaloriesBurned
	}
	if err := checkCount("caloriesBurned", calories); err != nil {
		return nil, err
	}
	return s.create(ctx, userID, Workout{
		WorkoutID:      strings.TrimSpace(in.WorkoutID),
		Title:          strings.TrimSpace(in.Title),
		DurationMin:    in.DurationMin,
		CaloriesBurned: calories,
	})
}

// RecordHabit stores a completed habit.
func (s *Service) RecordHabit(ctx context.Context, userID string, in HabitInput) (*Record, error) {
	if err := require(map[string]string{"habitId": in.HabitID, "title": in.Title}, "habitId", "title"); err != nil {
		return nil, err
	}
	return s.create(ctx, userID, Habit{
		HabitID: strings.TrimSpace(in.HabitID),
		Title:   strings.TrimSpace(in.Title),
	})
}

// RecordStretch stores a completed stretch routine.
func (s *Service) RecordStretch(ctx context.Context, userID string, in StretchInput) (*Record, error) {
	if err := require(map[string]string{"stretchId": in.StretchID, "title": in.Title}, "stretchId", "title"); err != nil {
		return nil, err
	}
	if err := checkCount("duration", in.DurationMin); err != nil {
		return nil, err
	}
	return s.create(ctx, userID, Stretch{
		StretchID:   strings.TrimSpace(in.StretchID),
		Title:       strings.TrimSpace(in.Title),
		DurationMin: in.DurationMin,
	})
}

// RecordLanguageActivity stores a language-learning session. Absent counters
// are recorded as zero.
func (s *Service) RecordLanguageActivity(ctx context.Context, userID string, in LanguageActivityInput) (*Record, error) {
	if err := require(map[string]string{"activityType": in.ActivityType, "title": in.Title}, "activityType", "title"); err != nil {
		return nil, err
	}
	words, lessons, minutes := valueOrZero(in.WordsLearned), valueOrZero(in.LessonsCompleted), valueOrZero(in.MinutesStudied)
	counters := []struct {
		field string
		value int
	}{{"wordsLearned", words}, {"lessonsCompleted", lessons}, {"minutesStudied", minutes}}
	for _, c := range counters {
		if err := checkCount(c.field, c.value); err != nil {
			return nil, err
		}
	}
	return s.create(ctx, userID, LanguageActivity{
		ActivityType:     strings.TrimSpace(in.ActivityType),
		Title:            strings.TrimSpace(in.Title),
		WordsLearned:     words,
		LessonsCompleted: lessons,
		MinutesStudied:   minutes,
	})
}

// RecordSteps adds count to the user's steps record for the current day,
// creating it at local midnight if none exists yet.
func (s *Service) RecordSteps(ctx context.Context, userID string, count int) (*Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("userId is required")
	}
	if count <= 0 {
		return nil, NewValidationError("steps must be > 0")
	}
	if count > MaxCount {
		return nil, NewValidationError("steps must be <= %d", MaxCount)
	}

	now := s.now()
	record := Record{
		ID:         uuid.NewString(),
		UserID:     userID,
		OccurredAt: startOfDay(now, s.loc),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
		Payload:    Steps{Count: count},
	}

	stored, err := s.repo.AddSteps(ctx, record)
	if err != nil {
		return nil, s.storeFailure("add_steps", userID, err)
	}
	observability.RecordProgressWritten(string(KindSteps))
	return stored, nil
}

func (s *Service) create(ctx context.Context, userID string, payload Payload) (*Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewValidationError("userId is required")
	}

	now := s.now().UTC()
	record := Record{
		ID:         uuid.NewString(),
		UserID:     userID,
		OccurredAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
		Payload:    payload,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, s.storeFailure("create_"+string(payload.Kind()), userID, err)
	}
	observability.RecordProgressWritten(string(payload.Kind()))
	return &record, nil
}

func (s *Service) storeFailure(op, userID string, err error) error {
	s.logger.Error().Err(err).Str("op", op).Str("user_id", userID).Msg("progress store operation failed")
	return persistenceErr(op, err)
}

func require(values map[string]string, fields ...string) error {
	for _, field := range fields {
		if strings.TrimSpace(values[field]) == "" {
			return NewValidationError("%s is required", field)
		}
	}
	return nil
}

func checkCount(field string, v int) error {
	switch {
	case v < 0:
		return NewValidationError("%s must be >= 0", field)
	case v > MaxCount:
		return NewValidationError("%s must be <= %d", field, MaxCount)
	}
	return nil
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
