//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/progress/internal/domain"
	"example.com/progress/internal/testsupport"
)

func TestRepositoryStoresAndListsRecords(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	workout := domain.Record{
		ID: uuid.NewString(), UserID: userID, OccurredAt: base, CreatedAt: base, UpdatedAt: base,
		Payload: domain.Workout{WorkoutID: "w-1", Title: "Run", DurationMin: 30, CaloriesBurned: 50},
	}
	lesson := domain.Record{
		ID: uuid.NewString(), UserID: userID, OccurredAt: base.Add(time.Hour), CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour),
		Payload: domain.LanguageActivity{ActivityType: "lesson", Title: "Verbs", WordsLearned: 12, LessonsCompleted: 1},
	}
	require.NoError(t, repo.Create(ctx, workout))
	require.NoError(t, repo.Create(ctx, lesson))

	all, err := repo.List(ctx, userID, domain.Filter{Order: domain.OrderOccurredDesc})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, lesson.ID, all[0].ID)
	require.Equal(t, lesson.Payload, all[0].Payload)
	require.Equal(t, workout.Payload, all[1].Payload)

	onlyLanguage, err := repo.List(ctx, userID, domain.Filter{Kind: domain.KindLanguageActivity})
	require.NoError(t, err)
	require.Len(t, onlyLanguage, 1)

	found, err := repo.HasActivity(ctx, userID, base, base.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, found)
	found, err = repo.HasActivity(ctx, userID, base.Add(-24*time.Hour), base)
	require.NoError(t, err)
	require.False(t, found)

	var outboxRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE user_id = $1`, userID).Scan(&outboxRows))
	require.Equal(t, 2, outboxRows)
}

func TestRepositoryAddStepsMergesConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t, ctx)
	repo := NewRepository(pool, WithOutbox(false))

	userID := uuid.NewString()
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now().UTC()
			_, err := repo.AddSteps(ctx, domain.Record{
				ID: uuid.NewString(), UserID: userID, OccurredAt: day, CreatedAt: now, UpdatedAt: now,
				Payload: domain.Steps{Count: 100},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := repo.List(ctx, userID, domain.Filter{Kind: domain.KindSteps})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.Steps{Count: writers * 100}, records[0].Payload)

	nextDay := day.AddDate(0, 0, 1)
	stored, err := repo.AddSteps(ctx, domain.Record{
		ID: uuid.NewString(), UserID: userID, OccurredAt: nextDay, CreatedAt: nextDay, UpdatedAt: nextDay,
		Payload: domain.Steps{Count: 7},
	})
	require.NoError(t, err)
	require.Equal(t, domain.Steps{Count: 7}, stored.Payload)

	records, err = repo.List(ctx, userID, domain.Filter{Kind: domain.KindSteps})
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestRepositoryAddStepsTotalMayExceedSubmissionLimit(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(t, ctx)
	repo := NewRepository(pool, WithOutbox(false))

	userID := uuid.NewString()
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	var stored *domain.Record
	for i := 0; i < 2; i++ {
		var err error
		stored, err = repo.AddSteps(ctx, domain.Record{
			ID: uuid.NewString(), UserID: userID, OccurredAt: day, CreatedAt: day, UpdatedAt: day,
			Payload: domain.Steps{Count: domain.MaxCount},
		})
		require.NoError(t, err)
	}
	require.Equal(t, domain.Steps{Count: 2 * domain.MaxCount}, stored.Payload)
}
