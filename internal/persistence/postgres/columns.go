package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/progress/internal/domain"
)

type column struct {
	name  string
	value any
}

// columnsFor maps a payload variant onto its own columns only.
func columnsFor(payload domain.Payload) ([]column, error) {
	switch p := payload.(type) {
	case domain.Workout:
		return []column{
			{"workout_id", p.WorkoutID},
			{"workout_title", p.Title},
			{"duration_min", p.DurationMin},
			{"calories_burned", p.CaloriesBurned},
		}, nil
	case domain.Habit:
		return []column{
			{"habit_id", p.HabitID},
			{"habit_title", p.Title},
		}, nil
	case domain.Stretch:
		return []column{
			{"stretch_id", p.StretchID},
			{"stretch_title", p.Title},
			{"duration_min", p.DurationMin},
		}, nil
	case domain.LanguageActivity:
		return []column{
			{"activity_type", p.ActivityType},
			{"language_activity_title", p.Title},
			{"words_learned", p.WordsLearned},
			{"lessons_completed", p.LessonsCompleted},
			{"minutes_studied", p.MinutesStudied},
		}, nil
	case domain.Steps:
		return nil, fmt.Errorf("steps records are written through AddSteps")
	default:
		return nil, fmt.Errorf("unsupported payload %T", payload)
	}
}

// scanRecord reads recordColumns (plus any extra trailing destinations) and
// rebuilds the payload variant from the kind column.
func scanRecord(row pgx.Row, extra ...any) (domain.Record, error) {
	var (
		rec                                              domain.Record
		kind                                             string
		occurredAt, createdAt, updatedAt                 time.Time
		workoutID, workoutTitle, habitID, habitTitle     *string
		stretchID, stretchTitle, activityType, langTitle *string
		duration, calories, steps                        *int
		words, lessons, minutes                          *int
	)

	dest := []any{
		&rec.ID, &rec.UserID, &kind, &occurredAt, &createdAt, &updatedAt,
		&workoutID, &workoutTitle, &duration, &calories,
		&habitID, &habitTitle, &stretchID, &stretchTitle, &steps,
		&activityType, &langTitle, &words, &lessons, &minutes,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Record{}, err
	}

	rec.OccurredAt = occurredAt
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt

	switch domain.Kind(kind) {
	case domain.KindWorkout:
		rec.Payload = domain.Workout{WorkoutID: str(workoutID), Title: str(workoutTitle), DurationMin: num(duration), CaloriesBurned: num(calories)}
	case domain.KindHabit:
		rec.Payload = domain.Habit{HabitID: str(habitID), Title: str(habitTitle)}
	case domain.KindStretch:
		rec.Payload = domain.Stretch{StretchID: str(stretchID), Title: str(stretchTitle), DurationMin: num(duration)}
	case domain.KindSteps:
		rec.Payload = domain.Steps{Count: num(steps)}
	case domain.KindLanguageActivity:
		rec.Payload = domain.LanguageActivity{
			ActivityType:     str(activityType),
			Title:            str(langTitle),
			WordsLearned:     num(words),
			LessonsCompleted: num(lessons),
			MinutesStudied:   num(minutes),
		}
	default:
		return domain.Record{}, fmt.Errorf("unknown kind %q for record %s", kind, rec.ID)
	}
	return rec, nil
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func num(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
