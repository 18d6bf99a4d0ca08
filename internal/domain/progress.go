package domain

import "time"

// Kind discriminates the payload carried by a Record.
type Kind string

const (
	KindWorkout          Kind = "workout"
	KindHabit            Kind = "habit"
	KindStretch          Kind = "stretch"
	KindSteps            Kind = "steps"
	KindLanguageActivity Kind = "language-activity"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindWorkout, KindHabit, KindStretch, KindSteps, KindLanguageActivity:
		return true
	}
	return false
}

// Payload is implemented by the kind-specific variants below. A Record holds
// exactly one of them.
type Payload interface {
	Kind() Kind
}

// Workout is a completed workout session.
type Workout struct {
	WorkoutID      string
	Title          string
	DurationMin    int
	CaloriesBurned int
}

// Habit marks a habit as done.
type Habit struct {
	HabitID string
	Title   string
}

// Stretch is a completed stretching routine.
type Stretch struct {
	StretchID   string
	Title       string
	DurationMin int
}

// Steps is the running step count for one calendar day.
type Steps struct {
	Count int
}

// LanguageActivity is one language-learning session.
type LanguageActivity struct {
	ActivityType     string
	Title            string
	WordsLearned     int
	LessonsCompleted int
	MinutesStudied   int
}

func (Workout) Kind() Kind          { return KindWorkout }
func (Habit) Kind() Kind            { return KindHabit }
func (Stretch) Kind() Kind          { return KindStretch }
func (Steps) Kind() Kind            { return KindSteps }
func (LanguageActivity) Kind() Kind { return KindLanguageActivity }

// Record is one logged user activity.
type Record struct {
	ID         string
	UserID     string
	OccurredAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Payload    Payload
}

// Kind returns the discriminator of the record payload.
func (r Record) Kind() Kind {
	if r.Payload == nil {
		return ""
	}
	return r.Payload.Kind()
}
