package api

import (
	"time"

	"example.com/progress/internal/domain"
	"example.com/progress/internal/translate"
)

// WorkoutRequest is the payload for POST /progress/workout.
type WorkoutRequest struct {
	WorkoutID      string `json:"workoutId"`
	Title          string `json:"title"`
	Duration       int    `json:"duration"`
	CaloriesBurned *int   `json:"caloriesBurned"`
}

// HabitRequest is the payload for POST /progress/habit.
type HabitRequest struct {
	HabitID string `json:"habitId"`
	Title   string `json:"title"`
}

// StretchRequest is the payload for POST /progress/stretch.
type StretchRequest struct {
	StretchID string `json:"stretchId"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
}

// StepsRequest is the payload for POST /progress/steps.
type StepsRequest struct {
	Steps int `json:"steps"`
}

// LanguageActivityRequest is the payload for POST /progress/language-activity.
type LanguageActivityRequest struct {
	ActivityType     string `json:"activityType"`
	Title            string `json:"title"`
	WordsLearned     *int   `json:"wordsLearned"`
	LessonsCompleted *int   `json:"lessonsCompleted"`
	MinutesStudied   *int   `json:"minutesStudied"`
}

// TranslateRequest is the payload for POST /translate.
type TranslateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// RecordView is the wire shape of a progress record. Only the fields of the
// record's own kind are present.
type RecordView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	WorkoutID      string `json:"workoutId,omitempty"`
	WorkoutTitle   string `json:"workoutTitle,omitempty"`
	Duration       *int   `json:"duration,omitempty"`
	CaloriesBurned *int   `json:"caloriesBurned,omitempty"`

	HabitID    string `json:"habitId,omitempty"`
	HabitTitle string `json:"habitTitle,omitempty"`

	StretchID    string `json:"stretchId,omitempty"`
	StretchTitle string `json:"stretchTitle,omitempty"`

	Steps *int `json:"steps,omitempty"`

	ActivityType          string `json:"activityType,omitempty"`
	LanguageActivityTitle string `json:"languageActivityTitle,omitempty"`
	WordsLearned          *int   `json:"wordsLearned,omitempty"`
	LessonsCompleted      *int   `json:"lessonsCompleted,omitempty"`
	MinutesStudied        *int   `json:"minutesStudied,omitempty"`
}

// ActivitySummaryView is one language activity in today's stats.
type ActivitySummaryView struct {
	Title            string `json:"title"`
	Type             string `json:"type"`
	WordsLearned     int    `json:"wordsLearned"`
	LessonsCompleted int    `json:"lessonsCompleted"`
	MinutesStudied   int    `json:"minutesStudied"`
}

// TodayStatsView is the "today" block of GET /progress/stats.
type TodayStatsView struct {
	WordsLearned     int                   `json:"wordsLearned"`
	LessonsCompleted int                   `json:"lessonsCompleted"`
	MinutesStudied   int                   `json:"minutesStudied"`
	Activities       []ActivitySummaryView `json:"activities"`
}

// AllTimeStatsView is the "allTime" block of GET /progress/stats.
type AllTimeStatsView struct {
	WordsLearned     int `json:"wordsLearned"`
	LessonsCompleted int `json:"lessonsCompleted"`
	MinutesStudied   int `json:"minutesStudied"`
	TotalActivities  int `json:"totalActivities"`
}

// StreakView is the "streak" block of GET /progress/stats.
type StreakView struct {
	Current int `json:"current"`
}

// StatsResponse is the body of GET /progress/stats.
type StatsResponse struct {
	Today   TodayStatsView   `json:"today"`
	AllTime AllTimeStatsView `json:"allTime"`
	Streak  StreakView       `json:"streak"`
}

// TranslateResponse is the body of POST /translate.
type TranslateResponse struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func intPtr(v int) *int { return &v }

func toRecordView(rec domain.Record) RecordView {
	view := RecordView{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Type:      string(rec.Kind()),
		Date:      rec.OccurredAt,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	switch p := rec.Payload.(type) {
	case domain.Workout:
		view.WorkoutID = p.WorkoutID
		view.WorkoutTitle = p.Title
		view.Duration = intPtr(p.DurationMin)
		view.CaloriesBurned = intPtr(p.CaloriesBurned)
	case domain.Habit:
		view.HabitID = p.HabitID
		view.HabitTitle = p.Title
	case domain.Stretch:
		view.StretchID = p.StretchID
		view.StretchTitle = p.Title
		view.Duration = intPtr(p.DurationMin)
	case domain.Steps:
		view.Steps = intPtr(p.Count)
	case domain.LanguageActivity:
		view.ActivityType = p.ActivityType
		view.LanguageActivityTitle = p.Title
		view.WordsLearned = intPtr(p.WordsLearned)
		view.LessonsCompleted = intPtr(p.LessonsCompleted)
		view.MinutesStudied = intPtr(p.MinutesStudied)
	}
	return view
}

func toRecordViews(records []domain.Record) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordView(rec))
	}
	return out
}

func toStatsResponse(stats domain.Stats) StatsResponse {
	resp := StatsResponse{
		Today: TodayStatsView{
			WordsLearned:     stats.Today.WordsLearned,
			LessonsCompleted: stats.Today.LessonsCompleted,
			MinutesStudied:   stats.Today.MinutesStudied,
			Activities:       make([]ActivitySummaryView, 0, len(stats.Today.Activities)),
		},
		AllTime: AllTimeStatsView{
			WordsLearned:     stats.AllTime.WordsLearned,
			LessonsCompleted: stats.AllTime.LessonsCompleted,
			MinutesStudied:   stats.AllTime.MinutesStudied,
			TotalActivities:  stats.AllTime.TotalActivities,
		},
		Streak: StreakView{Current: stats.Streak},
	}
	for _, a := range stats.Today.Activities {
		resp.Today.Activities = append(resp.Today.Activities, ActivitySummaryView{
			Title:            a.Title,
			Type:             a.ActivityType,
			WordsLearned:     a.WordsLearned,
			LessonsCompleted: a.LessonsCompleted,
			MinutesStudied:   a.MinutesStudied,
		})
	}
	return resp
}

func toTranslateResponse(res translate.Result) TranslateResponse {
	return TranslateResponse{
		OriginalText:   res.OriginalText,
		TranslatedText: res.TranslatedText,
		SourceLanguage: res.SourceLanguage,
		TargetLanguage: res.TargetLanguage,
	}
}
