package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/progress/internal/auth"
	"example.com/progress/internal/domain"
	"example.com/progress/internal/persistence/memory"
	"example.com/progress/internal/translate"
)

type stubTranslator struct {
	result translate.Result
	err    error
}

func (s stubTranslator) Translate(_ context.Context, text, source, target string) (translate.Result, error) {
	if s.err != nil {
		return translate.Result{}, s.err
	}
	res := s.result
	res.OriginalText, res.SourceLanguage, res.TargetLanguage = text, source, target
	return res, nil
}

// fakeAuth authenticates every request as the user named in X-User.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User")
		if userID == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{UserID: userID})))
	})
}

func newRouter(t *testing.T, repo domain.Repository, translator Translator) http.Handler {
	t.Helper()
	now := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	svc := domain.NewService(repo, domain.WithClock(func() time.Time { return now }), domain.WithLocation(time.UTC))

	r := chi.NewRouter()
	NewHandler(svc, translator, zerolog.Nop()).RegisterRoutes(r, fakeAuth, nil)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", "user-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecordWorkoutResponds201WithView(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{})

	rec := do(t, h, http.MethodPost, "/progress/workout", `{"workoutId":"w1","title":"Intervals","duration":25}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "workout", view["type"])
	require.Equal(t, "user-1", view["userId"])
	require.Equal(t, "Intervals", view["workoutTitle"])
	require.Equal(t, float64(25), view["duration"])
	require.Equal(t, float64(domain.DefaultCaloriesBurned), view["caloriesBurned"])
	require.NotContains(t, view, "habitTitle")
	require.NotContains(t, view, "steps")
}

func TestRoutesAreServedUnderAPIPrefix(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{})

	rec := do(t, h, http.MethodPost, "/api/progress/habit", `{"habitId":"h1","title":"Read"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/progress/today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []RecordView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.Equal(t, "Read", views[0].HabitTitle)
}

func TestRecordStepsMergesAndResponds200(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{})

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/progress/steps", `{"steps":3000}`).Code)
	rec := do(t, h, http.MethodPost, "/progress/steps", `{"steps":1500}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var view RecordView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Steps)
	require.Equal(t, 4500, *view.Steps)
	require.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), view.Date.UTC())
}

func TestValidationErrorsAre400(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{})

	cases := []struct {
		method, path, body, want string
	}{
		{http.MethodPost, "/progress/workout", `{"title":"Run"}`, "workoutId is required"},
		{http.MethodPost, "/progress/steps", `{}`, "steps must be > 0"},
		{http.MethodPost, "/progress/steps", `{"steps":3000000000}`, "steps must be <= 2147483647"},
		{http.MethodPost, "/progress/habit", `{not json`, "Unable to parse request body"},
		{http.MethodGet, "/progress/range?startDate=2024-06-01", "", "Please provide startDate and endDate"},
	}
	for _, tc := range cases {
		rec := do(t, h, tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.path)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.want, body.Error)
	}
}

func TestStatsResponseShape(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{})

	rec := do(t, h, http.MethodPost, "/progress/language-activity",
		`{"activityType":"lesson","title":"Greetings","wordsLearned":8,"lessonsCompleted":1,"minutesStudied":12}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/progress/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{
		"today": {"wordsLearned":8,"lessonsCompleted":1,"minutesStudied":12,
			"activities":[{"title":"Greetings","type":"lesson","wordsLearned":8,"lessonsCompleted":1,"minutesStudied":12}]},
		"allTime": {"wordsLearned":8,"lessonsCompleted":1,"minutesStudied":12,"totalActivities":1},
		"streak": {"current":1}
	}`, rec.Body.String())
}

func TestRangeReturnsEmptyArrayForInvertedDates(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{})

	rec := do(t, h, http.MethodGet, "/progress/range?startDate=2024-06-05&endDate=2024-06-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestStoreFailureHidesCause(t *testing.T) {
	h := newRouter(t, brokenRepo{}, stubTranslator{})

	rec := do(t, h, http.MethodGet, "/progress/today", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Server error"}`, rec.Body.String())
}

func TestTranslate(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{result: translate.Result{TranslatedText: "hola"}})

	rec := do(t, h, http.MethodPost, "/translate", `{"text":"hello","source":"en","target":"es"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"originalText":"hello","translatedText":"hola","sourceLanguage":"en","targetLanguage":"es"}`, rec.Body.String())
}

func TestTranslateFailureReportsProviders(t *testing.T) {
	failure := &translate.TranslationError{Failures: []*translate.ProviderError{
		{Provider: "libretranslate", Status: http.StatusServiceUnavailable, Err: errors.New("upstream body")},
		{Provider: "mymemory", Status: http.StatusTooManyRequests, Err: translate.ErrRateLimited},
		{Provider: "lingva", Err: context.DeadlineExceeded},
	}}
	h := newRouter(t, memory.NewRepository(), stubTranslator{err: failure})

	rec := do(t, h, http.MethodPost, "/api/translate", `{"text":"hello","source":"en","target":"es"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Failed to translate text", body.Error)
	require.Equal(t, "libretranslate: status Service Unavailable; mymemory: rate limited; lingva: timeout", body.Details)
	require.NotContains(t, body.Details, "upstream body")
}

func TestLanguagesAndHealth(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{})

	rec := do(t, h, http.MethodGet, "/translate/languages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var langs []translate.Language
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &langs))
	require.Equal(t, translate.Languages(), langs)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	health := httptest.NewRecorder()
	h.ServeHTTP(health, req)
	require.Equal(t, http.StatusOK, health.Code)
	require.JSONEq(t, `{"status":"ok","message":"Server is running"}`, health.Body.String())
}

func TestProtectedRoutesRequireAuthentication(t *testing.T) {
	h := newRouter(t, memory.NewRepository(), stubTranslator{})

	req := httptest.NewRequest(http.MethodGet, "/progress/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

type brokenRepo struct{}

func (brokenRepo) Create(context.Context, domain.Record) error { return errors.New("db down") }
func (brokenRepo) AddSteps(context.Context, domain.Record) (*domain.Record, error) {
	return nil, errors.New("db down")
}
func (brokenRepo) List(context.Context, string, domain.Filter) ([]domain.Record, error) {
	return nil, errors.New("db down")
}
func (brokenRepo) HasActivity(context.Context, string, time.Time, time.Time) (bool, error) {
	return false, errors.New("db down")
}
