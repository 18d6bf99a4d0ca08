// Package api exposes HTTP handlers for the progress service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"example.com/progress/internal/auth"
	"example.com/progress/internal/domain"
	"example.com/progress/internal/translate"
)

// Translator is the part of the translation gateway the handlers use.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (translate.Result, error)
}

// Middleware wraps an http.Handler.
type Middleware = func(http.Handler) http.Handler

// Handler coordinates HTTP requests with the domain service and the
// translation gateway.
type Handler struct {
	service    *domain.Service
	translator Translator
	logger     zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, translator Translator, logger zerolog.Logger) *Handler {
	return &Handler{service: service, translator: translator, logger: logger}
}

// RegisterRoutes wires endpoints to the router. Authenticated routes are
// reachable both at the root and under /api. limitTranslate guards the
// upstream translation call and may be nil.
func (h *Handler) RegisterRoutes(r chi.Router, authenticate, limitTranslate Middleware) {
	r.Get("/health", health)
	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	if limitTranslate == nil {
		limitTranslate = func(next http.Handler) http.Handler { return next }
	}

	protected := func(r chi.Router) {
		r.Use(authenticate)
		r.Route("/progress", func(r chi.Router) {
			r.Post("/workout", h.recordWorkout)
			r.Post("/habit", h.recordHabit)
			r.Post("/stretch", h.recordStretch)
			r.Post("/steps", h.recordSteps)
			r.Post("/language-activity", h.recordLanguageActivity)
			r.Get("/stats", h.stats)
			r.Get("/today", h.today)
			r.Get("/range", h.rangeRecords)
		})
		r.Route("/translate", func(r chi.Router) {
			r.With(limitTranslate).Post("/", h.translate)
			r.Get("/languages", h.languages)
		})
	}
	r.Group(protected)
	r.Route("/api", protected)
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Server is running"})
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) recordWorkout(w http.ResponseWriter, r *http.Request) {
	var req WorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.service.RecordWorkout(r.Context(), auth.UserID(r.Context()), domain.WorkoutInput{
		WorkoutID:      req.WorkoutID,
		Title:          req.Title,
		DurationMin:    req.Duration,
		CaloriesBurned: req.CaloriesBurned,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordView(*rec))
}

func (h *Handler) recordHabit(w http.ResponseWriter, r *http.Request) {
	var req HabitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.service.RecordHabit(r.Context(), auth.UserID(r.Context()), domain.HabitInput{
		HabitID: req.HabitID,
		Title:   req.Title,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordView(*rec))
}

func (h *Handler) recordStretch(w http.ResponseWriter, r *http.Request) {
	var req StretchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.service.RecordStretch(r.Context(), auth.UserID(r.Context()), domain.StretchInput{
		StretchID:   req.StretchID,
		Title:       req.Title,
		DurationMin: req.Duration,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordView(*rec))
}

// recordSteps answers 200 rather than 201 because the day's record may
// already exist and only its counter moves.
func (h *Handler) recordSteps(w http.ResponseWriter, r *http.Request) {
	var req StepsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.service.RecordSteps(r.Context(), auth.UserID(r.Context()), req.Steps)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordView(*rec))
}

func (h *Handler) recordLanguageActivity(w http.ResponseWriter, r *http.Request) {
	var req LanguageActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.service.RecordLanguageActivity(r.Context(), auth.UserID(r.Context()), domain.LanguageActivityInput{
		ActivityType:     req.ActivityType,
		Title:            req.Title,
		WordsLearned:     req.WordsLearned,
		LessonsCompleted: req.LessonsCompleted,
		MinutesStudied:   req.MinutesStudied,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordView(*rec))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(*stats))
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Today(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordViews(records))
}

func (h *Handler) rangeRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	records, err := h.service.Range(r.Context(), auth.UserID(r.Context()), query.Get("startDate"), query.Get("endDate"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordViews(records))
}

func (h *Handler) translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.translator.Translate(r.Context(), req.Text, req.Source, req.Target)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTranslateResponse(res))
}

func (h *Handler) languages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, translate.Languages())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Unable to parse request body", "")
		return false
	}
	return true
}

// writeDomainError maps service and gateway errors onto status codes. Store
// failures never leak their cause to the client.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation  *domain.ValidationError
		persistence *domain.PersistenceError
		translation *translate.TranslationError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message, "")
	case errors.As(err, &translation):
		writeError(w, http.StatusInternalServerError, "Failed to translate text", failureSummary(translation))
	case errors.As(err, &persistence):
		writeError(w, http.StatusInternalServerError, "Server error", "")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled request error")
		writeError(w, http.StatusInternalServerError, "Server error", "")
	}
}

// failureSummary names each failed provider with its status or category,
// without upstream response bodies.
func failureSummary(err *translate.TranslationError) string {
	if len(err.Failures) == 0 {
		return "no translation provider available"
	}
	parts := make([]string, 0, len(err.Failures))
	for _, f := range err.Failures {
		switch {
		case errors.Is(f, translate.ErrRateLimited):
			parts = append(parts, f.Provider+": rate limited")
		case errors.Is(f, context.DeadlineExceeded):
			parts = append(parts, f.Provider+": timeout")
		case f.Status != 0:
			parts = append(parts, f.Provider+": status "+http.StatusText(f.Status))
		default:
			parts = append(parts, f.Provider+": unavailable")
		}
	}
	return strings.Join(parts, "; ")
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
