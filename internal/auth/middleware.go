package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Middleware provides HTTP middleware for bearer-token validation.
type Middleware struct {
	config Config
	logger zerolog.Logger
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(cfg Config, logger zerolog.Logger) Middleware {
	return Middleware{config: cfg, logger: logger}
}

// Wrap rejects requests without a valid bearer token with 401 and stores the
// claims on the request context otherwise.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.parseRequest(r)
		if err != nil {
			m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Please authenticate"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, ErrInvalidToken
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return Parse(token, m.config)
}
