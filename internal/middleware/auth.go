package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"e2echat/internal/models"
	"e2echat/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// Auth returns a guard that admits only requests carrying a valid
// "Authorization: Bearer <token>" header. The resolved session is placed in
// the request context for the wrapped handler.
func Auth(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w, "Missing or invalid authorization header")
				return
			}

			sess, err := sessions.Validate(token)
			if err != nil {
				unauthorized(w, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// SessionFrom returns the session placed in the context by Auth.
func SessionFrom(r *http.Request) (*models.Session, bool) {
	sess, ok := r.Context().Value(sessionKey).(*models.Session)
	return sess, ok
}

// Username returns the authenticated username, or "" outside Auth.
func Username(r *http.Request) string {
	if sess, ok := SessionFrom(r); ok {
		return sess.Username
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
