package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/clientintake/internal/common"
	"github.com/dmitrijs2005/clientintake/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// userIDFrom returns the authenticated user id, or "" for anonymous callers.
func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func (s *HTTPServer) tokenUserID(r *http.Request) (string, error) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	if header == "" {
		return "", common.ErrorUnauthorized
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", common.ErrInvalidToken
	}

	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// requireAuth rejects requests without a valid bearer token.
func (s *HTTPServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.tokenUserID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// optionalAuth attaches the user id when a valid token is present and lets
// anonymous requests through unchanged.
func (s *HTTPServer) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, err := s.tokenUserID(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
		}
		next.ServeHTTP(w, r)
	})
}
