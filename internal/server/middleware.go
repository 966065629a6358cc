package server

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fintrackhq/fintrack/internal/apperr"
	"github.com/fintrackhq/fintrack/internal/auth"
)

type contextKey string

const ctxKeyUserID contextKey = "user_id"

// Authenticator resolves the bearer token into a userID and stores it on the
// request context. Handlers read it with userID(r) and pass it explicitly into
// the core services; nothing downstream touches the raw credential.
func Authenticator(authSvc *auth.Service, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}

			uid, err := authSvc.ResolveUser(token)
			if err != nil {
				writeError(w, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userID returns the authenticated user stored by Authenticator.
func userID(r *http.Request) (string, error) {
	uid, ok := r.Context().Value(ctxKeyUserID).(string)
	if !ok || uid == "" {
		return "", apperr.Auth("not authenticated")
	}
	return uid, nil
}
