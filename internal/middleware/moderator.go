package middleware

import (
	"context"
	"net/http"
)

type ModeratorChecker interface {
	IsModerator(ctx context.Context, userID string) (bool, error)
}

func RequireModerator(checker ModeratorChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			isModerator, err := checker.IsModerator(r.Context(), userID)
			if err != nil {
				http.Error(w, "unable to verify moderator", http.StatusInternalServerError)
				return
			}
			if !isModerator {
				http.Error(w, "moderator privileges required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
