// Package identity trusts an externally validated user identity.
// Authentication itself lives in a collaborator service; this middleware
// only extracts the identity it injected.
package identity

import (
	"context"
	"net/http"
	"strconv"
)

type userIDKeyType struct{}

var userIDKey = userIDKeyType{}

// WithUser reads the user id from the "user_id" cookie set by the auth
// collaborator and stores it in the request context.
func WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("user_id")
		if err != nil || c.Value == "" {
			http.Error(w, "missing user_id", http.StatusUnauthorized)
			return
		}

		uid, err := strconv.ParseInt(c.Value, 10, 64)
		if err != nil || uid <= 0 {
			http.Error(w, "invalid user_id", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user id placed by WithUser, 0 if absent.
func UserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
