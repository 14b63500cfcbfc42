package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finance/src/sessions"
	"finance/src/utils"
)

const sessionCookie = "session"

type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

type contextKey string

const userIDKey = contextKey("user_id")

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the logged in user of the request, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// LoadSession resolves the session cookie and stores the user id in the request context.
// Requests without a valid session pass through anonymously.
func (h *Handler) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := h.Sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, sessions.ErrNotFound) {
				utils.LoggerFromContext(r.Context()).WithError(err).Warn("session lookup failed")
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithUserID(r.Context(), session.UserID)
		ctx = utils.WithLogger(ctx, utils.LoggerFromContext(ctx).WithField("user_id", session.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin sends anonymous requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := h.Sessions.Create(r.Context(), userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clearSession forgets the current session on both sides.
func (h *Handler) clearSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := h.Sessions.Delete(r.Context(), cookie.Value); err != nil {
			utils.LoggerFromContext(r.Context()).WithError(err).Warn("session delete failed")
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// NoCache stops browsers from caching pages that show account state.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Expires", "0")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}
