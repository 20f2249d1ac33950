package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tabletap/internal/auth"
	"tabletap/internal/store"
)

const (
	sessionCookieName = "tabletap_session"
	sessionCookieAge  = 180 * 24 * time.Hour

	staffLoginPath = "/restaurant/login"
)

// BrowserSession assigns every visitor a stable browser session id via a
// cookie and records it. The id is the key for cart and identity persistence;
// no authentication happens here.
func BrowserSession(sessions *store.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionIDFromCookie(r)
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(sessionCookieAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if err := sessions.Ensure(id); err != nil {
				logger.Error("ensure browser session", "error", err)
			}

			ctx := auth.WithSession(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

// RequireStaff resolves the staff session for the browser and rejects
// requests without one. An expired token is cleared so the next login starts
// clean. HTMX-aware: returns HX-Redirect instead of a 303 for HTMX requests.
func RequireStaff(sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.SessionID(r.Context())
			if id == "" {
				redirectToLogin(w, r)
				return
			}

			sess, err := sessions.Staff(id)
			if err != nil || sess == nil {
				redirectToLogin(w, r)
				return
			}

			if tokenExpired(sess.Token, time.Now()) {
				sessions.ClearStaff(id)
				redirectToLogin(w, r)
				return
			}

			ctx := auth.WithStaff(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; the backend owns verification and rejects bad tokens with 401.
// Tokens that do not parse or carry no expiry pass through for the backend to
// judge.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", staffLoginPath)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, staffLoginPath, http.StatusSeeOther)
}
