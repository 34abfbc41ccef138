package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/safespace-dev/safespace/internal/domain"
	jwt_internal "github.com/safespace-dev/safespace/internal/jwt"
	"github.com/safespace-dev/safespace/internal/logger"
)

const FlashCookieError = "flash_error"

// Key to store the moderator in the request context
type key int

const moderatorKey key = 0

var errNoToken = errors.New("no token")

type AuthConfig struct {
	CookieName    string
	LoginURL      string
	SecureCookies bool
}

// Auth decodes the platform session cookie. Sessions are issued elsewhere;
// unauthenticated visitors are sent to the login page with a flash notice.
type Auth struct {
	jwtService jwt_internal.JwtService
	cfg        AuthConfig
}

func NewAuth(jwtService jwt_internal.JwtService, cfg AuthConfig) *Auth {
	return &Auth{jwtService: jwtService, cfg: cfg}
}

// NeedModerator lets through only sessions with a moderating role.
func (a *Auth) NeedModerator() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, err := a.extractModerator(r)
			if err != nil {
				if !errors.Is(err, errNoToken) {
					logger.Log.Info("session rejected", "path", r.URL.Path, "error", err)
					a.clearSession(w)
				}
				a.redirectToLogin(w, r, "Please log in to continue")
				return
			}
			if !m.CanModerate() {
				logger.Log.Warn("moderation access denied", "uid", m.Id, "role", m.Role)
				a.redirectToLogin(w, r, "Access denied")
				return
			}

			ctx := context.WithValue(r.Context(), moderatorKey, m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the context when a valid session is present.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m, err := a.extractModerator(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), moderatorKey, m))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) extractModerator(r *http.Request) (*domain.Moderator, error) {
	var tokenString string
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		tokenString = c.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}
	if tokenString == "" {
		return nil, errNoToken
	}
	return a.jwtService.DecodeToken(tokenString)
}

func (a *Auth) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     a.cfg.CookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *Auth) redirectToLogin(w http.ResponseWriter, r *http.Request, errorMsg string) {
	// base64 keeps special characters cookie-safe
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieError,
		Value:    base64.StdEncoding.EncodeToString([]byte(errorMsg)),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	target := a.cfg.LoginURL
	if u, err := url.Parse(target); err == nil {
		q := u.Query()
		q.Set("next", r.URL.RequestURI())
		u.RawQuery = q.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// GetModeratorFromContext returns nil for anonymous requests.
func GetModeratorFromContext(r *http.Request) *domain.Moderator {
	m, _ := r.Context().Value(moderatorKey).(*domain.Moderator)
	return m
}

// WithModerator is used by handler tests to fake a signed-in moderator.
func WithModerator(r *http.Request, m *domain.Moderator) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), moderatorKey, m))
}
