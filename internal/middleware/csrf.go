package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/safespace-dev/safespace/internal/csrf"
	"github.com/safespace-dev/safespace/internal/logger"
)

const (
	csrfCookieName = "csrf_token"
	CSRFFormField  = "csrf_token"

	csrfCookieTTL = 24 * time.Hour
	csrfRejectMsg = "This form has expired. Reload the page and try again."
)

type csrfContextKey struct{}

// CSRF implements the double-submit cookie pattern for HTML forms.
type CSRF struct {
	secureCookies bool
}

func NewCSRF(secureCookies bool) *CSRF {
	return &CSRF{secureCookies: secureCookies}
}

// Protect makes sure every request carries a token in its context and
// rejects state-changing requests whose form field does not match the cookie.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fresh, err := c.token(w, r)
		if err != nil {
			logger.Log.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if !safeMethod(r.Method) {
			ip, _ := GetIP(r)
			// a freshly issued cookie means the browser never saw our form
			if fresh {
				logger.Log.Warn("CSRF cookie missing", "path", r.URL.Path, "ip", ip)
				http.Error(w, csrfRejectMsg, http.StatusForbidden)
				return
			}
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form data", http.StatusBadRequest)
				return
			}
			if !csrf.ValidateToken(token, r.PostFormValue(CSRFFormField)) {
				logger.Log.Warn("CSRF token mismatch", "path", r.URL.Path, "ip", ip)
				http.Error(w, csrfRejectMsg, http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), csrfContextKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// token returns the cookie token, issuing a new one when absent.
func (c *CSRF) token(w http.ResponseWriter, r *http.Request) (string, bool, error) {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, false, nil
	}
	token, err := csrf.GenerateToken()
	if err != nil {
		return "", false, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(csrfCookieTTL.Seconds()),
	})
	return token, true, nil
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CSRFToken is the token to embed in rendered forms.
func CSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	return token
}
