package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/safespace-dev/safespace/internal/middleware"
)

const (
	flashCookieError   = middleware.FlashCookieError
	flashCookieSuccess = "flash_success"
)

// redirectWithFlash stores a one-shot notice and redirects (post/redirect/get).
func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, cookieName, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.StdEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// popFlash reads and clears a notice. Undecodable values are dropped.
func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request, cookieName string) string {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	decoded, err := base64.StdEncoding.DecodeString(c.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}
