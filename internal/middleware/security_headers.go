package middleware

import (
	"net/http"
)

// DefaultCSP allows only same-origin scripts and styles; answers may
// link out but never embed.
const DefaultCSP = "default-src 'self'; img-src 'self' data:; object-src 'none'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'"

var baseSecurityHeaders = map[string]string{
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	// anonymous askers should not leak the page they came from
	"Referrer-Policy":    "no-referrer",
	"Permissions-Policy": "camera=(), microphone=(), geolocation=(), payment=()",
}

// SecurityHeaders sets the fixed response headers. HSTS is only sent when
// the site is served over HTTPS; an empty csp omits the policy header.
func SecurityHeaders(https bool, csp string) func(http.Handler) http.Handler {
	headers := make(map[string]string, len(baseSecurityHeaders)+2)
	for k, v := range baseSecurityHeaders {
		headers[k] = v
	}
	if csp != "" {
		headers["Content-Security-Policy"] = csp
	}
	if https {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range headers {
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore keeps moderation pages out of shared and browser caches.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
