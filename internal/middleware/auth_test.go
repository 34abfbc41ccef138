package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safespace-dev/safespace/internal/domain"
	jwt_internal "github.com/safespace-dev/safespace/internal/jwt"
)

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNeedModerator(t *testing.T) {
	jwtService := jwt_internal.New("test_secret", time.Hour)
	moderator := domain.Moderator{Id: "m1", Email: "mod@example.org", Role: domain.RoleModerator}
	tokenModerator, _ := jwtService.NewToken(moderator)
	tokenMember, _ := jwtService.NewToken(domain.Moderator{Id: "u1", Role: "member"})

	auth := NewAuth(jwtService, AuthConfig{CookieName: "accessToken", LoginURL: "/login"})

	tests := []struct {
		name          string
		cookie        *http.Cookie
		bearer        string
		expectedCode  int
		expectedFlash string
		clearsSession bool
	}{
		{
			name:         "valid moderator cookie",
			cookie:       &http.Cookie{Name: "accessToken", Value: tokenModerator},
			expectedCode: http.StatusOK,
		},
		{
			name:         "valid moderator bearer",
			bearer:       tokenModerator,
			expectedCode: http.StatusOK,
		},
		{
			name:          "no token",
			expectedCode:  http.StatusSeeOther,
			expectedFlash: "Please log in to continue",
		},
		{
			name:          "invalid token",
			cookie:        &http.Cookie{Name: "accessToken", Value: "invalid_token"},
			expectedCode:  http.StatusSeeOther,
			expectedFlash: "Please log in to continue",
			clearsSession: true,
		},
		{
			name:          "member without moderating role",
			cookie:        &http.Cookie{Name: "accessToken", Value: tokenMember},
			expectedCode:  http.StatusSeeOther,
			expectedFlash: "Access denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domain.Moderator
			handler := auth.NeedModerator()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetModeratorFromContext(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin/questions?answering=q1", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "m1", seen.Id)
				assert.Equal(t, tokenModerator, seen.Token)
				return
			}

			assert.Nil(t, seen)
			loc, err := url.Parse(w.Header().Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "/login", loc.Path)
			assert.Equal(t, "/admin/questions?answering=q1", loc.Query().Get("next"))

			flash := cookieByName(w.Result().Cookies(), FlashCookieError)
			require.NotNil(t, flash)
			decoded, err := base64.StdEncoding.DecodeString(flash.Value)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedFlash, string(decoded))

			session := cookieByName(w.Result().Cookies(), "accessToken")
			if tt.clearsSession {
				require.NotNil(t, session)
				assert.Equal(t, -1, session.MaxAge)
			} else {
				assert.Nil(t, session)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtService := jwt_internal.New("test_secret", time.Hour)
	token, _ := jwtService.NewToken(domain.Moderator{Id: "m1", Role: domain.RoleAdmin})
	auth := NewAuth(jwtService, AuthConfig{CookieName: "accessToken", LoginURL: "/login"})

	var seen *domain.Moderator
	handler := auth.OptionalAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetModeratorFromContext(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ask", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, seen)

	req = httptest.NewRequest(http.MethodGet, "/ask", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, domain.RoleAdmin, seen.Role)
}
