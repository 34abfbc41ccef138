package handler

import (
	"context"
	"errors"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safespace-dev/safespace/internal/domain"
	internal_errors "github.com/safespace-dev/safespace/internal/errors"
	"github.com/safespace-dev/safespace/internal/middleware/ratelimiter"
)

var tokenInput = regexp.MustCompile(`name="token" value="([^"]+)"`)

func formToken(t *testing.T, body string) string {
	t.Helper()
	m := tokenInput.FindStringSubmatch(body)
	require.Len(t, m, 2, "form token not rendered")
	return m[1]
}

func TestAskGetHandler(t *testing.T) {
	now := time.Now()

	t.Run("renders form and only answered questions", func(t *testing.T) {
		gw := &MockGateway{
			ListPublicQuestionsFunc: func(ctx context.Context) ([]domain.Question, error) {
				// the server is expected to filter, but may not
				return []domain.Question{
					pending("p1", "Still waiting here", "Testing", now),
					answered("a1", "Is PrEP safe?", "Prevention", "Yes, when taken as **prescribed**.", now),
				}, nil
			},
		}
		h := newTestHandler(t, gw, nil)

		w := httptest.NewRecorder()
		h.AskGetHandler(w, httptest.NewRequest(http.MethodGet, "/ask", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `<form method="post" action="/ask"`)
		for _, c := range domain.DefaultCategories {
			assert.Contains(t, body, html.EscapeString(c))
		}
		assert.Contains(t, body, "Is PrEP safe?")
		assert.Contains(t, body, "<strong>prescribed</strong>")
		assert.NotContains(t, body, "Still waiting here")
		formToken(t, body)
	})

	t.Run("board failure keeps the form usable", func(t *testing.T) {
		gw := &MockGateway{
			ListPublicQuestionsFunc: func(ctx context.Context) ([]domain.Question, error) {
				return nil, &internal_errors.APIError{Kind: internal_errors.KindNetwork}
			},
		}
		h := newTestHandler(t, gw, nil)

		w := httptest.NewRecorder()
		h.AskGetHandler(w, httptest.NewRequest(http.MethodGet, "/ask", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), boardErrorMsg)
		assert.Contains(t, w.Body.String(), `name="question"`)
	})

	t.Run("success flash shows the auto-hiding banner", func(t *testing.T) {
		h := newTestHandler(t, &MockGateway{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/ask", nil)
		w := httptest.NewRecorder()
		h.redirectWithFlash(w, req, askPath, flashCookieSuccess, submittedMsg)
		flash := cookieByName(w.Result().Cookies(), flashCookieSuccess)
		require.NotNil(t, flash)

		req = httptest.NewRequest(http.MethodGet, "/ask", nil)
		req.AddCookie(flash)
		w = httptest.NewRecorder()
		h.AskGetHandler(w, req)

		assert.Contains(t, w.Body.String(), `data-autohide="5000"`)
		assert.Contains(t, w.Body.String(), html.EscapeString(submittedMsg))
		cleared := cookieByName(w.Result().Cookies(), flashCookieSuccess)
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
	})
}

func TestAskPostHandler(t *testing.T) {
	validForm := func(token string) url.Values {
		return url.Values{
			"question": {"  Is PrEP safe?  "},
			"category": {"Prevention"},
			"token":    {token},
		}
	}

	t.Run("submits trimmed question and redirects", func(t *testing.T) {
		gw := &MockGateway{
			SubmitQuestionFunc: func(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
				assert.Equal(t, "Is PrEP safe?", body)
				assert.Equal(t, "Prevention", category)
				return domain.Question{Id: "q1", Body: body, Category: category, Status: domain.StatusPending}, nil
			},
		}
		h := newTestHandler(t, gw, nil)

		w := httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", validForm(h.Guard.Issue())))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/ask", w.Header().Get("Location"))
		assert.NotNil(t, cookieByName(w.Result().Cookies(), flashCookieSuccess))
		assert.Equal(t, 1, gw.Calls("SubmitQuestion"))
	})

	t.Run("blank question makes no remote call", func(t *testing.T) {
		gw := &MockGateway{}
		h := newTestHandler(t, gw, nil)

		form := validForm(h.Guard.Issue())
		form.Set("question", "   \n\t ")
		w := httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", form))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), emptyBodyMsg)
		assert.Equal(t, 0, gw.Calls("SubmitQuestion"))
	})

	t.Run("unknown category is rejected", func(t *testing.T) {
		gw := &MockGateway{}
		h := newTestHandler(t, gw, nil)

		form := validForm(h.Guard.Issue())
		form.Set("category", "Gossip")
		w := httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", form))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), badCategoryMsg)
		assert.Contains(t, w.Body.String(), "Is PrEP safe?", "entered text is kept")
		assert.Equal(t, 0, gw.Calls("SubmitQuestion"))
	})

	t.Run("gateway failure keeps the entered text", func(t *testing.T) {
		gw := &MockGateway{
			SubmitQuestionFunc: func(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
				return domain.Question{}, &internal_errors.APIError{Kind: internal_errors.KindServer, StatusCode: 500, Message: "panic: nil map"}
			},
		}
		h := newTestHandler(t, gw, nil)

		w := httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", validForm(h.Guard.Issue())))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, html.EscapeString(internal_errors.FriendlyMessage(&internal_errors.APIError{Kind: internal_errors.KindServer})))
		assert.NotContains(t, body, "panic")
		assert.Contains(t, body, "Is PrEP safe?")
		assert.Contains(t, body, `value="Prevention" selected`)
	})

	t.Run("failed send can be retried with the same form", func(t *testing.T) {
		fail := true
		gw := &MockGateway{
			SubmitQuestionFunc: func(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
				if fail {
					return domain.Question{}, &internal_errors.APIError{Kind: internal_errors.KindNetwork}
				}
				return domain.Question{Id: "q1", Status: domain.StatusPending}, nil
			},
		}
		h := newTestHandler(t, gw, nil)
		token := h.Guard.Issue()

		w := httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", validForm(token)))
		require.Equal(t, http.StatusBadGateway, w.Code)

		fail = false
		w = httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", validForm(token)))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, 2, gw.Calls("SubmitQuestion"))
	})

	t.Run("duplicate send is forwarded once", func(t *testing.T) {
		gw := &MockGateway{
			SubmitQuestionFunc: func(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
				return domain.Question{Id: "q1", Status: domain.StatusPending}, nil
			},
		}
		h := newTestHandler(t, gw, nil)
		token := h.Guard.Issue()

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", validForm(token)))
			assert.Equal(t, http.StatusSeeOther, w.Code)
		}
		assert.Equal(t, 1, gw.Calls("SubmitQuestion"))
	})

	t.Run("forged token is rejected", func(t *testing.T) {
		gw := &MockGateway{}
		h := newTestHandler(t, gw, nil)

		w := httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", validForm("not-a-token")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), expiredFormMsg)
		assert.Equal(t, 0, gw.Calls("SubmitQuestion"))
	})

	t.Run("rate limited per client", func(t *testing.T) {
		gw := &MockGateway{
			SubmitQuestionFunc: func(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
				return domain.Question{Id: "q1", Status: domain.StatusPending}, nil
			},
		}
		h := newTestHandler(t, gw, nil)
		h.Limiter = ratelimiter.New(0.001, 1, time.Hour)

		w := httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", validForm(h.Guard.Issue())))
		require.Equal(t, http.StatusSeeOther, w.Code)

		w = httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", validForm(h.Guard.Issue())))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), tooFastMsg)
		assert.Equal(t, 1, gw.Calls("SubmitQuestion"))
	})
}

func TestAskPostHandler_ConcurrentDuplicate(t *testing.T) {
	validForm := func(token string) url.Values {
		return url.Values{"question": {"Is PrEP safe?"}, "category": {"Prevention"}, "token": {token}}
	}

	t.Run("aborted first send still reaches the API", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		var sendCtxErr error
		gw := &MockGateway{
			SubmitQuestionFunc: func(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
				close(started)
				<-release
				sendCtxErr = ctx.Err()
				if sendCtxErr != nil {
					return domain.Question{}, &internal_errors.APIError{Kind: internal_errors.KindNetwork, Err: sendCtxErr}
				}
				return domain.Question{Id: "q1", Status: domain.StatusPending}, nil
			},
		}
		h := newTestHandler(t, gw, nil)
		token := h.Guard.Issue()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		first := httptest.NewRecorder()
		second := httptest.NewRecorder()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.AskPostHandler(first, formRequest(http.MethodPost, "/ask", validForm(token)).WithContext(ctx))
		}()
		<-started

		wg.Add(1)
		go func() {
			defer wg.Done()
			h.AskPostHandler(second, formRequest(http.MethodPost, "/ask", validForm(token)))
		}()

		cancel()
		close(release)
		wg.Wait()

		assert.NoError(t, sendCtxErr)
		assert.Equal(t, http.StatusSeeOther, first.Code)
		assert.Equal(t, http.StatusSeeOther, second.Code)
		assert.NotNil(t, cookieByName(second.Result().Cookies(), flashCookieSuccess))
		assert.Equal(t, 1, gw.Calls("SubmitQuestion"))
	})

	t.Run("duplicate of a failed send is not reported as sent", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		gw := &MockGateway{
			SubmitQuestionFunc: func(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
				once.Do(func() { close(started) })
				<-release
				return domain.Question{}, &internal_errors.APIError{Kind: internal_errors.KindServer, StatusCode: 500}
			},
		}
		h := newTestHandler(t, gw, nil)
		token := h.Guard.Issue()

		first := httptest.NewRecorder()
		second := httptest.NewRecorder()
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.AskPostHandler(first, formRequest(http.MethodPost, "/ask", validForm(token)))
		}()
		<-started

		wg.Add(1)
		go func() {
			defer wg.Done()
			h.AskPostHandler(second, formRequest(http.MethodPost, "/ask", validForm(token)))
		}()

		close(release)
		wg.Wait()

		assert.Equal(t, http.StatusBadGateway, first.Code)
		// the second request either waited on the failure or claimed the
		// released token itself; it never claims success
		assert.NotEqual(t, http.StatusSeeOther, second.Code)
		assert.Nil(t, cookieByName(second.Result().Cookies(), flashCookieSuccess))
		assert.Contains(t, second.Body.String(), "Is PrEP safe?", "entered text is kept")
	})
}

func TestAskPostHandler_RateLimitSpentOnlyOnSends(t *testing.T) {
	gw := &MockGateway{
		SubmitQuestionFunc: func(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
			return domain.Question{Id: "q1", Status: domain.StatusPending}, nil
		},
	}
	h := newTestHandler(t, gw, nil)
	h.Limiter = ratelimiter.New(0.001, 2, time.Hour)

	post := func(question, token string) int {
		w := httptest.NewRecorder()
		h.AskPostHandler(w, formRequest(http.MethodPost, "/ask", url.Values{
			"question": {question},
			"category": {"Prevention"},
			"token":    {token},
		}))
		return w.Code
	}

	first := h.Guard.Issue()
	require.Equal(t, http.StatusSeeOther, post("Is PrEP safe?", first))
	require.Equal(t, http.StatusSeeOther, post("Is PrEP safe?", first), "duplicate")
	require.Equal(t, http.StatusUnprocessableEntity, post("   ", h.Guard.Issue()), "invalid")
	require.Equal(t, http.StatusSeeOther, post("How often should I test?", h.Guard.Issue()))
	assert.Equal(t, http.StatusTooManyRequests, post("One more?", h.Guard.Issue()))
	assert.Equal(t, 2, gw.Calls("SubmitQuestion"))
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusForKind(internal_errors.KindValidation))
	assert.Equal(t, http.StatusBadGateway, statusForKind(internal_errors.KindNetwork))
	assert.Equal(t, http.StatusNotFound, statusForKind(internal_errors.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(internal_errors.KindOf(errors.New("x"))))
}
