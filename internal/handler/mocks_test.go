package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safespace-dev/safespace/internal/config"
	"github.com/safespace-dev/safespace/internal/domain"
	"github.com/safespace-dev/safespace/internal/markdown"
	"github.com/safespace-dev/safespace/internal/middleware"
	"github.com/safespace-dev/safespace/web"
)

// MockGateway is a function-field mock of QuestionGateway. Calls to unset
// functions fail loudly through a panic; the counters are safe for the
// concurrent fetches the views make.
type MockGateway struct {
	SubmitQuestionFunc      func(ctx context.Context, body string, category domain.Category) (domain.Question, error)
	ListPublicQuestionsFunc func(ctx context.Context) ([]domain.Question, error)
	ListAllQuestionsFunc    func(ctx context.Context, cookies ...*http.Cookie) ([]domain.Question, error)
	GetStatsFunc            func(ctx context.Context, cookies ...*http.Cookie) domain.Stats
	AnswerQuestionFunc      func(ctx context.Context, id domain.QuestionId, content string, cookies ...*http.Cookie) (domain.Question, error)
	DeleteQuestionFunc      func(ctx context.Context, id domain.QuestionId, cookies ...*http.Cookie) error
	PingFunc                func(ctx context.Context) error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockGateway) count(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *MockGateway) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockGateway) SubmitQuestion(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
	m.count("SubmitQuestion")
	return m.SubmitQuestionFunc(ctx, body, category)
}

func (m *MockGateway) ListPublicQuestions(ctx context.Context) ([]domain.Question, error) {
	m.count("ListPublicQuestions")
	if m.ListPublicQuestionsFunc == nil {
		return []domain.Question{}, nil
	}
	return m.ListPublicQuestionsFunc(ctx)
}

func (m *MockGateway) ListAllQuestions(ctx context.Context, cookies ...*http.Cookie) ([]domain.Question, error) {
	m.count("ListAllQuestions")
	if m.ListAllQuestionsFunc == nil {
		return []domain.Question{}, nil
	}
	return m.ListAllQuestionsFunc(ctx, cookies...)
}

func (m *MockGateway) GetStats(ctx context.Context, cookies ...*http.Cookie) domain.Stats {
	m.count("GetStats")
	if m.GetStatsFunc == nil {
		return domain.Stats{}
	}
	return m.GetStatsFunc(ctx, cookies...)
}

func (m *MockGateway) AnswerQuestion(ctx context.Context, id domain.QuestionId, content string, cookies ...*http.Cookie) (domain.Question, error) {
	m.count("AnswerQuestion")
	return m.AnswerQuestionFunc(ctx, id, content, cookies...)
}

func (m *MockGateway) DeleteQuestion(ctx context.Context, id domain.QuestionId, cookies ...*http.Cookie) error {
	m.count("DeleteQuestion")
	return m.DeleteQuestionFunc(ctx, id, cookies...)
}

func (m *MockGateway) Ping(ctx context.Context) error {
	m.count("Ping")
	return m.PingFunc(ctx)
}

type MockCounts struct {
	CountMembersFunc func(ctx context.Context, cookies ...*http.Cookie) (int, error)
	CountEventsFunc  func(ctx context.Context, cookies ...*http.Cookie) (int, error)
	CountStoriesFunc func(ctx context.Context, cookies ...*http.Cookie) (int, error)
}

func (m *MockCounts) CountMembers(ctx context.Context, cookies ...*http.Cookie) (int, error) {
	return m.CountMembersFunc(ctx, cookies...)
}

func (m *MockCounts) CountEvents(ctx context.Context, cookies ...*http.Cookie) (int, error) {
	return m.CountEventsFunc(ctx, cookies...)
}

func (m *MockCounts) CountStories(ctx context.Context, cookies ...*http.Cookie) (int, error) {
	return m.CountStoriesFunc(ctx, cookies...)
}

func testPublicConfig() config.Public {
	return config.Public{
		SessionCookieName:    "accessToken",
		LoginURL:             "/login",
		Categories:           domain.DefaultCategories,
		AnsweredDisplayLimit: 10,
		BannerTTL:            5 * time.Second,
		SubmissionRate:       1,
		SubmissionBurst:      5,
		SubmissionTokenTTL:   time.Hour,
	}
}

func newTestHandler(t *testing.T, gw QuestionGateway, counts CountsClient) *Handler {
	t.Helper()
	templates, err := LoadTemplates(web.Templates)
	require.NoError(t, err)
	return New(templates, testPublicConfig(), markdown.New(), gw, counts, NewSubmissionGuard(time.Hour), nil)
}

var testModerator = &domain.Moderator{Id: "m1", Role: domain.RoleModerator, Token: "session-token"}

// moderatorRequest builds a request as the router would hand it over after
// NeedModerator, with chi URL params set.
func moderatorRequest(method, target string, form url.Values, params map[string]string) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = withURLParams(req, params)
	return middleware.WithModerator(req, testModerator)
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func answered(id, body, category, answer string, at time.Time) domain.Question {
	return domain.Question{
		Id:        id,
		Body:      body,
		Category:  category,
		Status:    domain.StatusAnswered,
		Answer:    &domain.Answer{Content: answer, AnsweredAt: at},
		CreatedAt: at.Add(-time.Hour),
		UpdatedAt: at,
	}
}

func pending(id, body, category string, at time.Time) domain.Question {
	return domain.Question{
		Id:        id,
		Body:      body,
		Category:  category,
		Status:    domain.StatusPending,
		CreatedAt: at,
		UpdatedAt: at,
	}
}
