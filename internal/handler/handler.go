package handler

import (
	"context"
	"html/template"
	"net/http"
	"sync"

	"github.com/safespace-dev/safespace/internal/config"
	"github.com/safespace-dev/safespace/internal/domain"
	"github.com/safespace-dev/safespace/internal/markdown"
	"github.com/safespace-dev/safespace/internal/middleware/ratelimiter"
)

// QuestionGateway is the subset of the API client the views use.
type QuestionGateway interface {
	SubmitQuestion(ctx context.Context, body string, category domain.Category) (domain.Question, error)
	ListPublicQuestions(ctx context.Context) ([]domain.Question, error)
	ListAllQuestions(ctx context.Context, cookies ...*http.Cookie) ([]domain.Question, error)
	GetStats(ctx context.Context, cookies ...*http.Cookie) domain.Stats
	AnswerQuestion(ctx context.Context, id domain.QuestionId, content string, cookies ...*http.Cookie) (domain.Question, error)
	DeleteQuestion(ctx context.Context, id domain.QuestionId, cookies ...*http.Cookie) error
	Ping(ctx context.Context) error
}

// CountsClient fetches the totals of the platform's other sections.
type CountsClient interface {
	CountMembers(ctx context.Context, cookies ...*http.Cookie) (int, error)
	CountEvents(ctx context.Context, cookies ...*http.Cookie) (int, error)
	CountStories(ctx context.Context, cookies ...*http.Cookie) (int, error)
}

type Handler struct {
	mu        sync.RWMutex
	templates map[string]*template.Template

	Public        config.Public
	TextProcessor *markdown.TextProcessor
	Questions     QuestionGateway
	Counts        CountsClient
	Guard         *SubmissionGuard
	Limiter       *ratelimiter.ClientRateLimiter
}

func New(templates map[string]*template.Template, publicCfg config.Public, textProcessor *markdown.TextProcessor, questions QuestionGateway, counts CountsClient, guard *SubmissionGuard, limiter *ratelimiter.ClientRateLimiter) *Handler {
	return &Handler{
		templates:     templates,
		Public:        publicCfg,
		TextProcessor: textProcessor,
		Questions:     questions,
		Counts:        counts,
		Guard:         guard,
		Limiter:       limiter,
	}
}

// SetTemplates swaps the template set; used by the development reloader.
func (h *Handler) SetTemplates(templates map[string]*template.Template) {
	h.mu.Lock()
	h.templates = templates
	h.mu.Unlock()
}

func (h *Handler) getTemplate(name string) (*template.Template, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.templates[name]
	return t, ok
}
