package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/safespace-dev/safespace/internal/domain"
	"github.com/safespace-dev/safespace/internal/logger"
	"github.com/safespace-dev/safespace/internal/middleware"
)

// CommonTemplateData holds fields every page uses; templates reach it via
// .Common.
type CommonTemplateData struct {
	Error     string
	Success   string
	Moderator *domain.Moderator
	CSRFToken string
	// BannerTTLms drives the success banner auto-hide script.
	BannerTTLms int64
	Now         time.Time
}

// TemplateData wraps page-specific data with common template data.
type TemplateData struct {
	Data   any
	Common CommonTemplateData
}

// QuestionView is a question ready for display. The body is always escaped
// by html/template; only the answer goes through markdown.
type QuestionView struct {
	domain.Question
	AnswerHTML template.HTML
	Editing    bool
}

func (h *Handler) initCommonTemplateData(w http.ResponseWriter, r *http.Request) CommonTemplateData {
	return CommonTemplateData{
		Error:       h.popFlash(w, r, flashCookieError),
		Success:     h.popFlash(w, r, flashCookieSuccess),
		Moderator:   middleware.GetModeratorFromContext(r),
		CSRFToken:   middleware.CSRFToken(r),
		BannerTTLms: h.Public.BannerTTL.Milliseconds(),
		Now:         time.Now(),
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderTemplateWithError(w, r, http.StatusOK, name, data, "")
}

func (h *Handler) renderTemplateWithError(w http.ResponseWriter, r *http.Request, status int, name string, data any, errMsg string) {
	tmpl, ok := h.getTemplate(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	common := h.initCommonTemplateData(w, r)
	if errMsg != "" {
		common.Error = errMsg
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, TemplateData{Data: data, Common: common}); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderQuestion(q domain.Question) QuestionView {
	v := QuestionView{Question: q}
	if q.Answer != nil {
		v.AnswerHTML = h.TextProcessor.Render(q.Answer.Content)
	}
	return v
}

func (h *Handler) renderQuestions(questions []domain.Question) []QuestionView {
	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		views[i] = h.renderQuestion(q)
	}
	return views
}
