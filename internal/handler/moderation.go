package handler

import (
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/safespace-dev/safespace/internal/apiclient"
	"github.com/safespace-dev/safespace/internal/domain"
	internal_errors "github.com/safespace-dev/safespace/internal/errors"
	"github.com/safespace-dev/safespace/internal/logger"
	"github.com/safespace-dev/safespace/internal/middleware"
	"github.com/safespace-dev/safespace/internal/middleware/metrics"
)

const (
	moderationPath       = "/admin/questions"
	moderationTemplate   = "moderation.html"
	confirmTemplate      = "confirm_delete.html"
	emptyDraftMsg        = "Write an answer before submitting."
	answerTooLongMsg     = "This answer is too long. Please shorten it."
	answerPublishedMsg   = "Answer published."
	questionDeletedMsg   = "Question deleted."
	questionsLoadFailMsg = "Questions could not be loaded. Refresh to try again."
)

type moderationPageData struct {
	Pending  []QuestionView
	Answered []QuestionView
	Stats    domain.Stats
	// EditingId is the one pending question with an open draft, if any.
	EditingId     domain.QuestionId
	Draft         string
	AnsweredLimit int
	AnswerMaxLen  int
	LoadError     string
}

type confirmDeletePageData struct {
	Id       domain.QuestionId
	Question *QuestionView
}

func (h *Handler) sessionCookies(r *http.Request) []*http.Cookie {
	m := middleware.GetModeratorFromContext(r)
	if m == nil || m.Token == "" {
		return nil
	}
	return []*http.Cookie{apiclient.CookieFromToken(h.Public.SessionCookieName, m.Token)}
}

// ModerationGetHandler lists pending and answered questions. The answering
// query parameter opens an empty draft for that question; opening another
// one replaces it.
func (h *Handler) ModerationGetHandler(w http.ResponseWriter, r *http.Request) {
	h.renderModeration(w, r, http.StatusOK, r.URL.Query().Get("answering"), "", "")
}

func (h *Handler) renderModeration(w http.ResponseWriter, r *http.Request, status int, editingId domain.QuestionId, draft, errMsg string) {
	data := h.loadModeration(r, editingId)
	if data.EditingId != "" {
		data.Draft = draft
	}
	if errMsg == "" && data.LoadError != "" {
		errMsg = data.LoadError
	}
	h.renderTemplateWithError(w, r, status, moderationTemplate, data, errMsg)
}

func (h *Handler) loadModeration(r *http.Request, editingId domain.QuestionId) moderationPageData {
	cookies := h.sessionCookies(r)
	data := moderationPageData{
		Pending:       []QuestionView{},
		Answered:      []QuestionView{},
		AnsweredLimit: h.Public.AnsweredDisplayLimit,
		AnswerMaxLen:  domain.AnswerMaxLen,
	}

	var (
		questions []domain.Question
		listErr   error
		stats     domain.Stats
	)
	loadConcurrently(
		func() { questions, listErr = h.Questions.ListAllQuestions(r.Context(), cookies...) },
		func() { stats = h.Questions.GetStats(r.Context(), cookies...) },
	)
	data.Stats = stats

	if listErr != nil {
		logger.Log.Warn("moderation list unavailable", "error", listErr)
		data.LoadError = questionsLoadFailMsg
		if internal_errors.Is(listErr, internal_errors.KindAuth) {
			data.LoadError = internal_errors.FriendlyMessage(listErr)
		}
		return data
	}

	pending, answered := domain.Partition(questions, h.Public.AnsweredDisplayLimit)
	data.Pending = h.renderQuestions(pending)
	data.Answered = h.renderQuestions(answered)

	// a stale or answered id leaves every question idle
	for i := range data.Pending {
		if data.Pending[i].Id == editingId && editingId != "" {
			data.Pending[i].Editing = true
			data.EditingId = editingId
		}
	}
	return data
}

// AnswerPostHandler publishes the draft. A blank draft makes no remote call
// and keeps the draft open.
func (h *Handler) AnswerPostHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, moderationPath, flashCookieError, "Invalid form data.")
		return
	}
	draft := r.PostFormValue("answer")

	if !h.TextProcessor.HasPayload(draft) {
		metrics.ModerationActionsTotal.WithLabelValues("answer", "empty").Inc()
		h.renderModeration(w, r, http.StatusUnprocessableEntity, id, draft, emptyDraftMsg)
		return
	}
	if utf8.RuneCountInString(draft) > domain.AnswerMaxLen {
		metrics.ModerationActionsTotal.WithLabelValues("answer", "rejected").Inc()
		h.renderModeration(w, r, http.StatusUnprocessableEntity, id, draft, answerTooLongMsg)
		return
	}

	_, err := h.Questions.AnswerQuestion(r.Context(), id, strings.TrimSpace(draft), h.sessionCookies(r)...)
	if err != nil {
		kind := internal_errors.KindOf(err)
		metrics.ModerationActionsTotal.WithLabelValues("answer", kind.String()).Inc()
		logger.Log.Warn("answer failed", "id", id, "kind", kind.String(), "error", err)
		if kind == internal_errors.KindNotFound {
			// the question is gone; nothing left to keep the draft for
			h.redirectWithFlash(w, r, moderationPath, flashCookieError, internal_errors.FriendlyMessage(err))
			return
		}
		h.renderModeration(w, r, statusForKind(kind), id, draft, internal_errors.FriendlyMessage(err))
		return
	}

	metrics.ModerationActionsTotal.WithLabelValues("answer", "ok").Inc()
	logger.Log.Info("question answered", "id", id, "moderator", moderatorId(r))
	h.redirectWithFlash(w, r, moderationPath, flashCookieSuccess, answerPublishedMsg)
}

// ConfirmDeleteHandler asks before deleting. The question text is shown when
// it can be found.
func (h *Handler) ConfirmDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data := confirmDeletePageData{Id: id}

	questions, err := h.Questions.ListAllQuestions(r.Context(), h.sessionCookies(r)...)
	if err != nil {
		logger.Log.Debug("question lookup for delete prompt failed", "id", id, "error", err)
	}
	for _, q := range questions {
		if q.Id == id {
			v := h.renderQuestion(q)
			data.Question = &v
			break
		}
	}
	h.renderTemplate(w, r, confirmTemplate, data)
}

// DeletePostHandler deletes only with confirm=yes; anything else is a
// declined prompt and sends nothing. A question that is already gone counts
// as deleted.
func (h *Handler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil || r.PostFormValue("confirm") != "yes" {
		metrics.ModerationActionsTotal.WithLabelValues("delete", "declined").Inc()
		http.Redirect(w, r, moderationPath, http.StatusSeeOther)
		return
	}

	err := h.Questions.DeleteQuestion(r.Context(), id, h.sessionCookies(r)...)
	switch {
	case err == nil:
		metrics.ModerationActionsTotal.WithLabelValues("delete", "ok").Inc()
		logger.Log.Info("question deleted", "id", id, "moderator", moderatorId(r))
	case internal_errors.Is(err, internal_errors.KindNotFound):
		metrics.ModerationActionsTotal.WithLabelValues("delete", "gone").Inc()
		logger.Log.Info("question already deleted", "id", id)
	default:
		kind := internal_errors.KindOf(err)
		metrics.ModerationActionsTotal.WithLabelValues("delete", kind.String()).Inc()
		logger.Log.Warn("delete failed", "id", id, "kind", kind.String(), "error", err)
		h.redirectWithFlash(w, r, moderationPath, flashCookieError, internal_errors.FriendlyMessage(err))
		return
	}
	h.redirectWithFlash(w, r, moderationPath, flashCookieSuccess, questionDeletedMsg)
}

func moderatorId(r *http.Request) string {
	if m := middleware.GetModeratorFromContext(r); m != nil {
		return m.Id
	}
	return ""
}

// AnsweringURL links to the page with a draft open for id.
func AnsweringURL(id domain.QuestionId) string {
	return moderationPath + "?answering=" + url.QueryEscape(id) + "#q-" + url.PathEscape(id)
}
