package handler

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/safespace-dev/safespace/internal/domain"
	internal_errors "github.com/safespace-dev/safespace/internal/errors"
	"github.com/safespace-dev/safespace/internal/logger"
	"github.com/safespace-dev/safespace/internal/middleware"
	"github.com/safespace-dev/safespace/internal/middleware/metrics"
	"github.com/safespace-dev/safespace/internal/utils"
)

const (
	askPath        = "/ask"
	askTemplate    = "ask.html"
	submittedMsg   = "Thank you. Your question was sent anonymously and will appear below once a moderator answers it."
	tooFastMsg     = "You are sending questions too quickly. Please wait a minute and try again."
	emptyBodyMsg   = "Please write your question before sending."
	tooLongMsg     = "Your question is too long. Please shorten it and try again."
	badCategoryMsg = "Please choose one of the listed categories."
	boardErrorMsg  = "Answered questions could not be loaded right now."
	expiredFormMsg = "This form has expired. Please send your question again."
	notSentMsg     = "Your question was not sent. Please try again."
)

// askForm is the submitted form after trimming.
type askForm struct {
	Question string `validate:"required"`
	Category string `validate:"required"`
	Token    string `validate:"required"`
}

type askPageData struct {
	Categories []domain.Category
	Token      string
	MaxLen     int
	// Entered values survive a failed send.
	Question   string
	Category   string
	Answered   []QuestionView
	BoardError string
}

// AskGetHandler renders the anonymous form and the answered board.
func (h *Handler) AskGetHandler(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, askTemplate, h.newAskPage(r))
}

// AskPostHandler forwards an anonymous question. Failures re-render the
// form with the entered text kept.
func (h *Handler) AskPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ErrorWithStatusCode{Message: "Invalid form data", StatusCode: http.StatusBadRequest})
		return
	}
	form := askForm{
		Question: strings.TrimSpace(r.PostFormValue("question")),
		Category: strings.TrimSpace(r.PostFormValue("category")),
		Token:    r.PostFormValue("token"),
	}

	fail := func(status int, msg, result string) {
		metrics.SubmissionsTotal.WithLabelValues(result).Inc()
		data := h.newAskPage(r)
		data.Question = r.PostFormValue("question")
		data.Category = form.Category
		h.renderTemplateWithError(w, r, status, askTemplate, data, msg)
	}

	if msg := h.checkAskForm(form); msg != "" {
		fail(http.StatusUnprocessableEntity, msg, "rejected")
		return
	}

	if !h.Guard.Valid(form.Token) {
		fail(http.StatusBadRequest, expiredFormMsg, "rejected")
		return
	}
	if !h.Guard.Claim(form.Token) {
		// the first send of this form is through or in flight; report its outcome
		metrics.SubmissionsTotal.WithLabelValues("duplicate").Inc()
		if h.Guard.Wait(r.Context(), form.Token) {
			h.redirectWithFlash(w, r, askPath, flashCookieSuccess, submittedMsg)
			return
		}
		if r.Context().Err() != nil {
			return
		}
		logger.Log.Info("duplicate of a failed submission")
		fail(http.StatusConflict, notSentMsg, "duplicate")
		return
	}
	sent := false
	defer func() { h.Guard.Settle(form.Token, sent) }()

	if h.Limiter != nil {
		ip, err := middleware.GetIP(r)
		if err == nil && !h.Limiter.Allow(ip) {
			h.Guard.Settle(form.Token, false)
			fail(http.StatusTooManyRequests, tooFastMsg, "limited")
			return
		}
	}

	// a resubmit aborts the first navigation; the send must still finish so
	// the duplicate waiting on it reports the truth
	ctx := context.WithoutCancel(r.Context())
	if _, err := h.Questions.SubmitQuestion(ctx, form.Question, form.Category); err != nil {
		logger.Log.Warn("question submission failed", "kind", internal_errors.KindOf(err).String(), "error", err)
		h.Guard.Settle(form.Token, false)
		fail(statusForKind(internal_errors.KindOf(err)), internal_errors.FriendlyMessage(err), "failed")
		return
	}
	sent = true

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	h.redirectWithFlash(w, r, askPath, flashCookieSuccess, submittedMsg)
}

func (h *Handler) checkAskForm(form askForm) string {
	if form.Question == "" {
		return emptyBodyMsg
	}
	if utf8.RuneCountInString(form.Question) > domain.QuestionMaxLen {
		return tooLongMsg
	}
	if !domain.ValidCategory(form.Category, h.Public.Categories) {
		return badCategoryMsg
	}
	if err := utils.Validate(&form); err != nil {
		return expiredFormMsg
	}
	return ""
}

// newAskPage fills everything independent of the form state. The board is
// best effort.
func (h *Handler) newAskPage(r *http.Request) askPageData {
	data := askPageData{
		Categories: h.Public.Categories,
		Token:      h.Guard.Issue(),
		MaxLen:     domain.QuestionMaxLen,
		Answered:   []QuestionView{},
	}

	questions, err := h.Questions.ListPublicQuestions(r.Context())
	if err != nil {
		logger.Log.Warn("answered board unavailable", "error", err)
		data.BoardError = boardErrorMsg
		return data
	}
	answered := domain.FilterAnswered(questions)
	domain.SortByRecent(answered)
	data.Answered = h.renderQuestions(answered)
	return data
}

func statusForKind(kind internal_errors.Kind) int {
	switch kind {
	case internal_errors.KindValidation:
		return http.StatusUnprocessableEntity
	case internal_errors.KindAuth:
		return http.StatusUnauthorized
	case internal_errors.KindNotFound:
		return http.StatusNotFound
	case internal_errors.KindNetwork, internal_errors.KindServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
