package handler

import (
	"net/http"
	"strconv"

	"github.com/safespace-dev/safespace/internal/api"
	"github.com/safespace-dev/safespace/internal/domain"
	internal_errors "github.com/safespace-dev/safespace/internal/errors"
	"github.com/safespace-dev/safespace/internal/logger"
	"github.com/safespace-dev/safespace/internal/utils"
)

const maxFeedLimit = 100

// AnsweredFeedHandler serves answered questions as JSON for embedding on
// other sites. Answers are the moderator's markdown source.
func (h *Handler) AnsweredFeedHandler(w http.ResponseWriter, r *http.Request) {
	limit := maxFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			utils.WriteErrorAndStatusCode(w, &internal_errors.ErrorWithStatusCode{Message: "limit must be a positive integer", StatusCode: http.StatusBadRequest})
			return
		}
		limit = min(n, maxFeedLimit)
	}
	category := r.URL.Query().Get("category")

	questions, err := h.Questions.ListPublicQuestions(r.Context())
	if err != nil {
		logger.Log.Warn("answered feed unavailable", "error", err)
		utils.WriteErrorAndStatusCode(w, &internal_errors.ErrorWithStatusCode{Message: internal_errors.FriendlyMessage(err), StatusCode: http.StatusBadGateway})
		return
	}

	answered := domain.FilterAnswered(questions)
	domain.SortByRecent(answered)

	resp := api.AnsweredFeedResponse{Questions: make([]api.AnsweredQuestionResponse, 0, len(answered))}
	for _, q := range answered {
		if category != "" && q.Category != category {
			continue
		}
		if len(resp.Questions) == limit {
			break
		}
		resp.Questions = append(resp.Questions, api.AnsweredQuestionResponse{
			Id:         q.Id,
			Category:   q.Category,
			Question:   q.Body,
			Answer:     q.Answer.Content,
			AskedAt:    q.CreatedAt,
			AnsweredAt: q.Answer.AnsweredAt,
		})
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	utils.WriteJSON(w, http.StatusOK, resp)
}
