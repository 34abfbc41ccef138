package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safespace-dev/safespace/internal/api"
	"github.com/safespace-dev/safespace/internal/domain"
	internal_errors "github.com/safespace-dev/safespace/internal/errors"
	"github.com/safespace-dev/safespace/internal/logger"
)

const questionsPath = "/anonymous-questions"

const (
	opSubmit   = "submit question"
	opList     = "list questions"
	opStats    = "get stats"
	opAnswer   = "answer question"
	opDelete   = "delete question"
	opPing     = "ping"
	questionsK = "questions"
	questionK  = "question"
)

func questionPath(id domain.QuestionId, suffix string) string {
	return questionsPath + "/" + url.PathEscape(id) + suffix
}

// SubmitQuestion creates an anonymous question. No cookies or other
// identifying data are sent, whatever the caller holds.
func (c *APIClient) SubmitQuestion(ctx context.Context, body string, category domain.Category) (domain.Question, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Question{}, &internal_errors.APIError{Op: opSubmit, Kind: internal_errors.KindValidation, Message: "Please write your question before sending."}
	}
	if category == "" {
		return domain.Question{}, &internal_errors.APIError{Op: opSubmit, Kind: internal_errors.KindValidation, Message: "Please choose a category."}
	}

	payload, err := c.call(ctx, opSubmit, http.MethodPost, questionsPath, api.SubmitQuestionRequest{Question: body, Category: category})
	if err != nil {
		return domain.Question{}, err
	}

	question, ok := decodeQuestion(payload)
	if !ok {
		// Created but echoed nothing usable; what we know is enough for the caller.
		return domain.Question{Body: body, Category: category, Status: domain.StatusPending, CreatedAt: time.Now()}, nil
	}
	if err := question.Validate(); err != nil {
		return domain.Question{}, inconsistent(opSubmit, err)
	}
	return question, nil
}

// ListPublicQuestions returns what the API exposes publicly. It does not
// filter by status; callers showing the list must use domain.FilterAnswered.
func (c *APIClient) ListPublicQuestions(ctx context.Context) ([]domain.Question, error) {
	return c.listQuestions(ctx)
}

// ListAllQuestions returns the full corpus. The API requires a moderator
// session, carried by cookies.
func (c *APIClient) ListAllQuestions(ctx context.Context, cookies ...*http.Cookie) ([]domain.Question, error) {
	return c.listQuestions(ctx, cookies...)
}

func (c *APIClient) listQuestions(ctx context.Context, cookies ...*http.Cookie) ([]domain.Question, error) {
	payload, err := c.call(ctx, opList, http.MethodGet, questionsPath, nil, cookies...)
	if err != nil {
		return nil, err
	}

	responses, _ := decodeList[api.QuestionResponse](payload, questionsK)
	questions := make([]domain.Question, 0, len(responses))
	for _, r := range responses {
		q := normalizeQuestion(r.ToDomain())
		if err := q.Validate(); err != nil {
			logger.Log.Warn("dropping inconsistent question from list", "error", err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// FetchStats returns the remote stats snapshot or the error that prevented it.
func (c *APIClient) FetchStats(ctx context.Context, cookies ...*http.Cookie) (domain.Stats, error) {
	payload, err := c.call(ctx, opStats, http.MethodGet, questionsPath+"/stats", nil, cookies...)
	if err != nil {
		return domain.Stats{}, err
	}
	stats, ok := decodeItem[api.StatsResponse](payload, "stats")
	if !ok {
		return domain.Stats{}, &internal_errors.APIError{Op: opStats, Kind: internal_errors.KindServer, Message: "unexpected stats payload"}
	}
	return stats.ToDomain(), nil
}

// GetStats is the best-effort variant used by views: failures are logged and
// a zeroed snapshot is returned.
func (c *APIClient) GetStats(ctx context.Context, cookies ...*http.Cookie) domain.Stats {
	stats, err := c.FetchStats(ctx, cookies...)
	if err != nil {
		logger.Log.Warn("stats unavailable, using zero snapshot", "error", err)
		return domain.Stats{}
	}
	return stats
}

// AnswerQuestion attaches an answer to a pending question. Blank content is
// rejected without contacting the API.
func (c *APIClient) AnswerQuestion(ctx context.Context, id domain.QuestionId, content string, cookies ...*http.Cookie) (domain.Question, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Question{}, &internal_errors.APIError{Op: opAnswer, Kind: internal_errors.KindValidation, Message: "The answer cannot be empty."}
	}
	if id == "" {
		return domain.Question{}, &internal_errors.APIError{Op: opAnswer, Kind: internal_errors.KindNotFound, Message: "question id is missing"}
	}

	payload, err := c.call(ctx, opAnswer, http.MethodPost, questionPath(id, "/answer"), api.AnswerQuestionRequest{Answer: content}, cookies...)
	if err != nil {
		return domain.Question{}, err
	}

	question, ok := decodeQuestion(payload)
	if !ok {
		now := time.Now()
		return domain.Question{
			Id:        id,
			Status:    domain.StatusAnswered,
			Answer:    &domain.Answer{Content: content, AnsweredAt: now},
			UpdatedAt: now,
		}, nil
	}
	if err := question.Validate(); err != nil {
		return domain.Question{}, inconsistent(opAnswer, err)
	}
	if !question.IsAnswered() {
		return domain.Question{}, inconsistent(opAnswer, fmt.Errorf("question %s is still %s after answering", id, question.Status))
	}
	return question, nil
}

// DeleteQuestion removes a question permanently. A missing id surfaces as
// errors.KindNotFound; whether that counts as success is up to the caller.
func (c *APIClient) DeleteQuestion(ctx context.Context, id domain.QuestionId, cookies ...*http.Cookie) error {
	if id == "" {
		return &internal_errors.APIError{Op: opDelete, Kind: internal_errors.KindNotFound, Message: "question id is missing"}
	}
	_, err := c.call(ctx, opDelete, http.MethodDelete, questionPath(id, ""), nil, cookies...)
	return err
}

// Ping reports whether the API answers at all. Any HTTP response counts,
// including auth failures.
func (c *APIClient) Ping(ctx context.Context) error {
	_, err := c.call(ctx, opPing, http.MethodGet, questionsPath+"/stats", nil)
	if internal_errors.Is(err, internal_errors.KindNetwork) {
		return err
	}
	return nil
}

func decodeQuestion(payload json.RawMessage) (domain.Question, bool) {
	resp, ok := decodeItem[api.QuestionResponse](payload, questionK)
	if !ok || (resp.Id == "" && resp.MongoId == "") {
		return domain.Question{}, false
	}
	return normalizeQuestion(resp.ToDomain()), true
}

// normalizeQuestion fills a missing status from the presence of an answer.
func normalizeQuestion(q domain.Question) domain.Question {
	if q.Status == "" {
		if q.Answer != nil {
			q.Status = domain.StatusAnswered
		} else {
			q.Status = domain.StatusPending
		}
	}
	return q
}

func inconsistent(op string, err error) error {
	return &internal_errors.APIError{Op: op, Kind: internal_errors.KindServer, Message: "inconsistent question", Err: err}
}
