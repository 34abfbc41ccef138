package api

import (
	"encoding/json"
	"time"

	"github.com/safespace-dev/safespace/internal/domain"
)

// Request DTOs

// SubmitQuestionRequest deliberately has no field that could identify the
// asker.
type SubmitQuestionRequest struct {
	Question string `json:"question" validate:"required"`
	Category string `json:"category" validate:"required"`
}

type AnswerQuestionRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// Response DTOs

// Envelope is the outer shape of every remote response. Data is kept raw so
// list payloads can be normalized afterwards.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type Pagination struct {
	TotalDocs  int `json:"totalDocs"`
	Page       int `json:"page,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`
}

type AnswerResponse struct {
	Content    string    `json:"content"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// QuestionResponse accepts both "_id" and "id", and an answer given either as
// an object or as a bare string.
type QuestionResponse struct {
	Id         string          `json:"id"`
	MongoId    string          `json:"_id"`
	Question   string          `json:"question"`
	Category   string          `json:"category"`
	Status     string          `json:"status"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	AnsweredAt *time.Time      `json:"answeredAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ToDomain converts the wire shape. The result is not validated.
func (q QuestionResponse) ToDomain() domain.Question {
	id := q.Id
	if id == "" {
		id = q.MongoId
	}
	question := domain.Question{
		Id:        id,
		Body:      q.Question,
		Category:  q.Category,
		Status:    domain.QuestionStatus(q.Status),
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
	if answer, ok := q.decodeAnswer(); ok {
		question.Answer = &answer
	}
	return question
}

func (q QuestionResponse) decodeAnswer() (domain.Answer, bool) {
	if len(q.Answer) == 0 || string(q.Answer) == "null" {
		return domain.Answer{}, false
	}

	var answer domain.Answer
	var obj AnswerResponse
	if err := json.Unmarshal(q.Answer, &obj); err == nil {
		answer = domain.Answer{Content: obj.Content, AnsweredAt: obj.AnsweredAt}
	} else {
		var text string
		if err := json.Unmarshal(q.Answer, &text); err != nil {
			return domain.Answer{}, false
		}
		answer = domain.Answer{Content: text}
	}

	if answer.Content == "" {
		return domain.Answer{}, false
	}
	if answer.AnsweredAt.IsZero() {
		if q.AnsweredAt != nil {
			answer.AnsweredAt = *q.AnsweredAt
		} else {
			answer.AnsweredAt = q.UpdatedAt
		}
	}
	return answer, true
}

type StatsResponse struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Answered int `json:"answered"`
}

func (s StatsResponse) ToDomain() domain.Stats {
	return domain.Stats{Total: s.Total, Pending: s.Pending, Answered: s.Answered}
}

// AnsweredQuestionResponse is one entry of the public JSON feed.
type AnsweredQuestionResponse struct {
	Id         string    `json:"id"`
	Category   string    `json:"category"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AskedAt    time.Time `json:"askedAt"`
	AnsweredAt time.Time `json:"answeredAt"`
}

type AnsweredFeedResponse struct {
	Questions []AnsweredQuestionResponse `json:"questions"`
}
