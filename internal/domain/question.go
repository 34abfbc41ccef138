package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAnsweredWithoutAnswer = errors.New("answered question has no answer")
	ErrPendingWithAnswer     = errors.New("pending question carries an answer")
)

type Answer struct {
	Content    string
	AnsweredAt time.Time
}

type Question struct {
	Id        QuestionId
	Body      string
	Category  Category
	Status    QuestionStatus
	Answer    *Answer // present iff Status == StatusAnswered
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Question) IsAnswered() bool {
	return q.Status == StatusAnswered
}

// Validate checks the status/answer invariant.
func (q *Question) Validate() error {
	switch q.Status {
	case StatusAnswered:
		if q.Answer == nil {
			return fmt.Errorf("question %s: %w", q.Id, ErrAnsweredWithoutAnswer)
		}
	case StatusPending:
		if q.Answer != nil {
			return fmt.Errorf("question %s: %w", q.Id, ErrPendingWithAnswer)
		}
	default:
		return fmt.Errorf("question %s: unknown status %q", q.Id, q.Status)
	}
	return nil
}

// LastActivity is the answer time for answered questions, otherwise the
// latest of UpdatedAt and CreatedAt.
func (q *Question) LastActivity() time.Time {
	if q.Answer != nil && !q.Answer.AnsweredAt.IsZero() {
		return q.Answer.AnsweredAt
	}
	if q.UpdatedAt.After(q.CreatedAt) {
		return q.UpdatedAt
	}
	return q.CreatedAt
}

// for debug
func (q *Question) String() string {
	s := fmt.Sprintf("[id:%s, category:%s, status:%s, created:%s", q.Id, q.Category, q.Status, q.CreatedAt.Format(time.Stamp))
	if q.Answer != nil {
		s += fmt.Sprintf(", answered:%s", q.Answer.AnsweredAt.Format(time.Stamp))
	}
	return s + "]"
}
