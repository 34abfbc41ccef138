// Package apitest provides an in-memory stand-in for the remote questions
// API, for tests that need the whole request/response contract.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

type ListShape int

const (
	ShapeArray ListShape = iota
	ShapeWrapped
	ShapePaginated
)

type storedQuestion struct {
	id         string
	question   string
	category   string
	status     string
	answer     string
	answeredAt time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// Server is a fake of the remote API. All fields are safe to change between
// requests while holding no other references.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	questions map[string]*storedQuestion
	nextID    int
	requests  []Request

	Shape ListShape
	// FailStats makes the stats endpoint answer 500.
	FailStats bool
	// Fail maps "METHOD /path" to a status code returned instead of the
	// normal response.
	Fail map[string]int
	// Counts for /members, /events and /stories.
	Members, Events, Stories int
}

type Request struct {
	Method  string
	Path    string
	Cookies []*http.Cookie
	Headers http.Header
	Body    string
}

func NewServer() *Server {
	s := &Server{
		questions: make(map[string]*storedQuestion),
		Fail:      make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/anonymous-questions", s.create)
	r.Get("/anonymous-questions", s.list)
	r.Get("/anonymous-questions/stats", s.stats)
	r.Post("/anonymous-questions/{id}/answer", s.answer)
	r.Delete("/anonymous-questions/{id}", s.delete)
	r.Get("/members", s.collection("members", func() int { return s.Members }))
	r.Get("/events", s.collection("events", func() int { return s.Events }))
	r.Get("/stories", s.collection("stories", func() int { return s.Stories }))

	s.Server = httptest.NewServer(r)
	return s
}

// Seed stores a question directly and returns its id.
func (s *Server) Seed(question, category string, answer string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	q := s.newQuestionLocked(question, category, now)
	if answer != "" {
		q.status = "answered"
		q.answer = answer
		q.answeredAt = now
	}
	return q.id
}

// Requests returns the recorded requests so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts recorded requests matching method and path prefix.
func (s *Server) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func (s *Server) newQuestionLocked(question, category string, now time.Time) *storedQuestion {
	s.nextID++
	q := &storedQuestion{
		id:        fmt.Sprintf("q%d", s.nextID),
		question:  question,
		category:  category,
		status:    "pending",
		createdAt: now,
		updatedAt: now,
	}
	s.questions[q.id] = q
	return q
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:  r.Method,
			Path:    r.URL.Path,
			Cookies: r.Cookies(),
			Headers: r.Header.Clone(),
			Body:    string(body),
		})
		status, fail := s.Fail[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if fail {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	s.mu.Lock()
	q := s.newQuestionLocked(body.Question, body.Category, time.Now().UTC())
	resp := q.toJSON()
	s.mu.Unlock()

	writeData(w, http.StatusCreated, resp)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := make([]map[string]any, 0, len(s.questions))
	ids := make([]string, 0, len(s.questions))
	for id := range s.questions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		items = append(items, s.questions[id].toJSON())
	}
	shape := s.Shape
	s.mu.Unlock()

	switch shape {
	case ShapeWrapped:
		writeData(w, http.StatusOK, map[string]any{"questions": items})
	case ShapePaginated:
		writeData(w, http.StatusOK, map[string]any{
			"questions":  items,
			"pagination": map[string]any{"totalDocs": len(items), "page": 1, "totalPages": 1},
		})
	default:
		writeData(w, http.StatusOK, items)
	}
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailStats {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	pending, answered := 0, 0
	for _, q := range s.questions {
		if q.status == "answered" {
			answered++
		} else {
			pending++
		}
	}
	writeData(w, http.StatusOK, map[string]int{"total": pending + answered, "pending": pending, "answered": answered})
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Answer) == "" {
		writeError(w, http.StatusBadRequest, "Answer is required")
		return
	}

	s.mu.Lock()
	q, ok := s.questions[chi.URLParam(r, "id")]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	now := time.Now().UTC()
	q.status = "answered"
	q.answer = body.Answer
	q.answeredAt = now
	q.updatedAt = now
	resp := q.toJSON()
	s.mu.Unlock()

	writeData(w, http.StatusOK, resp)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.questions[id]; !ok {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	delete(s.questions, id)
	writeData(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) collection(key string, count func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		n := count()
		s.mu.Unlock()
		page := make([]map[string]any, 0, min(n, 10))
		for i := 0; i < min(n, 10); i++ {
			page = append(page, map[string]any{"_id": fmt.Sprintf("%s%d", key, i)})
		}
		writeData(w, http.StatusOK, map[string]any{
			key:          page,
			"pagination": map[string]any{"totalDocs": n},
		})
	}
}

func (q *storedQuestion) toJSON() map[string]any {
	m := map[string]any{
		"_id":       q.id,
		"question":  q.question,
		"category":  q.category,
		"status":    q.status,
		"createdAt": q.createdAt,
		"updatedAt": q.updatedAt,
	}
	if q.status == "answered" {
		m["answer"] = map[string]any{"content": q.answer, "answeredAt": q.answeredAt}
	}
	return m
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
