package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gradewise/ai-answer-evaluator/internal/config"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
	"github.com/gradewise/ai-answer-evaluator/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg      config.Config
	Evaluate usecase.EvaluateService
	Results  usecase.ResultService
	DBCheck  func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, eval usecase.EvaluateService, results usecase.ResultService, dbCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Evaluate: eval, Results: results, DBCheck: dbCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type evaluateRequest struct {
	ExamID    string `json:"exam_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

// EvaluateHandler runs a scoring run synchronously and returns the stored
// result. The run is on the request's critical path; embedding and judge
// timeouts bound it.
func (s *Server) EvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: body: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: apiError{Code: "INVALID_ARGUMENT", Message: "exam_id and student_id are required", Details: err.Error()}})
			return
		}
		res, err := s.Evaluate.Evaluate(r.Context(), req.ExamID, req.StudentID)
		if err != nil {
			writeError(w, r, err, map[string]string{"exam_id": req.ExamID, "student_id": req.StudentID})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ResultHandler returns the live stored result for an (exam, student) pair.
func (s *Server) ResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		studentID := chi.URLParam(r, "studentID")
		res, err := s.Results.Fetch(r.Context(), examID, studentID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ReadyzHandler reports readiness based on a database ping.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DBCheck != nil {
			if err := s.DBCheck(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "db": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
