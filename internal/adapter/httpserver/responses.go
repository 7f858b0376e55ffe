// Package httpserver contains HTTP handlers and middleware for the
// evaluation API. It keeps HTTP concerns separate from the scoring logic in
// usecase.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrSchemeEmpty):
		code = http.StatusUnprocessableEntity
		codeStr = "SCHEME_EMPTY"
	case errors.Is(err, domain.ErrEmbedding):
		code = http.StatusBadGateway
		codeStr = "EMBEDDING_FAILED"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
