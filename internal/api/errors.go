package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxRequestBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid credentials"`
	Message string `json:"message,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Logout successful"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func unauthenticated(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func forbidden(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusForbidden, msg)
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func quotaExceeded(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, ErrorResponse{
		Error:   "Quota exceeded",
		Message: "You have reached your optimization limit. Please upgrade your plan.",
	})
}

// internalError logs err and answers 500. The error text is only exposed to
// clients in development.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.requestLogger(r).Error().Err(err).Str("path", r.URL.Path).Msg(msg)

	resp := ErrorResponse{Error: msg}
	if s.config != nil && s.config.IsDevelopment() && err != nil {
		resp.Message = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

// requestLogger prefers the request scoped logger set by the logging middleware.
func (s *Server) requestLogger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

// decodeJSON reads a JSON body into dst, answering 400 itself on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "Invalid request body")
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "http_url", "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
