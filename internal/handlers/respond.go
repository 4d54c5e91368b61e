package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"nutriplan/internal/apperr"
	applog "nutriplan/internal/log"
	"nutriplan/internal/store"
	"nutriplan/internal/validation"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = time.DateOnly
)

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []fieldDetail `json:"details,omitempty"`
}

type fieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// badRequestError reports input that could not be parsed at all.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		applog.Error(r.Context(), "failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		applog.Debug(r.Context(), "failed to write response", "error", err)
	}
}

// writeError maps err onto a status code and the shared error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		badReq    *badRequestError
		fieldErrs validation.Errors
		invalid   *apperr.ValidationError
		missing   *apperr.NotFoundError
		tooFew    *apperr.InsufficientDataError
	)
	switch {
	case errors.As(err, &badReq):
		writeJSON(w, r, http.StatusBadRequest, errorBody{Error: apiError{Code: "bad_request", Message: badReq.msg}})
	case errors.As(err, &fieldErrs):
		details := make([]fieldDetail, len(fieldErrs))
		for i, fe := range fieldErrs {
			details[i] = fieldDetail{Field: fe.Field, Message: fe.Constraint}
		}
		writeJSON(w, r, http.StatusUnprocessableEntity, errorBody{Error: apiError{Code: "validation_error", Message: "request validation failed", Details: details}})
	case errors.As(err, &invalid):
		writeJSON(w, r, http.StatusUnprocessableEntity, errorBody{Error: apiError{
			Code:    "validation_error",
			Message: invalid.Error(),
			Details: []fieldDetail{{Field: invalid.Field, Message: invalid.Constraint}},
		}})
	case errors.As(err, &missing):
		writeJSON(w, r, http.StatusNotFound, errorBody{Error: apiError{Code: "not_found", Message: missing.Error()}})
	case errors.As(err, &tooFew):
		writeJSON(w, r, http.StatusUnprocessableEntity, errorBody{Error: apiError{Code: "insufficient_data", Message: tooFew.Error()}})
	case apperr.IsModelUnavailable(err):
		writeJSON(w, r, http.StatusServiceUnavailable, errorBody{Error: apiError{Code: "model_unavailable", Message: "model is not trained yet"}})
	default:
		applog.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: apiError{Code: "internal_error", Message: "internal server error"}})
	}
}

// decodeJSON reads the request body into v and validates it. An empty body
// is accepted when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return badRequest("read request body: %v", err)
	}
	switch {
	case len(bytes.TrimSpace(data)) > 0:
		if err := json.Unmarshal(data, v); err != nil {
			return badRequest("invalid JSON body: %v", err)
		}
	case !optional:
		return badRequest("request body is required")
	}
	return validation.Struct(v)
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("query parameter %s must be an integer", key)
	}
	return v, nil
}

func queryBool(r *http.Request, key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("query parameter %s must be a boolean", key)
	}
	return v, nil
}

// parseDate parses a YYYY-MM-DD value; empty input yields nil.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, badRequest("%s must use the YYYY-MM-DD format", field)
	}
	return &t, nil
}

func queryPage(r *http.Request) (store.Page, error) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		return store.Page{}, err
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		return store.Page{}, err
	}
	if skip < 0 {
		return store.Page{}, apperr.Validation("skip", "must not be negative")
	}
	if limit < 1 {
		return store.Page{}, apperr.Validation("limit", "must be at least 1")
	}
	return store.Page{Skip: skip, Limit: limit}, nil
}
