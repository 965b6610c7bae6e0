// Package respond writes the JSON envelope shared by every endpoint:
// {"success": bool, "data": ..., "error": {"code", "message"}}.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kug-advocacy/kug-platform/internal/domain/common/errorz"
	"github.com/kug-advocacy/kug-platform/pkg/logger/types"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = fmt.Errorf("%w: request body is empty", errorz.ErrValidation)

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Envelope{Success: status >= 200 && status < 300, Data: data})
}

func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Fail writes an error envelope with an explicit status and code.
func Fail(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Error: &ErrorBody{Code: code, Message: message}})
}

// Error maps err onto the status taxonomy. Errors outside it are logged and
// reported without details.
func Error(w http.ResponseWriter, r *http.Request, logger *types.Logger, err error) {
	status := errorz.Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
		message = "internal server error"
	}
	Fail(w, status, errorz.Code(err), message)
}

// Decode reads a JSON body into dst.
func Decode(r *http.Request, dst interface{}) error {
	defer func() { _ = r.Body.Close() }()

	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	if err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", errorz.ErrValidation, err)
	}
	return nil
}

// DecodeOptional is Decode for endpoints whose body may be omitted.
func DecodeOptional(r *http.Request, dst interface{}) error {
	if err := Decode(r, dst); err != nil && !errors.Is(err, errEmptyBody) {
		return err
	}
	return nil
}

// ID returns the path parameter name. Values that are not UUIDs cannot name
// a stored row, so they are answered with 404 right away.
func ID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		Fail(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", name))
		return "", false
	}
	return id.String(), true
}

// QueryID parses an optional UUID query parameter.
func QueryID(r *http.Request, key string) (string, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s must be a UUID", errorz.ErrValidation, key)
	}
	return id.String(), nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errorz.ErrValidation, key)
	}
	return v, nil
}

// Attachment writes a file download.
func Attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
