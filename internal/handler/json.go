package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtpultz/goal-digger/internal/ctxkeys"
	"github.com/mtpultz/goal-digger/internal/repository"
	"github.com/mtpultz/goal-digger/internal/service"
	"github.com/mtpultz/goal-digger/internal/validation"
)

// maxBodyBytes bounds request bodies; comments are the largest payload.
const maxBodyBytes = 64 << 10

var errInvalidJSON = errors.New("invalid JSON body")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeBody reads a JSON object into target. An empty body leaves target
// untouched so that field validation reports what is missing. A field of
// the wrong JSON type is a validation failure on that field; anything else
// that does not decode is errInvalidJSON.
func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	err := json.NewDecoder(body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return validation.Invalid(typeErr.Field)
	}
	if err != nil {
		return errInvalidJSON
	}
	return nil
}

// pathID parses the positive integer path parameter name. Anything else
// cannot name a row, so it is reported as notFound.
func pathID(r *http.Request, name string, notFound error) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, notFound
	}
	return id, nil
}

// errorResponses maps sentinel errors to the response they produce.
var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{errInvalidJSON, http.StatusBadRequest, "Invalid JSON body."},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials."},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Unauthenticated."},
	{service.ErrForbidden, http.StatusForbidden, "Unauthorized"},
	{service.ErrInvalidResetToken, http.StatusUnprocessableEntity, "Invalid token or email."},
	{service.ErrInvalidVerificationLink, http.StatusUnprocessableEntity, "Invalid verification link."},
	{repository.ErrGoalNotFound, http.StatusNotFound, "Goal not found."},
	{repository.ErrCommentNotFound, http.StatusNotFound, "Comment not found."},
	{repository.ErrBuddyGoalNotFound, http.StatusNotFound, "Invitation not found."},
	{repository.ErrUserNotFound, http.StatusNotFound, "User not found."},
}

// clientError returns the 4xx response for err, if it has one.
func clientError(err error) (int, any, bool) {
	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		return http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation failed.",
			"errors":  validationErrs,
		}, true
	}

	for _, resp := range errorResponses {
		if errors.Is(err, resp.err) {
			return resp.status, map[string]string{"message": resp.message}, true
		}
	}
	return 0, nil, false
}

func isClientError(err error) bool {
	_, _, ok := clientError(err)
	return ok
}

// responder turns service errors into HTTP responses.
type responder struct {
	debug bool
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body, ok := clientError(err)
	if !ok {
		rs.internal(w, r, "Internal server error.", err)
		return
	}
	writeJSON(w, status, body)
}

// internal logs err and answers 500 with message. The error text is only
// exposed when debugging is enabled.
func (rs responder) internal(w http.ResponseWriter, r *http.Request, message string, err error) {
	slog.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", ctxkeys.RequestID(r.Context()),
	)

	detail := "Internal server error."
	if rs.debug {
		detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"message": message,
		"error":   detail,
	})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Not found.")
}
