package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeIneligibleTransition = "INELIGIBLE_TRANSITION"
	CodeAlreadyCheckedOut    = "ALREADY_CHECKED_OUT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeBadRequest           = "BAD_REQUEST"
	CodeTimeout              = "TIMEOUT"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeRateLimited          = "RATE_LIMITED"
)

// Detail keys shared by handlers and clients.
const (
	DetailConflicts   = "conflicts"
	DetailSuggestions = "suggestions"
	DetailFrom        = "from"
	DetailTo          = "to"
)

// statusByCode is the HTTP status each code maps to when the caller does not
// pick one explicitly.
var statusByCode = map[string]int{
	CodeNotFound:             http.StatusNotFound,
	CodeValidation:           http.StatusUnprocessableEntity,
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeForbidden:            http.StatusForbidden,
	CodeConflict:             http.StatusConflict,
	CodeIneligibleTransition: http.StatusConflict,
	CodeAlreadyCheckedOut:    http.StatusConflict,
	CodeInternal:             http.StatusInternalServerError,
	CodeBadRequest:           http.StatusBadRequest,
	CodeTimeout:              http.StatusGatewayTimeout,
	CodeUnavailable:          http.StatusServiceUnavailable,
	CodeInvalidInput:         http.StatusBadRequest,
	CodeRateLimited:          http.StatusTooManyRequests,
}

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

// ErrorResponse is the wire form of an AppError.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) StatusCode() int { return e.HTTPStatus }

func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{Code: e.Code, Message: e.Message, Details: e.Details}
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(e.Response())
	return data
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// coded builds an AppError using the default status for code.
func coded(code, message string) *AppError {
	return New(code, message, statusByCode[code])
}

func NotFound(resource string) *AppError {
	return coded(CodeNotFound, resource+" not found")
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{"resource": resource, "id": id})
}

func Validation(message string, details map[string]any) *AppError {
	return coded(CodeValidation, message).WithDetails(details)
}

func InvalidInput(message string) *AppError { return coded(CodeInvalidInput, message) }
func Unauthorized(message string) *AppError { return coded(CodeUnauthorized, message) }
func Forbidden(message string) *AppError    { return coded(CodeForbidden, message) }
func Conflict(message string) *AppError     { return coded(CodeConflict, message) }
func Timeout(message string) *AppError      { return coded(CodeTimeout, message) }
func RateLimited(message string) *AppError  { return coded(CodeRateLimited, message) }

// ConflictWith carries the colliding items and any alternatives so callers
// can offer them to the user.
func ConflictWith(message string, conflicts, suggestions any) *AppError {
	return Conflict(message).
		WithDetail(DetailConflicts, conflicts).
		WithDetail(DetailSuggestions, suggestions)
}

func IneligibleTransition(from, to, reason string) *AppError {
	msg := fmt.Sprintf("cannot transition from %s to %s: %s", from, to, reason)
	return coded(CodeIneligibleTransition, msg).
		WithDetail(DetailFrom, from).
		WithDetail(DetailTo, to)
}

func AlreadyCheckedOut(keyID, openTransactionID string) *AppError {
	return coded(CodeAlreadyCheckedOut, fmt.Sprintf("key %s is already checked out", keyID)).
		WithDetail("key_id", keyID).
		WithDetail("transaction_id", openTransactionID)
}

func Internal(message string, err error) *AppError {
	e := coded(CodeInternal, message)
	e.Err = err
	return e
}

func Unavailable(service string) *AppError {
	return coded(CodeUnavailable, service+" is temporarily unavailable")
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// AsAppError unwraps err into an AppError, treating anything else as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
