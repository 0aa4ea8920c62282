package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nextdoorbuddy/neighborchat/internal/server"
)

// Error codes shared with the gateway so REST and socket clients see the
// same taxonomy.
const (
	CodeAuthMissing      = server.CodeAuthMissing
	CodeAuthInvalid      = server.CodeAuthInvalid
	CodeAuthUserNotFound = server.CodeAuthUserNotFound
	CodeNotAuthorized    = server.CodeNotAuthorized
	CodeNotFound         = server.CodeNotFound
	CodeInvalidContent   = server.CodeInvalidContent
	CodeInternal         = server.CodeInternal
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError(message string) *ApiError {
	if message == "" {
		message = lower(http.StatusText(http.StatusBadRequest))
	}
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Code:       CodeInvalidContent,
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    lower(http.StatusText(http.StatusNotFound)),
		Code:       CodeNotFound,
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Code:       CodeInternal,
		Err:        err,
	}
}

func NewUnauthorizedError(code string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
		Code:       code,
	}
}

func NewForbiddenError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Message:    lower(http.StatusText(http.StatusForbidden)),
		Code:       CodeNotAuthorized,
	}
}
