package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse standard API response structure
type APIResponse struct {
	Data  interface{} `json:"data"`
	Meta  *Meta       `json:"meta,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
}

// Meta additional metadata
type Meta struct {
	Limit int   `json:"limit,omitempty"`
	Total int64 `json:"total,omitempty"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Data: data,
		Meta: meta,
	})
}

// ErrorResponse returns an error JSON response
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	errInfo := &ErrorInfo{
		Code:    getErrorCode(status),
		Message: message,
	}
	if err != nil && status < http.StatusInternalServerError {
		errInfo.Details = err.Error()
	}

	c.AbortWithStatusJSON(status, APIResponse{Error: errInfo})
}

// ErrorFrom maps a tagged domain error to its HTTP status and error code
func ErrorFrom(c *gin.Context, err error) {
	status, code := StatusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, APIResponse{Error: &ErrorInfo{Code: code, Message: message}})
}

// StatusOf returns the HTTP status and tag for err
func StatusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrAlreadyVoted):
		return http.StatusConflict, "ALREADY_VOTED"
	case errors.Is(err, ErrAlreadyClosed):
		return http.StatusConflict, "ALREADY_CLOSED"
	case errors.Is(err, ErrSelfVote):
		return http.StatusForbidden, "SELF_VOTE"
	case errors.Is(err, ErrProtectedTarget):
		return http.StatusForbidden, "PROTECTED_TARGET"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, ErrEncryption):
		return http.StatusInternalServerError, "ENCRYPTION_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	}
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 429:
		return "RATE_LIMITED"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
