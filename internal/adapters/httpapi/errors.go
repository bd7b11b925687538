package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"venueflow/pkg/domain"
)

// Error codes carried in the APIError envelope.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodePreconditionFailed  = "PRECONDITION_FAILED"
	ErrCodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// APIError is the JSON error body, wrapped as {"error": APIError}.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// NewAPIError builds an APIError.
func NewAPIError(status int, code, message string, details any) *APIError {
	return &APIError{StatusCode: status, Code: code, Message: message, Details: details}
}

func respondWithError(c *gin.Context, apiErr *APIError) {
	c.AbortWithStatusJSON(apiErr.StatusCode, gin.H{"error": apiErr})
}

// respondDomainError maps the domain error taxonomy onto status codes.
func respondDomainError(c *gin.Context, err error) {
	var (
		validation   domain.ValidationError
		notFound     domain.NotFoundError
		conflict     domain.ConflictError
		authz        domain.AuthorizationError
		precondition domain.PreconditionError
		persistence  domain.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		respondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, validation.Error(), gin.H{"field": validation.Field}))
	case errors.As(err, &notFound):
		respondWithError(c, NewAPIError(http.StatusNotFound, ErrCodeNotFound, notFound.Error(), gin.H{"entity": notFound.Entity, "id": notFound.ID}))
	case errors.As(err, &conflict):
		respondWithError(c, NewAPIError(http.StatusConflict, ErrCodeConflict, conflict.Error(), gin.H{"entity": conflict.Entity, "id": conflict.ID}))
	case errors.As(err, &authz):
		respondWithError(c, NewAPIError(http.StatusForbidden, ErrCodeForbidden, authz.Error(), gin.H{"action": authz.Action, "reason": authz.Reason}))
	case errors.As(err, &precondition):
		respondWithError(c, NewAPIError(http.StatusUnprocessableEntity, ErrCodePreconditionFailed, precondition.Error(), nil))
	case errors.As(err, &persistence):
		_ = c.Error(err)
		respondWithError(c, NewAPIError(http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "storage unavailable, nothing was changed", nil))
	default:
		_ = c.Error(err)
		respondWithError(c, NewAPIError(http.StatusInternalServerError, ErrCodeInternalServerError, "internal error", nil))
	}
}

func respondBadRequest(c *gin.Context, err error) {
	respondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeBadRequest, "invalid request payload", err.Error()))
}
