package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/logger"
)

func respondError(c *gin.Context, status int, code dto.ErrorCode, fallback string, err error) {
	message := fallback
	if m, ok := apperrors.UserMessage(err); ok {
		message = m
	}
	c.JSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, message)))
}

// HandleAPIError maps service errors to responses. Unknown errors are logged
// and answered with a generic 500.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrSchoolNotFound, apperrors.ErrUserNotFound,
		apperrors.ErrStudentNotFound, apperrors.ErrSubjectNotFound, apperrors.ErrNoGradesForTerm):
		respondError(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, notFoundMessage(err), err)
	case errors.Is(err, apperrors.ErrInvalidLinkCode):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeInvalidLinkCode, apperrors.ErrInvalidLinkCode.Error(), nil)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied", err)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials", nil)
	case errors.Is(err, apperrors.ErrTokenExpired):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired", nil)
	case apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrInvalidFormat):
		respondError(c, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token", nil)
	case errors.Is(err, apperrors.ErrTooManyRequests):
		respondError(c, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests, "Too many requests, try again later", err)
	case apperrors.Is(err, apperrors.ErrValidationFailed):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed", err)
	case errors.Is(err, apperrors.ErrBadRequest):
		respondError(c, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request", err)
	case apperrors.Is(err, apperrors.ErrConflict, apperrors.ErrSchoolCodeTaken,
		apperrors.ErrSchoolCodeBaseTaken, apperrors.ErrUsernameTaken, apperrors.ErrSubjectExists):
		respondError(c, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, conflictMessage(err), err)
	case errors.Is(err, apperrors.ErrTimeout):
		respondError(c, http.StatusServiceUnavailable, dto.ErrorCodeTimeout, "Request timed out", err)
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		))
	}
}

func notFoundMessage(err error) string {
	for _, e := range []error{
		apperrors.ErrSchoolNotFound, apperrors.ErrUserNotFound, apperrors.ErrStudentNotFound,
		apperrors.ErrSubjectNotFound, apperrors.ErrNoGradesForTerm,
	} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "Resource not found"
}

func conflictMessage(err error) string {
	for _, e := range []error{
		apperrors.ErrSchoolCodeTaken, apperrors.ErrSchoolCodeBaseTaken,
		apperrors.ErrUsernameTaken, apperrors.ErrSubjectExists,
	} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "Resource already exists"
}
