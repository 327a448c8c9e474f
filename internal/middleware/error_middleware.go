package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	pkgauth "github.com/yigit/acadtrack/internal/pkg/auth"
	"github.com/yigit/acadtrack/internal/pkg/logger"
)

type errorMapping struct {
	targets []error
	status  int
	code    dto.ErrorCode
	message string
}

// errorMappings is checked in order; the first match decides the response
var errorMappings = []errorMapping{
	{[]error{apperrors.ErrProfileNotFound}, http.StatusNotFound, dto.ErrorCodeProfileNotFound, "Profile not found"},
	{[]error{
		apperrors.ErrCourseNotFound, apperrors.ErrGradeNotFound, apperrors.ErrAttendanceNotFound,
		apperrors.ErrNotificationNotFound, apperrors.ErrAccountNotFound, apperrors.ErrEnrollmentNotFound,
		apperrors.ErrResourceNotFound,
	}, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{[]error{apperrors.ErrAlreadyEnrolled}, http.StatusConflict, dto.ErrorCodeAlreadyEnrolled, "Student is already enrolled"},
	{[]error{apperrors.ErrAttendanceExists}, http.StatusConflict, dto.ErrorCodeAttendanceRecorded, "Attendance already recorded for this date"},
	{[]error{apperrors.ErrEmailAlreadyExists, apperrors.ErrResourceAlreadyExists},
		http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{[]error{apperrors.ErrConflict}, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
	{[]error{apperrors.ErrAccountDisabled}, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"},
	{[]error{apperrors.ErrPermissionDenied}, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{[]error{apperrors.ErrInvalidCredentials}, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{[]error{apperrors.ErrTokenExpired, pkgauth.ErrExpiredToken}, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{[]error{apperrors.ErrTokenNotFound}, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{[]error{apperrors.ErrTokenInvalid, apperrors.ErrTokenRevoked, pkgauth.ErrInvalidToken, pkgauth.ErrInvalidFormat},
		http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{[]error{apperrors.ErrInvalidPassword}, http.StatusBadRequest, dto.ErrorCodeInvalidPassword, "Invalid password"},
	{[]error{apperrors.ErrValidationFailed, apperrors.ErrInvalidEmail}, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{[]error{apperrors.ErrNotEnrolled}, http.StatusBadRequest, dto.ErrorCodeNotEnrolled, "Student is not enrolled in this course"},
	{[]error{apperrors.ErrBadRequest}, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !apperrors.Is(err, m.targets[0], m.targets[1:]...) {
			continue
		}

		errorDetail := dto.NewErrorDetail(m.code, m.message)
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Message != "" {
			errorDetail = errorDetail.WithDetails(custom.Message)
		} else if m.status == http.StatusBadRequest {
			errorDetail = errorDetail.WithDetails(err.Error())
		}
		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(errorDetail))
		return
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Str("requestId", c.GetString(requestIDKey)).
		Msg("Unhandled error")

	errorDetail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	if gin.Mode() != gin.ReleaseMode {
		errorDetail = errorDetail.WithDebugInfo("%v", err)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
}
