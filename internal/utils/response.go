// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
)

// Context keys shared by middleware and handlers.
const (
	ContextKeyLang          = "lang"
	ContextKeyUser          = "user"
	ContextKeyUserID        = "user_id"
	ContextKeyExposeDetails = "expose_error_details"
)

type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
	Meta     interface{} `json:"meta,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	CreatedResponseWithWarnings(c, data, nil)
}

// CreatedResponseWithWarnings reports a success whose side effects partly failed.
func CreatedResponseWithWarnings(c *gin.Context, data interface{}, warnings []string) {
	c.JSON(http.StatusCreated, APIResponse{
		Success:  true,
		Data:     data,
		Warnings: warnings,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequestResponse is used when the body cannot be decoded at all.
func BadRequestResponse(c *gin.Context, err error) {
	lang := GetLangFromContext(c)
	var details interface{}
	if ExposeErrorDetails(c) && err != nil {
		details = err.Error()
	}
	ErrorResponse(c, http.StatusBadRequest, apperror.CodeValidation, i18n.T(lang, i18n.KeyValidationInvalid, "request"), details)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, apperror.CodeValidation, message, errors)
}

func TooManyRequestsResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", i18n.T(lang, i18n.KeyRateLimited), nil)
}

var statusByKind = map[apperror.Kind]int{
	apperror.KindUnauthenticated: http.StatusUnauthorized,
	apperror.KindForbidden:       http.StatusForbidden,
	apperror.KindNotFound:        http.StatusNotFound,
	apperror.KindConflict:        http.StatusConflict,
	apperror.KindValidation:      http.StatusBadRequest,
	apperror.KindEmptyCart:       http.StatusBadRequest,
	apperror.KindInternal:        http.StatusInternalServerError,
}

// ErrorFromErr writes the response for any error returned by a service. Messages
// that are translation keys are localized. Internal errors are logged in full and
// only described to the client when detail exposure is enabled.
func ErrorFromErr(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal(i18n.KeyInternalError, err)
	}

	lang := GetLangFromContext(c)
	message := i18n.T(lang, appErr.Message)

	var details interface{}
	if appErr.Kind == apperror.KindValidation {
		if fieldErrors := GetValidationErrors(err); len(fieldErrors) > 0 {
			details = fieldErrors
		}
	}

	if appErr.Kind == apperror.KindInternal {
		fields := logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}
		if userID, ok := GetUserIDFromContext(c); ok {
			fields["user_id"] = userID
		}
		logrus.WithError(err).WithFields(fields).Error("Request failed")

		message = i18n.T(lang, i18n.KeyInternalError)
		if ExposeErrorDetails(c) {
			details = err.Error()
		}
	}

	status, ok := statusByKind[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	ErrorResponse(c, status, appErr.Code, message, details)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextKeyLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func ExposeErrorDetails(c *gin.Context) bool {
	return c.GetBool(ContextKeyExposeDetails)
}

func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyUserID, user.ID.String())
}

func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*models.User); ok && user != nil {
			return user, true
		}
	}
	return nil, false
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, exists := c.Get(ContextKeyUserID); exists {
		if userIDStr, ok := userID.(string); ok {
			return userIDStr, true
		}
	}
	return "", false
}
