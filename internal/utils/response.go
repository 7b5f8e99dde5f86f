package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/princeprakhar/foodiespace-backend/pkg/errors"
	"github.com/princeprakhar/foodiespace-backend/pkg/logger"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SendSuccess(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SendError(c *gin.Context, statusCode int, message string, err error) {
	response := APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(statusCode, response)
}

func SendValidationError(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message, nil)
}

func SendUnauthorized(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, message, nil)
}

func SendForbidden(c *gin.Context, message string) {
	SendError(c, http.StatusForbidden, message, nil)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message, nil)
}

func SendInternalError(c *gin.Context, message string, err error) {
	SendError(c, http.StatusInternalServerError, message, err)
}

// SendAppError writes err with the status code for its type. Causes of internal and external
// errors are logged, not returned to the client.
func SendAppError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("Internal server error", err)
	}

	switch appErr.Type {
	case apperrors.ErrorTypeInternal, apperrors.ErrorTypeExternal:
		logger.WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"type":   appErr.Type,
		}).Error(appErr.Error())
	}

	SendError(c, StatusCode(appErr.Type), appErr.Message, nil)
}

func StatusCode(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeForbidden:
		return http.StatusForbidden
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	case apperrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
