package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"news-miniapp-gateway/internal/common/errors"
)

const (
	requestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// ErrorHandler middleware для обработки паник
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := getRequestID(c)
		stack := string(debug.Stack())

		// Логируем панику
		logger.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", stack).
			Msg("Panic recovered")

		appErr := errors.New(errors.ErrCodeInternal, "Internal server error").
			WithRequestID(requestID).
			WithDetail("panic", fmt.Sprintf("%v", recovered))

		sendErrorResponse(c, appErr, logger)
		c.Abort()
	})
}

// RequestID middleware для добавления ID запроса
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
	Path      string           `json:"path,omitempty"`
	Method    string           `json:"method,omitempty"`
}

// sendErrorResponse отправляет ошибку в формате JSON
func sendErrorResponse(c *gin.Context, appErr *errors.AppError, logger zerolog.Logger) {
	requestID := getRequestID(c)

	appErr.WithRequestID(requestID).
		WithContext("path", c.Request.URL.Path).
		WithContext("method", c.Request.Method)

	response := ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	}

	logError(appErr, logger, c)

	c.JSON(HTTPStatus(appErr), response)
}

// HTTPStatus возвращает HTTP статус код для ошибки
func HTTPStatus(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeInvalidUserData, errors.ErrCodeBadRequest, errors.ErrCodeMalformedPayload:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeUserNotFound, errors.ErrCodeCategoryNotFound, errors.ErrCodeNewsNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized, errors.ErrCodeIdentityUnavailable, errors.ErrCodeSessionNotFound:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden, errors.ErrCodeNeedsOnboarding:
		return http.StatusForbidden
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case errors.ErrCodeCacheError:
		return http.StatusServiceUnavailable
	case errors.ErrCodeBackendUnreachable, errors.ErrCodeExternalAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// logError логирует ошибку с контекстом
func logError(appErr *errors.AppError, logger zerolog.Logger, c *gin.Context) {
	var event *zerolog.Event
	msg := "Application error occurred"

	// Выбираем уровень логирования
	switch {
	case appErr.IsInternal():
		event = logger.Error()
		msg = "Internal error occurred"
	case appErr.IsUnauthorized():
		event = logger.Warn()
		msg = "Unauthorized access attempt"
	case appErr.IsValidation():
		event = logger.Info()
		msg = "Validation error"
	case appErr.IsNotFound():
		event = logger.Info()
		msg = "Resource not found"
	default:
		event = logger.Error()
	}

	event = event.
		Str("request_id", getRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message)

	if userID := getUserID(c); userID != 0 {
		event = event.Int64("user_id", userID)
	}
	if appErr.UserID != 0 {
		event = event.Int64("error_user_id", appErr.UserID)
	}
	if len(appErr.Details) > 0 {
		event = event.Interface("details", appErr.Details)
	}
	if appErr.Cause != nil {
		event = event.Err(appErr.Cause)
	}

	event.Msg(msg)
}

// getRequestID получает ID запроса из контекста
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}

// getUserID получает Telegram ID пользователя из контекста
func getUserID(c *gin.Context) int64 {
	if claim, ok := GetClaim(c); ok {
		return claim.ID
	}
	return 0
}

// HandleErrorWrapper оборачивает обработчики для автоматической обработки ошибок
func HandleErrorWrapper(logger zerolog.Logger) func(gin.HandlerFunc) gin.HandlerFunc {
	return func(handler gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			handler(c)

			if len(c.Errors) == 0 || c.Writer.Written() {
				return
			}

			err := c.Errors.Last().Err

			// Если это уже AppError, используем её
			if appErr, ok := errors.AsAppError(err); ok {
				sendErrorResponse(c, appErr, logger)
				return
			}

			// Иначе оборачиваем в AppError
			appErr := errors.Wrap(err, errors.ErrCodeInternal, "Handler error occurred").
				WithRequestID(getRequestID(c)).
				WithUserID(getUserID(c))

			sendErrorResponse(c, appErr, logger)
		}
	}
}

// AbortWithError отправляет ошибку сразу, не дожидаясь обертки.
// Используется в middleware, которые прерывают цепочку.
func AbortWithError(c *gin.Context, err error, logger zerolog.Logger) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Wrap(err, errors.ErrCodeInternal, "Request failed")
	}
	sendErrorResponse(c, appErr, logger)
	c.Abort()
}
