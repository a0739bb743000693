package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"

	// Ошибки определения личности и сессии
	ErrCodeIdentityUnavailable ErrorCode = "IDENTITY_UNAVAILABLE"
	ErrCodeMalformedPayload    ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeNeedsOnboarding     ErrorCode = "NEEDS_ONBOARDING"

	// Ошибки пользователей
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrCodeInvalidUserData ErrorCode = "INVALID_USER_DATA"

	// Ошибки новостей
	ErrCodeCategoryNotFound ErrorCode = "CATEGORY_NOT_FOUND"
	ErrCodeNewsNotFound     ErrorCode = "NEWS_NOT_FOUND"

	// Ошибки кэша
	ErrCodeCacheError ErrorCode = "CACHE_ERROR"

	// Ошибки внешних API
	ErrCodeBackendUnreachable ErrorCode = "BACKEND_UNREACHABLE"
	ErrCodeExternalAPI        ErrorCode = "EXTERNAL_API_ERROR"
)

// AppError представляет типизированную ошибку приложения
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	UserID    int64                  `json:"user_id,omitempty"`
	Cause     error                  `json:"-"`
}

// Error возвращает строковое представление ошибки
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap возвращает причину ошибки
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound проверяет, является ли ошибка ошибкой "не найдено"
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeUserNotFound ||
		e.Code == ErrCodeSessionNotFound ||
		e.Code == ErrCodeCategoryNotFound ||
		e.Code == ErrCodeNewsNotFound ||
		e.Code == ErrCodeNeedsOnboarding
}

// IsValidation проверяет, является ли ошибка ошибкой валидации
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeInvalidUserData ||
		e.Code == ErrCodeMalformedPayload
}

// IsUnauthorized проверяет, является ли ошибка ошибкой авторизации
func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized ||
		e.Code == ErrCodeForbidden ||
		e.Code == ErrCodeIdentityUnavailable
}

// IsInternal проверяет, является ли ошибка внутренней ошибкой
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeCacheError ||
		e.Code == ErrCodeBackendUnreachable ||
		e.Code == ErrCodeExternalAPI
}

// WithContext добавляет контекст к ошибке
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail добавляет детальную информацию к ошибке
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRequestID добавляет ID запроса к ошибке
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// WithUserID добавляет ID пользователя к ошибке
func (e *AppError) WithUserID(userID int64) *AppError {
	e.UserID = userID
	return e
}

// New создает новую ошибку приложения
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap оборачивает существующую ошибку
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// getStackTrace возвращает стек вызовов
func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		// Пропускаем внутренние функции пакета errors
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

// Конструкторы для часто используемых ошибок

// NewValidationError создает ошибку валидации
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewUnauthorizedError создает ошибку авторизации
func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

// NewIdentityUnavailableError: ни один канал не дал пользователя Telegram
func NewIdentityUnavailableError() *AppError {
	return New(ErrCodeIdentityUnavailable, "Telegram identity is not available")
}

// NewMalformedPayloadError создает ошибку разбора init data
func NewMalformedPayloadError(channel string, err error) *AppError {
	return Wrap(err, ErrCodeMalformedPayload, fmt.Sprintf("Malformed identity payload in %s", channel)).
		WithDetail("channel", channel)
}

// NewBackendUnreachableError создает ошибку недоступности бэкенда
func NewBackendUnreachableError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeBackendUnreachable, fmt.Sprintf("Backend call failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewCacheError создает ошибку кэша
func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewConflictError создает ошибку конфликта
func NewConflictError(resource, reason string) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf("Conflict with %s: %s", resource, reason)).
		WithDetail("resource", resource).
		WithDetail("reason", reason)
}

// AsAppError приводит ошибку к AppError, в том числе обернутую через %w
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil {
		return nil, false
	}
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode сообщает, несет ли ошибка указанный код
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
