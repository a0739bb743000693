package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// Максимальные длины для различных полей
	MaxFullNameLength       = 128
	MaxEmailLength          = 254
	MaxSupportMessageLength = 4000

	// Минимальные длины
	MinFullNameLength       = 1
	MinSupportMessageLength = 1
)

// Упрощенная проверка email: локальная часть, @, домен с точкой
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateFullName проверяет ФИО пользователя
func ValidateFullName(fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if utf8.RuneCountInString(fullName) < MinFullNameLength {
		return fmt.Errorf("full name cannot be empty")
	}

	if utf8.RuneCountInString(fullName) > MaxFullNameLength {
		return fmt.Errorf("full name cannot exceed %d characters", MaxFullNameLength)
	}

	return nil
}

// ValidateEmail проверяет адрес почты
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if len(email) > MaxEmailLength {
		return fmt.Errorf("email cannot exceed %d characters", MaxEmailLength)
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf("email has invalid format")
	}

	return nil
}

// ValidateSupportMessage проверяет текст обращения в поддержку
func ValidateSupportMessage(message string) error {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) < MinSupportMessageLength {
		return fmt.Errorf("message cannot be empty")
	}

	if utf8.RuneCountInString(message) > MaxSupportMessageLength {
		return fmt.Errorf("message cannot exceed %d characters", MaxSupportMessageLength)
	}

	return nil
}

// ValidatePositiveInt проверяет, что число положительное
func ValidatePositiveInt(value int64, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}

// IsValidEmail проверяет валидность email
func IsValidEmail(email string) bool {
	return ValidateEmail(email) == nil
}
