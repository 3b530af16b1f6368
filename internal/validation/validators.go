package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ganderhq/gander/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("command_kind", validateCommandKind); err != nil {
		panic(fmt.Sprintf("failed to register command_kind validator: %v", err))
	}
	if err := Validate.RegisterValidation("request_status", validateRequestStatus); err != nil {
		panic(fmt.Sprintf("failed to register request_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("clock_time", validateClockTime); err != nil {
		panic(fmt.Sprintf("failed to register clock_time validator: %v", err))
	}
}

// validateCommandKind validates that a string is a valid CommandKind enum value
func validateCommandKind(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.CommandKind(value) {
	case models.KindEvent, models.KindReminder, models.KindNote, models.KindOther:
		return true
	default:
		return false
	}
}

// validateRequestStatus validates that a string is a valid RequestStatus enum value
func validateRequestStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.RequestStatus(value) {
	case models.RequestStatusPending, models.RequestStatusProcessing,
		models.RequestStatusFinalized, models.RequestStatusRejected, models.RequestStatusFailed:
		return true
	default:
		return false
	}
}

var reClockTime = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// validateClockTime validates a 24-hour HH:MM string
func validateClockTime(fl validator.FieldLevel) bool {
	return reClockTime.MatchString(fl.Field().String())
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateCommandKind validates a CommandKind string value
func ValidateCommandKind(value string) error {
	switch models.CommandKind(value) {
	case models.KindEvent, models.KindReminder, models.KindNote, models.KindOther:
		return nil
	default:
		return fmt.Errorf("invalid kind: %s (must be 'event', 'reminder', 'note', or 'other')", value)
	}
}

// ValidateRequestStatus validates a RequestStatus string value
func ValidateRequestStatus(value string) error {
	switch models.RequestStatus(value) {
	case models.RequestStatusPending, models.RequestStatusProcessing,
		models.RequestStatusFinalized, models.RequestStatusRejected, models.RequestStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'pending', 'processing', 'finalized', 'rejected', or 'failed')", value)
	}
}

// ValidateTimezone validates an IANA timezone name
func ValidateTimezone(value string) error {
	if value == "" {
		return fmt.Errorf("timezone is required")
	}
	if _, err := time.LoadLocation(value); err != nil {
		return fmt.Errorf("invalid timezone: %s", value)
	}
	return nil
}

// ValidateClockTime validates a 24-hour HH:MM string value
func ValidateClockTime(value string) error {
	if !reClockTime.MatchString(value) {
		return fmt.Errorf("invalid time: %s (must be HH:MM in 24-hour form)", value)
	}
	return nil
}
