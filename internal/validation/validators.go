package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/benvon/smart-planner/internal/services/timeline"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	custom := map[string]validator.Func{
		"category":      validateCategory,
		"duration":      validateDuration,
		"scheduled_day": validateScheduledDay,
		"break_type":    validateBreakType,
		"clock":         validateClock,
	}
	for tag, fn := range custom {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}

	Validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

func validateDuration(fl validator.FieldLevel) bool {
	return models.Duration(fl.Field().Int()).Valid()
}

func validateScheduledDay(fl validator.FieldLevel) bool {
	return models.ScheduledDay(fl.Field().String()).Valid()
}

func validateBreakType(fl validator.FieldLevel) bool {
	return models.BreakType(fl.Field().String()).Valid()
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := timeline.ParseClock(fl.Field().String())
	return err == nil
}

// Describe turns validator errors into one client-facing sentence
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "category":
		return field + " must be one of deep, light, admin"
	case "duration":
		return field + " must be one of 15, 30, 60"
	case "scheduled_day":
		return field + " must be today or tomorrow"
	case "break_type":
		return field + " must be one of exercise, nap, food, meeting, other"
	case "clock":
		return field + " must be a time of day such as 13:30"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
