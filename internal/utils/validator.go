// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/lease-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("lease_status", func(fl validator.FieldLevel) bool {
		return models.LeaseStatus(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("rental_type", func(fl validator.FieldLevel) bool {
		return models.RentalType(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("lease_type", func(fl validator.FieldLevel) bool {
		return models.LeaseType(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("operational_status", func(fl validator.FieldLevel) bool {
		return models.OperationalStatus(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("issue_status", func(fl validator.FieldLevel) bool {
		return models.IssueStatus(fl.Field().String()).Valid()
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSpecial
}

var usernamePattern = regexp.MustCompile("^[a-zA-Z0-9_.]+$")

func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()

	if len(username) < 3 || len(username) > 50 {
		return false
	}

	return usernamePattern.MatchString(username)
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// ValidationSummary joins all field messages into one line.
func ValidationSummary(err error) string {
	errs := GetValidationErrors(err)
	if len(errs) == 0 {
		if err != nil {
			return err.Error()
		}
		return ""
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "datetime":
		return e.Field() + " must be a date in " + e.Param() + " format"
	case "strong_password":
		return "Password must contain at least 8 characters with uppercase, lowercase, number, and special character"
	case "username":
		return "Username must be 3-50 characters and contain only letters, numbers, dots, and underscores"
	case "lease_status":
		return e.Field() + " must be one of PENDING_APPROVAL, APPROVED, REJECTED, ACTIVE, EXPIRED, AUTO_RENEWED"
	case "rental_type":
		return e.Field() + " must be one of NONE, SWAP, ANNUALLY, MONTHLY"
	case "lease_type":
		return e.Field() + " must be one of SHORT_TERM, LONG_TERM, GROUND_LEASE, ROOFTOP, COLOCATION"
	case "operational_status":
		return e.Field() + " must be one of OPERATIONAL, UNDER_DEVELOPMENT"
	case "issue_status":
		return e.Field() + " must be one of OPEN, IN_PROGRESS, RESOLVED, CLOSED"
	default:
		return e.Field() + " is invalid"
	}
}
