package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Message)
	}
	return strings.Join(messages, "; ")
}

var (
	columnName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	sortTerm   = regexp.MustCompile(`(?i)^[A-Za-z_][A-Za-z0-9_]*(\s+(ASC|DESC))?$`)
)

// New creates a new validator instance
func New() *Validator {
	v := validator.New()

	// Register custom tag name function to use JSON tags
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validators
	v.RegisterValidation("columnlist", validateColumnList)
	v.RegisterValidation("sortorder", validateSortOrder)

	return &Validator{validate: v}
}

// Validate validates a struct and returns validation errors
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	// Convert validation errors to our custom format
	var validationErrs ValidationErrors
	for _, err := range err.(validator.ValidationErrors) {
		validationErrs = append(validationErrs, ValidationError{
			Field:   err.Field(),
			Message: msgForTag(err),
			Tag:     err.Tag(),
			Value:   fmt.Sprintf("%v", err.Value()),
		})
	}

	return validationErrs
}

// msgForTag returns a human-readable error message for a validation tag
func msgForTag(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "columnlist":
		return fmt.Sprintf("%s must be a comma-separated list of column names", field)
	case "sortorder":
		return fmt.Sprintf("%s must be a comma-separated list of 'column [ASC|DESC]'", field)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// Custom validators

// validateColumnList validates a comma-separated list of identifiers
func validateColumnList(fl validator.FieldLevel) bool {
	for _, col := range strings.Split(fl.Field().String(), ",") {
		if !columnName.MatchString(strings.TrimSpace(col)) {
			return false
		}
	}
	return true
}

// validateSortOrder validates "col [ASC|DESC], ..."
func validateSortOrder(fl validator.FieldLevel) bool {
	for _, term := range strings.Split(fl.Field().String(), ",") {
		if !sortTerm.MatchString(strings.TrimSpace(term)) {
			return false
		}
	}
	return true
}
