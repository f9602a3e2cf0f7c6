package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kbukum/cachekit/errors"
)

// Validator collects field errors for checks that struct tags cannot express,
// such as uniqueness across a list.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{errors: make([]FieldError, 0)}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Err returns a validation AppError listing every field error, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", v.errors)
}

// Merge folds the field errors of a Validate result into v. Errors that
// are not validation AppErrors are recorded against field.
func (v *Validator) Merge(field string, err error) *Validator {
	if err == nil {
		return v
	}
	if appErr, ok := errors.AsAppError(err); ok {
		if fields, ok := appErr.Details["fields"].([]FieldError); ok {
			for _, f := range fields {
				v.AddError(joinField(field, f.Field), f.Message)
			}
			return v
		}
	}
	v.AddError(field, err.Error())
	return v
}

func joinField(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Pattern checks a non-empty string against a regular expression.
func (v *Validator) Pattern(field, value string, pattern *regexp.Regexp) *Validator {
	if value != "" && !pattern.MatchString(value) {
		v.AddError(field, "does not match "+pattern.String())
	}
	return v
}

// Range checks if a number is within [minVal, maxVal].
func (v *Validator) Range(field string, value, minVal, maxVal int) *Validator {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
	}
	return v
}

// OneOf checks if a non-empty value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Unique reports every value that appears more than once.
func (v *Validator) Unique(field string, values []string) *Validator {
	seen := make(map[string]bool, len(values))
	for i, val := range values {
		if seen[val] {
			v.AddError(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("duplicate value %q", val))
		}
		seen[val] = true
	}
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
