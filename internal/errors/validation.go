// Package errors holds the field-level validation failures shared by the
// validator, the services and the HTTP layer.
package errors

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError rejects one field. Field is the JSON name of the field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// ValidationErrors collects every rejected field of one record.
type ValidationErrors []ValidationError

// Error lists the rejected fields, e.g. "validation failed: first_name is
// required; grade_level must be a valid grade level".
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(ve))
	for i := range ve {
		parts[i] = ve[i].Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the rejected field names in order.
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, len(ve))
	for i := range ve {
		fields[i] = ve[i].Field
	}
	return fields
}

// Has reports whether field was rejected.
func (ve ValidationErrors) Has(field string) bool {
	for i := range ve {
		if ve[i].Field == field {
			return true
		}
	}
	return false
}

// Add appends a rejection of field under rule.
func (ve *ValidationErrors) Add(field, rule, message string, value interface{}) {
	*ve = append(*ve, ValidationError{Field: field, Message: message, Value: value, Rule: rule})
}

// OrNil returns nil for an empty collection so callers can return it as error.
func (ve ValidationErrors) OrNil() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value, Rule: rule}
}

// ruleMessages maps validator tags to messages. %s is replaced by the tag
// parameter.
var ruleMessages = map[string]string{
	"required":       "is required",
	"min":            "must be at least %s",
	"max":            "must be at most %s",
	"len":            "must be exactly %s characters",
	"gt":             "must be greater than %s",
	"email":          "must be a valid email address",
	"url":            "must be a valid URL",
	"oneof":          "must be one of: %s",
	"grade_level":    "must be a valid grade level (Prejardín ... Once)",
	"payment_method": "must be a valid payment method (Efectivo, Transferencia, Tarjeta, Consignación)",
	"staff_role":     "must be a valid staff role (Profesor, Coordinador, Secretaria, Director, Directivo Docente, Administrador)",
	"user_source":    "must be teachers or parents",
}

// FromValidator converts the errors of go-playground/validator. Any other
// error yields an empty collection.
func FromValidator(err error) ValidationErrors {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe.Tag(), fe.Param()),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageFor(tag, param string) string {
	msg, ok := ruleMessages[tag]
	if !ok {
		return fmt.Sprintf("failed rule %q", tag)
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, param)
	}
	return msg
}
