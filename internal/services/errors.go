package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	apperrors "github.com/SAP-F-2025/school-admin-service/internal/errors"
	"github.com/SAP-F-2025/school-admin-service/internal/ledger"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden - insufficient permissions")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict")

	// ErrDataLoading means a live view has not received its first snapshot yet.
	ErrDataLoading = errors.New("data is loading")

	ErrStudentNotFound = errors.New("student not found")
	ErrParentNotFound  = errors.New("parent not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrPaymentNotFound = ledger.ErrPaymentNotFound

	ErrInvalidRole = errors.New("invalid user role")
)

type (
	ValidationError  = apperrors.ValidationError
	ValidationErrors = apperrors.ValidationErrors
)

// BusinessRuleError rejects a request that is well formed but not allowed in
// the current state, e.g. deleting the signed-in account.
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id,omitempty"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// Is lets errors.Is(err, ErrForbidden) match permission errors.
func (pe *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== CLASSIFICATION =====

// ErrorKind groups service errors by how callers should react to them.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindInternal     ErrorKind = "internal"
	KindLoading      ErrorKind = "loading"
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindBusinessRule ErrorKind = "business_rule"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindConflict     ErrorKind = "conflict"
)

var sentinelKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrDataLoading, KindLoading},
	{ErrNotFound, KindNotFound},
	{ErrStudentNotFound, KindNotFound},
	{ErrParentNotFound, KindNotFound},
	{ErrTeacherNotFound, KindNotFound},
	{ErrPaymentNotFound, KindNotFound},
	{ErrUserNotFound, KindNotFound},
	{repositories.ErrDocumentNotFound, KindNotFound},
	{ErrBadRequest, KindValidation},
	{ErrInvalidRole, KindValidation},
	{repositories.ErrInvalidQuery, KindValidation},
	{ErrUnauthorized, KindUnauthorized},
	{auth.ErrInvalidCredentials, KindUnauthorized},
	{auth.ErrInvalidToken, KindUnauthorized},
	{auth.ErrTokenRevoked, KindUnauthorized},
	{ErrForbidden, KindForbidden},
	{ErrConflict, KindConflict},
	{auth.ErrPrincipalExists, KindConflict},
}

// Classify returns the kind of err. Typed errors take precedence over the
// sentinels they may wrap.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var ve ValidationErrors
	var bre *BusinessRuleError
	var pe *PermissionError
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &bre):
		return KindBusinessRule
	case errors.As(err, &pe):
		return KindForbidden
	}

	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	if repositories.IsNotFoundError(err) {
		return KindNotFound
	}
	return KindInternal
}

func IsNotFound(err error) bool     { return Classify(err) == KindNotFound }
func IsUnauthorized(err error) bool { return Classify(err) == KindUnauthorized }
func IsForbidden(err error) bool    { return Classify(err) == KindForbidden }
func IsValidation(err error) bool   { return Classify(err) == KindValidation }
func IsBusinessRule(err error) bool { return Classify(err) == KindBusinessRule }
func IsConflict(err error) bool     { return Classify(err) == KindConflict }
func IsLoading(err error) bool      { return Classify(err) == KindLoading }
