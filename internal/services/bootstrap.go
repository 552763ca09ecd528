package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
)

// BootstrapManager describes the first management account of a new school.
type BootstrapManager struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// systemActor stands for the service itself in logs and events.
var systemActor = Actor{UID: "system"}

// EnsureManager creates a Director account from m unless some teacher already
// holds a management role. A teacher record with m's email is promoted
// instead of creating a second account. It reports whether anything changed.
func (s *UserService) EnsureManager(ctx context.Context, m BootstrapManager) (bool, error) {
	op := s.logger.WithOperation(ctx, "bootstrap_manager", systemActor.UID)

	user, changed, err := s.ensureManager(ctx, m)
	op.LogResult(user.ID, models.CollectionTeachers, err)
	if err != nil || !changed {
		return false, err
	}

	op.LogAudit(AuditEventCreate, user.ID, models.CollectionTeachers, nil, map[string]interface{}{
		"email": user.Email,
		"role":  string(user.Role),
	})
	s.publish(ctx, events.EventUserCreated, systemActor, user)
	return true, nil
}

func (s *UserService) ensureManager(ctx context.Context, m BootstrapManager) (views.User, bool, error) {
	teachers, err := s.teachers.List(ctx, repositories.Query{})
	if err != nil {
		return views.User{}, false, err
	}
	email := strings.ToLower(strings.TrimSpace(m.Email))
	var existing *models.Teacher
	for i := range teachers {
		if models.HasManagementRole(teachers[i].Role) {
			return views.UserFromTeacher(teachers[i]), false, nil
		}
		if strings.EqualFold(strings.TrimSpace(teachers[i].Email), email) {
			existing = &teachers[i]
		}
	}

	if existing != nil {
		if err := s.teachers.Update(ctx, existing.ID, map[string]interface{}{"role": models.RoleDirector}); err != nil {
			return views.User{}, false, err
		}
		existing.Role = models.RoleDirector
		return views.UserFromTeacher(*existing), true, nil
	}

	req := NewUserRequest{
		Source:    views.SourceTeachers,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     email,
		Role:      models.RoleDirector,
	}
	if err := s.validator.Validate(&req); err != nil {
		return views.User{}, false, err
	}
	if m.Password == "" {
		return views.User{}, false, ValidationErrors{*NewValidationError("password", "is required", "")}
	}

	uid, err := s.provider.CreatePrincipal(ctx, auth.NewPrincipal{
		Email:       email,
		Password:    m.Password,
		DisplayName: m.FirstName + " " + m.LastName,
	})
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalExists) {
			return views.User{}, false, fmt.Errorf("bootstrap account %s exists without a teacher record: %w", email, err)
		}
		return views.User{}, false, err
	}

	user, err := s.writeRecord(ctx, uid, req)
	if err != nil {
		if delErr := s.provider.DeletePrincipal(ctx, uid); delErr != nil {
			s.logger.logger.Error("Failed to roll back principal", "uid", uid, "error", delErr)
		}
		return views.User{}, false, err
	}
	return user, true, nil
}
