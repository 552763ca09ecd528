package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/validator"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
)

// NewUserRequest creates a sign-in account together with its teacher or
// parent record.
type NewUserRequest struct {
	Source    views.SourceCollection `json:"source_collection" validate:"required,user_source"`
	FirstName string                 `json:"first_name" validate:"required,max=100"`
	LastName  string                 `json:"last_name" validate:"required,max=100"`
	Email     string                 `json:"email" validate:"required,email"`
	Phone     string                 `json:"phone" validate:"omitempty,max=30"`
	PhotoURL  string                 `json:"photo_url" validate:"omitempty,url"`
	Role      models.StaffRole       `json:"role" validate:"omitempty,staff_role"`
}

// CreatedUser carries the generated password, shown once to the administrator.
type CreatedUser struct {
	User            views.User `json:"user"`
	InitialPassword string     `json:"initial_password"`
}

// UserService administers sign-in accounts. Every write needs a management role.
type UserService struct {
	teachers  repositories.CollectionStore[models.Teacher]
	parents   repositories.CollectionStore[models.Parent]
	users     live.Observable[accessors.Result[views.User]]
	provider  auth.Provider
	validator *validator.Validator
	publisher events.EventPublisher
	logger    *ServiceLogger
}

func NewUserService(
	teachers repositories.CollectionStore[models.Teacher],
	parents repositories.CollectionStore[models.Parent],
	users live.Observable[accessors.Result[views.User]],
	provider auth.Provider,
	v *validator.Validator,
	publisher events.EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		teachers:  teachers,
		parents:   parents,
		users:     users,
		provider:  provider,
		validator: v,
		publisher: publisher,
		logger:    NewServiceLogger(logger, LogConfig{Service: "school-admin-service", Component: "users"}),
	}
}

// List returns the unified user view, or ErrDataLoading before both sources
// have loaded.
func (s *UserService) List(ctx context.Context, actor Actor) ([]views.User, error) {
	if err := requireManager(ctx, s.logger, actor, "users", "", "list_users"); err != nil {
		return nil, err
	}
	return resultData(s.users.Current())
}

func (s *UserService) Create(ctx context.Context, actor Actor, req NewUserRequest) (*CreatedUser, error) {
	op := s.logger.WithOperation(ctx, "create_user", actor.UID)

	created, err := s.create(ctx, actor, req)
	id := ""
	if created != nil {
		id = created.User.ID
	}
	op.LogResult(id, "users", err)
	if err != nil {
		return nil, err
	}

	op.LogAudit(AuditEventCreate, id, string(req.Source), nil, map[string]interface{}{
		"email": req.Email,
		"role":  string(created.User.Role),
	})
	s.publish(ctx, events.EventUserCreated, actor, created.User)
	return created, nil
}

func (s *UserService) create(ctx context.Context, actor Actor, req NewUserRequest) (*CreatedUser, error) {
	if err := requireManager(ctx, s.logger, actor, string(req.Source), "", "create_user"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}
	if req.Source == views.SourceParents && req.Role != "" {
		return nil, ValidationErrors{*NewValidationError("role", "parents cannot hold a staff role", req.Role)}
	}

	password := auth.GeneratePassword()
	uid, err := s.provider.CreatePrincipal(ctx, auth.NewPrincipal{
		Email:       req.Email,
		Password:    password,
		DisplayName: req.FirstName + " " + req.LastName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.writeRecord(ctx, uid, req)
	if err != nil {
		// Leave no account without a record behind.
		if delErr := s.provider.DeletePrincipal(ctx, uid); delErr != nil {
			s.logger.logger.Error("Failed to roll back principal", "uid", uid, "error", delErr)
		}
		return nil, err
	}

	return &CreatedUser{User: user, InitialPassword: password}, nil
}

func (s *UserService) writeRecord(ctx context.Context, uid string, req NewUserRequest) (views.User, error) {
	if req.Source == views.SourceTeachers {
		teacher := models.Teacher{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			PhotoURL:  req.PhotoURL,
			Role:      req.Role,
		}
		teacher.ID = uid
		if err := s.teachers.Set(ctx, &teacher, false); err != nil {
			return views.User{}, err
		}
		return views.UserFromTeacher(teacher), nil
	}

	parent := models.Parent{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		PhotoURL:  req.PhotoURL,
	}
	parent.ID = uid
	if err := s.parents.Set(ctx, &parent, false); err != nil {
		return views.User{}, err
	}
	return views.UserFromParent(parent), nil
}

// Delete removes the record and its sign-in account. Records created before
// accounts existed may have no principal; that is not an error.
func (s *UserService) Delete(ctx context.Context, actor Actor, source views.SourceCollection, id string) error {
	op := s.logger.WithOperation(ctx, "delete_user", actor.UID)

	err := s.delete(ctx, actor, source, id)
	op.LogResult(id, string(source), err)
	if err != nil {
		return err
	}

	op.LogAudit(AuditEventDelete, id, string(source), nil, nil)
	s.publish(ctx, events.EventUserDeleted, actor, views.User{ID: id, SourceCollection: source})
	return nil
}

func (s *UserService) delete(ctx context.Context, actor Actor, source views.SourceCollection, id string) error {
	if err := requireManager(ctx, s.logger, actor, string(source), id, "delete_user"); err != nil {
		return err
	}
	if id == actor.UID {
		return NewBusinessRuleError("self_delete", "users cannot delete their own account", nil)
	}

	var err error
	switch source {
	case views.SourceTeachers:
		err = s.teachers.Delete(ctx, id)
	case views.SourceParents:
		err = s.parents.Delete(ctx, id)
	default:
		return ValidationErrors{*NewValidationError("source_collection", "must be teachers or parents", source)}
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.provider.DeletePrincipal(ctx, id); err != nil && !errors.Is(err, auth.ErrPrincipalNotFound) {
		return err
	}
	return nil
}

// SetRole changes a teacher's staff role.
func (s *UserService) SetRole(ctx context.Context, actor Actor, teacherID string, role models.StaffRole) error {
	op := s.logger.WithOperation(ctx, "set_role", actor.UID)

	err := s.setRole(ctx, actor, teacherID, role)
	op.LogResult(teacherID, models.CollectionTeachers, err)
	if err != nil {
		return err
	}

	op.LogAudit(AuditEventUpdate, teacherID, models.CollectionTeachers, nil, map[string]interface{}{"role": string(role)})
	return nil
}

func (s *UserService) setRole(ctx context.Context, actor Actor, teacherID string, role models.StaffRole) error {
	if err := requireManager(ctx, s.logger, actor, models.CollectionTeachers, teacherID, "set_role"); err != nil {
		return err
	}
	if !role.IsStaff() {
		return ErrInvalidRole
	}
	if teacherID == actor.UID && !models.HasManagementRole(role) {
		return NewBusinessRuleError("self_demotion", "managers cannot remove their own management role", nil)
	}

	if err := s.teachers.Update(ctx, teacherID, map[string]interface{}{"role": role}); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTeacherNotFound
		}
		return err
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, actor Actor, user views.User) {
	if s.publisher == nil {
		return
	}
	event := events.NewDomainEvent(eventType, actor.UID, events.UserChangedEvent{
		UserID:           user.ID,
		SourceCollection: string(user.SourceCollection),
		Role:             string(user.Role),
		Email:            user.Email,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.logger.Warn("Failed to publish user event", "type", eventType, "id", user.ID, "error", err)
	}
}

// resultData unwraps an accessor result for request/response callers.
func resultData[T any](r accessors.Result[T]) ([]T, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Data == nil {
		return nil, ErrDataLoading
	}
	return r.Data, nil
}
