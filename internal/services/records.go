package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/school-admin-service/internal/validator"
)

type (
	ParentService      = RecordService[models.Parent, *models.Parent]
	TeacherService     = RecordService[models.Teacher, *models.Teacher]
	CourseService      = RecordService[models.Course, *models.Course]
	AchievementService = RecordService[models.Achievement, *models.Achievement]
	GradeService       = RecordService[models.GradeEntry, *models.GradeEntry]
	BehaviorLogService = RecordService[models.BehaviorLog, *models.BehaviorLog]
)

// Records groups the CRUD services of every record page.
type Records struct {
	Students     *StudentService
	Parents      *ParentService
	Teachers     *TeacherService
	Courses      *CourseService
	Achievements *AchievementService
	Grades       *GradeService
	BehaviorLogs *BehaviorLogService
}

func NewRecords(stores *postgres.Stores, v *validator.Validator, publisher events.EventPublisher, logger *slog.Logger) *Records {
	return &Records{
		Students: NewStudentService(stores.Students, stores.Parents, v, publisher, logger),
		Parents: NewRecordService[models.Parent, *models.Parent](stores.Parents, v, publisher, logger).
			WithNotFound(ErrParentNotFound),
		Teachers: NewRecordService[models.Teacher, *models.Teacher](stores.Teachers, v, publisher, logger).
			WithNotFound(ErrTeacherNotFound).
			WithPolicy(teacherPolicy),
		Courses: NewRecordService[models.Course, *models.Course](stores.Courses, v, publisher, logger).
			WithPolicy(courseTeacherExists(stores.Teachers)),
		Achievements: NewRecordService[models.Achievement, *models.Achievement](stores.Achievements, v, publisher, logger).
			WithPolicy(achievementCourseExists(stores.Courses)),
		Grades: NewRecordService[models.GradeEntry, *models.GradeEntry](stores.Grades, v, publisher, logger).
			WithPolicy(gradeReferencesExist(stores.Students, stores.Courses)),
		BehaviorLogs: NewRecordService[models.BehaviorLog, *models.BehaviorLog](stores.BehaviorLogs, v, publisher, logger).
			WithPolicy(behaviorLogPolicy(stores.Students)),
	}
}

// teacherPolicy keeps staff roles under management control: only managers
// may assign a role other than the default or delete a teacher.
func teacherPolicy(_ context.Context, actor Actor, existing, incoming *models.Teacher) error {
	if actor.CanManage() {
		return nil
	}

	switch {
	case incoming == nil:
		return NewPermissionError(actor.UID, existing.ID, models.CollectionTeachers, "delete", "management role required")
	case existing == nil && incoming.RoleOrDefault() != models.DefaultStaffRole:
		return NewPermissionError(actor.UID, incoming.ID, models.CollectionTeachers, "assign_role", "management role required")
	case existing != nil && incoming.RoleOrDefault() != existing.RoleOrDefault():
		return NewPermissionError(actor.UID, existing.ID, models.CollectionTeachers, "change_role", "management role required")
	}
	return nil
}

func referenceMissing(field, id string) error {
	return ValidationErrors{*NewValidationError(field, "does not reference an existing record", id)}
}

// exists reports whether id is stored in store.
func exists[T any](ctx context.Context, store repositories.CollectionStore[T], id string) (bool, error) {
	if _, err := store.Get(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func courseTeacherExists(teachers repositories.CollectionStore[models.Teacher]) WritePolicy[models.Course] {
	return func(ctx context.Context, _ Actor, _, incoming *models.Course) error {
		if incoming == nil || incoming.TeacherID == "" {
			return nil
		}
		ok, err := exists(ctx, teachers, incoming.TeacherID)
		if err != nil {
			return err
		}
		if !ok {
			return referenceMissing("teacher_id", incoming.TeacherID)
		}
		return nil
	}
}

func achievementCourseExists(courses repositories.CollectionStore[models.Course]) WritePolicy[models.Achievement] {
	return func(ctx context.Context, _ Actor, _, incoming *models.Achievement) error {
		if incoming == nil {
			return nil
		}
		ok, err := exists(ctx, courses, incoming.CourseID)
		if err != nil {
			return err
		}
		if !ok {
			return referenceMissing("course_id", incoming.CourseID)
		}
		return nil
	}
}

func gradeReferencesExist(students repositories.CollectionStore[models.Student], courses repositories.CollectionStore[models.Course]) WritePolicy[models.GradeEntry] {
	return func(ctx context.Context, _ Actor, _, incoming *models.GradeEntry) error {
		if incoming == nil {
			return nil
		}

		var errs ValidationErrors
		ok, err := exists(ctx, students, incoming.StudentID)
		if err != nil {
			return err
		}
		if !ok {
			errs = append(errs, *NewValidationError("student_id", "does not reference an existing record", incoming.StudentID))
		}

		ok, err = exists(ctx, courses, incoming.CourseID)
		if err != nil {
			return err
		}
		if !ok {
			errs = append(errs, *NewValidationError("course_id", "does not reference an existing record", incoming.CourseID))
		}

		if len(errs) > 0 {
			return errs
		}
		return nil
	}
}

// behaviorLogPolicy checks the student and records the actor as reporter when
// none is given.
func behaviorLogPolicy(students repositories.CollectionStore[models.Student]) WritePolicy[models.BehaviorLog] {
	return func(ctx context.Context, actor Actor, _, incoming *models.BehaviorLog) error {
		if incoming == nil {
			return nil
		}
		ok, err := exists(ctx, students, incoming.StudentID)
		if err != nil {
			return err
		}
		if !ok {
			return referenceMissing("student_id", incoming.StudentID)
		}
		if incoming.ReportedBy == "" {
			incoming.ReportedBy = actor.UID
		}
		return nil
	}
}

// StudentService adds parent linking to the student CRUD.
type StudentService struct {
	*RecordService[models.Student, *models.Student]
	parents repositories.CollectionStore[models.Parent]
}

func NewStudentService(students repositories.CollectionStore[models.Student], parents repositories.CollectionStore[models.Parent], v *validator.Validator, publisher events.EventPublisher, logger *slog.Logger) *StudentService {
	return &StudentService{
		RecordService: NewRecordService[models.Student, *models.Student](students, v, publisher, logger).
			WithNotFound(ErrStudentNotFound),
		parents: parents,
	}
}

// LinkParent appends parentID to the student's parents. Linking twice is a no-op.
func (s *StudentService) LinkParent(ctx context.Context, actor Actor, studentID, parentID string) (*models.Student, error) {
	ok, err := exists(ctx, s.parents, parentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParentNotFound, parentID)
	}

	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(student.ParentIDs, parentID) {
		return student, nil
	}

	student.ParentIDs = append(student.ParentIDs, parentID)
	return s.Replace(ctx, actor, studentID, student)
}

func (s *StudentService) UnlinkParent(ctx context.Context, actor Actor, studentID, parentID string) (*models.Student, error) {
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	kept := student.ParentIDs[:0]
	for _, id := range student.ParentIDs {
		if id != parentID {
			kept = append(kept, id)
		}
	}
	student.ParentIDs = kept
	return s.Replace(ctx, actor, studentID, student)
}
