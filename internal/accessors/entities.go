package accessors

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
)

func byLastName() repositories.Query {
	return repositories.Query{OrderBy: []repositories.OrderBy{
		repositories.Asc("last_name"),
		repositories.Asc("first_name"),
	}}
}

func Students(ctx context.Context, store repositories.CollectionStore[models.Student], logger *slog.Logger) (*Accessor[models.Student], error) {
	return Open(ctx, store, byLastName(), nil, logger)
}

func Parents(ctx context.Context, store repositories.CollectionStore[models.Parent], logger *slog.Logger) (*Accessor[models.Parent], error) {
	return Open(ctx, store, byLastName(), nil, logger)
}

// Teachers fills in DefaultStaffRole for teachers stored without a role.
func Teachers(ctx context.Context, store repositories.CollectionStore[models.Teacher], logger *slog.Logger) (*Accessor[models.Teacher], error) {
	return Open(ctx, store, byLastName(), DefaultTeacherRoles, logger)
}

// DefaultTeacherRoles sets the default role in place on teachers without one.
func DefaultTeacherRoles(teachers []models.Teacher) []models.Teacher {
	for i := range teachers {
		teachers[i].Role = teachers[i].RoleOrDefault()
	}
	return teachers
}

func Courses(ctx context.Context, store repositories.CollectionStore[models.Course], logger *slog.Logger) (*Accessor[models.Course], error) {
	return Open(ctx, store, repositories.Query{OrderBy: []repositories.OrderBy{repositories.Asc("name")}}, nil, logger)
}

// Achievements follows the achievements of one course, by period then description.
func Achievements(ctx context.Context, store repositories.CollectionStore[models.Achievement], courseID string, logger *slog.Logger) (*Accessor[models.Achievement], error) {
	return Open(ctx, store, AchievementsQuery(courseID), nil, logger)
}

func AchievementsQuery(courseID string) repositories.Query {
	return repositories.Query{
		Where:   []repositories.Filter{repositories.Where("course_id", courseID)},
		OrderBy: []repositories.OrderBy{repositories.Asc("period"), repositories.Asc("description")},
	}
}

func Grades(ctx context.Context, store repositories.CollectionStore[models.GradeEntry], studentID string, logger *slog.Logger) (*Accessor[models.GradeEntry], error) {
	return Open(ctx, store, GradesQuery(studentID), nil, logger)
}

func GradesQuery(studentID string) repositories.Query {
	return repositories.Query{
		Where:   []repositories.Filter{repositories.Where("student_id", studentID)},
		OrderBy: []repositories.OrderBy{repositories.Asc("period"), repositories.Asc("course_id")},
	}
}

// BehaviorLogs follows one student's observer sheet, newest first.
func BehaviorLogs(ctx context.Context, store repositories.CollectionStore[models.BehaviorLog], studentID string, logger *slog.Logger) (*Accessor[models.BehaviorLog], error) {
	return Open(ctx, store, BehaviorLogsQuery(studentID), nil, logger)
}

func BehaviorLogsQuery(studentID string) repositories.Query {
	return repositories.Query{
		Where:   []repositories.Filter{repositories.Where("student_id", studentID)},
		OrderBy: []repositories.OrderBy{repositories.Desc("date")},
	}
}

// Settings follows the SchoolSettings singleton.
func Settings(ctx context.Context, store repositories.CollectionStore[models.SchoolSettings], logger *slog.Logger) (*DocumentAccessor[models.SchoolSettings], error) {
	return OpenDocument(ctx, store, models.SettingsDocumentID, logger)
}
