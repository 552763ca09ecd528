package postgres

import (
	"log/slog"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"gorm.io/gorm"
)

// Stores holds one collection per entity the service persists.
type Stores struct {
	Students     *Collection[models.Student, *models.Student]
	Parents      *Collection[models.Parent, *models.Parent]
	Teachers     *Collection[models.Teacher, *models.Teacher]
	Courses      *Collection[models.Course, *models.Course]
	Achievements *Collection[models.Achievement, *models.Achievement]
	Grades       *Collection[models.GradeEntry, *models.GradeEntry]
	BehaviorLogs *Collection[models.BehaviorLog, *models.BehaviorLog]
	Settings     *Collection[models.SchoolSettings, *models.SchoolSettings]
}

func NewStores(db *gorm.DB, feed *ChangeFeed, logger *slog.Logger) *Stores {
	return &Stores{
		Students:     NewCollection[models.Student](db, models.CollectionStudents, feed, logger),
		Parents:      NewCollection[models.Parent](db, models.CollectionParents, feed, logger),
		Teachers:     NewCollection[models.Teacher](db, models.CollectionTeachers, feed, logger),
		Courses:      NewCollection[models.Course](db, models.CollectionCourses, feed, logger),
		Achievements: NewCollection[models.Achievement](db, models.CollectionAchievements, feed, logger),
		Grades:       NewCollection[models.GradeEntry](db, models.CollectionGrades, feed, logger),
		BehaviorLogs: NewCollection[models.BehaviorLog](db, models.CollectionBehaviorLogs, feed, logger),
		Settings:     NewCollection[models.SchoolSettings](db, models.CollectionSettings, feed, logger),
	}
}

// AutoMigrate creates or updates the tables behind every collection.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Student{},
		&models.Parent{},
		&models.Teacher{},
		&models.Course{},
		&models.Achievement{},
		&models.GradeEntry{},
		&models.BehaviorLog{},
		&models.SchoolSettings{},
	)
}
