package models

import "time"

// Document is implemented by every entity persisted through the record store.
type Document interface {
	DocumentID() string
	SetDocumentID(id string)
}

// Record carries the identity and timestamps shared by all stored documents.
type Record struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r Record) DocumentID() string {
	return r.ID
}

func (r *Record) SetDocumentID(id string) {
	r.ID = id
}

// Collection names used as record store paths and change feed topics.
const (
	CollectionStudents     = "students"
	CollectionParents      = "parents"
	CollectionTeachers     = "teachers"
	CollectionCourses      = "courses"
	CollectionAchievements = "achievements"
	CollectionGrades       = "grades"
	CollectionBehaviorLogs = "behavior_logs"
	CollectionSettings     = "settings"
)
