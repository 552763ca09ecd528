package models

import "gorm.io/datatypes"

type Course struct {
	Record
	Name        string                      `json:"name" gorm:"not null;size:150;index" validate:"required,max=150"`
	Area        string                      `json:"area" gorm:"size:100" validate:"omitempty,max=100"`
	Description string                      `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	TeacherID   string                      `json:"teacher_id" gorm:"size:64;index"`
	GradeLevel  GradeLevel                  `json:"grade_level" gorm:"size:30;index" validate:"required,grade_level"`
	WeeklyHours int                         `json:"weekly_hours" validate:"min=0,max=40"`
	StudentIDs  datatypes.JSONSlice[string] `json:"student_ids"`
}

func (Course) TableName() string {
	return "courses"
}

// Achievement is a learning goal scoped under a course for one academic period.
type Achievement struct {
	Record
	CourseID    string     `json:"course_id" gorm:"not null;size:64;index" validate:"required"`
	Description string     `json:"description" gorm:"type:text;not null" validate:"required,max=1000"`
	Period      int        `json:"period" gorm:"index" validate:"required,min=1,max=4"`
	GradeLevel  GradeLevel `json:"grade_level" gorm:"size:30" validate:"required,grade_level"`
}

func (Achievement) TableName() string {
	return "achievements"
}
