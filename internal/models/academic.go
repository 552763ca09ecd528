package models

import "time"

// GradeEntry is one score recorded for a student in a course period.
type GradeEntry struct {
	Record
	StudentID     string  `json:"student_id" gorm:"not null;size:64;index" validate:"required"`
	CourseID      string  `json:"course_id" gorm:"not null;size:64;index" validate:"required"`
	AchievementID string  `json:"achievement_id,omitempty" gorm:"size:64"`
	Period        int     `json:"period" gorm:"index" validate:"required,min=1,max=4"`
	Score         float64 `json:"score" validate:"min=0,max=5"`
	Comments      string  `json:"comments" gorm:"type:text" validate:"omitempty,max=1000"`
}

func (GradeEntry) TableName() string {
	return "grades"
}

// BehaviorLog is an observer-sheet entry about a student.
type BehaviorLog struct {
	Record
	StudentID   string       `json:"student_id" gorm:"not null;size:64;index" validate:"required"`
	Date        time.Time    `json:"date" gorm:"index" validate:"required"`
	Kind        BehaviorKind `json:"kind" gorm:"size:20" validate:"required,oneof=Positiva Negativa Neutral"`
	Description string       `json:"description" gorm:"type:text;not null" validate:"required,max=2000"`
	ReportedBy  string       `json:"reported_by" gorm:"size:64"`
	FollowUp    string       `json:"follow_up" gorm:"type:text" validate:"omitempty,max=2000"`
}

func (BehaviorLog) TableName() string {
	return "behavior_logs"
}
