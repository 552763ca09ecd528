package models

import (
	"time"

	"gorm.io/datatypes"
)

type Student struct {
	Record
	FirstName      string                      `json:"first_name" gorm:"not null;size:100" validate:"required,max=100"`
	LastName       string                      `json:"last_name" gorm:"not null;size:100;index" validate:"required,max=100"`
	DocumentType   string                      `json:"document_type" gorm:"size:10" validate:"omitempty,oneof=RC TI CC CE PA"`
	DocumentNumber string                      `json:"document_number" gorm:"size:30;index" validate:"omitempty,max=30"`
	BirthDate      *time.Time                  `json:"birth_date"`
	GradeLevel     GradeLevel                  `json:"grade_level" gorm:"size:30;index" validate:"required,grade_level"`
	Email          string                      `json:"email" gorm:"size:255" validate:"omitempty,email"`
	Phone          string                      `json:"phone" gorm:"size:30" validate:"omitempty,max=30"`
	Address        string                      `json:"address" gorm:"size:255" validate:"omitempty,max=255"`
	ParentIDs      datatypes.JSONSlice[string] `json:"parent_ids"`
}

func (Student) TableName() string {
	return "students"
}

// FullName returns "{first} {last}".
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentSummary is the denormalized student data attached to payments.
type StudentSummary struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	GradeLevel GradeLevel `json:"grade_level"`
}

func (s Student) Summary() StudentSummary {
	return StudentSummary{
		ID:         s.ID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		GradeLevel: s.GradeLevel,
	}
}
