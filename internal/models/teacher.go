package models

import "gorm.io/datatypes"

type Teacher struct {
	Record
	FirstName      string                      `json:"first_name" gorm:"not null;size:100" validate:"required,max=100"`
	LastName       string                      `json:"last_name" gorm:"not null;size:100;index" validate:"required,max=100"`
	DocumentNumber string                      `json:"document_number" gorm:"size:30;index" validate:"omitempty,max=30"`
	Email          string                      `json:"email" gorm:"size:255" validate:"omitempty,email"`
	Phone          string                      `json:"phone" gorm:"size:30" validate:"omitempty,max=30"`
	Specialty      string                      `json:"specialty" gorm:"size:100" validate:"omitempty,max=100"`
	PhotoURL       string                      `json:"photo_url" gorm:"size:500" validate:"omitempty,url"`
	Role           StaffRole                   `json:"role,omitempty" gorm:"size:50" validate:"omitempty,staff_role"`
	CourseIDs      datatypes.JSONSlice[string] `json:"course_ids,omitempty"`
}

func (Teacher) TableName() string {
	return "teachers"
}

// RoleOrDefault returns the stored role, or DefaultStaffRole when none is set.
func (t Teacher) RoleOrDefault() StaffRole {
	if t.Role == "" {
		return DefaultStaffRole
	}
	return t.Role
}

// TeacherSummary is the denormalized teacher data attached to courses.
type TeacherSummary struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Role      StaffRole `json:"role"`
}

func (t Teacher) Summary() TeacherSummary {
	return TeacherSummary{
		ID:        t.ID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     t.Email,
		Role:      t.RoleOrDefault(),
	}
}
