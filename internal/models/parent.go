package models

// Parent is a guardian. The link to students lives only in Student.ParentIDs.
type Parent struct {
	Record
	FirstName      string `json:"first_name" gorm:"not null;size:100" validate:"required,max=100"`
	LastName       string `json:"last_name" gorm:"not null;size:100;index" validate:"required,max=100"`
	DocumentNumber string `json:"document_number" gorm:"size:30;index" validate:"omitempty,max=30"`
	Email          string `json:"email" gorm:"size:255" validate:"omitempty,email"`
	Phone          string `json:"phone" gorm:"size:30" validate:"omitempty,max=30"`
	Address        string `json:"address" gorm:"size:255" validate:"omitempty,max=255"`
	Relationship   string `json:"relationship" gorm:"size:50" validate:"omitempty,max=50"`
	Occupation     string `json:"occupation" gorm:"size:100" validate:"omitempty,max=100"`
	PhotoURL       string `json:"photo_url" gorm:"size:500" validate:"omitempty,url"`
}

func (Parent) TableName() string {
	return "parents"
}
