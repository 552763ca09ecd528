package models

// SettingsDocumentID is the fixed id of the SchoolSettings singleton.
const SettingsDocumentID = "main"

type SchoolSettings struct {
	Record
	Name           string  `json:"name" gorm:"size:200" validate:"omitempty,max=200"`
	TaxID          string  `json:"tax_id" gorm:"size:30" validate:"omitempty,max=30"`
	Address        string  `json:"address" gorm:"size:255" validate:"omitempty,max=255"`
	City           string  `json:"city" gorm:"size:100" validate:"omitempty,max=100"`
	Phone          string  `json:"phone" gorm:"size:30" validate:"omitempty,max=30"`
	Email          string  `json:"email" gorm:"size:255" validate:"omitempty,email"`
	LogoURL        string  `json:"logo_url" gorm:"size:500" validate:"omitempty,url"`
	PrincipalName  string  `json:"principal_name" gorm:"size:150" validate:"omitempty,max=150"`
	AcademicYear   int     `json:"academic_year" validate:"omitempty,min=2000,max=2100"`
	CurrentPeriod  int     `json:"current_period" validate:"omitempty,min=1,max=4"`
	PeriodsPerYear int     `json:"periods_per_year" validate:"omitempty,min=1,max=4"`
	PassingGrade   float64 `json:"passing_grade" validate:"omitempty,min=0,max=5"`
	Currency       string  `json:"currency" gorm:"size:3" validate:"omitempty,len=3"`
}

func (SchoolSettings) TableName() string {
	return "settings"
}
