package validator

import (
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/models"
)

// BusinessValidator checks rules that struct tags cannot express.
type BusinessValidator struct {
	now func() time.Time
}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{now: time.Now}
}

// Validate dispatches on the record type. Unknown types pass.
func (v *BusinessValidator) Validate(s interface{}) ValidationErrors {
	switch record := s.(type) {
	case *models.Student:
		return v.ValidateStudent(record)
	case *models.Course:
		return v.ValidateCourse(record)
	case *models.BehaviorLog:
		return v.ValidateBehaviorLog(record)
	default:
		return nil
	}
}

func (v *BusinessValidator) ValidateStudent(student *models.Student) ValidationErrors {
	var errs ValidationErrors
	if dup, ok := firstDuplicate(student.ParentIDs); ok {
		errs.Add("parent_ids", "unique", "must not contain duplicates", dup)
	}
	if student.BirthDate != nil && student.BirthDate.After(v.now()) {
		errs.Add("birth_date", "past_date", "must not be in the future", student.BirthDate)
	}
	return errs
}

func (v *BusinessValidator) ValidateCourse(course *models.Course) ValidationErrors {
	var errs ValidationErrors
	if dup, ok := firstDuplicate(course.StudentIDs); ok {
		errs.Add("student_ids", "unique", "must not contain duplicates", dup)
	}
	return errs
}

func (v *BusinessValidator) ValidateBehaviorLog(entry *models.BehaviorLog) ValidationErrors {
	var errs ValidationErrors
	if entry.Date.After(v.now().Add(24 * time.Hour)) {
		errs.Add("date", "past_date", "must not be in the future", entry.Date)
	}
	return errs
}

func firstDuplicate(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
