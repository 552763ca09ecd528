// Package validator checks records before they are written: struct tags
// through go-playground/validator, then the rules tags cannot express.
package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/school-admin-service/internal/errors"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/go-playground/validator/v10"
)

type (
	ValidationError  = apperrors.ValidationError
	ValidationErrors = apperrors.ValidationErrors
)

// domainTags are the custom tags used on the school records.
var domainTags = map[string]validator.Func{
	"grade_level": func(fl validator.FieldLevel) bool {
		return models.GradeLevel(fl.Field().String()).IsValid()
	},
	"payment_method": func(fl validator.FieldLevel) bool {
		return models.PaymentMethod(fl.Field().String()).IsValid()
	},
	"staff_role": func(fl validator.FieldLevel) bool {
		return models.StaffRole(fl.Field().String()).IsStaff()
	},
	"user_source": func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == models.CollectionTeachers || value == models.CollectionParents
	},
}

type Validator struct {
	structs  *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	structs := validator.New()
	for tag, fn := range domainTags {
		// Registration only fails on an empty tag or nil func.
		_ = structs.RegisterValidation(tag, fn)
	}
	// Report fields by their JSON name.
	structs.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{structs: structs, business: NewBusinessValidator()}
}

// Validate runs the tag checks and, when they pass, the business rules.
// Failures are always ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structs.Struct(s); err != nil {
		if errs := apperrors.FromValidator(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return v.business.Validate(s).OrNil()
}

func (v *Validator) Business() *BusinessValidator {
	return v.business
}
