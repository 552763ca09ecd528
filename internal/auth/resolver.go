package auth

import "github.com/SAP-F-2025/school-admin-service/internal/models"

// ResolveCurrentUser finds the teacher record whose id is the principal's
// uid. It returns nil for a nil principal, an unloaded (nil) teacher list,
// or no match.
func ResolveCurrentUser(principal *Principal, teachers []models.Teacher) *models.Teacher {
	if principal == nil || teachers == nil {
		return nil
	}
	for i := range teachers {
		if teachers[i].ID == principal.UID {
			teacher := teachers[i]
			return &teacher
		}
	}
	return nil
}

// CanManage reports whether the resolved user holds a management role.
func CanManage(teacher *models.Teacher) bool {
	if teacher == nil {
		return false
	}
	return models.HasManagementRole(teacher.Role)
}
