package models

// StaffRole is the role stored on a teacher record. Parents never carry one;
// they resolve to RoleGuardian in the unified user view.
type StaffRole string

const (
	RoleTeacher          StaffRole = "Profesor"
	RoleCoordinator      StaffRole = "Coordinador"
	RoleSecretary        StaffRole = "Secretaria"
	RoleDirector         StaffRole = "Director"
	RoleDirectiveTeacher StaffRole = "Directivo Docente"
	RoleAdministrator    StaffRole = "Administrador"
	RoleGuardian         StaffRole = "Acudiente"
)

// DefaultStaffRole is assigned to teacher records stored without a role.
const DefaultStaffRole = RoleTeacher

// StaffRoles are the roles a teacher record may hold.
var StaffRoles = []StaffRole{
	RoleTeacher, RoleCoordinator, RoleSecretary,
	RoleDirector, RoleDirectiveTeacher, RoleAdministrator,
}

var managementRoles = map[StaffRole]struct{}{
	RoleDirector:         {},
	RoleDirectiveTeacher: {},
	RoleAdministrator:    {},
}

// HasManagementRole reports whether role grants access to billing and user
// administration. The empty role (absent) never does.
func HasManagementRole(role StaffRole) bool {
	_, ok := managementRoles[role]
	return ok
}

func (r StaffRole) IsStaff() bool {
	for _, role := range StaffRoles {
		if role == r {
			return true
		}
	}
	return false
}
