package models

// RoleType defines the user role type
type RoleType string

const (
	RoleSuperAdmin  RoleType = "super_admin"
	RoleSchoolAdmin RoleType = "school_admin"
	RoleTeacher     RoleType = "teacher"
	RoleStudent     RoleType = "student"
	RoleParent      RoleType = "parent"
)

// Valid reports whether r is one of the five known roles
func (r RoleType) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSchoolAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// TenantScoped reports whether accounts of this role belong to a school
func (r RoleType) TenantScoped() bool {
	return r.Valid() && r != RoleSuperAdmin
}
