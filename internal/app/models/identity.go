package models

// Identity is the authenticated caller. Exactly one of SuperAdminIdentity,
// SchoolAdminIdentity, TeacherIdentity, StudentIdentity or ParentIdentity.
type Identity interface {
	Account() *User
	Role() RoleType
	// TenantID is the caller's school, zero for super admins
	TenantID() int64
	isIdentity()
}

type SuperAdminIdentity struct {
	User *User
}

type SchoolAdminIdentity struct {
	User    *User
	Profile *SchoolAdmin
}

type TeacherIdentity struct {
	User    *User
	Profile *Teacher
}

type StudentIdentity struct {
	User    *User
	Profile *Student
}

type ParentIdentity struct {
	User    *User
	Profile *Parent
}

func (i *SuperAdminIdentity) Account() *User  { return i.User }
func (i *SchoolAdminIdentity) Account() *User { return i.User }
func (i *TeacherIdentity) Account() *User     { return i.User }
func (i *StudentIdentity) Account() *User     { return i.User }
func (i *ParentIdentity) Account() *User      { return i.User }

func (i *SuperAdminIdentity) Role() RoleType  { return RoleSuperAdmin }
func (i *SchoolAdminIdentity) Role() RoleType { return RoleSchoolAdmin }
func (i *TeacherIdentity) Role() RoleType     { return RoleTeacher }
func (i *StudentIdentity) Role() RoleType     { return RoleStudent }
func (i *ParentIdentity) Role() RoleType      { return RoleParent }

func (i *SuperAdminIdentity) TenantID() int64  { return 0 }
func (i *SchoolAdminIdentity) TenantID() int64 { return i.Profile.SchoolID }
func (i *TeacherIdentity) TenantID() int64     { return i.Profile.SchoolID }
func (i *StudentIdentity) TenantID() int64     { return i.Profile.SchoolID }
func (i *ParentIdentity) TenantID() int64      { return i.Profile.SchoolID }

func (*SuperAdminIdentity) isIdentity()  {}
func (*SchoolAdminIdentity) isIdentity() {}
func (*TeacherIdentity) isIdentity()     {}
func (*StudentIdentity) isIdentity()     {}
func (*ParentIdentity) isIdentity()      {}

// ProfileName returns the display name of the caller's profile
func ProfileName(id Identity) string {
	switch v := id.(type) {
	case *SchoolAdminIdentity:
		return v.Profile.FullName
	case *TeacherIdentity:
		return v.Profile.FullName
	case *StudentIdentity:
		return v.Profile.FullName
	case *ParentIdentity:
		return v.Profile.FullName
	default:
		return id.Account().Username
	}
}
