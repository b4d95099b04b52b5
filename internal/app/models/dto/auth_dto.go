package dto

import "github.com/yigit/schoolbook/internal/app/models"

// LoginRequest represents login credentials. SchoolCode is required for
// everyone except super admins.
type LoginRequest struct {
	SchoolCode string `json:"schoolCode" example:"GHS@1"`
	Username   string `json:"username" binding:"required" example:"ann1"`
	Password   string `json:"password" binding:"required" example:"secret1"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn" example:"43200"`
}

// LoginResponse is a token plus who it was issued to
type LoginResponse struct {
	Token    TokenResponse    `json:"token"`
	Identity IdentityResponse `json:"identity"`
}

// IdentityResponse describes the authenticated caller
type IdentityResponse struct {
	UserID   int64           `json:"userId" example:"7"`
	Username string          `json:"username" example:"ann1"`
	Role     models.RoleType `json:"role" example:"student"`
	SchoolID int64           `json:"schoolId,omitempty" example:"1"`
	FullName string          `json:"fullName,omitempty" example:"Ann Mwangi"`
	Profile  interface{}     `json:"profile,omitempty"`
}

// NewIdentityResponse flattens an Identity for clients
func NewIdentityResponse(id models.Identity) IdentityResponse {
	resp := IdentityResponse{
		UserID:   id.Account().ID,
		Username: id.Account().Username,
		Role:     id.Role(),
		SchoolID: id.TenantID(),
	}
	switch v := id.(type) {
	case *models.SchoolAdminIdentity:
		resp.FullName, resp.Profile = v.Profile.FullName, v.Profile
	case *models.TeacherIdentity:
		resp.FullName, resp.Profile = v.Profile.FullName, v.Profile
	case *models.StudentIdentity:
		resp.FullName, resp.Profile = v.Profile.FullName, v.Profile
	case *models.ParentIdentity:
		resp.FullName, resp.Profile = v.Profile.FullName, v.Profile
	}
	return resp
}
