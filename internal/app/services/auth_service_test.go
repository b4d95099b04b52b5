package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

func TestLoginSuperAdminNeedsNoSchoolCode(t *testing.T) {
	f := newFixture(t)
	f.superAdmin("root")

	resp, err := f.auth().Login(f.ctx, &dto.LoginRequest{Username: "root", Password: password})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, int64(3600), resp.Token.ExpiresIn)
	assert.Equal(t, models.RoleSuperAdmin, resp.Identity.Role)
	assert.Zero(t, resp.Identity.SchoolID)

	claims, err := f.jwt.ValidateAndExtractClaims(resp.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Username)
	assert.Zero(t, claims.SchoolID)
}

func TestLoginTenantUser(t *testing.T) {
	f := newFixture(t)
	other := f.createSchool("Kilimani High", "KHS@1", "khs_admin")
	ann := f.admit(f.school, "Ann Mwangi", "ann1", 2024)

	resp, err := f.auth().Login(f.ctx, &dto.LoginRequest{SchoolCode: "GHS@1", Username: "ann1", Password: password})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, resp.Identity.Role)
	assert.Equal(t, f.school.ID, resp.Identity.SchoolID)
	assert.Equal(t, "Ann Mwangi", resp.Identity.FullName)

	claims, err := f.jwt.ValidateAndExtractClaims(resp.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.school.ID, claims.SchoolID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	identity, err := f.auth().Identify(f.ctx, claims.UserID)
	require.NoError(t, err)
	student, ok := identity.(*models.StudentIdentity)
	require.True(t, ok)
	assert.Equal(t, ann.ID, student.Profile.ID)

	tests := []struct {
		name string
		req  dto.LoginRequest
	}{
		{"missing school code", dto.LoginRequest{Username: "ann1", Password: password}},
		{"other school's code", dto.LoginRequest{SchoolCode: other.SchoolCode, Username: "ann1", Password: password}},
		{"unknown school code", dto.LoginRequest{SchoolCode: "NOPE@1", Username: "ann1", Password: password}},
		{"wrong password", dto.LoginRequest{SchoolCode: "GHS@1", Username: "ann1", Password: "wrong-pass"}},
		{"unknown user", dto.LoginRequest{SchoolCode: "GHS@1", Username: "ghost", Password: password}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth().Login(f.ctx, &tt.req)
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		})
	}
}

func TestIdentifyUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth().Identify(f.ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestIdentifyEveryRole(t *testing.T) {
	f := newFixture(t)
	f.superAdmin("root")
	f.admit(f.school, "Ann Mwangi", "ann1", 2024)
	f.teacher(f.school, "teach1")
	f.parent(f.school, "mum1")

	tests := map[string]models.RoleType{
		"root":      models.RoleSuperAdmin,
		"ghs_admin": models.RoleSchoolAdmin,
		"teach1":    models.RoleTeacher,
		"ann1":      models.RoleStudent,
		"mum1":      models.RoleParent,
	}
	for username, role := range tests {
		id := f.identify(username)
		assert.Equal(t, role, id.Role(), username)
		if role == models.RoleSuperAdmin {
			assert.Zero(t, id.TenantID())
		} else {
			assert.Equal(t, f.school.ID, id.TenantID(), username)
		}
	}
}
