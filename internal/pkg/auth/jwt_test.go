package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/schoolbook/internal/app/models"
)

func newJWT(exp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: exp, TokenIssuer: "schoolbook-test"})
}

func TestGenerateAndValidate(t *testing.T) {
	schoolID := int64(3)
	svc := newJWT(time.Hour)

	token, expiresIn, err := svc.GenerateAccessToken(&models.User{ID: 7, Username: "ann1", Role: models.RoleStudent, SchoolID: &schoolID})
	require.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)

	claims, err := svc.ValidateAndExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "ann1", claims.Username)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, int64(3), claims.SchoolID)
	assert.Equal(t, "7", claims.Subject)
}

func TestValidateRejects(t *testing.T) {
	user := &models.User{ID: 1, Username: "root", Role: models.RoleSuperAdmin}

	expired, _, err := newJWT(-time.Minute).GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = newJWT(time.Hour).ValidateAndExtractClaims(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := NewJWTService(JWTConfig{SecretKey: "other-secret", AccessTokenExp: time.Hour, TokenIssuer: "schoolbook-test"})
	forged, _, err := other.GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = newJWT(time.Hour).ValidateAndExtractClaims(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badRole, _, err := newJWT(time.Hour).GenerateAccessToken(&models.User{ID: 1, Username: "x", Role: "janitor"})
	require.NoError(t, err)
	_, err = newJWT(time.Hour).ValidateAndExtractClaims(badRole)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// tenant roles always carry a school, super admins never do
	schoolID := int64(2)
	stray, _, err := newJWT(time.Hour).GenerateAccessToken(&models.User{ID: 1, Username: "root", Role: models.RoleSuperAdmin, SchoolID: &schoolID})
	require.NoError(t, err)
	_, err = newJWT(time.Hour).ValidateAndExtractClaims(stray)
	assert.ErrorIs(t, err, ErrInvalidToken)

	homeless, _, err := newJWT(time.Hour).GenerateAccessToken(&models.User{ID: 4, Username: "t1", Role: models.RoleTeacher})
	require.NoError(t, err)
	_, err = newJWT(time.Hour).ValidateAndExtractClaims(homeless)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newJWT(time.Hour).ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = ExtractBearerToken("abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ExtractBearerToken("Bearer ")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))
}
