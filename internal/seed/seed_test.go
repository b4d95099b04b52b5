package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories/memory"
	"github.com/yigit/schoolbook/internal/pkg/auth"
)

func TestEnsureSuperAdmin(t *testing.T) {
	auth.BcryptCost = bcrypt.MinCost
	ctx := context.Background()
	db := memory.New()

	require.NoError(t, EnsureSuperAdmin(ctx, db, SuperAdmin{Username: "root", Password: "rootpass"}, zerolog.Nop()))

	user, err := db.Store().Users.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
	assert.Nil(t, user.SchoolID)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "rootpass"))

	// a second run leaves the existing account alone
	require.NoError(t, EnsureSuperAdmin(ctx, db, SuperAdmin{Username: "other", Password: "otherpass"}, zerolog.Nop()))
	_, err = db.Store().Users.GetByUsername(ctx, "other")
	assert.Error(t, err)
}

func TestEnsureSuperAdminWithoutPassword(t *testing.T) {
	ctx := context.Background()
	db := memory.New()

	require.NoError(t, EnsureSuperAdmin(ctx, db, SuperAdmin{Username: "root"}, zerolog.Nop()))

	exists, err := db.Store().Users.ExistsWithRole(ctx, models.RoleSuperAdmin)
	require.NoError(t, err)
	assert.False(t, exists)
}
