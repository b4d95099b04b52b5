package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/auth"
)

// SuperAdmin holds the credentials of the first super admin
type SuperAdmin struct {
	Username string
	Password string
}

// EnsureSuperAdmin creates the super admin account unless one exists.
// An empty password skips seeding.
func EnsureSuperAdmin(ctx context.Context, db repositories.Transactor, admin SuperAdmin, lgr zerolog.Logger) error {
	exists, err := db.Store().Users.ExistsWithRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("checking for super admin: %w", err)
	}
	if exists {
		lgr.Debug().Msg("Super admin already present, skipping seed")
		return nil
	}

	if admin.Password == "" {
		lgr.Warn().Msg("No super admin exists and no bootstrap password is configured")
		return nil
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hashing super admin password: %w", err)
	}

	user := &models.User{
		Username:     admin.Username,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
	}
	err = db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		return tx.Users.Create(ctx, user)
	})
	if errors.Is(err, apperrors.ErrUsernameTaken) {
		lgr.Error().Str("username", admin.Username).Msg("Bootstrap super admin username belongs to another account")
		return err
	}
	if err != nil {
		return fmt.Errorf("creating super admin: %w", err)
	}

	lgr.Info().Str("username", user.Username).Int64("userID", user.ID).Msg("Super admin account created")
	return nil
}
