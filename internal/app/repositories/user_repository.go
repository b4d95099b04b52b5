package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/db"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/dberrors"
	"github.com/yigit/schoolbook/internal/pkg/logger"
)

var userColumns = []string{"id", "username", "password_hash", "role", "school_id", "created_at"}

// PgUserRepository handles user account database operations
type PgUserRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new PgUserRepository
func NewUserRepository(q db.Querier) *PgUserRepository {
	return &PgUserRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a user and sets its ID
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("username", "password_hash", "role", "school_id").
		Values(user.Username, user.PasswordHash, user.Role, user.SchoolID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		if dberrors.IsUniqueViolation(err, "users_username_key") {
			return apperrors.ErrUsernameTaken
		}
		logger.Error().Err(err).Str("username", user.Username).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *PgUserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user := &models.User{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.SchoolID, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by username
func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// Usernames returns every taken username
func (r *PgUserRepository) Usernames(ctx context.Context) (map[string]struct{}, error) {
	sql, args, err := r.sb.Select("username").From("users").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build usernames query: %w", err)
	}
	return collectStrings(ctx, r.db, sql, args, nil)
}

// ExistsWithRole reports whether any account has role
func (r *PgUserRepository) ExistsWithRole(ctx context.Context, role models.RoleType) (bool, error) {
	sql, args, err := r.sb.Select("1").From("users").Where(squirrel.Eq{"role": role}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build role exists query: %w", err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists)
	if err != nil {
		logger.Error().Err(err).Str("role", string(role)).Msg("Error checking role existence")
		return false, fmt.Errorf("error checking role existence: %w", err)
	}
	return exists, nil
}

// PgSchoolAdminRepository handles school admin profiles
type PgSchoolAdminRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewSchoolAdminRepository creates a new PgSchoolAdminRepository
func NewSchoolAdminRepository(q db.Querier) *PgSchoolAdminRepository {
	return &PgSchoolAdminRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a school admin profile
func (r *PgSchoolAdminRepository) Create(ctx context.Context, admin *models.SchoolAdmin) error {
	sql, args, err := r.sb.Insert("school_admins").
		Columns("user_id", "school_id", "full_name").
		Values(admin.UserID, admin.SchoolID, admin.FullName).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create school admin query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&admin.ID); err != nil {
		logger.Error().Err(err).Int64("userID", admin.UserID).Msg("Error creating school admin profile")
		return fmt.Errorf("error creating school admin profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves the profile of a school admin account
func (r *PgSchoolAdminRepository) GetByUserID(ctx context.Context, userID int64) (*models.SchoolAdmin, error) {
	sql, args, err := r.sb.Select("id", "user_id", "school_id", "full_name").
		From("school_admins").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get school admin query: %w", err)
	}

	admin := &models.SchoolAdmin{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&admin.ID, &admin.UserID, &admin.SchoolID, &admin.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning school admin row")
		return nil, fmt.Errorf("error getting school admin: %w", err)
	}
	return admin, nil
}
