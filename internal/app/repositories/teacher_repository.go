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
	"github.com/yigit/schoolbook/internal/pkg/logger"
)

// PgTeacherRepository handles teacher profiles
type PgTeacherRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewTeacherRepository creates a new PgTeacherRepository
func NewTeacherRepository(q db.Querier) *PgTeacherRepository {
	return &PgTeacherRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a teacher profile
func (r *PgTeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	sql, args, err := r.sb.Insert("teachers").
		Columns("user_id", "school_id", "full_name").
		Values(teacher.UserID, teacher.SchoolID, teacher.FullName).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create teacher query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&teacher.ID); err != nil {
		logger.Error().Err(err).Int64("userID", teacher.UserID).Msg("Error creating teacher profile")
		return fmt.Errorf("error creating teacher profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves the profile of a teacher account
func (r *PgTeacherRepository) GetByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	sql, args, err := r.sb.Select("t.id", "t.user_id", "t.school_id", "t.full_name", "u.username").
		From("teachers t").
		Join("users u ON u.id = t.user_id").
		Where(squirrel.Eq{"t.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get teacher query: %w", err)
	}

	t := &models.Teacher{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.UserID, &t.SchoolID, &t.FullName, &t.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning teacher row")
		return nil, fmt.Errorf("error getting teacher: %w", err)
	}
	return t, nil
}

// ListBySchool lists the teachers of a school by name
func (r *PgTeacherRepository) ListBySchool(ctx context.Context, schoolID int64) ([]*models.Teacher, error) {
	sql, args, err := r.sb.Select("t.id", "t.user_id", "t.school_id", "t.full_name", "u.username").
		From("teachers t").
		Join("users u ON u.id = t.user_id").
		Where(squirrel.Eq{"t.school_id": schoolID}).
		OrderBy("t.full_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list teachers query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("schoolID", schoolID).Msg("Error executing list teachers query")
		return nil, fmt.Errorf("error querying teachers: %w", err)
	}
	defer rows.Close()

	teachers := []*models.Teacher{}
	for rows.Next() {
		t := &models.Teacher{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.SchoolID, &t.FullName, &t.Username); err != nil {
			return nil, fmt.Errorf("error scanning teacher row: %w", err)
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}
