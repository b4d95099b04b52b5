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

// PgParentRepository handles parent profiles and parent-student links
type PgParentRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewParentRepository creates a new PgParentRepository
func NewParentRepository(q db.Querier) *PgParentRepository {
	return &PgParentRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a parent profile
func (r *PgParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	sql, args, err := r.sb.Insert("parents").
		Columns("user_id", "school_id", "full_name").
		Values(parent.UserID, parent.SchoolID, parent.FullName).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create parent query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&parent.ID); err != nil {
		logger.Error().Err(err).Int64("userID", parent.UserID).Msg("Error creating parent profile")
		return fmt.Errorf("error creating parent profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves the profile of a parent account
func (r *PgParentRepository) GetByUserID(ctx context.Context, userID int64) (*models.Parent, error) {
	sql, args, err := r.sb.Select("p.id", "p.user_id", "p.school_id", "p.full_name", "u.username").
		From("parents p").
		Join("users u ON u.id = p.user_id").
		Where(squirrel.Eq{"p.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get parent query: %w", err)
	}

	p := &models.Parent{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.UserID, &p.SchoolID, &p.FullName, &p.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning parent row")
		return nil, fmt.Errorf("error getting parent: %w", err)
	}
	return p, nil
}

// ListBySchool lists the parents of a school by name
func (r *PgParentRepository) ListBySchool(ctx context.Context, schoolID int64) ([]*models.Parent, error) {
	sql, args, err := r.sb.Select("p.id", "p.user_id", "p.school_id", "p.full_name", "u.username").
		From("parents p").
		Join("users u ON u.id = p.user_id").
		Where(squirrel.Eq{"p.school_id": schoolID}).
		OrderBy("p.full_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list parents query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("schoolID", schoolID).Msg("Error executing list parents query")
		return nil, fmt.Errorf("error querying parents: %w", err)
	}
	defer rows.Close()

	parents := []*models.Parent{}
	for rows.Next() {
		p := &models.Parent{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.SchoolID, &p.FullName, &p.Username); err != nil {
			return nil, fmt.Errorf("error scanning parent row: %w", err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

// LinkStudent associates a parent with a student; linking twice is a no-op
func (r *PgParentRepository) LinkStudent(ctx context.Context, parentID, studentID int64) error {
	sql, args, err := r.sb.Insert("parent_students").
		Columns("parent_id", "student_id").
		Values(parentID, studentID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build link student query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("parentID", parentID).Int64("studentID", studentID).Msg("Error linking parent to student")
		return fmt.Errorf("error linking parent to student: %w", err)
	}
	return nil
}

// IsLinked reports whether the parent is linked to the student
func (r *PgParentRepository) IsLinked(ctx context.Context, parentID, studentID int64) (bool, error) {
	var linked bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM parent_students WHERE parent_id = $1 AND student_id = $2)`,
		parentID, studentID,
	).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("error checking parent link: %w", err)
	}
	return linked, nil
}

// Children lists the students linked to a parent
func (r *PgParentRepository) Children(ctx context.Context, parentID int64) ([]*models.Student, error) {
	sql, args, err := r.sb.Select(studentColumns("s")...).
		From("students s").
		Join("parent_students ps ON ps.student_id = s.id").
		Join("parents p ON p.id = ps.parent_id AND p.school_id = s.school_id").
		Where(squirrel.Eq{"ps.parent_id": parentID}).
		OrderBy("s.full_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build children query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("parentID", parentID).Msg("Error executing children query")
		return nil, fmt.Errorf("error querying children: %w", err)
	}
	defer rows.Close()
	return scanStudents(rows)
}
