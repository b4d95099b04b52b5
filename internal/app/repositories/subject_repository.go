package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/db"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/dberrors"
	"github.com/yigit/schoolbook/internal/pkg/logger"
)

// PgSubjectRepository handles subjects
type PgSubjectRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewSubjectRepository creates a new PgSubjectRepository
func NewSubjectRepository(q db.Querier) *PgSubjectRepository {
	return &PgSubjectRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a subject
func (r *PgSubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	sql, args, err := r.sb.Insert("subjects").
		Columns("school_id", "name").
		Values(subject.SchoolID, subject.Name).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create subject query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&subject.ID); err != nil {
		if dberrors.IsUniqueViolation(err, "subjects_school_name_key") {
			return apperrors.ErrSubjectExists
		}
		logger.Error().Err(err).Int64("schoolID", subject.SchoolID).Msg("Error executing create subject query")
		return fmt.Errorf("error creating subject: %w", err)
	}
	return nil
}

// GetByID retrieves a subject of a school
func (r *PgSubjectRepository) GetByID(ctx context.Context, schoolID, id int64) (*models.Subject, error) {
	sql, args, err := r.sb.Select("id", "school_id", "name").
		From("subjects").
		Where(squirrel.Eq{"id": id, "school_id": schoolID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get subject query: %w", err)
	}

	s := &models.Subject{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.SchoolID, &s.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSubjectNotFound
		}
		logger.Error().Err(err).Int64("subjectID", id).Msg("Error scanning subject row")
		return nil, fmt.Errorf("error getting subject: %w", err)
	}
	return s, nil
}

// ListBySchool lists the subjects of a school by name
func (r *PgSubjectRepository) ListBySchool(ctx context.Context, schoolID int64) ([]*models.Subject, error) {
	sql, args, err := r.sb.Select("id", "school_id", "name").
		From("subjects").
		Where(squirrel.Eq{"school_id": schoolID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list subjects query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("schoolID", schoolID).Msg("Error executing list subjects query")
		return nil, fmt.Errorf("error querying subjects: %w", err)
	}
	defer rows.Close()

	subjects := []*models.Subject{}
	for rows.Next() {
		s := &models.Subject{}
		if err := rows.Scan(&s.ID, &s.SchoolID, &s.Name); err != nil {
			return nil, fmt.Errorf("error scanning subject row: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// Names returns the lower-cased subject names of a school
func (r *PgSubjectRepository) Names(ctx context.Context, schoolID int64) (map[string]struct{}, error) {
	sql, args, err := r.sb.Select("name").From("subjects").Where(squirrel.Eq{"school_id": schoolID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subject names query: %w", err)
	}
	return collectStrings(ctx, r.db, sql, args, strings.ToLower)
}
