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

// studentColumns lists the scanned student columns under alias
func studentColumns(alias string) []string {
	cols := []string{"id", "user_id", "school_id", "full_name", "admission_number", "admission_year"}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return cols
}

func scanStudents(rows pgx.Rows) ([]*models.Student, error) {
	students := []*models.Student{}
	for rows.Next() {
		s := &models.Student{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.SchoolID, &s.FullName, &s.AdmissionNumber, &s.AdmissionYear); err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}
	return students, nil
}

// PgStudentRepository handles student profiles
type PgStudentRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new PgStudentRepository
func NewStudentRepository(q db.Querier) *PgStudentRepository {
	return &PgStudentRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a student profile
func (r *PgStudentRepository) Create(ctx context.Context, student *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("user_id", "school_id", "full_name", "admission_number", "admission_year").
		Values(student.UserID, student.SchoolID, student.FullName, student.AdmissionNumber, student.AdmissionYear).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&student.ID); err != nil {
		if dberrors.IsUniqueViolation(err, "students_admission_number_key") {
			return apperrors.NewConflictError("admission number " + student.AdmissionNumber + " is already assigned")
		}
		logger.Error().Err(err).Int64("schoolID", student.SchoolID).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

func (r *PgStudentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Student, error) {
	sql, args, err := r.sb.Select(append(studentColumns("s"), "u.username")...).
		From("students s").
		Join("users u ON u.id = s.user_id").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get student SQL")
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	s := &models.Student{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&s.ID, &s.UserID, &s.SchoolID, &s.FullName, &s.AdmissionNumber, &s.AdmissionYear, &s.Username,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Msg("Error scanning student row")
		return nil, fmt.Errorf("error getting student: %w", err)
	}
	return s, nil
}

// GetByID retrieves a student of a school
func (r *PgStudentRepository) GetByID(ctx context.Context, schoolID, id int64) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"s.id": id, "s.school_id": schoolID})
}

// GetByUserID retrieves the profile of a student account
func (r *PgStudentRepository) GetByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"s.user_id": userID})
}

// GetByAdmissionNumber resolves an admission number within a school
func (r *PgStudentRepository) GetByAdmissionNumber(ctx context.Context, schoolID int64, admissionNumber string) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"s.admission_number": admissionNumber, "s.school_id": schoolID})
}

// List returns a page of a school's students and the unpaged total
func (r *PgStudentRepository) List(ctx context.Context, filter StudentFilter) ([]*models.Student, int, error) {
	where := squirrel.And{squirrel.Eq{"s.school_id": filter.SchoolID}}
	if filter.YearFrom > 0 {
		where = append(where, squirrel.GtOrEq{"s.admission_year": filter.YearFrom})
	}
	if filter.YearTo > 0 {
		where = append(where, squirrel.LtOrEq{"s.admission_year": filter.YearTo})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("students s").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count students query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Int64("schoolID", filter.SchoolID).Msg("Error counting students")
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	q := r.sb.Select(studentColumns("s")...).
		From("students s").
		Where(where).
		OrderBy("s.admission_year DESC", "s.full_name ASC", "s.id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("schoolID", filter.SchoolID).Msg("Error executing list students query")
		return nil, 0, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	students, err := scanStudents(rows)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}
