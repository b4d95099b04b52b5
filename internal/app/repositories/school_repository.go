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

// PgSchoolRepository handles school database operations
type PgSchoolRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewSchoolRepository creates a new PgSchoolRepository
func NewSchoolRepository(q db.Querier) *PgSchoolRepository {
	return &PgSchoolRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a school and sets its ID
func (r *PgSchoolRepository) Create(ctx context.Context, school *models.School) error {
	sql, args, err := r.sb.Insert("schools").
		Columns("name", "school_code").
		Values(school.Name, school.SchoolCode).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create school SQL")
		return fmt.Errorf("failed to build create school query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&school.ID, &school.CreatedAt); err != nil {
		if dberrors.IsUniqueViolation(err, "schools_school_code_key") {
			return apperrors.ErrSchoolCodeTaken
		}
		if dberrors.IsUniqueViolation(err, "schools_code_base_key") {
			return apperrors.ErrSchoolCodeBaseTaken
		}
		logger.Error().Err(err).Str("schoolCode", school.SchoolCode).Msg("Error executing create school query")
		return fmt.Errorf("error creating school: %w", err)
	}
	return nil
}

func (r *PgSchoolRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.School, error) {
	sql, args, err := r.sb.Select("id", "name", "school_code", "created_at").
		From("schools").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get school SQL")
		return nil, fmt.Errorf("failed to build get school query: %w", err)
	}

	school := &models.School{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&school.ID, &school.Name, &school.SchoolCode, &school.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSchoolNotFound
		}
		logger.Error().Err(err).Msg("Error scanning school row")
		return nil, fmt.Errorf("error getting school: %w", err)
	}
	return school, nil
}

// GetByID retrieves a school by ID
func (r *PgSchoolRepository) GetByID(ctx context.Context, id int64) (*models.School, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByCode retrieves a school by its exact code
func (r *PgSchoolRepository) GetByCode(ctx context.Context, code string) (*models.School, error) {
	return r.getOne(ctx, squirrel.Eq{"school_code": code})
}

// List returns all schools with headcounts, by name
func (r *PgSchoolRepository) List(ctx context.Context) ([]*models.SchoolSummary, error) {
	sql, args, err := r.sb.Select(
		"s.id", "s.name", "s.school_code", "s.created_at",
		"(SELECT COUNT(*) FROM students st WHERE st.school_id = s.id)",
		"(SELECT COUNT(*) FROM teachers t WHERE t.school_id = s.id)",
	).
		From("schools s").
		OrderBy("s.name ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list schools SQL")
		return nil, fmt.Errorf("failed to build list schools query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list schools query")
		return nil, fmt.Errorf("error querying schools: %w", err)
	}
	defer rows.Close()

	schools := []*models.SchoolSummary{}
	for rows.Next() {
		s := &models.SchoolSummary{}
		if err := rows.Scan(&s.ID, &s.Name, &s.SchoolCode, &s.CreatedAt, &s.Students, &s.Teachers); err != nil {
			return nil, fmt.Errorf("error scanning school row: %w", err)
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating school rows")
		return nil, fmt.Errorf("error iterating school rows: %w", err)
	}
	return schools, nil
}

// Codes returns every registered school code
func (r *PgSchoolRepository) Codes(ctx context.Context) (map[string]struct{}, error) {
	sql, args, err := r.sb.Select("school_code").From("schools").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build school codes query: %w", err)
	}
	return collectStrings(ctx, r.db, sql, args, nil)
}

// LockSequence reads the admission counter with FOR UPDATE
func (r *PgSchoolRepository) LockSequence(ctx context.Context, schoolID int64) (int, error) {
	sql, args, err := r.sb.Select("student_seq").
		From("schools").
		Where(squirrel.Eq{"id": schoolID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build lock sequence query: %w", err)
	}

	var seq int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrSchoolNotFound
		}
		logger.Error().Err(err).Int64("schoolID", schoolID).Msg("Error locking admission sequence")
		return 0, fmt.Errorf("error locking admission sequence: %w", err)
	}
	return seq, nil
}

// SetSequence stores the admission counter; it never moves backwards
func (r *PgSchoolRepository) SetSequence(ctx context.Context, schoolID int64, seq int) error {
	sql, args, err := r.sb.Update("schools").
		Set("student_seq", squirrel.Expr("GREATEST(student_seq, ?)", seq)).
		Where(squirrel.Eq{"id": schoolID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set sequence query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("schoolID", schoolID).Int("seq", seq).Msg("Error updating admission sequence")
		return fmt.Errorf("error updating admission sequence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSchoolNotFound
	}
	return nil
}

// Stats counts the records of a school
func (r *PgSchoolRepository) Stats(ctx context.Context, schoolID int64) (*models.SchoolStats, error) {
	sql, args, err := r.sb.Select(
		"(SELECT COUNT(*) FROM students WHERE school_id = s.id)",
		"(SELECT COUNT(*) FROM teachers WHERE school_id = s.id)",
		"(SELECT COUNT(*) FROM subjects WHERE school_id = s.id)",
		"(SELECT COUNT(*) FROM parents WHERE school_id = s.id)",
	).
		From("schools s").
		Where(squirrel.Eq{"s.id": schoolID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build school stats query: %w", err)
	}

	stats := &models.SchoolStats{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&stats.Students, &stats.Teachers, &stats.Subjects, &stats.Parents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSchoolNotFound
		}
		logger.Error().Err(err).Int64("schoolID", schoolID).Msg("Error querying school stats")
		return nil, fmt.Errorf("error querying school stats: %w", err)
	}
	return stats, nil
}

// collectStrings scans a single text column into a set, optionally transformed
func collectStrings(ctx context.Context, q db.Querier, sql string, args []interface{}, transform func(string) string) (map[string]struct{}, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing key set query")
		return nil, fmt.Errorf("error querying key set: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("error scanning key set row: %w", err)
		}
		if transform != nil {
			v = transform(v)
		}
		set[v] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key set rows: %w", err)
	}
	return set, nil
}
