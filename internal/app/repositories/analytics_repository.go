package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/db"
	"github.com/yigit/schoolbook/internal/pkg/logger"
)

// PgAnalyticsRepository runs aggregate queries over grades
type PgAnalyticsRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewAnalyticsRepository creates a new PgAnalyticsRepository
func NewAnalyticsRepository(q db.Querier) *PgAnalyticsRepository {
	return &PgAnalyticsRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// StudentTrend averages a student's marks per term, ordered by term
func (r *PgAnalyticsRepository) StudentTrend(ctx context.Context, schoolID, studentID int64) ([]models.TermAverage, error) {
	sql, args, err := r.sb.Select("term", "ROUND(AVG(marks)::numeric, 2)::float8").
		From("grades").
		Where(squirrel.Eq{"school_id": schoolID, "student_id": studentID}).
		GroupBy("term").
		OrderBy("term ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student trend query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error executing student trend query")
		return nil, fmt.Errorf("error querying student trend: %w", err)
	}
	defer rows.Close()

	trend := []models.TermAverage{}
	for rows.Next() {
		var p models.TermAverage
		if err := rows.Scan(&p.Term, &p.AverageMarks); err != nil {
			return nil, fmt.Errorf("error scanning trend row: %w", err)
		}
		trend = append(trend, p)
	}
	return trend, rows.Err()
}

// ClassDistribution counts grade letters of students admitted in [yearFrom, yearTo]
func (r *PgAnalyticsRepository) ClassDistribution(ctx context.Context, schoolID int64, yearFrom, yearTo int) (models.LetterDistribution, error) {
	sql, args, err := r.sb.Select("g.grade_letter", "COUNT(*)").
		From("grades g").
		Join("students s ON s.id = g.student_id").
		Where(squirrel.Eq{"g.school_id": schoolID, "s.school_id": schoolID}).
		Where(squirrel.GtOrEq{"s.admission_year": yearFrom}).
		Where(squirrel.LtOrEq{"s.admission_year": yearTo}).
		GroupBy("g.grade_letter").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build class distribution query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("schoolID", schoolID).Msg("Error executing class distribution query")
		return nil, fmt.Errorf("error querying class distribution: %w", err)
	}
	defer rows.Close()

	dist := make(models.LetterDistribution)
	for rows.Next() {
		var letter models.GradeLetter
		var n int
		if err := rows.Scan(&letter, &n); err != nil {
			return nil, fmt.Errorf("error scanning distribution row: %w", err)
		}
		dist[letter] = n
	}
	return dist, rows.Err()
}

// SchoolComparison averages marks per school, best first
func (r *PgAnalyticsRepository) SchoolComparison(ctx context.Context) ([]models.SchoolAverage, error) {
	sql, args, err := r.sb.Select("s.name", "ROUND(AVG(g.marks)::numeric, 2)::float8 AS average_marks").
		From("grades g").
		Join("schools s ON s.id = g.school_id").
		GroupBy("s.id", "s.name").
		OrderBy("average_marks DESC", "s.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build school comparison query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing school comparison query")
		return nil, fmt.Errorf("error querying school comparison: %w", err)
	}
	defer rows.Close()

	result := []models.SchoolAverage{}
	for rows.Next() {
		var a models.SchoolAverage
		if err := rows.Scan(&a.SchoolName, &a.AverageMarks); err != nil {
			return nil, fmt.Errorf("error scanning comparison row: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
