package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/db"
	"github.com/yigit/schoolbook/internal/pkg/logger"
)

// PgGradeRepository handles grades
type PgGradeRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewGradeRepository creates a new PgGradeRepository
func NewGradeRepository(q db.Querier) *PgGradeRepository {
	return &PgGradeRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert writes the grade of (student, subject, term). An existing row keeps
// its ID and gets the new marks, letter and teacher.
func (r *PgGradeRepository) Upsert(ctx context.Context, grade *models.Grade) (bool, error) {
	sql, args, err := r.sb.Insert("grades").
		Columns("school_id", "student_id", "subject_id", "teacher_id", "term", "marks", "grade_letter").
		Values(grade.SchoolID, grade.StudentID, grade.SubjectID, grade.TeacherID, grade.Term, grade.Marks, grade.Letter).
		Suffix(`ON CONFLICT (student_id, subject_id, term) DO UPDATE
			SET marks = EXCLUDED.marks,
				grade_letter = EXCLUDED.grade_letter,
				teacher_id = EXCLUDED.teacher_id,
				updated_at = NOW()
			RETURNING id, updated_at, (xmax = 0)`).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building upsert grade SQL")
		return false, fmt.Errorf("failed to build upsert grade query: %w", err)
	}

	var created bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&grade.ID, &grade.UpdatedAt, &created); err != nil {
		logger.Error().Err(err).
			Int64("studentID", grade.StudentID).
			Int64("subjectID", grade.SubjectID).
			Str("term", grade.Term).
			Msg("Error executing upsert grade query")
		return false, fmt.Errorf("error saving grade: %w", err)
	}
	return created, nil
}

func (r *PgGradeRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Grade, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list grades SQL")
		return nil, fmt.Errorf("failed to build list grades query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list grades query")
		return nil, fmt.Errorf("error querying grades: %w", err)
	}
	defer rows.Close()
	return scanGrades(rows)
}

func (r *PgGradeRepository) selectGrades() squirrel.SelectBuilder {
	return r.sb.Select(
		"g.id", "g.school_id", "g.student_id", "g.subject_id", "g.teacher_id",
		"g.term", "g.marks", "g.grade_letter", "g.updated_at", "sub.name", "st.full_name",
	).
		From("grades g").
		Join("subjects sub ON sub.id = g.subject_id").
		Join("students st ON st.id = g.student_id")
}

func scanGrades(rows pgx.Rows) ([]*models.Grade, error) {
	grades := []*models.Grade{}
	for rows.Next() {
		g := &models.Grade{}
		if err := rows.Scan(
			&g.ID, &g.SchoolID, &g.StudentID, &g.SubjectID, &g.TeacherID,
			&g.Term, &g.Marks, &g.Letter, &g.UpdatedAt, &g.SubjectName, &g.StudentName,
		); err != nil {
			return nil, fmt.Errorf("error scanning grade row: %w", err)
		}
		grades = append(grades, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grade rows: %w", err)
	}
	return grades, nil
}

// ListByStudent lists all grades of a student ordered by term then subject
func (r *PgGradeRepository) ListByStudent(ctx context.Context, schoolID, studentID int64) ([]*models.Grade, error) {
	return r.list(ctx, r.selectGrades().
		Where(squirrel.Eq{"g.school_id": schoolID, "g.student_id": studentID}).
		OrderBy("g.term ASC", "sub.name ASC"))
}

// ListByStudentTerm lists a student's grades of one term ordered by subject
func (r *PgGradeRepository) ListByStudentTerm(ctx context.Context, schoolID, studentID int64, term string) ([]*models.Grade, error) {
	return r.list(ctx, r.selectGrades().
		Where(squirrel.Eq{"g.school_id": schoolID, "g.student_id": studentID, "g.term": term}).
		OrderBy("sub.name ASC"))
}

// RecentByTeacher lists the grades a teacher most recently wrote
func (r *PgGradeRepository) RecentByTeacher(ctx context.Context, schoolID, teacherID int64, limit int) ([]*models.Grade, error) {
	return r.list(ctx, r.selectGrades().
		Where(squirrel.Eq{"g.school_id": schoolID, "g.teacher_id": teacherID}).
		OrderBy("g.updated_at DESC", "g.id DESC").
		Limit(uint64(limit)))
}
