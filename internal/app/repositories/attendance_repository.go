package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/db"
	"github.com/yigit/schoolbook/internal/pkg/logger"
)

// PgAttendanceRepository handles attendance records
type PgAttendanceRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewAttendanceRepository creates a new PgAttendanceRepository
func NewAttendanceRepository(q db.Querier) *PgAttendanceRepository {
	return &PgAttendanceRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert writes the record of (student, date), overwriting the status and teacher
func (r *PgAttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) (bool, error) {
	sql, args, err := r.sb.Insert("attendance").
		Columns("school_id", "student_id", "teacher_id", "date", "status").
		Values(record.SchoolID, record.StudentID, record.TeacherID, record.Date, record.Status).
		Suffix(`ON CONFLICT (student_id, date) DO UPDATE
			SET status = EXCLUDED.status,
				teacher_id = EXCLUDED.teacher_id
			RETURNING id, (xmax = 0)`).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build upsert attendance query: %w", err)
	}

	var created bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&record.ID, &created); err != nil {
		logger.Error().Err(err).
			Int64("studentID", record.StudentID).
			Time("date", record.Date).
			Msg("Error executing upsert attendance query")
		return false, fmt.Errorf("error saving attendance: %w", err)
	}
	return created, nil
}

// StatusesOn maps student IDs to the status recorded on date
func (r *PgAttendanceRepository) StatusesOn(ctx context.Context, schoolID int64, date time.Time) (map[int64]models.AttendanceStatus, error) {
	sql, args, err := r.sb.Select("student_id", "status").
		From("attendance").
		Where(squirrel.Eq{"school_id": schoolID, "date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build attendance statuses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("schoolID", schoolID).Msg("Error executing attendance statuses query")
		return nil, fmt.Errorf("error querying attendance: %w", err)
	}
	defer rows.Close()

	statuses := make(map[int64]models.AttendanceStatus)
	for rows.Next() {
		var id int64
		var status models.AttendanceStatus
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("error scanning attendance row: %w", err)
		}
		statuses[id] = status
	}
	return statuses, rows.Err()
}

// ListByStudent lists a student's attendance, newest first
func (r *PgAttendanceRepository) ListByStudent(ctx context.Context, schoolID, studentID int64) ([]*models.Attendance, error) {
	sql, args, err := r.sb.Select("id", "school_id", "student_id", "teacher_id", "date", "status").
		From("attendance").
		Where(squirrel.Eq{"school_id": schoolID, "student_id": studentID}).
		OrderBy("date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list attendance query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error executing list attendance query")
		return nil, fmt.Errorf("error querying attendance: %w", err)
	}
	defer rows.Close()

	records := []*models.Attendance{}
	for rows.Next() {
		a := &models.Attendance{}
		if err := rows.Scan(&a.ID, &a.SchoolID, &a.StudentID, &a.TeacherID, &a.Date, &a.Status); err != nil {
			return nil, fmt.Errorf("error scanning attendance row: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
