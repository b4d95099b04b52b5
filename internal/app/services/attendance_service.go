package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/helpers"
)

// AttendanceService records attendance against derived form rosters
type AttendanceService interface {
	// Record upserts one status per student; every student must be on the
	// roster of the form in the teacher's school
	Record(ctx context.Context, teacher *models.TeacherIdentity, req *dto.RecordAttendanceRequest) (*dto.AttendanceResult, error)
	// Sheet returns the roster of form with the statuses recorded on date
	Sheet(ctx context.Context, schoolID int64, date time.Time, form int) ([]models.RosterEntry, error)
	History(ctx context.Context, schoolID, studentID int64) ([]*models.Attendance, error)
}

type attendanceService struct {
	db      repositories.Transactor
	maxForm int
	now     Clock
	logger  zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(db repositories.Transactor, maxForm int, logger zerolog.Logger) AttendanceService {
	return &attendanceService{db: db, maxForm: maxForm, now: time.Now, logger: logger}
}

func (s *attendanceService) Record(ctx context.Context, teacher *models.TeacherIdentity, req *dto.RecordAttendanceRequest) (*dto.AttendanceResult, error) {
	date, err := helpers.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be formatted YYYY-MM-DD")
	}
	if len(req.Entries) == 0 {
		return nil, apperrors.NewValidationError("at least one attendance entry is required")
	}

	records := make([]*models.Attendance, 0, len(req.Entries))
	for _, e := range req.Entries {
		status, ok := models.ParseAttendanceStatus(e.Status)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid status %q for student %d", e.Status, e.StudentID))
		}
		records = append(records, &models.Attendance{
			SchoolID:  teacher.TenantID(),
			StudentID: e.StudentID,
			TeacherID: teacher.Profile.ID,
			Date:      date,
			Status:    status,
		})
	}

	result := &dto.AttendanceResult{}
	err = s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		students, err := roster(ctx, tx, teacher.TenantID(), req.Form, s.now(), s.maxForm)
		if err != nil {
			return err
		}
		onRoster := make(map[int64]bool, len(students))
		for _, st := range students {
			onRoster[st.ID] = true
		}

		for _, rec := range records {
			if !onRoster[rec.StudentID] {
				return apperrors.NewResourceNotFoundError(fmt.Sprintf("student %d is not on the Form %d roster", rec.StudentID, req.Form))
			}
			created, err := tx.Attendance.Upsert(ctx, rec)
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("schoolID", teacher.TenantID()).
		Int("form", req.Form).
		Str("date", req.Date).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Attendance recorded")
	return result, nil
}

func (s *attendanceService) Sheet(ctx context.Context, schoolID int64, date time.Time, form int) ([]models.RosterEntry, error) {
	store := s.db.Store()

	students, err := roster(ctx, store, schoolID, form, s.now(), s.maxForm)
	if err != nil {
		return nil, err
	}
	statuses, err := store.Attendance.StatusesOn(ctx, schoolID, date)
	if err != nil {
		return nil, err
	}

	entries := make([]models.RosterEntry, 0, len(students))
	for _, st := range students {
		entries = append(entries, models.RosterEntry{Student: st, Status: statuses[st.ID]})
	}
	return entries, nil
}

func (s *attendanceService) History(ctx context.Context, schoolID, studentID int64) ([]*models.Attendance, error) {
	return s.db.Store().Attendance.ListByStudent(ctx, schoolID, studentID)
}
