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

// StudentService admits and lists students. Forms are derived on every read.
type StudentService interface {
	// Admit creates a student with the next admission number of the school
	Admit(ctx context.Context, schoolID int64, req *dto.CreateStudentRequest) (*models.Student, error)
	// List returns a page of students; form 0 means every form
	List(ctx context.Context, schoolID int64, form, page, pageSize int) ([]*models.Student, int, error)
	// Roster returns every student currently in form
	Roster(ctx context.Context, schoolID int64, form int) ([]*models.Student, error)
}

type studentService struct {
	db      repositories.Transactor
	maxForm int
	now     Clock
	logger  zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(db repositories.Transactor, maxForm int, logger zerolog.Logger) StudentService {
	return &studentService{db: db, maxForm: maxForm, now: time.Now, logger: logger}
}

// formFilter resolves form into an admission year range
func formFilter(schoolID int64, form int, now time.Time, maxForm int) (repositories.StudentFilter, error) {
	filter := repositories.StudentFilter{SchoolID: schoolID}
	if form == 0 {
		return filter, nil
	}
	from, to, ok := models.AdmissionYearsForForm(form, now.Year(), maxForm)
	if !ok {
		return filter, apperrors.NewValidationError(fmt.Sprintf("form must be between 1 and %d", maxForm))
	}
	filter.YearFrom, filter.YearTo = from, to
	return filter, nil
}

func (s *studentService) Admit(ctx context.Context, schoolID int64, req *dto.CreateStudentRequest) (*models.Student, error) {
	fullName, err := requireName("full name", req.FullName)
	if err != nil {
		return nil, err
	}

	year := req.AdmissionYear
	if year == 0 {
		year = s.now().Year()
	}
	if year < models.MinAdmissionYear || year > models.MaxAdmissionYear {
		return nil, apperrors.NewValidationError("admission year must be between 2000 and 2100")
	}

	var student *models.Student
	err = s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		school, err := tx.Schools.GetByID(ctx, schoolID)
		if err != nil {
			return err
		}

		seq, err := tx.Schools.LockSequence(ctx, schoolID)
		if err != nil {
			return err
		}

		user, err := createAccount(ctx, tx, models.RoleStudent, schoolID, req.Username, req.Password)
		if err != nil {
			return err
		}

		student = &models.Student{
			UserID:          user.ID,
			SchoolID:        schoolID,
			FullName:        fullName,
			AdmissionYear:   year,
			AdmissionNumber: models.AdmissionNumber(school.CodeBase(), seq+1, year),
			Username:        user.Username,
		}
		if err := tx.Students.Create(ctx, student); err != nil {
			return fmt.Errorf("student creation error: %w", err)
		}

		return tx.Schools.SetSequence(ctx, schoolID, seq+1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("schoolID", schoolID).
		Str("admissionNumber", student.AdmissionNumber).
		Msg("Student admitted")
	return student.WithForm(s.now(), s.maxForm), nil
}

func (s *studentService) List(ctx context.Context, schoolID int64, form, page, pageSize int) ([]*models.Student, int, error) {
	now := s.now()
	filter, err := formFilter(schoolID, form, now, s.maxForm)
	if err != nil {
		return nil, 0, err
	}
	filter.Offset, filter.Limit = helpers.CalculateOffsetLimit(page, pageSize)

	students, total, err := s.db.Store().Students.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return withForms(students, now, s.maxForm), total, nil
}

func (s *studentService) Roster(ctx context.Context, schoolID int64, form int) ([]*models.Student, error) {
	if form == 0 {
		return nil, apperrors.NewValidationError("form is required")
	}
	return roster(ctx, s.db.Store(), schoolID, form, s.now(), s.maxForm)
}

// roster lists the students whose derived form equals form
func roster(ctx context.Context, store *repositories.Store, schoolID int64, form int, now time.Time, maxForm int) ([]*models.Student, error) {
	filter, err := formFilter(schoolID, form, now, maxForm)
	if err != nil {
		return nil, err
	}
	students, _, err := store.Students.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return withForms(students, now, maxForm), nil
}
