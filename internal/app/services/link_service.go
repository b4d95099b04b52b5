package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

// LinkService issues and redeems parent link codes
type LinkService interface {
	// Issue creates a code for a student, deleting any previous one
	Issue(ctx context.Context, schoolID, studentID int64) (*dto.LinkCodeResponse, error)
	// Redeem links the parent to the code's student and spends the code
	Redeem(ctx context.Context, parent *models.ParentIdentity, code string) (*models.Student, error)
	Children(ctx context.Context, parent *models.ParentIdentity) ([]*models.Student, error)
	ChildGrades(ctx context.Context, parent *models.ParentIdentity, studentID int64) ([]models.TermGrades, error)
}

type linkService struct {
	db      repositories.Transactor
	maxForm int
	now     Clock
	newCode func() string
	logger  zerolog.Logger
}

// NewLinkService creates a new LinkService
func NewLinkService(db repositories.Transactor, maxForm int, logger zerolog.Logger) LinkService {
	return &linkService{
		db:      db,
		maxForm: maxForm,
		now:     time.Now,
		newCode: uuid.NewString,
		logger:  logger,
	}
}

func (s *linkService) Issue(ctx context.Context, schoolID, studentID int64) (*dto.LinkCodeResponse, error) {
	var resp *dto.LinkCodeResponse
	err := s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		student, err := tx.Students.GetByID(ctx, schoolID, studentID)
		if err != nil {
			return err
		}

		code := &models.StudentLinkCode{Code: s.newCode(), StudentID: student.ID}
		if err := tx.LinkCodes.Replace(ctx, code); err != nil {
			return err
		}

		resp = &dto.LinkCodeResponse{Code: code.Code, StudentID: student.ID, AdmissionNumber: student.AdmissionNumber}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("schoolID", schoolID).Int64("studentID", studentID).Msg("Link code issued")
	return resp, nil
}

// Redeem reports unknown, spent and other-school codes identically
func (s *linkService) Redeem(ctx context.Context, parent *models.ParentIdentity, code string) (*models.Student, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.ErrInvalidLinkCode
	}

	var student *models.Student
	err := s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		lc, err := tx.LinkCodes.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if lc.IsUsed {
			return apperrors.ErrInvalidLinkCode
		}

		student, err = tx.Students.GetByID(ctx, parent.TenantID(), lc.StudentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrStudentNotFound) {
				s.logger.Warn().
					Int64("parentID", parent.Profile.ID).
					Int64("studentID", lc.StudentID).
					Msg("Cross-school link code redemption rejected")
				return apperrors.ErrInvalidLinkCode
			}
			return err
		}

		if err := tx.Parents.LinkStudent(ctx, parent.Profile.ID, student.ID); err != nil {
			return err
		}
		return tx.LinkCodes.MarkUsed(ctx, lc.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("parentID", parent.Profile.ID).Int64("studentID", student.ID).Msg("Parent linked to student")
	return student.WithForm(s.now(), s.maxForm), nil
}

func (s *linkService) Children(ctx context.Context, parent *models.ParentIdentity) ([]*models.Student, error) {
	children, err := s.db.Store().Parents.Children(ctx, parent.Profile.ID)
	if err != nil {
		return nil, err
	}
	return withForms(children, s.now(), s.maxForm), nil
}

func (s *linkService) ChildGrades(ctx context.Context, parent *models.ParentIdentity, studentID int64) ([]models.TermGrades, error) {
	store := s.db.Store()

	linked, err := store.Parents.IsLinked(ctx, parent.Profile.ID, studentID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, apperrors.ErrStudentNotFound
	}

	grades, err := store.Grades.ListByStudent(ctx, parent.TenantID(), studentID)
	if err != nil {
		return nil, err
	}
	return groupByTerm(grades), nil
}
