package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

const (
	defaultRecentGrades = 20
	maxRecentGrades     = 100
)

// GradeService records and reads grades
type GradeService interface {
	// Submit upserts the grade of (student, subject, term) for the teacher's school
	Submit(ctx context.Context, teacher *models.TeacherIdentity, req *dto.SubmitGradeRequest) (*models.Grade, bool, error)
	Recent(ctx context.Context, teacher *models.TeacherIdentity, limit int) ([]*models.Grade, error)
	// ByTerm returns a student's grades grouped by term
	ByTerm(ctx context.Context, schoolID, studentID int64) ([]models.TermGrades, error)
}

type gradeService struct {
	db     repositories.Transactor
	logger zerolog.Logger
}

// NewGradeService creates a new GradeService
func NewGradeService(db repositories.Transactor, logger zerolog.Logger) GradeService {
	return &gradeService{db: db, logger: logger}
}

func (s *gradeService) Submit(ctx context.Context, teacher *models.TeacherIdentity, req *dto.SubmitGradeRequest) (*models.Grade, bool, error) {
	if req.Marks == nil || *req.Marks < 0 || *req.Marks > 100 {
		return nil, false, apperrors.NewValidationError("marks must be between 0 and 100")
	}
	term, err := requireName("term", req.Term)
	if err != nil {
		return nil, false, err
	}
	schoolID := teacher.TenantID()

	var (
		grade   *models.Grade
		created bool
	)
	err = s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		student, err := tx.Students.GetByAdmissionNumber(ctx, schoolID, strings.TrimSpace(req.AdmissionNumber))
		if err != nil {
			return err
		}
		subject, err := tx.Subjects.GetByID(ctx, schoolID, req.SubjectID)
		if err != nil {
			return err
		}

		grade = &models.Grade{
			SchoolID:  schoolID,
			StudentID: student.ID,
			SubjectID: subject.ID,
			TeacherID: teacher.Profile.ID,
			Term:      term,
			Marks:     *req.Marks,
			Letter:    models.LetterFor(*req.Marks),
		}
		created, err = tx.Grades.Upsert(ctx, grade)
		if err != nil {
			return err
		}
		grade.SubjectName, grade.StudentName = subject.Name, student.FullName
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info().
		Int64("schoolID", schoolID).
		Int64("studentID", grade.StudentID).
		Int64("subjectID", grade.SubjectID).
		Str("term", term).
		Bool("created", created).
		Msg("Grade recorded")
	return grade, created, nil
}

func (s *gradeService) Recent(ctx context.Context, teacher *models.TeacherIdentity, limit int) ([]*models.Grade, error) {
	if limit <= 0 {
		limit = defaultRecentGrades
	}
	if limit > maxRecentGrades {
		limit = maxRecentGrades
	}
	return s.db.Store().Grades.RecentByTeacher(ctx, teacher.TenantID(), teacher.Profile.ID, limit)
}

func (s *gradeService) ByTerm(ctx context.Context, schoolID, studentID int64) ([]models.TermGrades, error) {
	grades, err := s.db.Store().Grades.ListByStudent(ctx, schoolID, studentID)
	if err != nil {
		return nil, err
	}
	return groupByTerm(grades), nil
}
