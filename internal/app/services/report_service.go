package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/reportcard"
)

// ReportService builds PDF report cards
type ReportService interface {
	// ReportCard renders the card of studentID for term if the caller may see it
	ReportCard(ctx context.Context, id models.Identity, studentID int64, term string) (*reportcard.Card, []byte, error)
}

type reportService struct {
	db     repositories.Transactor
	access *studentAccess
	now    Clock
	logger zerolog.Logger
}

// NewReportService creates a new ReportService
func NewReportService(db repositories.Transactor, maxForm int, logger zerolog.Logger) ReportService {
	return &reportService{
		db:     db,
		access: &studentAccess{db: db, maxForm: maxForm},
		now:    time.Now,
		logger: logger,
	}
}

func (s *reportService) ReportCard(ctx context.Context, id models.Identity, studentID int64, term string) (*reportcard.Card, []byte, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil, apperrors.NewValidationError("term cannot be empty")
	}

	now := s.now()
	student, err := s.access.visibleStudent(ctx, id, studentID, now)
	if err != nil {
		return nil, nil, err
	}

	store := s.db.Store()
	grades, err := store.Grades.ListByStudentTerm(ctx, student.SchoolID, student.ID, term)
	if err != nil {
		return nil, nil, err
	}
	if len(grades) == 0 {
		return nil, nil, apperrors.ErrNoGradesForTerm
	}

	school, err := store.Schools.GetByID(ctx, student.SchoolID)
	if err != nil {
		return nil, nil, err
	}

	card := &reportcard.Card{
		SchoolName:      school.Name,
		StudentName:     student.FullName,
		AdmissionNumber: student.AdmissionNumber,
		Form:            student.Form,
		Term:            term,
		GeneratedAt:     now,
	}
	for _, g := range grades {
		card.Lines = append(card.Lines, reportcard.Line{Subject: g.SubjectName, Marks: g.Marks, Letter: string(g.Letter)})
	}

	pdf, err := reportcard.Render(card)
	if err != nil {
		s.logger.Error().Err(err).Int64("studentID", student.ID).Str("term", term).Msg("Report card rendering failed")
		return nil, nil, err
	}
	return card, pdf, nil
}
