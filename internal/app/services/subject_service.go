package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
)

// SubjectService manages the subjects of a school
type SubjectService interface {
	CreateSubject(ctx context.Context, schoolID int64, name string) (*models.Subject, error)
	ListSubjects(ctx context.Context, schoolID int64) ([]*models.Subject, error)
}

type subjectService struct {
	db     repositories.Transactor
	logger zerolog.Logger
}

// NewSubjectService creates a new SubjectService
func NewSubjectService(db repositories.Transactor, logger zerolog.Logger) SubjectService {
	return &subjectService{db: db, logger: logger}
}

// CreateSubject adds a subject; names are unique per school ignoring case
func (s *subjectService) CreateSubject(ctx context.Context, schoolID int64, name string) (*models.Subject, error) {
	name, err := requireName("subject name", name)
	if err != nil {
		return nil, err
	}

	subject := &models.Subject{SchoolID: schoolID, Name: name}
	if err := s.db.Store().Subjects.Create(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *subjectService) ListSubjects(ctx context.Context, schoolID int64) ([]*models.Subject, error) {
	return s.db.Store().Subjects.ListBySchool(ctx, schoolID)
}
