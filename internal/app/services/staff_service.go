package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/repositories"
)

// StaffService manages teacher and parent accounts of a school
type StaffService interface {
	CreateTeacher(ctx context.Context, schoolID int64, req *dto.CreateAccountRequest) (*models.Teacher, error)
	ListTeachers(ctx context.Context, schoolID int64) ([]*models.Teacher, error)
	CreateParent(ctx context.Context, schoolID int64, req *dto.CreateAccountRequest) (*models.Parent, error)
	ListParents(ctx context.Context, schoolID int64) ([]*models.Parent, error)
}

type staffService struct {
	db     repositories.Transactor
	logger zerolog.Logger
}

// NewStaffService creates a new StaffService
func NewStaffService(db repositories.Transactor, logger zerolog.Logger) StaffService {
	return &staffService{db: db, logger: logger}
}

func (s *staffService) CreateTeacher(ctx context.Context, schoolID int64, req *dto.CreateAccountRequest) (*models.Teacher, error) {
	fullName, err := requireName("full name", req.FullName)
	if err != nil {
		return nil, err
	}

	var teacher *models.Teacher
	err = s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		user, err := createAccount(ctx, tx, models.RoleTeacher, schoolID, req.Username, req.Password)
		if err != nil {
			return err
		}
		teacher = &models.Teacher{UserID: user.ID, SchoolID: schoolID, FullName: fullName, Username: user.Username}
		if err := tx.Teachers.Create(ctx, teacher); err != nil {
			return fmt.Errorf("teacher creation error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("schoolID", schoolID).Int64("teacherID", teacher.ID).Msg("Teacher account created")
	return teacher, nil
}

func (s *staffService) ListTeachers(ctx context.Context, schoolID int64) ([]*models.Teacher, error) {
	return s.db.Store().Teachers.ListBySchool(ctx, schoolID)
}

func (s *staffService) CreateParent(ctx context.Context, schoolID int64, req *dto.CreateAccountRequest) (*models.Parent, error) {
	fullName, err := requireName("full name", req.FullName)
	if err != nil {
		return nil, err
	}

	var parent *models.Parent
	err = s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		user, err := createAccount(ctx, tx, models.RoleParent, schoolID, req.Username, req.Password)
		if err != nil {
			return err
		}
		parent = &models.Parent{UserID: user.ID, SchoolID: schoolID, FullName: fullName, Username: user.Username}
		if err := tx.Parents.Create(ctx, parent); err != nil {
			return fmt.Errorf("parent creation error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("schoolID", schoolID).Int64("parentID", parent.ID).Msg("Parent account created")
	return parent, nil
}

func (s *staffService) ListParents(ctx context.Context, schoolID int64) ([]*models.Parent, error) {
	return s.db.Store().Parents.ListBySchool(ctx, schoolID)
}
