package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/validation"
)

// SchoolService manages tenants
type SchoolService interface {
	// CreateSchool registers a school together with its first admin
	CreateSchool(ctx context.Context, req *dto.CreateSchoolRequest) (*dto.CreateSchoolResponse, error)
	ListSchools(ctx context.Context) ([]*models.SchoolSummary, error)
	// PublicSchools lists names and codes for the login picker
	PublicSchools(ctx context.Context) ([]dto.SchoolOption, error)
	Dashboard(ctx context.Context, schoolID int64) (*models.SchoolStats, error)
}

type schoolService struct {
	db     repositories.Transactor
	logger zerolog.Logger
}

// NewSchoolService creates a new school service instance
func NewSchoolService(db repositories.Transactor, logger zerolog.Logger) SchoolService {
	return &schoolService{db: db, logger: logger}
}

func validateSchoolCode(code string) error {
	if !validation.ValidSchoolCode(code) {
		return apperrors.NewValidationError("school code must be 3-20 letters or digits, optionally followed by @suffix, e.g. GHS@1")
	}
	return nil
}

func (s *schoolService) CreateSchool(ctx context.Context, req *dto.CreateSchoolRequest) (*dto.CreateSchoolResponse, error) {
	name, err := requireName("school name", req.Name)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.SchoolCode)
	if err := validateSchoolCode(code); err != nil {
		return nil, err
	}
	adminName := strings.TrimSpace(req.AdminFullName)
	if adminName == "" {
		adminName = strings.TrimSpace(req.AdminUsername)
	}

	resp := &dto.CreateSchoolResponse{}
	err = s.db.InTx(ctx, func(ctx context.Context, tx *repositories.Store) error {
		school := &models.School{Name: name, SchoolCode: code}
		if err := tx.Schools.Create(ctx, school); err != nil {
			return err
		}

		admin, err := createAccount(ctx, tx, models.RoleSchoolAdmin, school.ID, req.AdminUsername, req.AdminPassword)
		if err != nil {
			return err
		}

		if err := tx.SchoolAdmins.Create(ctx, &models.SchoolAdmin{
			UserID:   admin.ID,
			SchoolID: school.ID,
			FullName: adminName,
		}); err != nil {
			return fmt.Errorf("school admin creation error: %w", err)
		}

		resp.School, resp.Admin = school, admin
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("schoolID", resp.School.ID).Str("schoolCode", code).Msg("School registered")
	return resp, nil
}

func (s *schoolService) ListSchools(ctx context.Context) ([]*models.SchoolSummary, error) {
	return s.db.Store().Schools.List(ctx)
}

func (s *schoolService) PublicSchools(ctx context.Context) ([]dto.SchoolOption, error) {
	schools, err := s.db.Store().Schools.List(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]dto.SchoolOption, 0, len(schools))
	for _, sc := range schools {
		options = append(options, dto.SchoolOption{Name: sc.Name, SchoolCode: sc.SchoolCode})
	}
	return options, nil
}

func (s *schoolService) Dashboard(ctx context.Context, schoolID int64) (*models.SchoolStats, error) {
	return s.db.Store().Schools.Stats(ctx, schoolID)
}
