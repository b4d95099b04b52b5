package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
	"github.com/yigit/schoolbook/internal/pkg/auth"
)

// AuthService handles authentication operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// Identify loads the caller behind a token subject
	Identify(ctx context.Context, userID int64) (models.Identity, error)
}

type authService struct {
	db         repositories.Transactor
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(db repositories.Transactor, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	return &authService{
		db:         db,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login checks credentials. Every failure looks the same to the caller.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	store := s.db.Store()

	user, err := store.Users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Debug().Str("username", user.Username).Msg("Password mismatch")
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Role.TenantScoped() {
		code := strings.TrimSpace(req.SchoolCode)
		if code == "" || user.SchoolID == nil {
			return nil, apperrors.ErrInvalidCredentials
		}
		school, err := store.Schools.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, apperrors.ErrSchoolNotFound) {
				return nil, apperrors.ErrInvalidCredentials
			}
			return nil, fmt.Errorf("error loading school: %w", err)
		}
		if school.ID != *user.SchoolID {
			return nil, apperrors.ErrInvalidCredentials
		}
	}

	identity, err := s.Identify(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, expiresIn, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(expiresIn),
		},
		Identity: dto.NewIdentityResponse(identity),
	}, nil
}

func (s *authService) Identify(ctx context.Context, userID int64) (models.Identity, error) {
	store := s.db.Store()

	user, err := store.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}

	var identity models.Identity
	switch user.Role {
	case models.RoleSuperAdmin:
		identity = &models.SuperAdminIdentity{User: user}
	case models.RoleSchoolAdmin:
		var p *models.SchoolAdmin
		if p, err = store.SchoolAdmins.GetByUserID(ctx, user.ID); err == nil {
			identity = &models.SchoolAdminIdentity{User: user, Profile: p}
		}
	case models.RoleTeacher:
		var p *models.Teacher
		if p, err = store.Teachers.GetByUserID(ctx, user.ID); err == nil {
			identity = &models.TeacherIdentity{User: user, Profile: p}
		}
	case models.RoleStudent:
		var p *models.Student
		if p, err = store.Students.GetByUserID(ctx, user.ID); err == nil {
			identity = &models.StudentIdentity{User: user, Profile: p}
		}
	case models.RoleParent:
		var p *models.Parent
		if p, err = store.Parents.GetByUserID(ctx, user.ID); err == nil {
			identity = &models.ParentIdentity{User: user, Profile: p}
		}
	default:
		err = fmt.Errorf("unknown role %q", user.Role)
	}

	if err != nil {
		if !apperrors.Is(err, apperrors.ErrUserNotFound, apperrors.ErrStudentNotFound) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		s.logger.Error().Err(err).Int64("userID", user.ID).Str("role", string(user.Role)).Msg("Account has no usable profile")
		return nil, apperrors.ErrTokenInvalid
	}
	return identity, nil
}
