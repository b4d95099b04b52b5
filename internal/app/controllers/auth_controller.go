package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService   services.AuthService
	schoolService services.SchoolService
	logger        zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, schoolService services.SchoolService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService:   authService,
		schoolService: schoolService,
		logger:        logger,
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user. Everyone except the super admin must send the school code of their school.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 429 {object} dto.ErrorResponse "Too many login attempts"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		bindError(ctx, err)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Me returns the authenticated caller
// @Summary Current identity
// @Description Returns the role, school and profile of the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.IdentityResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	identity, ok := middleware.GetIdentity(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required"),
		))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewIdentityResponse(identity)))
}

// PublicSchools lists the schools users can log in to
// @Summary List schools for login
// @Description Names and codes of all schools, for the login school picker
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.SchoolOption}
// @Router /schools [get]
func (c *AuthController) PublicSchools(ctx *gin.Context) {
	schools, err := c.schoolService.PublicSchools(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(schools))
}
