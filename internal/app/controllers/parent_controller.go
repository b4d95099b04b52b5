package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/middleware"
)

// ParentController handles linking and viewing children
type ParentController struct {
	linkService services.LinkService
	logger      zerolog.Logger
}

// NewParentController creates a new ParentController
func NewParentController(linkService services.LinkService, logger zerolog.Logger) *ParentController {
	return &ParentController{linkService: linkService, logger: logger}
}

// Link redeems a link code
// @Summary Link a child
// @Description Redeems a code issued by the school. Unknown, used and foreign codes fail the same way.
// @Tags parent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RedeemLinkCodeRequest true "Link code"
// @Success 200 {object} dto.APIResponse{data=models.Student}
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired code"
// @Router /parent/link [post]
func (c *ParentController) Link(ctx *gin.Context) {
	parent, ok := caller[*models.ParentIdentity](ctx)
	if !ok {
		return
	}

	var req dto.RedeemLinkCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	student, err := c.linkService.Redeem(ctx.Request.Context(), parent, req.Code)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("parentID", parent.Profile.ID).Int64("studentID", student.ID).Msg("Parent linked to student")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// Children lists the linked children
// @Summary My children
// @Tags parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Student}
// @Router /parent/children [get]
func (c *ParentController) Children(ctx *gin.Context) {
	parent, ok := caller[*models.ParentIdentity](ctx)
	if !ok {
		return
	}
	children, err := c.linkService.Children(ctx.Request.Context(), parent)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(children))
}

// ChildGrades returns a linked child's grades grouped by term
// @Summary Child grades
// @Tags parent
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]models.TermGrades}
// @Failure 404 {object} dto.ErrorResponse "Not a linked child"
// @Router /parent/children/{id}/grades [get]
func (c *ParentController) ChildGrades(ctx *gin.Context) {
	parent, ok := caller[*models.ParentIdentity](ctx)
	if !ok {
		return
	}
	studentID, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	terms, err := c.linkService.ChildGrades(ctx.Request.Context(), parent, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(terms))
}
